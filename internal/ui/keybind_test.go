package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMsg struct{ tag string }

func sendTest(tag string) tea.Cmd {
	return func() tea.Msg { return testMsg{tag: tag} }
}

func keyPress(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRegistryLookupNormalizesSpace(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("space 1", "hub", sendTest("hub"))

	cmd := reg.Lookup("SPC 1")
	require.NotNil(t, cmd)
	assert.Equal(t, testMsg{tag: "hub"}, cmd())
}

func TestRegistryHasPrefix(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC g m", "hub", sendTest("hub"))

	assert.True(t, reg.HasPrefix("SPC"))
	assert.True(t, reg.HasPrefix("SPC g"))
	assert.False(t, reg.HasPrefix("SPC g m"))
	assert.False(t, reg.HasPrefix("SPC x"))
}

func TestLeaderHintsSubmenuLabel(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC g m", "Model Hub", sendTest("hub"))
	reg.Bind("SPC g p", "Playground", sendTest("pg"))
	reg.Bind("SPC r", "Refresh statuses", sendTest("r"))

	hints := reg.LeaderHints("", ModeModelHub)
	assert.Equal(t, "Go to", hints["g"])
	assert.Equal(t, "Refresh statuses", hints["r"])

	sub := reg.LeaderHints("SPC g", ModeModelHub)
	assert.Equal(t, "Model Hub", sub["m"])
	assert.Equal(t, "Playground", sub["p"])
}

func TestLeaderHintsModeFilter(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC m d", "Deploy selected", sendTest("d"), ModeModelHub)
	reg.Bind("SPC q", "Quit", tea.Quit)

	hub := reg.LeaderHints("", ModeModelHub)
	assert.Contains(t, hub, "m")

	pg := reg.LeaderHints("", ModePlayground)
	assert.NotContains(t, pg, "m")
	assert.Contains(t, pg, "q")
}

func TestKeyHandlerRespectsModeFilter(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC m d", "Deploy selected", sendTest("d"), ModeModelHub)
	h := NewKeyHandler(reg)

	// On its own page the sequence dispatches.
	h.Handle(keyPress(" "), ModeModelHub)
	h.Handle(keyPress("m"), ModeModelHub)
	consumed, cmd := h.Handle(keyPress("d"), ModeModelHub)
	require.True(t, consumed)
	require.NotNil(t, cmd)

	// Elsewhere the sequence is swallowed but nothing runs.
	h.Handle(keyPress(" "), ModeStressTest)
	h.Handle(keyPress("m"), ModeStressTest)
	consumed, cmd = h.Handle(keyPress("d"), ModeStressTest)
	assert.True(t, consumed)
	assert.Nil(t, cmd)
	assert.False(t, h.LeaderWaiting)
}

func TestKeyHandlerLeaderSequence(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC 1", "hub", sendTest("hub"))
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyPress(" "), ModeModelHub)
	require.True(t, consumed)
	require.Nil(t, cmd)
	assert.True(t, h.LeaderWaiting)

	consumed, cmd = h.Handle(keyPress("1"), ModeModelHub)
	require.True(t, consumed)
	require.NotNil(t, cmd)
	assert.Equal(t, testMsg{tag: "hub"}, cmd())
	assert.False(t, h.LeaderWaiting)
}

func TestKeyHandlerStaysInLeaderModeForPrefix(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC g m", "hub", sendTest("hub"))
	h := NewKeyHandler(reg)

	h.Handle(keyPress(" "), ModeModelHub)
	consumed, cmd := h.Handle(keyPress("g"), ModeModelHub)
	require.True(t, consumed)
	require.Nil(t, cmd)
	assert.True(t, h.LeaderWaiting)

	_, cmd = h.Handle(keyPress("m"), ModeModelHub)
	require.NotNil(t, cmd)
}

func TestKeyHandlerEscCancelsLeader(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC 1", "hub", sendTest("hub"))
	h := NewKeyHandler(reg)

	h.Handle(keyPress(" "), ModeModelHub)
	consumed, cmd := h.Handle(tea.KeyMsg{Type: tea.KeyEsc}, ModeModelHub)
	assert.True(t, consumed)
	assert.Nil(t, cmd)
	assert.False(t, h.LeaderWaiting)
}

func TestKeyHandlerUnknownKeyExitsLeader(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC 1", "hub", sendTest("hub"))
	h := NewKeyHandler(reg)

	h.Handle(keyPress(" "), ModeModelHub)
	consumed, cmd := h.Handle(keyPress("z"), ModeModelHub)
	assert.True(t, consumed)
	assert.Nil(t, cmd)
	assert.False(t, h.LeaderWaiting)
}

func TestKeyHandlerPassesUnboundKeys(t *testing.T) {
	h := NewKeyHandler(NewKeybindRegistry())

	consumed, _ := h.Handle(keyPress("j"), ModeModelHub)
	assert.False(t, consumed)
}
