package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelops/internal/lifecycle"
	"modelops/internal/sse"
	"modelops/internal/store"
)

func streamResult(model, response string) sse.Event {
	return sse.Event{
		Kind:   sse.KindResult,
		Model:  model,
		Result: sse.Result{Status: sse.ResultSuccess, Response: response},
	}
}

func streamComplete() sse.Event {
	return sse.Event{Kind: sse.KindComplete}
}

func newTestPlayground(t *testing.T) (*PlaygroundView, *lifecycle.Registry) {
	t.Helper()
	st, err := store.New(t.TempDir(), store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := lifecycle.NewRegistry()
	v := NewPlaygroundView(NewStyles(), reg, st)
	v.SetCatalog(testCatalog())
	return v, reg
}

func TestEligibleModelsFollowRegistry(t *testing.T) {
	v, reg := newTestPlayground(t)

	keys := func() []string {
		var out []string
		for _, d := range v.eligibleModels() {
			out = append(out, d.Key)
		}
		return out
	}

	// Only the always-available model before anything is deployed.
	assert.Equal(t, []string{"claude"}, keys())

	reg.Set("qwen", lifecycle.ModelStatus{Status: lifecycle.StatusDeployed})
	assert.Equal(t, []string{"claude", "qwen"}, keys())

	reg.Set("qwen", lifecycle.ModelStatus{Status: lifecycle.StatusDeleting})
	assert.Equal(t, []string{"claude"}, keys())
}

func TestSubmitRequiresPrompt(t *testing.T) {
	v, _ := newTestPlayground(t)

	cmd := v.submit()
	assert.Nil(t, cmd)
	assert.Equal(t, "prompt is required", v.formErr)
}

func TestSubmitDefaultsToAllEligibleModels(t *testing.T) {
	v, reg := newTestPlayground(t)
	reg.Set("qwen", lifecycle.ModelStatus{Status: lifecycle.StatusDeployed})
	v.prompt.SetValue("hi there")

	cmd := v.submit()
	require.NotNil(t, cmd)

	// The batch contains the spinner tick and the request message.
	found := false
	collectMsgs(cmd, func(msg tea.Msg) {
		if m, ok := msg.(submitInferenceMsg); ok {
			found = true
			assert.Equal(t, []string{"claude", "qwen"}, m.Req.Models)
			assert.Equal(t, "hi there", m.Req.Prompt)
		}
	})
	assert.True(t, found)
}

func TestSubmitIgnoredWhileInferring(t *testing.T) {
	v, _ := newTestPlayground(t)
	v.prompt.SetValue("hi")
	v.BeginStream([]string{"claude"}, func() {})

	assert.Nil(t, v.submit())
}

func TestLaterResultSupersedesEarlier(t *testing.T) {
	v, _ := newTestPlayground(t)
	v.BeginStream([]string{"claude"}, func() {})

	v.applyStreamEvent(streamResult("claude", "partial"))
	v.applyStreamEvent(streamResult("claude", "final"))

	assert.Equal(t, "final", v.results["claude"].Response)
	assert.Equal(t, []string{"claude"}, v.order)
}

func TestStreamErrorKeepsPartialResults(t *testing.T) {
	v, _ := newTestPlayground(t)
	v.BeginStream([]string{"claude", "qwen"}, func() {})

	v.applyStreamEvent(streamResult("claude", "partial"))
	v.applyStreamEvent(sse.Event{Kind: sse.KindError, Err: errors.New("stream ended before completion")})

	assert.False(t, v.inferring)
	assert.Error(t, v.streamErr)
	assert.Equal(t, "partial", v.results["claude"].Response)
}

func TestPromptSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)

	reg := lifecycle.NewRegistry()
	v := NewPlaygroundView(NewStyles(), reg, st)
	v.setFocus(focusPrompt)
	v.Update(keyPress("h"))
	v.Update(keyPress("i"))
	require.NoError(t, st.Close())

	st2, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })

	v2 := NewPlaygroundView(NewStyles(), reg, st2)
	assert.Equal(t, "hi", v2.prompt.Value())
}

func TestCompletedRunSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)

	reg := lifecycle.NewRegistry()
	v := NewPlaygroundView(NewStyles(), reg, st)
	v.BeginStream([]string{"claude"}, func() {})
	v.applyStreamEvent(streamResult("claude", "done"))
	v.applyStreamEvent(streamComplete())
	require.NoError(t, st.Close())

	st2, err := store.New(dir, store.WithDebounce(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })

	v2 := NewPlaygroundView(NewStyles(), reg, st2)
	assert.Equal(t, "done", v2.results["claude"].Response)
	assert.Equal(t, []string{"claude"}, v2.order)
}

func TestAbandonedRunIsNotPersisted(t *testing.T) {
	v, _ := newTestPlayground(t)
	v.BeginStream([]string{"claude"}, func() {})
	v.applyStreamEvent(streamResult("claude", "partial"))

	v.CancelStream()

	var run cachedRun
	assert.False(t, v.store.Get(store.NSPlayground, resultsKey, &run))
}

// collectMsgs runs a command, flattens batches, and hands every produced
// message to fn.
func collectMsgs(cmd tea.Cmd, fn func(tea.Msg)) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			collectMsgs(c, fn)
		}
		return
	}
	fn(msg)
}
