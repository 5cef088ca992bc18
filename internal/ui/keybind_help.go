package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// keyMap adapts the keybind registry to help.KeyMap so bubbles/help can
// render the hint line for the pending leader sequence.
type keyMap struct {
	registry *KeybindRegistry
	handler  *KeyHandler
	mode     AppMode
}

func (km keyMap) ShortHelp() []key.Binding {
	if km.registry == nil {
		return nil
	}
	currentSeq := ""
	if km.handler != nil && len(km.handler.Buffer) > 0 {
		currentSeq = strings.Join(km.handler.Buffer, " ")
	}
	hints := km.registry.LeaderHints(currentSeq, km.mode)
	if len(hints) == 0 {
		return nil
	}

	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bindings := make([]key.Binding, 0, len(keys)+1)
	for _, k := range keys {
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, hints[k]),
		))
	}
	bindings = append(bindings, key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	))
	return bindings
}

func (km keyMap) FullHelp() [][]key.Binding {
	short := km.ShortHelp()
	if len(short) == 0 {
		return nil
	}
	return [][]key.Binding{short}
}

// RenderKeybindHelp renders the leader-key hint box shown while a sequence
// is pending. Returns "" when there is nothing to show.
func RenderKeybindHelp(h *KeyHandler, mode AppMode, width int) string {
	if h == nil || !h.LeaderWaiting {
		return ""
	}
	km := keyMap{registry: h.Registry, handler: h, mode: mode}
	if len(km.ShortHelp()) == 0 {
		return ""
	}

	hm := help.New()
	hm.Width = width
	line := hm.View(km)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1)
	return box.Render(line)
}
