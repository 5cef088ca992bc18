package ui

import tea "github.com/charmbracelet/bubbletea"

// View is the contract every console page implements. Pages are owned by
// AppModel, which routes messages to the active page and stitches the
// rendered output together with the header and keybind help.
type View interface {
	// Init returns the command to run when the page first becomes active.
	Init() tea.Cmd

	// Update handles a message and returns any follow-up command.
	Update(msg tea.Msg) tea.Cmd

	// View renders the page for the given content area.
	View(width, height int) string

	// EditingText reports whether the page currently captures raw text
	// input. While true, global single-key bindings and the leader key are
	// suspended so typing works.
	EditingText() bool
}

// pageState tracks where a page is in its load cycle.
type pageState int

const (
	pageIdle pageState = iota
	pageLoading
	pageReady
	pageError
)
