package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"modelops/internal/lifecycle"
)

const (
	ColorPrimary = "86"  // cyan, headers and selection
	ColorAccent  = "205" // pink, active highlights
	ColorError   = "196" // red
	ColorWarn    = "208" // orange
	ColorMuted   = "241" // gray
	ColorText    = "252" // light gray
	ColorFaint   = "243"
	ColorOK      = "42" // green
)

// Styles holds the shared lipgloss styles for the console. Built once in
// NewAppModel and passed down to every page.
type Styles struct {
	Header      lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Warn        lipgloss.Style
	OK          lipgloss.Style
	Box         lipgloss.Style
	FocusedBox  lipgloss.Style
	StatusBar   lipgloss.Style
	ResultModel lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimary)).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccent)).
			Bold(true).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimary)).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorFaint)),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorText)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)),
		Warn: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarn)),
		OK: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorOK)),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorMuted)).
			Padding(0, 1),
		FocusedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorAccent)).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorFaint)),
		ResultModel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccent)).
			Bold(true),
	}
}

// StatusBadge renders a model status with its conventional color.
func (s Styles) StatusBadge(st lifecycle.Status) string {
	switch st {
	case lifecycle.StatusDeployed, lifecycle.StatusAvailable, lifecycle.StatusCompleted:
		return s.OK.Render(string(st))
	case lifecycle.StatusFailed:
		return s.Error.Render(string(st))
	case lifecycle.StatusInProgress, lifecycle.StatusInit, lifecycle.StatusDeleting, lifecycle.StatusRunning:
		return s.Warn.Render(string(st))
	case lifecycle.StatusUnknown:
		return s.Muted.Render(string(st))
	default:
		return s.Muted.Render(string(st))
	}
}

// NewCompactListDelegate returns a single-line list delegate with the
// console's selection colors.
func NewCompactListDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(lipgloss.Color(ColorAccent)).
		BorderLeftForeground(lipgloss.Color(ColorAccent))
	d.Styles.NormalTitle = d.Styles.NormalTitle.
		Foreground(lipgloss.Color(ColorText))
	return d
}
