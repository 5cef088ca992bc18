package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelops/internal/api"
)

// launch page panes.
type launchPane int

const (
	panePresets launchPane = iota
	paneJobs
)

// LaunchView manages HyperPod cluster launches: preset selection, the job
// list, and per-job logs.
type LaunchView struct {
	styles Styles

	spinner spinner.Model
	state   pageState
	err     error

	presets []api.HyperPodPreset
	jobs    []api.HyperPodJob
	pane    launchPane
	cursor  [2]int

	logsJob string
	logs    string
}

var _ View = (*LaunchView)(nil)

func NewLaunchView(styles Styles) *LaunchView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimary))
	return &LaunchView{styles: styles, spinner: s, state: pageLoading}
}

func (v *LaunchView) Init() tea.Cmd {
	v.state = pageLoading
	return v.spinner.Tick
}

func (v *LaunchView) EditingText() bool { return false }

func (v *LaunchView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if v.state == pageLoading {
			var cmd tea.Cmd
			v.spinner, cmd = v.spinner.Update(msg)
			return cmd
		}
		return nil

	case hyperpodLoadedMsg:
		if msg.Err != nil {
			v.state = pageError
			v.err = msg.Err
			return nil
		}
		v.state = pageReady
		v.err = nil
		v.presets = msg.Presets
		v.jobs = msg.Jobs
		v.clampCursors()
		return nil

	case hyperpodJobsMsg:
		if msg.Err == nil {
			v.jobs = msg.Jobs
			v.clampCursors()
		}
		return nil

	case hyperpodLogsMsg:
		if msg.Err != nil {
			v.logsJob = msg.JobID
			v.logs = "logs unavailable: " + msg.Err.Error()
			return nil
		}
		v.logsJob = msg.JobID
		v.logs = msg.Logs
		return nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *LaunchView) clampCursors() {
	if v.cursor[panePresets] >= len(v.presets) {
		v.cursor[panePresets] = max(0, len(v.presets)-1)
	}
	if v.cursor[paneJobs] >= len(v.jobs) {
		v.cursor[paneJobs] = max(0, len(v.jobs)-1)
	}
}

func (v *LaunchView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.state != pageReady {
		return nil
	}
	switch msg.String() {
	case "tab":
		v.pane = (v.pane + 1) % 2
		return nil
	case "j", "down":
		limit := len(v.presets)
		if v.pane == paneJobs {
			limit = len(v.jobs)
		}
		if v.cursor[v.pane] < limit-1 {
			v.cursor[v.pane]++
		}
		return nil
	case "k", "up":
		if v.cursor[v.pane] > 0 {
			v.cursor[v.pane]--
		}
		return nil
	case "enter":
		if v.pane == panePresets && v.cursor[panePresets] < len(v.presets) {
			id := v.presets[v.cursor[panePresets]].ID
			return func() tea.Msg { return hyperpodDeployMsg{PresetID: id} }
		}
		return nil
	case "l":
		if v.pane == paneJobs && v.cursor[paneJobs] < len(v.jobs) {
			id := v.jobs[v.cursor[paneJobs]].ID
			return func() tea.Msg { return hyperpodLogsRequestMsg{JobID: id} }
		}
		return nil
	case "x":
		if v.pane == paneJobs && v.cursor[paneJobs] < len(v.jobs) {
			id := v.jobs[v.cursor[paneJobs]].ID
			return func() tea.Msg { return hyperpodDestroyMsg{JobID: id} }
		}
		return nil
	}
	return nil
}

func (v *LaunchView) View(width, height int) string {
	switch v.state {
	case pageLoading:
		return v.spinner.View() + " loading presets..."
	case pageError:
		return v.styles.Error.Render("launch data unavailable: " + v.err.Error())
	}

	var b strings.Builder
	b.WriteString(v.paneTitle("Presets", panePresets) + "\n")
	if len(v.presets) == 0 {
		b.WriteString(v.styles.Muted.Render("  none configured") + "\n")
	}
	for i, p := range v.presets {
		line := fmt.Sprintf("  %s  %s x%d", p.Name, p.InstanceType, p.NodeCount)
		if v.pane == panePresets && i == v.cursor[panePresets] {
			line = v.styles.ResultModel.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + v.paneTitle("Jobs", paneJobs) + "\n")
	if len(v.jobs) == 0 {
		b.WriteString(v.styles.Muted.Render("  no jobs") + "\n")
	}
	for i, j := range v.jobs {
		cursor := "  "
		if v.pane == paneJobs && i == v.cursor[paneJobs] {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s  %s  %s", cursor, j.ID, j.Preset, v.styles.StatusBadge(j.Status))
		if j.Message != "" {
			line += "  " + v.styles.Muted.Render(j.Message)
		}
		b.WriteString(line + "\n")
	}

	if v.logsJob != "" {
		b.WriteString("\n" + v.styles.Title.Render("Logs "+v.logsJob) + "\n")
		b.WriteString(v.styles.Muted.Render(tailLines(v.logs, 12)) + "\n")
	}

	b.WriteString("\n" + v.styles.Muted.Render("tab pane · enter launch · l logs · x destroy"))
	return b.String()
}

func (v *LaunchView) paneTitle(name string, p launchPane) string {
	if v.pane == p {
		return v.styles.Title.Render(name)
	}
	return v.styles.Label.Render(name)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
