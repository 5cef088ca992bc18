package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"modelops/internal/jsonutil"
	"modelops/internal/session"
)

// stress form fields, in tab order.
const (
	fieldModel = iota
	fieldRequests
	fieldConcurrency
	fieldTokens
	fieldCount
)

// StressTestView drives load test sessions: a parameter form, live progress
// for the active session, and the session history. The session itself lives
// in the tracker; the page renders it and emits request messages.
type StressTestView struct {
	styles  Styles
	tracker *session.Tracker

	inputs [fieldCount]textinput.Model
	stream bool
	focus  int
	form   bool // true while the form captures text

	bar     progress.Model
	active  *session.Session
	formErr string
	notice  string
}

var _ View = (*StressTestView)(nil)

func NewStressTestView(styles Styles, tracker *session.Tracker) *StressTestView {
	v := &StressTestView{
		styles:  styles,
		tracker: tracker,
		bar:     progress.New(progress.WithDefaultGradient()),
		form:    true,
	}

	placeholders := [fieldCount]string{
		"model key",
		"requests per stage, e.g. 50,100",
		"concurrency per stage, e.g. 1,5",
		"input tokens (optional)",
	}
	for i := range v.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		v.inputs[i] = ti
	}
	v.inputs[fieldModel].Focus()

	if s, ok := tracker.Active(); ok {
		v.active = &s
	}
	return v
}

func (v *StressTestView) Init() tea.Cmd { return textinput.Blink }

func (v *StressTestView) EditingText() bool { return v.form }

// Resume shows a session that was still running when the console restarted.
func (v *StressTestView) Resume(s session.Session) {
	v.active = &s
	v.notice = "resumed session " + s.ID
}

// ReportableID returns the session a report can be fetched for: the active
// one once finished, otherwise the most recent finished session.
func (v *StressTestView) ReportableID() string {
	if v.active != nil && v.active.Done() {
		return v.active.ID
	}
	for _, s := range v.tracker.History() {
		if s.Done() {
			return s.ID
		}
	}
	return ""
}

func (v *StressTestView) ClearLocal() {
	v.active = nil
	v.notice = "history cleared"
}

func (v *StressTestView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.bar.Width = msg.Width - 10
		return nil

	case stressStartedMsg:
		if msg.Err != nil {
			v.formErr = "start failed: " + msg.Err.Error()
			return nil
		}
		v.formErr = ""
		v.notice = "session " + msg.Session.SessionID + " started"
		if s, ok := v.tracker.Active(); ok {
			v.active = &s
		}
		return nil

	case stressProgressMsg:
		if v.active != nil && v.active.ID == msg.Session.SessionID {
			v.active.Status = msg.Session.Status
			v.active.Progress = msg.Session.Progress
			v.active.Message = msg.Session.Message
			v.active.Results = msg.Session.Results
		}
		return nil

	case stressOrphanMsg:
		if msg.WasActive {
			v.active = nil
		}
		v.notice = "session " + msg.ID + " no longer exists"
		return nil

	case reportSavedMsg:
		switch {
		case msg.Err != nil:
			v.notice = "report: " + msg.Err.Error()
		case msg.Path != "":
			v.notice = "report written to " + msg.Path
		default:
			v.notice = "report archived on server"
		}
		return nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *StressTestView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if !v.form {
		switch msg.String() {
		case "i", "enter":
			v.form = true
			v.setFocus(v.focus)
		case "r":
			if id := v.ReportableID(); id != "" {
				return func() tea.Msg { return downloadReportRequestMsg{ID: id} }
			}
		case "w":
			if id := v.ReportableID(); id != "" {
				return func() tea.Msg { return saveReportRequestMsg{ID: id} }
			}
		case "z":
			if id := v.ReportableID(); id != "" {
				return func() tea.Msg { return downloadZipRequestMsg{ID: id} }
			}
		}
		return nil
	}

	switch msg.String() {
	case "esc":
		v.form = false
		v.inputs[v.focus].Blur()
		return nil
	case "tab", "down":
		v.setFocus((v.focus + 1) % fieldCount)
		return nil
	case "shift+tab", "up":
		v.setFocus((v.focus + fieldCount - 1) % fieldCount)
		return nil
	case "ctrl+t":
		v.stream = !v.stream
		return nil
	case "enter", "ctrl+s":
		return v.submit()
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return cmd
}

func (v *StressTestView) setFocus(i int) {
	v.inputs[v.focus].Blur()
	v.focus = i
	v.inputs[i].Focus()
}

// submit validates locally before anything goes on the wire. Mismatched
// stage lists never reach the backend.
func (v *StressTestView) submit() tea.Cmd {
	tokens := 0
	if raw := strings.TrimSpace(v.inputs[fieldTokens].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.formErr = "input tokens must be a number"
			return nil
		}
		tokens = n
	}

	p := session.Params{
		Model:       strings.TrimSpace(v.inputs[fieldModel].Value()),
		NumRequests: strings.TrimSpace(v.inputs[fieldRequests].Value()),
		Concurrency: strings.TrimSpace(v.inputs[fieldConcurrency].Value()),
		InputTokens: tokens,
		Stream:      v.stream,
	}
	if err := p.Validate(); err != nil {
		v.formErr = err.Error()
		return nil
	}
	if v.active != nil && !v.active.Done() {
		v.formErr = "a session is already running"
		return nil
	}

	v.formErr = ""
	return func() tea.Msg { return stressSubmitMsg{Params: p} }
}

func (v *StressTestView) View(width, height int) string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Stress Test") + "\n")
	labels := [fieldCount]string{"Model", "Requests", "Concurrency", "Tokens"}
	for i := range v.inputs {
		b.WriteString(v.styles.Label.Render(fmt.Sprintf("%12s ", labels[i])) + v.inputs[i].View() + "\n")
	}
	streamMark := "off"
	if v.stream {
		streamMark = "on"
	}
	b.WriteString(v.styles.Label.Render(fmt.Sprintf("%12s ", "Streaming")) + v.styles.Value.Render(streamMark) + "\n")
	if v.formErr != "" {
		b.WriteString(v.styles.Error.Render(v.formErr) + "\n")
	}

	if v.active != nil {
		s := v.active
		b.WriteString("\n" + v.styles.Label.Render("Session ") + v.styles.Value.Render(s.ID) +
			"  " + v.styles.StatusBadge(s.Status) + "\n")
		if !s.Done() {
			b.WriteString(v.bar.ViewAs(float64(s.Progress)/100) + "\n")
		}
		if s.Message != "" {
			b.WriteString(v.styles.Muted.Render(s.Message) + "\n")
		}
		b.WriteString(renderStages(v.styles, s.Results))
	}

	if hist := v.tracker.History(); len(hist) > 0 {
		b.WriteString("\n" + v.styles.Title.Render("History") + "\n")
		for i, s := range hist {
			if i >= 5 {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  … %d more", len(hist)-i)) + "\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %s  %s  %s  %d%%\n",
				s.StartedAt.Format("01-02 15:04"), s.Params.Model, v.styles.StatusBadge(s.Status), s.Progress))
		}
	}

	if v.notice != "" {
		b.WriteString("\n" + v.styles.Muted.Render(v.notice) + "\n")
	}
	hint := "tab next field · enter start · esc leave form"
	if !v.form {
		hint = "i edit form · r download report · z download raw results · w archive report"
	}
	b.WriteString("\n" + v.styles.Muted.Render(hint))
	return b.String()
}

// renderStages prints one line per completed stage from the results blob.
// The blob is backend-defined; stages may carry a name and an error message,
// and anything unparseable renders as a byte count.
func renderStages(styles Styles, raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var stages []map[string]interface{}
	if err := json.Unmarshal(raw, &stages); err != nil {
		return styles.Muted.Render(fmt.Sprintf("results: %d bytes", len(raw))) + "\n"
	}

	var b strings.Builder
	for i, stage := range stages {
		label := jsonutil.GetStringOr(stage, "name", fmt.Sprintf("stage %d", i+1))
		keys := make([]string, 0, len(stage))
		for k := range stage {
			if k == "name" || k == "error" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, stage[k]))
		}
		b.WriteString(styles.Value.Render(fmt.Sprintf("  %s: %s", label, strings.Join(parts, " "))) + "\n")
		if errText := jsonutil.GetString(stage, "error"); errText != "" {
			b.WriteString(styles.Error.Render("    "+errText) + "\n")
		}
	}
	return b.String()
}
