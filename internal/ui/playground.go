package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelops/internal/api"
	"modelops/internal/lifecycle"
	"modelops/internal/sse"
	"modelops/internal/store"
)

const (
	promptKey  = "prompt"
	modelsKey  = "models"
	resultsKey = "results"
)

// cachedRun is the persisted shape of a finished inference run. Only runs
// that completed normally are written; partial output never survives a
// restart.
type cachedRun struct {
	Order   []string              `json:"order"`
	Results map[string]sse.Result `json:"results"`
}

// playground focus targets, cycled with tab.
type pgFocus int

const (
	focusModels pgFocus = iota
	focusPrompt
	focusAttach
)

// PlaygroundView sends one prompt to several models and renders their
// streamed responses side by side. Results for a model supersede earlier
// ones; a stream always ends the in-flight state exactly once.
type PlaygroundView struct {
	styles   Styles
	registry *lifecycle.Registry
	store    *store.Store

	catalog api.Catalog
	chosen  map[string]bool
	cursor  int

	prompt  textarea.Model
	attach  textinput.Model
	focus   pgFocus
	spinner spinner.Model

	inferring    bool
	cancelStream func()
	order        []string
	results      map[string]sse.Result
	streamErr    error
	formErr      string

	width  int
	height int
}

var _ View = (*PlaygroundView)(nil)

func NewPlaygroundView(styles Styles, reg *lifecycle.Registry, st *store.Store) *PlaygroundView {
	ta := textarea.New()
	ta.Placeholder = "Prompt..."
	ta.SetHeight(4)
	ta.CharLimit = 0

	ti := textinput.New()
	ti.Placeholder = "attachment path (optional)"
	ti.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	v := &PlaygroundView{
		styles:   styles,
		registry: reg,
		store:    st,
		chosen:   make(map[string]bool),
		prompt:   ta,
		attach:   ti,
		spinner:  sp,
		results:  make(map[string]sse.Result),
	}

	// Prompt and model choice survive restarts.
	var prompt string
	if st.Get(store.NSPlayground, promptKey, &prompt) {
		v.prompt.SetValue(prompt)
	}
	var models []string
	if st.Get(store.NSPlayground, modelsKey, &models) {
		for _, m := range models {
			v.chosen[m] = true
		}
	}
	var run cachedRun
	if st.Get(store.NSPlayground, resultsKey, &run) && len(run.Results) > 0 {
		v.order = run.Order
		v.results = run.Results
	}
	return v
}

func (v *PlaygroundView) Init() tea.Cmd {
	if v.inferring {
		return v.spinner.Tick
	}
	return nil
}

func (v *PlaygroundView) EditingText() bool {
	return v.focus == focusPrompt || v.focus == focusAttach
}

// SetCatalog installs the model catalog once the hub has loaded it.
func (v *PlaygroundView) SetCatalog(cat api.Catalog) {
	v.catalog = cat
}

// eligibleModels returns models that can take an inference request right
// now: always-available ones plus anything the registry reports deployed.
func (v *PlaygroundView) eligibleModels() []api.ModelDescriptor {
	var out []api.ModelDescriptor
	for _, d := range v.catalog.All() {
		if d.AlwaysAvailable {
			out = append(out, d)
			continue
		}
		if e, ok := v.registry.Get(d.Key); ok && e.Status == lifecycle.StatusDeployed {
			out = append(out, d)
		}
	}
	return out
}

// BeginStream marks the page in-flight and remembers how to abandon the
// stream. Called by AppModel before the connection is opened.
func (v *PlaygroundView) BeginStream(models []string, cancel func()) {
	v.inferring = true
	v.cancelStream = cancel
	v.streamErr = nil
	v.formErr = ""
	v.order = nil
	v.results = make(map[string]sse.Result)
	for _, m := range models {
		v.order = append(v.order, m)
		v.results[m] = sse.Result{Status: sse.ResultLoading}
	}
}

// FinishStream clears the in-flight state. Partial results stay visible for
// the session but only a normally completed run is persisted.
func (v *PlaygroundView) FinishStream(err error) {
	v.inferring = false
	v.streamErr = err
	if v.cancelStream != nil {
		v.cancelStream()
		v.cancelStream = nil
	}
	if err == nil && len(v.results) > 0 {
		v.store.Put(store.NSPlayground, resultsKey, cachedRun{Order: v.order, Results: v.results})
	}
}

// CancelStream abandons an in-flight stream, if any. An abandoned run is
// never persisted.
func (v *PlaygroundView) CancelStream() {
	if !v.inferring {
		return
	}
	v.inferring = false
	if v.cancelStream != nil {
		v.cancelStream()
		v.cancelStream = nil
	}
}

// ClearLocal drops the in-memory prompt, model choice and results after the
// store itself has been reset.
func (v *PlaygroundView) ClearLocal() {
	v.prompt.SetValue("")
	v.attach.SetValue("")
	v.chosen = make(map[string]bool)
	v.order = nil
	v.results = make(map[string]sse.Result)
	v.streamErr = nil
	v.formErr = ""
}

func (v *PlaygroundView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.prompt.SetWidth(msg.Width - 4)
		return nil

	case spinner.TickMsg:
		if v.inferring {
			var cmd tea.Cmd
			v.spinner, cmd = v.spinner.Update(msg)
			return cmd
		}
		return nil

	case streamEventMsg:
		v.applyStreamEvent(msg.Event)
		return nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *PlaygroundView) applyStreamEvent(ev sse.Event) {
	// Late events from an abandoned stream are dropped.
	if !v.inferring {
		return
	}
	switch ev.Kind {
	case sse.KindResult:
		if _, seen := v.results[ev.Model]; !seen {
			v.order = append(v.order, ev.Model)
		}
		v.results[ev.Model] = ev.Result
	case sse.KindComplete:
		v.FinishStream(nil)
	case sse.KindError:
		v.FinishStream(ev.Err)
	}
}

func (v *PlaygroundView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+s":
		return v.submit()
	case "tab":
		v.cycleFocus()
		return nil
	case "esc":
		if v.focus != focusModels {
			v.setFocus(focusModels)
			return nil
		}
	}

	switch v.focus {
	case focusPrompt:
		var cmd tea.Cmd
		v.prompt, cmd = v.prompt.Update(msg)
		v.store.Put(store.NSPlayground, promptKey, v.prompt.Value())
		return cmd
	case focusAttach:
		var cmd tea.Cmd
		v.attach, cmd = v.attach.Update(msg)
		return cmd
	}

	// Model picker.
	models := v.eligibleModels()
	switch msg.String() {
	case "j", "down":
		if v.cursor < len(models)-1 {
			v.cursor++
		}
	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
	case "enter":
		if v.cursor < len(models) {
			key := models[v.cursor].Key
			if v.chosen[key] {
				delete(v.chosen, key)
			} else {
				v.chosen[key] = true
			}
			v.persistModels()
		}
	case "i":
		v.setFocus(focusPrompt)
	}
	return nil
}

func (v *PlaygroundView) cycleFocus() {
	switch v.focus {
	case focusModels:
		v.setFocus(focusPrompt)
	case focusPrompt:
		v.setFocus(focusAttach)
	default:
		v.setFocus(focusModels)
	}
}

func (v *PlaygroundView) setFocus(f pgFocus) {
	v.focus = f
	v.prompt.Blur()
	v.attach.Blur()
	switch f {
	case focusPrompt:
		v.prompt.Focus()
	case focusAttach:
		v.attach.Focus()
	}
}

func (v *PlaygroundView) persistModels() {
	keys := make([]string, 0, len(v.chosen))
	for _, d := range v.catalog.All() {
		if v.chosen[d.Key] {
			keys = append(keys, d.Key)
		}
	}
	v.store.Put(store.NSPlayground, modelsKey, keys)
}

// submit validates the form and emits the inference request. Chosen models
// that are no longer eligible are silently dropped; with nothing chosen,
// every eligible model participates.
func (v *PlaygroundView) submit() tea.Cmd {
	if v.inferring {
		return nil
	}
	prompt := strings.TrimSpace(v.prompt.Value())
	if prompt == "" {
		v.formErr = "prompt is required"
		return nil
	}

	var models []string
	for _, d := range v.eligibleModels() {
		if len(v.chosen) == 0 || v.chosen[d.Key] {
			models = append(models, d.Key)
		}
	}
	if len(models) == 0 {
		v.formErr = "no deployed model to run against"
		return nil
	}

	var attachments []api.Attachment
	if path := strings.TrimSpace(v.attach.Value()); path != "" {
		att, err := loadAttachment(path)
		if err != nil {
			v.formErr = err.Error()
			return nil
		}
		attachments = append(attachments, att)
	}

	v.formErr = ""
	req := api.InferenceRequest{Models: models, Prompt: prompt, Attachments: attachments}
	return tea.Batch(
		v.spinner.Tick,
		func() tea.Msg { return submitInferenceMsg{Req: req} },
	)
}

func loadAttachment(path string) (api.Attachment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return api.Attachment{}, fmt.Errorf("attachment: %w", err)
	}
	media := api.MediaImage
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".webm":
		media = api.MediaVideo
	}
	return api.Attachment{
		Name:      filepath.Base(path),
		MediaType: media,
		Payload:   base64.StdEncoding.EncodeToString(b),
	}, nil
}

func (v *PlaygroundView) View(width, height int) string {
	var b strings.Builder

	models := v.eligibleModels()
	b.WriteString(v.styles.Title.Render("Models") + "\n")
	if len(models) == 0 {
		b.WriteString(v.styles.Muted.Render("  no model is deployed") + "\n")
	}
	for i, d := range models {
		mark := "[ ]"
		if v.chosen[d.Key] {
			mark = "[x]"
		}
		line := fmt.Sprintf("  %s %s", mark, d.Name)
		if v.focus == focusModels && i == v.cursor {
			line = v.styles.ResultModel.Render(line)
		}
		b.WriteString(line + "\n")
	}

	promptBox := v.styles.Box
	if v.focus == focusPrompt {
		promptBox = v.styles.FocusedBox
	}
	b.WriteString(promptBox.Width(width-2).Render(v.prompt.View()) + "\n")

	attachLine := v.attach.View()
	if v.focus == focusAttach {
		attachLine = v.styles.FocusedBox.Width(width - 2).Render(attachLine)
	}
	b.WriteString(attachLine + "\n")

	if v.formErr != "" {
		b.WriteString(v.styles.Error.Render(v.formErr) + "\n")
	}
	if v.inferring {
		b.WriteString(v.spinner.View() + " inferring...\n")
	}
	if v.streamErr != nil {
		b.WriteString(v.styles.Error.Render("stream failed: "+v.streamErr.Error()) + "\n")
	}

	for _, m := range v.order {
		r := v.results[m]
		b.WriteString("\n" + v.styles.ResultModel.Render(m) + " " + v.renderResultStatus(r) + "\n")
		if r.Response != "" {
			b.WriteString(v.styles.Value.Render(r.Response) + "\n")
		}
		if r.Error != "" {
			b.WriteString(v.styles.Error.Render(r.Error) + "\n")
		}
	}

	b.WriteString("\n" + v.styles.Muted.Render("tab focus · enter pick model · ctrl+s send"))
	return b.String()
}

func (v *PlaygroundView) renderResultStatus(r sse.Result) string {
	switch r.Status {
	case sse.ResultSuccess:
		return v.styles.OK.Render(r.Status)
	case sse.ResultError, sse.ResultNotDeployed:
		return v.styles.Error.Render(r.Status)
	default:
		return v.styles.Muted.Render(r.Status)
	}
}
