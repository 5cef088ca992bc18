package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelops/internal/api"
	"modelops/internal/lifecycle"
	"modelops/internal/store"
)

const selectionKey = "selected"

// hubItem implements list.Item for one catalog entry.
type hubItem struct {
	desc     api.ModelDescriptor
	badge    string
	message  string
	selected bool
}

func (i hubItem) FilterValue() string { return i.desc.Name }
func (i hubItem) Description() string { return "" }

func (i hubItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s  %s", mark, i.desc.Name, i.desc.Category, i.badge)
	if i.message != "" {
		line += "  " + i.message
	}
	return line
}

// ModelHubView lists the catalog with live deployment statuses. Deploy,
// stop and delete flow through AppModel; the page only renders the registry
// and emits request messages.
type ModelHubView struct {
	styles   Styles
	registry *lifecycle.Registry
	store    *store.Store

	list    list.Model
	spinner spinner.Model
	catalog api.Catalog
	chosen  map[string]bool
	state   pageState
	err     error
}

var _ View = (*ModelHubView)(nil)

func NewModelHubView(styles Styles, reg *lifecycle.Registry, st *store.Store) *ModelHubView {
	l := list.New(nil, NewCompactListDelegate(), 0, 0)
	l.Title = "Models"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = styles.Title

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimary))

	v := &ModelHubView{
		styles:   styles,
		registry: reg,
		store:    st,
		list:     l,
		spinner:  s,
		chosen:   make(map[string]bool),
		state:    pageLoading,
	}

	// Selection survives restarts.
	var keys []string
	if st.Get(store.NSModelHub, selectionKey, &keys) {
		for _, k := range keys {
			v.chosen[k] = true
		}
	}
	return v
}

func (v *ModelHubView) Init() tea.Cmd {
	if v.state == pageLoading {
		return v.spinner.Tick
	}
	return nil
}

func (v *ModelHubView) EditingText() bool { return false }

// Failed reports whether the catalog itself failed to load.
func (v *ModelHubView) Failed() bool { return v.state == pageError }

// SelectedKey returns the key under the cursor, or "".
func (v *ModelHubView) SelectedKey() string {
	if it, ok := v.list.SelectedItem().(hubItem); ok {
		return it.desc.Key
	}
	return ""
}

// SelectedKeys returns the checked model keys in catalog order.
func (v *ModelHubView) SelectedKeys() []string {
	var out []string
	for _, d := range v.catalog.All() {
		if v.chosen[d.Key] {
			out = append(out, d.Key)
		}
	}
	return out
}

// checkedDeployable returns the checked keys that actually deploy. Checked
// always-available models are selected for inference only.
func (v *ModelHubView) checkedDeployable() []string {
	var out []string
	for _, d := range v.catalog.All() {
		if v.chosen[d.Key] && !d.AlwaysAvailable {
			out = append(out, d.Key)
		}
	}
	return out
}

// DeployableKeys returns every catalog key that goes through the deploy
// lifecycle. Always-available models are excluded from status checks.
func (v *ModelHubView) DeployableKeys() []string {
	var out []string
	for _, d := range v.catalog.All() {
		if !d.AlwaysAvailable {
			out = append(out, d.Key)
		}
	}
	return out
}

// Drop removes a model that no longer exists on the backend.
func (v *ModelHubView) Drop(key string) {
	filter := func(in []api.ModelDescriptor) []api.ModelDescriptor {
		out := in[:0]
		for _, d := range in {
			if d.Key != key {
				out = append(out, d)
			}
		}
		return out
	}
	v.catalog.Bedrock = filter(v.catalog.Bedrock)
	v.catalog.EC2 = filter(v.catalog.EC2)
	v.catalog.EMD = filter(v.catalog.EMD)
	if v.chosen[key] {
		delete(v.chosen, key)
		v.persistSelection()
	}
	v.rebuildItems()
}

func (v *ModelHubView) ClearSelection() {
	v.chosen = make(map[string]bool)
	v.rebuildItems()
}

func (v *ModelHubView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.list.SetWidth(msg.Width)
		v.list.SetHeight(msg.Height - 4)
		return nil

	case spinner.TickMsg:
		if v.state == pageLoading {
			var cmd tea.Cmd
			v.spinner, cmd = v.spinner.Update(msg)
			return cmd
		}
		return nil

	case catalogLoadedMsg:
		if msg.Err != nil {
			v.state = pageError
			v.err = msg.Err
			return nil
		}
		v.state = pageReady
		v.err = nil
		v.catalog = msg.Catalog
		v.rebuildItems()
		return nil

	case statusMergedMsg:
		v.rebuildItems()
		return nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *ModelHubView) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := v.SelectedKey()
	switch msg.String() {
	case "enter":
		if key == "" {
			return nil
		}
		v.chosen[key] = !v.chosen[key]
		if !v.chosen[key] {
			delete(v.chosen, key)
		}
		v.persistSelection()
		v.rebuildItems()
		return nil
	case "d":
		if key == "" {
			return nil
		}
		return func() tea.Msg { return deployRequestedMsg{Key: key} }
	case "D":
		keys := v.checkedDeployable()
		if len(keys) == 0 {
			return nil
		}
		return func() tea.Msg { return deployBatchRequestedMsg{Keys: keys} }
	case "s":
		if key == "" {
			return nil
		}
		return func() tea.Msg { return stopRequestedMsg{Key: key} }
	case "x":
		if key == "" {
			return nil
		}
		return func() tea.Msg { return deleteRequestedMsg{Key: key} }
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *ModelHubView) persistSelection() {
	keys := make([]string, 0, len(v.chosen))
	for _, d := range v.catalog.All() {
		if v.chosen[d.Key] {
			keys = append(keys, d.Key)
		}
	}
	v.store.Put(store.NSModelHub, selectionKey, keys)
}

func (v *ModelHubView) rebuildItems() {
	descs := v.catalog.All()
	items := make([]list.Item, 0, len(descs))
	for _, d := range descs {
		it := hubItem{desc: d, selected: v.chosen[d.Key]}
		switch {
		case d.AlwaysAvailable:
			it.badge = v.styles.StatusBadge(lifecycle.StatusAvailable)
		default:
			st := lifecycle.StatusUnknown
			if e, ok := v.registry.Get(d.Key); ok {
				st = e.Status
				it.message = e.Message
			}
			it.badge = v.styles.StatusBadge(st)
		}
		items = append(items, it)
	}
	v.list.SetItems(items)
}

func (v *ModelHubView) View(width, height int) string {
	switch v.state {
	case pageLoading:
		return v.spinner.View() + " loading models..."
	case pageError:
		return v.styles.Error.Render("model list unavailable: "+v.err.Error()) + "\n" +
			v.styles.Muted.Render("SPC r to retry")
	}

	if v.list.Width() == 0 {
		v.list.SetWidth(width)
	}
	if v.list.Height() == 0 {
		v.list.SetHeight(height - 2)
	}

	hint := v.styles.Muted.Render("enter select · d deploy · D deploy checked · s stop · x delete")
	return v.list.View() + "\n" + hint
}
