package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelops/internal/api"
	"modelops/internal/config"
	"modelops/internal/lifecycle"
	"modelops/internal/logging"
	"modelops/internal/poll"
	"modelops/internal/session"
	"modelops/internal/store"
)

// AppModel is the root model of the console. It owns the shared services
// (API client, status registry, poller, session tracker, store) and routes
// messages to the four pages. Pages never talk to the network themselves;
// they emit request messages that AppModel turns into commands.
type AppModel struct {
	Mode       AppMode
	Hub        *ModelHubView
	Playground *PlaygroundView
	Stress     *StressTestView
	Launch     *LaunchView
	KeyHandler *KeyHandler
	Styles     Styles

	Client   *api.Client
	Registry *lifecycle.Registry
	Store    *store.Store
	Sessions *session.Tracker
	Ring     *logging.Ring
	Cfg      config.Config

	poller        *poll.StatusPoller
	stressPolling bool
	launchPolling bool

	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg

	width  int
	height int
	notice string
}

// NewAppModel wires the console together. The context bounds every
// background goroutine the model spawns; Close cancels it.
func NewAppModel(cfg config.Config, client *api.Client, reg *lifecycle.Registry, st *store.Store, sessions *session.Tracker, ring *logging.Ring) *AppModel {
	ctx, cancel := context.WithCancel(context.Background())
	styles := NewStyles()

	a := &AppModel{
		Mode:     ModeModelHub,
		Styles:   styles,
		Client:   client,
		Registry: reg,
		Store:    st,
		Sessions: sessions,
		Ring:     ring,
		Cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan tea.Msg, 64),
	}

	a.Hub = NewModelHubView(styles, reg, st)
	a.Playground = NewPlaygroundView(styles, reg, st)
	a.Stress = NewStressTestView(styles, sessions)
	a.Launch = NewLaunchView(styles)

	a.poller = poll.NewStatusPoller(
		cfg.DeployPollInterval,
		func(ctx context.Context, keys []string) (api.StatusMap, error) {
			return client.CheckModelStatus(ctx, keys, false)
		},
		func(batch api.StatusMap) {
			reg.Merge(batch)
			a.emit(statusMergedMsg{Batch: batch})
		},
		poll.WithOrphanHandler(func(keys []string) {
			for _, k := range keys {
				a.emit(orphanModelMsg{Key: k})
			}
		}),
		poll.WithTerminalCheck(func(key string, _ lifecycle.ModelStatus) bool {
			if e, ok := reg.Get(key); ok {
				return e.Status.Terminal() && !e.Optimistic
			}
			return false
		}),
	)

	a.KeyHandler = NewKeyHandler(a.buildKeybinds())
	return a
}

// Close stops every background goroutine and flushes persisted state.
// Callers run it after the bubbletea program exits.
func (a *AppModel) Close() {
	a.cancel()
	a.poller.Stop()
	if err := a.Store.Close(); err != nil {
		slog.Warn("flush state on close", "error", err)
	}
}

// emit delivers a message from a background goroutine into the UI loop.
// Drops the message if the UI is gone.
func (a *AppModel) emit(msg tea.Msg) {
	select {
	case a.events <- eventMsg{inner: msg}:
	case <-a.ctx.Done():
	}
}

func (a *AppModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *AppModel) buildKeybinds() *KeybindRegistry {
	reg := NewKeybindRegistry()
	send := func(msg tea.Msg) tea.Cmd {
		return func() tea.Msg { return msg }
	}

	reg.Bind("ctrl+c", "quit", tea.Quit)

	reg.Bind("SPC q", "Quit", tea.Quit)
	reg.Bind("SPC 1", "Model Hub", send(switchModeMsg{Mode: ModeModelHub}))
	reg.Bind("SPC 2", "Playground", send(switchModeMsg{Mode: ModePlayground}))
	reg.Bind("SPC 3", "Stress Test", send(switchModeMsg{Mode: ModeStressTest}))
	reg.Bind("SPC 4", "Launch", send(switchModeMsg{Mode: ModeLaunch}))
	reg.Bind("SPC g m", "Model Hub", send(switchModeMsg{Mode: ModeModelHub}))
	reg.Bind("SPC g p", "Playground", send(switchModeMsg{Mode: ModePlayground}))
	reg.Bind("SPC g t", "Stress Test", send(switchModeMsg{Mode: ModeStressTest}))
	reg.Bind("SPC g l", "Launch", send(switchModeMsg{Mode: ModeLaunch}))

	reg.Bind("SPC r", "Refresh statuses", send(refreshRequestedMsg{Force: true}))
	reg.Bind("SPC x", "Reset local state", send(resetStateMsg{}))

	reg.Bind("SPC m d", "Deploy selected", func() tea.Msg {
		if key := a.Hub.SelectedKey(); key != "" {
			return deployRequestedMsg{Key: key}
		}
		return nil
	}, ModeModelHub)
	reg.Bind("SPC m s", "Stop selected", func() tea.Msg {
		if key := a.Hub.SelectedKey(); key != "" {
			return stopRequestedMsg{Key: key}
		}
		return nil
	}, ModeModelHub)
	reg.Bind("SPC m x", "Delete selected", func() tea.Msg {
		if key := a.Hub.SelectedKey(); key != "" {
			return deleteRequestedMsg{Key: key}
		}
		return nil
	}, ModeModelHub)

	reg.Bind("SPC t r", "Download report", func() tea.Msg {
		return downloadReportRequestMsg{ID: a.Stress.ReportableID()}
	}, ModeStressTest)
	reg.Bind("SPC t s", "Save report on server", func() tea.Msg {
		return saveReportRequestMsg{ID: a.Stress.ReportableID()}
	}, ModeStressTest)

	return reg
}

var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter exposes AppModel as a tea.Model.
type appModelAdapter struct {
	*AppModel
}

// AsTeaModel returns a tea.Model adapter for tea.NewProgram.
func (a *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: a}
}

func (a *appModelAdapter) Init() tea.Cmd {
	cmds := []tea.Cmd{a.waitForEvent(), a.Hub.Init(), a.loadCatalogCmd()}

	// A stress test that was running when the console last exited keeps
	// being polled after a restart.
	if s := a.Sessions.Rehydrate(); s != nil {
		a.Stress.Resume(*s)
		a.startStressPolling(s.ID)
	}
	return tea.Batch(cmds...)
}

func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ev, ok := msg.(eventMsg); ok {
		cmd := a.handle(ev.inner)
		return a, tea.Batch(a.waitForEvent(), cmd)
	}
	return a, a.handle(msg)
}

func (a *appModelAdapter) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.Hub.Update(msg)
		a.Playground.Update(msg)
		a.Stress.Update(msg)
		a.Launch.Update(msg)
		return nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case switchModeMsg:
		return a.switchMode(msg.Mode)

	case resetStateMsg:
		return a.resetLocalState()

	case catalogLoadedMsg:
		a.Playground.SetCatalog(msg.Catalog)
		cmd := a.Hub.Update(msg)
		if msg.Err == nil {
			return tea.Batch(cmd, a.initialStatusCmd(a.Hub.DeployableKeys()))
		}
		return cmd

	case statusMergedMsg:
		// A refresh can surface a model mid-transition, so every merge
		// re-seeds the tracking set, not just the first one.
		if keys := a.Registry.NonTerminalKeys(); len(keys) > 0 {
			a.poller.Track(keys...)
			a.poller.Start(a.ctx)
		}
		a.Hub.Update(msg)
		a.Playground.Update(msg)
		return nil

	case orphanModelMsg:
		a.Registry.Delete(msg.Key)
		a.Hub.Drop(msg.Key)
		a.notice = "model " + msg.Key + " is gone from the backend"
		slog.Info("purged orphaned model", "model", msg.Key)
		return nil

	case deployRequestedMsg:
		return a.beginModelAction(msg.Key, "deploy")
	case deployBatchRequestedMsg:
		return a.beginBatchDeploy(msg.Keys)
	case deployBatchResultMsg:
		return a.finishBatchDeploy(msg)
	case stopRequestedMsg:
		return a.beginModelAction(msg.Key, "stop")
	case deleteRequestedMsg:
		return a.deleteModelCmd(msg.Key)

	case modelActionMsg:
		return a.finishModelAction(msg)

	case refreshRequestedMsg:
		a.notice = "refreshing statuses"
		if a.Hub.Failed() {
			return a.loadCatalogCmd()
		}
		return a.forceRefreshCmd(a.Hub.DeployableKeys())

	case submitInferenceMsg:
		ctx, cancel := context.WithCancel(a.ctx)
		a.Playground.BeginStream(msg.Req.Models, cancel)
		return a.openInferenceCmd(ctx, msg.Req)

	case inferenceOpenedMsg:
		if msg.Err != nil {
			a.Playground.FinishStream(msg.Err)
		}
		return nil

	case streamEventMsg:
		a.Playground.Update(msg)
		return nil

	case stressSubmitMsg:
		return a.startStressCmd(msg.Params)

	case stressStartedMsg:
		return a.finishStressStart(msg)

	case stressProgressMsg:
		if msg.Session.Status.Terminal() {
			a.stressPolling = false
		}
		a.Stress.Update(msg)
		return nil

	case stressOrphanMsg:
		a.stressPolling = false
		a.Stress.Update(msg)
		a.notice = "stress test session " + msg.ID + " is gone from the backend"
		return nil

	case downloadReportRequestMsg:
		if msg.ID == "" {
			return nil
		}
		return a.downloadReportCmd(msg.ID)

	case saveReportRequestMsg:
		if msg.ID == "" {
			return nil
		}
		return a.saveReportCmd(msg.ID)

	case downloadZipRequestMsg:
		if msg.ID == "" {
			return nil
		}
		return a.downloadZipCmd(msg.ID)

	case reportSavedMsg:
		a.Stress.Update(msg)
		return nil

	case hyperpodLoadedMsg:
		cmd := a.Launch.Update(msg)
		if msg.Err == nil && anyJobActive(msg.Jobs) {
			a.startLaunchPolling()
		}
		return cmd

	case hyperpodJobsMsg:
		if msg.Err == nil && !anyJobActive(msg.Jobs) {
			a.launchPolling = false
		}
		a.Launch.Update(msg)
		return nil

	case hyperpodDeployMsg:
		return a.hyperpodDeployCmd(msg.PresetID)
	case hyperpodDestroyMsg:
		return a.hyperpodDestroyCmd(msg.JobID)
	case hyperpodLogsRequestMsg:
		return a.hyperpodLogsCmd(msg.JobID)

	case hyperpodActionMsg:
		if msg.Err != nil {
			a.notice = msg.Action + " failed: " + msg.Err.Error()
			return nil
		}
		a.notice = msg.Action + " submitted"
		a.startLaunchPolling()
		return a.loadHyperpodCmd()

	case hyperpodLogsMsg:
		a.Launch.Update(msg)
		return nil

	case warnMsg:
		a.notice = msg.Text
		return nil
	}

	return a.currentView().Update(msg)
}

func (a *appModelAdapter) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := msg.String()
	if s == "ctrl+c" {
		return tea.Quit
	}

	// While a page is capturing text, every other key belongs to it.
	if a.currentView().EditingText() {
		return a.currentView().Update(msg)
	}

	if consumed, cmd := a.KeyHandler.Handle(msg, a.Mode); consumed {
		return cmd
	}
	if s == "q" {
		return tea.Quit
	}
	return a.currentView().Update(msg)
}

func (a *appModelAdapter) switchMode(mode AppMode) tea.Cmd {
	if mode == a.Mode {
		return nil
	}
	if a.Mode == ModePlayground && mode != ModePlayground {
		// Leaving the playground abandons an in-flight stream.
		a.Playground.CancelStream()
	}
	a.Mode = mode
	if mode == ModeLaunch {
		return tea.Batch(a.Launch.Init(), a.loadHyperpodCmd())
	}
	return a.currentView().Init()
}

func (a *appModelAdapter) resetLocalState() tea.Cmd {
	if err := a.Store.Reset(); err != nil {
		a.notice = "reset failed: " + err.Error()
		return nil
	}
	a.Sessions.Reset()
	a.Hub.ClearSelection()
	a.Playground.ClearLocal()
	a.Stress.ClearLocal()
	a.notice = "local state cleared"
	slog.Info("reset local state")
	return nil
}

func (a *appModelAdapter) currentView() View {
	switch a.Mode {
	case ModePlayground:
		return a.Playground
	case ModeStressTest:
		return a.Stress
	case ModeLaunch:
		return a.Launch
	default:
		return a.Hub
	}
}

func (a *appModelAdapter) View() string {
	width := a.width
	if width <= 0 {
		width = 80
	}
	height := a.height
	if height <= 0 {
		height = 24
	}

	header := a.renderHeader(width)
	footer := a.renderFooter(width)
	contentHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	body := a.currentView().View(width, contentHeight)

	out := header + "\n" + body + "\n" + footer
	if help := RenderKeybindHelp(a.KeyHandler, a.Mode, width); help != "" {
		out += "\n" + help
	}
	return out
}

func (a *appModelAdapter) renderHeader(width int) string {
	tabs := make([]string, 0, 4)
	for _, m := range []AppMode{ModeModelHub, ModePlayground, ModeStressTest, ModeLaunch} {
		style := a.Styles.Tab
		if m == a.Mode {
			style = a.Styles.TabActive
		}
		tabs = append(tabs, style.Render(m.Title()))
	}
	row := a.Styles.Header.Render("modelops") + "  " + lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
	return lipgloss.NewStyle().Width(width).Render(row)
}

func (a *appModelAdapter) renderFooter(width int) string {
	line := a.notice
	if line == "" {
		if last := a.Ring.Last(1); len(last) > 0 {
			line = last[0].Message
		}
	}
	if line == "" {
		line = "SPC for commands"
	}
	return a.Styles.StatusBar.Width(width).Render(line)
}

func anyJobActive(jobs []api.HyperPodJob) bool {
	for _, j := range jobs {
		if !j.Status.Terminal() {
			return true
		}
	}
	return false
}
