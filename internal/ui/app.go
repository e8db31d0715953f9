package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nezhatop/nezhatop/internal/history"
	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/prefs"
	"github.com/nezhatop/nezhatop/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewServers View = iota
	ViewServices
	ViewLogs
)

var viewNames = map[View]string{
	ViewServers:  "servers",
	ViewServices: "services",
	ViewLogs:     "logs",
}

func (v View) String() string { return viewNames[v] }

func viewFromName(name string) View {
	for v, n := range viewNames {
		if n == name {
			return v
		}
	}
	return ViewServers
}

// Retrier triggers an immediate out-of-band fetch.
type Retrier interface {
	Retry()
}

// ServiceSource loads the uptime overview.
type ServiceSource interface {
	ServiceOverview(ctx context.Context) (nezha.ServiceOverview, error)
}

// HistorySource loads recent samples for a server.
type HistorySource interface {
	Recent(ctx context.Context, serverID uint64, n int) ([]history.Sample, error)
}

// Options configures the UI. Store is required; the other sources are
// optional and their views degrade when nil.
type Options struct {
	Context      context.Context
	Store        *state.Store
	Monitor      Retrier
	Services     ServiceSource
	History      HistorySource
	Logger       *zap.Logger
	LogPath      string
	PollTick     time.Duration
	OnlineWindow time.Duration
	Prefs        prefs.Prefs
	PrefsPath    string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx          context.Context
	store        *state.Store
	monitor      Retrier
	services     ServiceSource
	history      HistorySource
	logger       *zap.Logger
	logPath      string
	prefsPath    string
	pollTick     time.Duration
	onlineWindow time.Duration
	now          func() time.Time

	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	lastUpdated time.Time

	serverState serverState
	serviceView serviceState
	logState    logState
	logViewport viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	window := opts.OnlineWindow
	if window <= 0 {
		window = DefaultOnlineWindow
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Defaults()
	}

	search := textinput.New()
	search.Placeholder = "Search logs..."
	search.CharLimit = 100

	m := Model{
		ctx:          ctx,
		store:        opts.Store,
		monitor:      opts.Monitor,
		services:     opts.Services,
		history:      opts.History,
		logger:       logger.Named("ui"),
		logPath:      opts.LogPath,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		onlineWindow: window,
		now:          time.Now,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(p.Theme),
		currentView:  viewFromName(p.View),
		serverState:  serverState{sort: sortFromName(p.Sort)},
		serviceView:  serviceState{loading: state.Idle},
		logState: logState{
			follow:      true,
			minLevel:    "debug",
			searchInput: search,
		},
	}
	if m.currentView == ViewServices && m.services != nil {
		m.serviceView.loading = m.serviceView.loading.Next(state.Event{Kind: state.EventFetch})
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if cmd := m.enterView(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case historyMsg:
		m.handleHistory(msg)
		return m, nil

	case servicesMsg:
		m.handleServices(msg)
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewServices:
		return m.renderServices()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderServers()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	// The search prompt owns the keyboard while it is open.
	if m.currentView == ViewLogs && m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.logState.dirty = true
		m.updateLogViewport()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if m.monitor != nil {
			m.monitor.Retry()
		}
		if m.currentView == ViewServices {
			return m, m.enterView()
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % 3)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + 2) % 3)

	case key.Matches(msg, m.keys.ViewServers):
		return m.switchView(ViewServers)

	case key.Matches(msg, m.keys.ViewServices):
		return m.switchView(ViewServices)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	}

	switch m.currentView {
	case ViewServices:
		return m.handleServicesKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleServersKey(msg)
	}
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if v == m.currentView {
		return m, nil
	}
	m.currentView = v
	return m, m.enterView()
}

// enterView returns the command that loads data for the current view.
func (m *Model) enterView() tea.Cmd {
	switch m.currentView {
	case ViewServices:
		if m.services == nil {
			return nil
		}
		m.serviceView.loading = m.serviceView.loading.Next(state.Event{Kind: state.EventFetch})
		return fetchServicesCmd(m.ctx, m.services)
	case ViewLogs:
		return m.refreshLogs()
	default:
		return m.refreshHistory()
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	changed := snap.Generation != m.snapshot.Generation || !snap.LastUpdated.Equal(m.snapshot.LastUpdated)
	m.snapshot = snap
	m.lastUpdated = m.now()
	m.clampSelection()
	if changed && m.currentView == ViewServers {
		return m, m.refreshHistory()
	}
	return m, nil
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{
		Theme: m.theme.Name,
		Sort:  m.serverState.sort.String(),
		View:  m.currentView.String(),
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", zap.String("path", m.prefsPath), zap.Error(err))
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
