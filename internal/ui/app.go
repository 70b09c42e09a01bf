package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/etd-wiki/dungeon/internal/characters"
	"github.com/etd-wiki/dungeon/internal/prefs"
	"github.com/etd-wiki/dungeon/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewList View = iota
	ViewEdit
	ViewLogs
)

// Engine is the subset of the sync engine the UI drives.
type Engine interface {
	Store() *state.Store
	Initialize(ctx context.Context) state.Snapshot
	Refresh(ctx context.Context, term string) state.Snapshot
	Select(id string) bool
	SubmitEdit(ctx context.Context, id string, fields characters.Fields) (bool, error)
	ClearMessages()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Engine    Engine
	LogPath   string
	APIBase   string
	ThemeName string
	PrefsPath string
	Tick      time.Duration
	// SkipInitialize leaves the first load to the caller.
	SkipInitialize bool
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	engine    Engine
	store     *state.Store
	logPath   string
	apiBase   string
	prefsPath string
	tick      time.Duration
	skipInit  bool
	keys      keyMap

	// Store subscription
	updates     <-chan state.Snapshot
	unsubscribe func()

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot state.Snapshot

	// List state
	search    textinput.Model
	searching bool

	// Detail state
	detailViewport viewport.Model

	// Edit state
	form editForm

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	search := textinput.New()
	search.Placeholder = "Search by name, type or description"
	search.Prompt = "/ "
	search.CharLimit = 80

	m := Model{
		ctx:         ctx,
		engine:      opts.Engine,
		logPath:     opts.LogPath,
		apiBase:     opts.APIBase,
		prefsPath:   prefsPath,
		tick:        tick,
		skipInit:    opts.SkipInitialize,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewList,
		search:      search,
		form:        newEditForm(),
		logState:    newLogState(),
	}
	if opts.Engine != nil {
		m.store = opts.Engine.Store()
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
		m.updates, m.unsubscribe = m.store.Subscribe()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.updates != nil {
		cmds = append(cmds, waitForSnapshotCmd(m.updates))
	}
	if m.engine != nil && !m.skipInit {
		cmds = append(cmds, initializeCmd(m.ctx, m.engine))
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
		m.resizeViewports()
		m.updateDetailViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, waitForSnapshotCmd(m.updates)

	case syncDoneMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case editResultMsg:
		return m.handleEditResult(msg)

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil

	case logErrorMsg:
		m.logState.err = msg.err
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
	return m.renderMain()
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	if m.store != nil {
		// The store may have moved on since this snapshot was taken.
		snap = m.store.Snapshot()
	}
	m.snapshot = snap
	m.syncEditForm()
	m.updateDetailViewport()
}

// handleKey routes keyboard input. Text inputs get first refusal so typed
// characters never trigger shortcuts.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.currentView == ViewEdit {
		return m.handleEditKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			name := m.theme.Name
			_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name })
		}
		m.updateDetailViewport()
		m.logState.dirty = true
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		if m.currentView == ViewLogs {
			m.currentView = ViewList
			return m, nil
		}
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

// handleTick re-reads the log while following and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resizeViewports() {
	contentHeight := m.contentHeight()
	_, detailWidth := m.paneWidths()
	m.detailViewport.Width = maxInt(detailWidth-4, 0)
	m.detailViewport.Height = maxInt(contentHeight-2, 0)
	m.logViewport.Width = maxInt(m.width-4, 0)
	m.logViewport.Height = maxInt(contentHeight-3, 0)
	m.form.setWidth(m.width - 24)
	m.search.Width = maxInt(m.width/3, 20)
}

// contentHeight is the space left after header, command bar and status line.
func (m Model) contentHeight() int {
	return maxInt(m.height-3, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewEdit:
		return m.renderEdit()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderList()
	}
}

// SelectedID returns the selection of the last snapshot the model saw.
func (m Model) SelectedID() string {
	return m.snapshot.SelectedID
}

// Close releases the store subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// syncDoneMsg carries the result of an engine call made from a command.
type syncDoneMsg state.Snapshot

type editResultMsg struct {
	submitted bool
	err       error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForSnapshotCmd(ch <-chan state.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func initializeCmd(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg(engine.Initialize(ctx))
	}
}

func refreshCmd(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RefreshTimeout)
		defer cancel()
		return syncDoneMsg(engine.Refresh(ctx, ""))
	}
}

func submitEditCmd(ctx context.Context, engine Engine, id string, fields characters.Fields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, EditTimeout)
		defer cancel()
		submitted, err := engine.SubmitEdit(ctx, id, fields)
		return editResultMsg{submitted: submitted, err: err}
	}
}

// Run starts the Bubble Tea program and returns the selection the user
// left on screen.
func Run(opts Options) (string, error) {
	m := New(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		// Cancelled from outside, e.g. SIGTERM.
		err = nil
	}
	if fm, ok := final.(Model); ok {
		return fm.SelectedID(), err
	}
	return m.SelectedID(), err
}

// maxInt returns the larger of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
