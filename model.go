// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/export"
	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/resultlog"
	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/ui/components"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// postedMsg carries work posted to the owner. Update runs it.
type postedMsg func()

// runDoneMsg announces that a run has handed every result to the owner.
type runDoneMsg tasks.RunNotification

// configChangedMsg carries a reloaded configuration.
type configChangedMsg struct {
	cfg *config.Config
}

// exportedMsg reports the outcome of an export.
type exportedMsg struct {
	path string
	err  error
}

// copiedMsg reports the outcome of a clipboard copy.
type copiedMsg struct {
	count int
	err   error
}

// recordedMsg reports the outcome of a history write.
type recordedMsg struct {
	id  string
	err error
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model is the main Bubble Tea model. It owns the result log: every read
// and write of the log happens inside Update or View.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  components.KeyMap

	header *components.Header
	list   *components.ResultList
	status *components.StatusBar
	help   viewport.Model

	log      *resultlog.Log
	poster   tasks.Poster
	registry *tasks.Registry
	runner   *tasks.Runner
	extra    []tasks.Option
	journal  *history.Store

	ctx    context.Context
	cancel context.CancelFunc

	width    int
	height   int
	showHelp bool
	// helpStyle is the glamour style for the help overlay ("" = auto)
	helpStyle string
	lastRun   *tasks.Run
}

// NewModel creates the model. poster must deliver functions back to Update
// as postedMsg; extra runner options are applied after the config-derived
// ones and survive config reloads.
func NewModel(theme *styles.Theme, cfg *config.Config, poster tasks.Poster, extra ...tasks.Option) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := components.DefaultKeyMap()

	m := &Model{
		cfg:      cfg,
		theme:    theme,
		keys:     keys,
		header:   components.NewHeader(theme),
		list:     components.NewResultList(theme),
		status:   components.NewStatusBar(theme, keys),
		help:     viewport.New(0, 0),
		log:      resultlog.New(),
		poster:   poster,
		registry: tasks.NewRegistry(50),
		extra:    extra,
		ctx:      ctx,
		cancel:   cancel,
	}
	m.runner = m.newRunner(cfg)
	m.updateHeader()
	return m
}

// SetJournal attaches the history store; nil disables recording.
func (m *Model) SetJournal(store *history.Store) {
	m.journal = store
}

// newRunner builds a runner for cfg that shares the model's log, poster and
// registry.
func (m *Model) newRunner(cfg *config.Config) *tasks.Runner {
	worker := tasks.NewWorker(
		tasks.WithMaxSleep(time.Duration(cfg.Run.MaxSleepMs) * time.Millisecond),
	)
	opts := []tasks.Option{
		tasks.WithTaskCount(cfg.Run.TaskCount),
		tasks.WithThreshold(cfg.Run.SlowThresholdMs),
		tasks.WithPoolSize(cfg.Run.PoolSize),
		tasks.WithRateLimit(cfg.Run.RateLimit, cfg.Run.RateBurst),
		tasks.WithWorker(worker),
		tasks.WithRegistry(m.registry),
	}
	return tasks.NewRunner(m.log, m.poster, append(opts, m.extra...)...)
}

// updateHeader shows the settings the next run will use.
func (m *Model) updateHeader() {
	m.header.SetSettings(m.runner.TaskCount(), m.runner.Threshold(), m.runner.PoolSize())
}

// Shutdown cancels runs in flight. Their remaining tasks report the sentinel.
func (m *Model) Shutdown() {
	m.cancel()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for finished runs.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("fanout"),
		m.listenRuns(),
	)
}

// listenRuns waits for the next finished-run notification.
func (m *Model) listenRuns() tea.Cmd {
	ch := m.registry.Notifications()
	return func() tea.Msg {
		return runDoneMsg(<-ch)
	}
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.showHelp {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}
		return m, m.list.Update(msg)

	case postedMsg:
		msg()
		m.refresh()
		return m, nil

	case runDoneMsg:
		return m, tea.Batch(m.handleRunDone(tasks.RunNotification(msg)), m.listenRuns())

	case configChangedMsg:
		m.applyConfig(msg.cfg)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status.SetNotice("export failed: " + msg.err.Error())
		} else {
			m.status.SetNotice("exported " + msg.path)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status.SetNotice("copy failed: " + msg.err.Error())
		} else {
			m.status.SetNotice(fmt.Sprintf("copied %d entries", msg.count))
		}
		return m, nil

	case recordedMsg:
		if msg.err != nil {
			m.status.SetNotice("history: " + msg.err.Error())
		}
		return m, nil
	}

	// Spinner ticks
	return m, m.status.Update(msg)
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.Shutdown()
		return m, tea.Quit
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), msg.String() == "esc", msg.String() == "q":
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.RunBlocking):
		return m, m.startRun(tasks.Blocking)
	case key.Matches(msg, m.keys.RunOffload):
		return m, m.startRun(tasks.ThreadOffload)
	case key.Matches(msg, m.keys.RunReactive):
		return m, m.startRun(tasks.ReactiveFanOut)

	case key.Matches(msg, m.keys.Clear):
		m.runner.Clear()
		m.refresh()
		m.status.SetNotice("cleared")
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Copy):
		return m, copyCmd(m.log.Entries())

	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.list.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.list.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.list.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.list.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.list.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// RUNS
// =============================================================================

// startRun starts a run on the owner. A blocking run completes before this
// returns and the UI is frozen meanwhile.
func (m *Model) startRun(policy tasks.Policy) tea.Cmd {
	run, err := m.runner.Start(m.ctx, policy)
	if err != nil {
		m.status.SetNotice(err.Error())
		return nil
	}
	m.lastRun = run
	cmd := m.status.Track(run)
	m.refresh()
	return cmd
}

// handleRunDone refreshes the status bar and journals the run.
func (m *Model) handleRunDone(n tasks.RunNotification) tea.Cmd {
	m.refresh()
	if m.lastRun != nil && m.lastRun.ID() == n.RunID {
		m.status.SetNotice(fmt.Sprintf("%s run finished: %d results", n.Policy, n.Produced))
	}

	run := m.registry.Get(n.RunID)
	if m.journal == nil || run == nil {
		return nil
	}
	return recordCmd(m.journal, history.FromRun(run, m.log.Entries()), m.cfg.History.MaxRecords)
}

// applyConfig switches to cfg for subsequent runs. Runs in flight keep the
// settings they started with.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.runner = m.newRunner(cfg)
	m.updateHeader()
	m.status.SetNotice("config reloaded")
}

// refresh copies the log into the list and the status bar.
func (m *Model) refresh() {
	m.list.SetEntries(m.log.Entries())
	m.status.Refresh(m.log.Len())
}

// =============================================================================
// COMMANDS
// =============================================================================

// exportCmd writes the current log and last run as Markdown in the working
// directory.
func (m *Model) exportCmd() tea.Cmd {
	report := export.NewReport(m.lastRun, m.log.Entries())
	return func() tea.Msg {
		opts := export.DefaultOptions()
		path, err := export.ExportToFile(report, export.NewMarkdownExporter(opts), opts)
		return exportedMsg{path: path, err: err}
	}
}

// copyCmd copies entries to the clipboard.
func copyCmd(entries []string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{count: len(entries), err: components.CopyEntries(entries)}
	}
}

// recordCmd writes rec to the journal and prunes it.
func recordCmd(store *history.Store, rec history.Record, maxRecords int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Record(ctx, rec); err != nil {
			return recordedMsg{id: rec.ID, err: err}
		}
		_, err := store.Prune(ctx, maxRecords)
		return recordedMsg{id: rec.ID, err: err}
	}
}

// =============================================================================
// LAYOUT AND VIEW
// =============================================================================

// resize lays out header, list and status bar.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)

	body := height - 2
	if body < 1 {
		body = 1
	}
	m.list.SetSize(width, body)
	m.help.Width = width - 2
	m.help.Height = body - 2
	if m.showHelp {
		m.renderHelp()
	}
}

// openHelp shows the key and policy reference.
func (m *Model) openHelp() {
	m.showHelp = true
	m.renderHelp()
	m.help.GotoTop()
}

// renderHelp renders the help markdown into the help viewport.
func (m *Model) renderHelp() {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	m.help.SetContent(components.RenderMarkdown(components.HelpMarkdown(m.keys), width, m.helpStyle))
}

// View renders the header, the list (or help) and the status bar.
func (m *Model) View() string {
	if m.width == 0 {
		return "Starting fanout..."
	}

	body := m.list.View()
	if m.showHelp {
		body = m.theme.HelpBox.Width(m.width - 2).Render(m.help.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.status.View(),
	)
}
