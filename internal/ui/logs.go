package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/etd-wiki/dungeon/internal/logtail"
)

// logLevels is the cycle used by the minimum level filter. The empty level
// shows everything.
var logLevels = []string{"", "INFO", "WARN", "ERROR"}

// logState holds all log-related state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	minLevel string
	err      error

	// dirty forces a re-render even when the entries did not change.
	dirty bool
	// lines is the raw line count of the last read, used to skip re-renders.
	lines int
}

func newLogState() logState {
	return logState{follow: true}
}

// Log messages

type logBatchMsg struct {
	lines []string
}

type logErrorMsg struct {
	err error
}

// refreshLogs reads the tail of the client log file.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogBufferLimit)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logBatchMsg{lines: lines}
	}
}

// handleLogBatch replaces the buffer with the latest read.
func (m *Model) handleLogBatch(msg logBatchMsg) {
	m.logState.err = nil
	if len(msg.lines) == m.logState.lines && !m.logState.dirty && len(msg.lines) < LogBufferLimit {
		return
	}
	m.logState.lines = len(msg.lines)
	m.logState.entries = logtail.ParseLines(msg.lines)
	m.logState.dirty = true
	m.updateLogViewport()
}

// updateLogViewport re-renders log content when it changed.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width <= 0 {
		return
	}
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if m.logState.dirty {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	box := m.renderTitledBox(m.logTitle(), m.logViewport.View(), m.width, m.contentHeight()-1, true)
	return box + "\n" + bg.FillLine(m.renderLogStatus(styles, bg), m.width)
}

func (m Model) logTitle() string {
	if m.logState.minLevel != "" {
		return fmt.Sprintf("Client Log (%s+)", m.logState.minLevel)
	}
	return "Client Log"
}

// renderLogStatus renders "42 lines • follow on • ~/.local/state/...".
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logState.err != nil {
		return bg.Render("Log unavailable: "+m.logState.err.Error(), styles.DangerText)
	}
	follow := "off"
	if m.logState.follow {
		follow = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines", len(m.visibleLogEntries())), styles.FaintText),
		bg.Render("follow "+follow, styles.FaintText),
	}
	if m.logPath != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.logPath, maxInt(m.width/2, 20)), styles.AccentText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}

func (m Model) visibleLogEntries() []logtail.Entry {
	return logtail.AtLeast(m.logState.entries, m.logState.minLevel)
}

// renderLogContent renders the colorized log lines.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	entries := m.visibleLogEntries()
	if len(entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, bg.FillLine(m.formatLogEntry(e, styles, bg), width))
	}
	return strings.Join(lines, "\n")
}

// formatLogEntry renders "15:04:05 INFO message key=value".
func (m Model) formatLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Level == "" && e.Time == "" {
		return bg.Render(e.Message, styles.Text)
	}

	var b strings.Builder
	if ts := shortTime(e.Time); ts != "" {
		b.WriteString(bg.Render(ts, styles.FaintText))
		b.WriteString(bg.Space())
	}
	if e.Level != "" {
		b.WriteString(bg.Render(padRight(e.Level, 5), levelStyle(e.Level, styles).Bold(true)))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(e.Message, styles.Text))
	for _, attr := range e.Attrs {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(attr.Key+"=", styles.MutedText))
		b.WriteString(bg.Render(attr.Value, styles.AccentText))
	}
	return b.String()
}

// shortTime trims an RFC 3339 timestamp to the clock part.
func shortTime(value string) string {
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.Format("15:04:05")
	}
	return value
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// nextLogLevel returns the level after current in the filter cycle.
func nextLogLevel(current string) string {
	for i, lvl := range logLevels {
		if lvl == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewList
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.minLevel = nextLogLevel(m.logState.minLevel)
		m.logState.dirty = true
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.logState.dirty = true
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Down):
		m.logState.follow = false
		m.logViewport.ScrollDown(1)

	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)

	case key.Matches(msg, m.keys.HalfPageDown):
		m.logState.follow = false
		m.logViewport.HalfPageDown()

	case key.Matches(msg, m.keys.HalfPageUp):
		m.logState.follow = false
		m.logViewport.HalfPageUp()

	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()

	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	}
	return m, nil
}
