package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/etd-wiki/dungeon/internal/state"
)

// renderHeader renders the status bar: logo, sync badge, connectivity and
// record count.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{
		bg.Render("DUNGEON", styles.Logo),
		styles.StatusStyle(m.snapshot.Status).Render(strings.ToUpper(string(m.snapshot.Status))),
	}

	if m.snapshot.Disconnected {
		parts = append(parts, bg.Render("○ offline", styles.WarningText))
	} else {
		parts = append(parts, bg.Render("● online", styles.SuccessText))
	}

	total := len(m.snapshot.Records)
	count := fmt.Sprintf("Found %d entries", total)
	if term := strings.TrimSpace(m.search.Value()); term != "" {
		count = fmt.Sprintf("Found %d of %d entries", len(m.visibleRecords()), total)
	}
	parts = append(parts, bg.Render(count, styles.Text))

	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+m.snapshot.LastUpdated.Local().Format("15:04:05"), styles.FaintText))
	}
	if m.width >= LayoutWideWidth && m.apiBase != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.apiBase, 48), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewEdit:
		commands = []cmd{
			{"tab", "Next"},
			{"shift+tab", "Prev"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		level := m.logState.minLevel
		if level == "" {
			level = "All"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"v", level},
			{"j/k", "Scroll"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"j/k", "Navigate"},
			{"e", "Edit"},
			{"r", "Refresh"},
			{"l", "Log"},
			{"q", "Quit"},
			{"?", "More"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine shows the engine's error or confirmation message.
func (m Model) renderStatusLine() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles().WithBackground(m.theme.Background)

	var content string
	switch {
	case m.snapshot.Saving:
		content = bg.Render("Saving...", styles.WarningText)
	case m.snapshot.LastError != "":
		content = bg.Render(m.snapshot.LastError, styles.DangerText)
	case m.snapshot.Message != "":
		content = bg.Render(m.snapshot.Message, messageStyle(m.snapshot, styles))
	case m.snapshot.Status == state.StatusLoading:
		content = bg.Render("Loading characters...", styles.MutedText)
	}
	return bg.FillLine(bg.Space()+content, m.width)
}

// messageStyle picks the tone for an informational message. Offline notices
// read as warnings.
func messageStyle(snap state.Snapshot, styles Styles) lipgloss.Style {
	if snap.IsOffline() {
		return styles.WarningText
	}
	return styles.SuccessText
}
