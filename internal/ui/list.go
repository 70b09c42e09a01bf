package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/etd-wiki/dungeon/internal/characters"
	"github.com/etd-wiki/dungeon/internal/state"
)

// visibleRecords applies the search term to the current snapshot.
func (m Model) visibleRecords() []characters.Record {
	return state.Filter(m.snapshot.Records, m.search.Value())
}

// selectedIndex returns the selection's position in records, or -1.
func (m Model) selectedIndex(records []characters.Record) int {
	return characters.IndexOf(records, m.snapshot.SelectedID)
}

// handleListKey processes keyboard input for the list view.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Escape):
		if m.search.Value() != "" {
			m.search.SetValue("")
			return m, nil
		}
		if m.engine != nil {
			m.engine.ClearMessages()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.engine == nil {
			return m, nil
		}
		return m, refreshCmd(m.ctx, m.engine)

	case key.Matches(msg, m.keys.Edit):
		rec, ok := m.snapshot.Selected()
		if !ok {
			return m, nil
		}
		m.form.load(rec)
		m.currentView = ViewEdit
		return m, m.form.focusCurrent()

	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
		return m, nil
	}

	records := m.visibleRecords()
	if len(records) == 0 {
		return m, nil
	}
	idx := m.selectedIndex(records)
	target := idx

	switch {
	case key.Matches(msg, m.keys.Down):
		target = idx + 1
	case key.Matches(msg, m.keys.Up):
		target = idx - 1
	case key.Matches(msg, m.keys.Top):
		target = 0
	case key.Matches(msg, m.keys.Bottom):
		target = len(records) - 1
	default:
		return m, nil
	}

	if idx < 0 {
		target = 0
	}
	if target < 0 {
		target = 0
	}
	if target >= len(records) {
		target = len(records) - 1
	}
	m.selectRecord(records[target].ID)
	return m, nil
}

// handleSearchKey feeds keys to the search input. Esc clears the term,
// enter keeps it and returns to navigation.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.searching = false
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.searching = false
		if records := m.visibleRecords(); len(records) > 0 && m.selectedIndex(records) < 0 {
			m.selectRecord(records[0].ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) selectRecord(id string) {
	if id == m.snapshot.SelectedID || m.engine == nil {
		return
	}
	if m.engine.Select(id) {
		m.applySnapshot(m.snapshot)
		m.detailViewport.GotoTop()
	}
}

// paneWidths splits the terminal between list and detail. The detail pane
// gets no width in compact layouts.
func (m Model) paneWidths() (int, int) {
	if m.width < LayoutCompactWidth {
		return m.width, 0
	}
	listWidth := m.width * 35 / 100
	if listWidth < 30 {
		listWidth = 30
	}
	return listWidth, m.width - listWidth
}

// renderList renders the list view with the detail pane beside it.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	contentHeight := m.contentHeight()
	listWidth, detailWidth := m.paneWidths()

	if len(m.snapshot.Records) == 0 {
		msg := "No characters yet"
		if m.snapshot.Status == state.StatusLoading {
			msg = "Entering the dungeon..."
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	listFocused := !m.searching
	listBg := m.theme.SurfaceAlt
	if listFocused {
		listBg = m.theme.FocusBg
	}

	var listContent strings.Builder
	if m.searching || m.search.Value() != "" {
		listContent.WriteString(NewBgStyle(listBg).FillLine(m.search.View(), listWidth-2))
		listContent.WriteString("\n")
	}
	listContent.WriteString(m.renderRows(listWidth-2, listBg))

	listPane := m.renderTitledBox(m.listTitle(), listContent.String(), listWidth, contentHeight, listFocused)
	if detailWidth == 0 {
		return listPane
	}

	detailPane := m.renderTitledBox("Details", m.detailViewport.View(), detailWidth, contentHeight, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) listTitle() string {
	if term := strings.TrimSpace(m.search.Value()); term != "" {
		return fmt.Sprintf("Characters /%s", truncate(term, 16))
	}
	return "Characters"
}

// renderRows renders the visible records as styled rows.
func (m Model) renderRows(width int, bgColor string) string {
	records := m.visibleRecords()
	if len(records) == 0 {
		bg := NewBgStyle(bgColor)
		return bg.FillLine(bg.Render("No matches", m.theme.Styles().MutedText), width)
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		selected := rec.ID == m.snapshot.SelectedID
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		content := m.formatRow(rec, width, rowBg, selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatRow renders "Name · Type [badge]".
func (m Model) formatRow(rec characters.Record, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	nameStyle := styles.Text
	typeStyle := styles.MutedText
	if selected {
		nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText)).Bold(true)
		typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
	}

	badge := categoryBadge(rec)
	budget := width - 2
	if badge != "" {
		budget -= len(badge) + 3
	}
	kind := strings.TrimSpace(rec.Type)
	if kind != "" {
		budget -= len([]rune(kind)) + 3
	}

	line := bg.Space() + bg.Render(truncate(rec.Name, maxInt(budget, 8)), nameStyle)
	if kind != "" {
		line += bg.Render(" · ", styles.FaintText) + bg.Render(kind, typeStyle)
	}
	if badge != "" {
		line += bg.Space() + styles.BadgeStyle(badge).Render(strings.ToUpper(badge))
	}
	return line
}

// categoryBadge returns the badge shown next to a record, if any.
func categoryBadge(rec characters.Record) string {
	switch category := rec.CategoryOrDefault(); category {
	case "boss", "enemy":
		return category
	default:
		return ""
	}
}

// renderTitledBox draws a bordered box with title embedded in the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := maxInt(width-2, 0)
	title = truncate(title, maxInt(innerWidth-4, 0))
	titleLen := len([]rune(title))
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, height)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
