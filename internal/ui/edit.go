package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/etd-wiki/dungeon/internal/characters"
)

const (
	fieldName = iota
	fieldDescription
	fieldImage
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Description", "Image URL"}

// editForm holds the three editable inputs for the selected record.
type editForm struct {
	inputs   [fieldCount]textinput.Model
	focus    int
	recordID string
	name     string
	notice   string
}

func newEditForm() editForm {
	var f editForm
	placeholders := [fieldCount]string{
		"Character name",
		"What the archive says about them",
		"https://... or a local file path",
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		f.inputs[i] = in
	}
	f.inputs[fieldName].CharLimit = 120
	return f
}

func (f *editForm) setWidth(width int) {
	width = maxInt(width, 20)
	for i := range f.inputs {
		f.inputs[i].Width = width
	}
}

// load prefills the form from rec and focuses the first field.
func (f *editForm) load(rec characters.Record) {
	f.recordID = rec.ID
	f.name = rec.Name
	f.notice = ""
	f.inputs[fieldName].SetValue(rec.Name)
	f.inputs[fieldDescription].SetValue(rec.Description)
	f.inputs[fieldImage].SetValue(rec.Image)
	for i := range f.inputs {
		f.inputs[i].CursorEnd()
	}
	f.focus = fieldName
}

func (f *editForm) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *editForm) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.focusCurrent()
}

func (f *editForm) blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f editForm) fields() characters.Fields {
	return characters.Fields{
		Name:        f.inputs[fieldName].Value(),
		Description: f.inputs[fieldDescription].Value(),
		Image:       f.inputs[fieldImage].Value(),
	}
}

// handleEditKey processes keyboard input for the edit form.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.form.blur()
		m.currentView = ViewList
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitEdit()

	case key.Matches(msg, m.keys.Confirm):
		if m.form.focus == fieldCount-1 {
			return m.submitEdit()
		}
		return m, m.form.move(1)

	case key.Matches(msg, m.keys.NextField):
		return m, m.form.move(1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.move(-1)
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

func (m Model) submitEdit() (tea.Model, tea.Cmd) {
	if m.engine == nil || m.snapshot.Saving {
		return m, nil
	}
	if m.form.recordID == "" || m.form.recordID != m.snapshot.SelectedID {
		return m, nil
	}
	return m, submitEditCmd(m.ctx, m.engine, m.form.recordID, m.form.fields())
}

// syncEditForm keeps an open form pointed at the selected record. A refresh
// that moves the selection reloads the form from the new record, or closes
// it when nothing is selected.
func (m *Model) syncEditForm() {
	if m.currentView != ViewEdit || m.snapshot.SelectedID == m.form.recordID {
		return
	}
	previous := m.form.name
	rec, ok := m.snapshot.Selected()
	if !ok {
		m.form.blur()
		m.form.recordID = ""
		m.currentView = ViewList
		return
	}
	m.form.load(rec)
	m.form.focusCurrent()
	m.form.notice = fmt.Sprintf("%s is no longer available; editing %s instead.", previous, rec.Name)
}

// handleEditResult leaves the form after a successful save. Failures keep
// the form open so the user can fix the input; the status line carries the
// message.
func (m Model) handleEditResult(msg editResultMsg) (tea.Model, tea.Cmd) {
	if m.store != nil {
		m.applySnapshot(m.snapshot)
	}
	if msg.submitted && m.currentView == ViewEdit {
		m.form.blur()
		m.currentView = ViewList
	}
	return m, nil
}

// renderEdit renders the edit form.
func (m Model) renderEdit() string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	width := maxInt(m.width-2, 20)

	var b strings.Builder
	b.WriteString(bg.Render("Editing", styles.MutedText))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(truncate(m.form.name, width/2), styles.Text.Bold(true)))
	b.WriteString("\n\n")

	for i, in := range m.form.inputs {
		labelStyle := styles.MutedText
		marker := "  "
		if i == m.form.focus {
			labelStyle = styles.AccentText.Bold(true)
			marker = "› "
		}
		b.WriteString(bg.Render(marker, styles.AccentText))
		b.WriteString(bg.Render(padRight(fieldLabels[i], 14), labelStyle))
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}

	if m.form.notice != "" {
		b.WriteString(bg.Render(truncate(m.form.notice, width), styles.WarningText))
		b.WriteString("\n")
	}
	if m.snapshot.Saving {
		b.WriteString(bg.Render("Saving...", styles.WarningText))
	} else {
		b.WriteString(bg.Render("enter next field · ctrl+s save · esc cancel", styles.FaintText))
	}
	b.WriteString("\n")
	b.WriteString(bg.Render("Images that are not already hosted are uploaded before saving.", styles.FaintText))

	return m.renderTitledBox("Edit character", b.String(), m.width, m.contentHeight(), true)
}
