// Package confirm asks a yes/no question before a destructive action.
package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/workhub/internal/theme"
)

// ResultMsg carries the answer. Tag identifies which question it answers.
type ResultMsg struct {
	Tag string
	OK  bool
}

// Model is a single-question confirmation dialog.
type Model struct {
	form   *huh.Form
	tag    string
	answer *bool
	width  int
}

// New creates an idle dialog.
func New(width int) Model {
	return Model{answer: new(bool), width: width}
}

// Ask shows prompt; the answer arrives as a ResultMsg tagged with tag.
func (m *Model) Ask(tag, prompt string) tea.Cmd {
	m.tag = tag
	*m.answer = false
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(m.answer),
	)).WithWidth(m.width - 8)
	return m.form.Init()
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted, huh.StateAborted:
		res := ResultMsg{Tag: m.tag, OK: m.form.State == huh.StateCompleted && *m.answer}
		m.form = nil
		return m, func() tea.Msg { return res }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return theme.PanelStyle.Width(m.width - 4).Render(m.form.View())
}

// SetSize updates the dialog width.
func (m *Model) SetSize(width int) {
	m.width = width
}
