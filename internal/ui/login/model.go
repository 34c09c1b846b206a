// Package login renders the sign-in form shown while logged out.
package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/theme"
)

// SubmitMsg carries the credentials entered by the user.
type SubmitMsg struct {
	Email    string
	Password string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
}

// Model is the login form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	busy   bool
	width  int
	height int
}

// New creates a login form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start (re)builds the form. The last email is kept for convenience.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.busy = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@company.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// Idle reports whether the form has not been started.
func (m Model) Idle() bool {
	return m.form == nil
}

// SetBusy marks a login request as in flight.
func (m *Model) SetBusy(busy bool) {
	m.busy = busy
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := SubmitMsg{Email: strings.TrimSpace(m.fb.email), Password: m.fb.password}
		m.busy = true
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the login form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	body := m.form.View()
	if m.busy {
		body = theme.MutedStyle.Render("Signing in...")
	}
	content := theme.TitleStyle.Render("Sign in to Work Management") + "\n" + body

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Width(m.formWidth()+4).Render(content))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	if w > 70 {
		w = 70
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}
