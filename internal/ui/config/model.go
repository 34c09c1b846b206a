// Package config is the settings screen: client configuration, password
// change, file upload and account registration.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeMenu     Mode = iota // Choose an action
	ModeServer               // Client configuration form
	ModePassword             // Change password form
	ModeUpload               // Upload a file to a task
	ModeRegister             // Create an account
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SaveConfigMsg asks the parent to persist cfg.
type SaveConfigMsg struct {
	Config model.AppConfig
}

// ChangePasswordMsg carries the password change form.
type ChangePasswordMsg struct {
	Current string
	Next    string
	Confirm string
}

// UploadMsg asks the parent to read Path and attach it to TaskID.
type UploadMsg struct {
	TaskID int64
	Path   string
}

// RegisterMsg carries the registration form.
type RegisterMsg struct {
	Input api.RegisterInput
}

type menuEntry struct {
	label string
	mode  Mode
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL      string
	timeout      string
	pollInterval string
	limit        string
	maxAlerts    string

	current string
	next    string
	confirm string

	taskID string
	path   string

	name     string
	email    string
	password string
	role     model.Role
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode     Mode
	form     *huh.Form
	fb       *formBindings
	cfg      model.AppConfig
	entries  []menuEntry
	selected int
	admin    bool

	// closeOnExit returns straight to the parent when a form finishes,
	// used when the register form is opened from the login screen.
	closeOnExit bool

	keys          *keys.KeyMap
	width, height int
}

// New creates a new settings view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		keys:   k,
		width:  width,
		height: height,
	}
}

// Open shows the menu. Registration is offered to admins only; everyone
// else registers from the login screen.
func (m *Model) Open(cfg model.AppConfig, sess *model.Session) {
	m.cfg = cfg
	m.admin = sess.IsAdmin()
	m.mode = ModeMenu
	m.form = nil
	m.selected = 0
	m.closeOnExit = false

	m.entries = []menuEntry{{"Client settings", ModeServer}}
	if sess != nil {
		m.entries = append(m.entries,
			menuEntry{"Change password", ModePassword},
			menuEntry{"Upload a file to a task", ModeUpload},
		)
	}
	if m.admin {
		m.entries = append(m.entries, menuEntry{"Register an account", ModeRegister})
	}
}

// StartRegister opens the registration form directly.
func (m *Model) StartRegister(sess *model.Session) tea.Cmd {
	m.admin = sess.IsAdmin()
	m.closeOnExit = true
	return m.start(ModeRegister)
}

// Mode returns the active mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Update handles messages and dispatches based on the current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == ModeMenu {
		if msg, ok := msg.(tea.KeyMsg); ok {
			return m.handleMenuKeys(msg)
		}
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) handleMenuKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }

	case key.Matches(msg, m.keys.Select):
		if len(m.entries) == 0 {
			return m, nil
		}
		cmd := m.start(m.entries[m.selected].mode)
		return m, cmd

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selected = (m.selected + 1) % len(m.entries)
		}

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.entries) - 1
			}
		}
	}
	return m, nil
}

// start resets the bindings and builds the form for mode.
func (m *Model) start(mode Mode) tea.Cmd {
	*m.fb = formBindings{role: model.RoleEmployee}
	m.mode = mode

	switch mode {
	case ModeServer:
		m.fb.baseURL = m.cfg.Server.BaseURL
		m.fb.timeout = strconv.Itoa(m.cfg.Server.TimeoutSec)
		m.fb.pollInterval = strconv.Itoa(m.cfg.Notifications.PollIntervalSec)
		m.fb.limit = strconv.Itoa(m.cfg.Notifications.Limit)
		m.fb.maxAlerts = strconv.Itoa(m.cfg.Alerts.MaxVisible)
		m.form = m.buildServerForm()
	case ModePassword:
		m.form = m.buildPasswordForm()
	case ModeUpload:
		m.form = m.buildUploadForm()
	case ModeRegister:
		m.form = m.buildRegisterForm()
	default:
		m.form = nil
		return nil
	}
	return m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeMenu
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		out := m.submission()
		return m.exit(), func() tea.Msg { return out }
	case huh.StateAborted:
		next := m.exit()
		if next.closeOnExit {
			return next, func() tea.Msg { return DoneMsg{} }
		}
		return next, nil
	}
	return m, cmd
}

// exit leaves the current form, back to the menu.
func (m Model) exit() Model {
	m.form = nil
	m.mode = ModeMenu
	return m
}

// submission converts the completed form into its message.
func (m Model) submission() tea.Msg {
	switch m.mode {
	case ModeServer:
		cfg := m.cfg
		cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
		cfg.Server.TimeoutSec, _ = strconv.Atoi(m.fb.timeout)
		cfg.Notifications.PollIntervalSec, _ = strconv.Atoi(m.fb.pollInterval)
		cfg.Notifications.Limit, _ = strconv.Atoi(m.fb.limit)
		cfg.Alerts.MaxVisible, _ = strconv.Atoi(m.fb.maxAlerts)
		return SaveConfigMsg{Config: cfg}
	case ModePassword:
		return ChangePasswordMsg{Current: m.fb.current, Next: m.fb.next, Confirm: m.fb.confirm}
	case ModeUpload:
		id, _ := strconv.ParseInt(strings.TrimSpace(m.fb.taskID), 10, 64)
		return UploadMsg{TaskID: id, Path: strings.TrimSpace(m.fb.path)}
	case ModeRegister:
		in := api.RegisterInput{
			Name:     strings.TrimSpace(m.fb.name),
			Email:    strings.TrimSpace(m.fb.email),
			Password: m.fb.password,
		}
		if m.admin {
			in.Role = m.fb.role
		}
		return RegisterMsg{Input: in}
	default:
		return nil
	}
}

func (m *Model) buildServerForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Base URL of the Work Management API").
				Placeholder(model.DefaultBaseURL).
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.fb.timeout).
				Validate(validatePositive("Timeout")),
			huh.NewInput().
				Title("Notification refresh (seconds)").
				Value(&m.fb.pollInterval).
				Validate(validatePositive("Refresh interval")),
			huh.NewInput().
				Title("Notifications shown").
				Value(&m.fb.limit).
				Validate(validatePositive("Limit")),
			huh.NewInput().
				Title("Alerts shown at once").
				Value(&m.fb.maxAlerts).
				Validate(validatePositive("Alert count")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildPasswordForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.current).
				Validate(validateRequired("Current password")),
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.next).
				Validate(validateMinLength("New password", 6)),
			huh.NewInput().
				Title("Confirm new password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm).
				Validate(validateRequired("Confirmation")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildUploadForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task ID").
				Value(&m.fb.taskID).
				Validate(validatePositive("Task ID")),
			huh.NewInput().
				Title("File").
				Description("Path to a document, image or archive under 10MB").
				Value(&m.fb.path).
				Validate(validateRequired("File")),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) buildRegisterForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Email").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateMinLength("Password", 6)),
	}
	if m.admin {
		fields = append(fields, huh.NewSelect[model.Role]().
			Title("Role").
			Options(
				huh.NewOption(model.RoleEmployee.Label(), model.RoleEmployee),
				huh.NewOption(model.RoleLeader.Label(), model.RoleLeader),
				huh.NewOption(model.RoleAdmin.Label(), model.RoleAdmin),
			).
			Value(&m.fb.role))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(m.formWidth())
}

// View renders the settings screen.
func (m Model) View() string {
	if m.mode != ModeMenu && m.form != nil {
		return theme.PanelStyle.Render(theme.TitleStyle.Render(m.formTitle()) + "\n" + m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Settings"))
	b.WriteString("\n\n")
	for i, e := range m.entries {
		if i == m.selected {
			b.WriteString(theme.SelectedItemStyle.Render("> " + e.label))
		} else {
			b.WriteString(theme.ListItemStyle.Render("  " + e.label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.MutedStyle.Render("Client settings take effect the next time workhub starts."))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) formTitle() string {
	switch m.mode {
	case ModeServer:
		return "Client settings"
	case ModePassword:
		return "Change password"
	case ModeUpload:
		return "Upload file"
	case ModeRegister:
		return "Register"
	default:
		return ""
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-8, 40), 80)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateMinLength(fieldName string, n int) func(string) error {
	return func(s string) error {
		if len(s) < n {
			return fmt.Errorf("%s must be at least %d characters", fieldName, n)
		}
		return nil
	}
}

func validatePositive(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:5000/api)")
	}
	return nil
}
