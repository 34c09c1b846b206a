package tasklist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
	"github.com/nhle/workhub/internal/view"
)

// CriteriaMsg is sent when the filter or sort order changes.
type CriteriaMsg struct {
	Criteria view.TaskCriteria
}

// statusCycle is the order the status filter steps through; "" is all.
var statusCycle = append([]model.TaskStatus{""}, model.AllTaskStatuses...)

// Model is the "my tasks" list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	criteria    view.TaskCriteria
	sortIndex   int
	statusIndex int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{now: time.Now}, width, height-2)
	l.Title = "My Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		sortIndex:   -1,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetTasks replaces the rendered tasks.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.criteria.Query = m.searchInput.Value()
		return m, m.emitCriteria()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.criteria.Query = ""
		return m, m.emitCriteria()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.criteria.Query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex++
		if m.sortIndex >= len(view.AllTaskSorts) {
			m.sortIndex = -1
			m.criteria.SortBy = ""
		} else {
			m.criteria.SortBy = view.AllTaskSorts[m.sortIndex]
		}
		return m, m.emitCriteria()

	case msg.String() == "s":
		m.statusIndex = (m.statusIndex + 1) % len(statusCycle)
		m.criteria.Status = statusCycle[m.statusIndex]
		return m, m.emitCriteria()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) emitCriteria() tea.Cmd {
	c := m.criteria
	return func() tea.Msg { return CriteriaMsg{Criteria: c} }
}

// FilterSummary describes the active criteria for the status bar.
func (m Model) FilterSummary() string {
	s := ""
	add := func(part string) {
		if s != "" {
			s += " · "
		}
		s += part
	}
	if m.criteria.Status != "" {
		add("status: " + m.criteria.Status.Label())
	}
	if m.criteria.Query != "" {
		add("search: " + m.criteria.Query)
	}
	if m.criteria.SortBy != "" {
		add("sort: " + string(m.criteria.SortBy))
	}
	return s
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	hasFilters := m.criteria.Status != "" || m.criteria.Priority != "" || m.criteria.Query != ""

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if hasFilters {
		return style.Render("No matching tasks.\nTry adjusting your filters.")
	}
	return style.Render("No tasks assigned to you.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
