// Package grouplist renders the filterable group list.
package grouplist

import (
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

// SelectedGroupMsg is sent when the user opens a group.
type SelectedGroupMsg struct {
	GroupID int64
}

// CriteriaMsg is sent when the search text or sort order changes.
type CriteriaMsg struct {
	Criteria view.GroupCriteria
}

// Model is the group list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	criteria    view.GroupCriteria
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	total       int
	width       int
	height      int
}

// New creates a new group list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Groups"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "filter by name..."
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

// SetGroups replaces the rendered groups. total is the unfiltered count;
// mine is the current user's group id, or 0.
func (m *Model) SetGroups(groups []model.Group, total int, mine int64) tea.Cmd {
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = GroupItem{Group: g, Mine: mine != 0 && g.ID == mine}
	}
	m.total = total
	return m.list.SetItems(items)
}

// Selected returns the highlighted group.
func (m Model) Selected() (model.Group, bool) {
	item, ok := m.list.SelectedItem().(GroupItem)
	if !ok {
		return model.Group{}, false
	}
	return item.Group, true
}

// Searching reports whether the filter input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the group list.
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

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.criteria.Name = m.searchInput.Value()
		return m, m.emitCriteria()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.criteria.Name = ""
		return m, m.emitCriteria()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		g, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedGroupMsg{GroupID: g.ID} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.criteria.Name)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex++
		if m.sortIndex >= len(view.AllGroupSorts) {
			m.sortIndex = -1
			m.criteria.SortBy = ""
		} else {
			m.criteria.SortBy = view.AllGroupSorts[m.sortIndex]
		}
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
	if m.criteria.Name != "" {
		s = "name~" + m.criteria.Name
	}
	if m.criteria.SortBy != "" {
		if s != "" {
			s += " · "
		}
		s += "sort: " + m.criteria.SortBy.Label()
	}
	return s
}

// View renders the group list.
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

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.total > 0 {
		return style.Render("No matching groups.\nPress / to change the filter.")
	}
	return style.Render("No groups yet.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
