// Package detail renders the group detail and profile screens.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
)

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// AssignMsg asks the parent to open the assignment form for the group.
type AssignMsg struct {
	GroupID  int64
	Members  []model.Member
	Selected int64
}

// RemoveMemberMsg asks the parent to remove a member from the group.
type RemoveMemberMsg struct {
	UserID int64
}

// PromoteMsg asks the parent to make a member the group leader.
type PromoteMsg struct {
	GroupID int64
	UserID  int64
}

// Profile is everything shown on the profile screen.
type Profile struct {
	User    *model.User
	Files   *model.UserFiles
	Reports []model.Report
}

// Model shows either a group detail or the user's profile.
type Model struct {
	group    *model.GroupDetail
	profile  *Profile
	manage   bool
	cursor   int
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// SetGroup shows d. manage enables the member actions.
func (m *Model) SetGroup(d *model.GroupDetail, manage bool) {
	m.group = d
	m.profile = nil
	m.manage = manage
	m.loading = false
	if d == nil || m.cursor >= len(d.Members) {
		m.cursor = 0
	}
	m.refresh()
}

// SetProfile shows p.
func (m *Model) SetProfile(p *Profile) {
	m.profile = p
	m.group = nil
	m.loading = false
	m.refresh()
	m.viewport.GotoTop()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// GroupID returns the id of the shown group, or 0.
func (m Model) GroupID() int64 {
	if m.group == nil {
		return 0
	}
	return m.group.ID
}

func (m *Model) refresh() {
	switch {
	case m.group != nil:
		m.viewport.SetContent(m.renderGroup())
	case m.profile != nil:
		m.viewport.SetContent(m.renderProfile())
	default:
		m.viewport.SetContent("")
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		}

		if g := m.group; g != nil {
			switch {
			case key.Matches(msg, m.keys.Down):
				if m.cursor < len(g.Members)-1 {
					m.cursor++
					m.refresh()
				}
				return m, nil

			case key.Matches(msg, m.keys.Up):
				if m.cursor > 0 {
					m.cursor--
					m.refresh()
				}
				return m, nil

			case m.manage && key.Matches(msg, m.keys.Assign):
				var selected int64
				if mem, ok := m.selectedMember(); ok {
					selected = mem.ID
				}
				members := append([]model.Member(nil), g.Members...)
				return m, func() tea.Msg { return AssignMsg{GroupID: g.ID, Members: members, Selected: selected} }

			case m.manage && key.Matches(msg, m.keys.Remove):
				mem, ok := m.selectedMember()
				if !ok {
					return m, nil
				}
				return m, func() tea.Msg { return RemoveMemberMsg{UserID: mem.ID} }

			case m.manage && key.Matches(msg, m.keys.Promote):
				mem, ok := m.selectedMember()
				if !ok {
					return m, nil
				}
				return m, func() tea.Msg { return PromoteMsg{GroupID: g.ID, UserID: mem.ID} }
			}
		}
	}

	// Delegate to viewport for scrolling (pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) selectedMember() (model.Member, bool) {
	if m.group == nil || m.cursor >= len(m.group.Members) {
		return model.Member{}, false
	}
	return m.group.Members[m.cursor], true
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return placeholder.Render("Loading...")
	}
	if m.group == nil && m.profile == nil {
		return placeholder.Render("Nothing selected")
	}
	return m.viewport.View()
}

var (
	metaStyle = lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle  = lipgloss.NewStyle().Foreground(theme.ColorWhite)
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
)

func field(label, value string) string {
	return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-12s", label+":")), valStyle.Render(value))
}

func (m Model) separator() string {
	return lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
}

func (m Model) renderGroup() string {
	g := m.group
	sections := []string{headStyle.Render(g.Name)}
	if g.Description != "" {
		sections = append(sections, g.Description)
	}
	sections = append(sections, "")

	leader := "none"
	if g.Leader != nil {
		leader = g.Leader.Name
	}
	st := g.Statistics
	sections = append(sections,
		field("Leader", leader),
		field("Created", g.CreatedAt.Format("2006-01-02")),
		field("Members", fmt.Sprint(st.TotalMembers)),
		field("Tasks", fmt.Sprintf("%d total · %d done · %d in progress · %d to do",
			st.TotalTasks, st.CompletedTasks, st.InProgressTasks, st.TodoTasks)),
		field("Completion", st.CompletionRate),
		"",
		m.separator(),
		headStyle.Render(fmt.Sprintf("Members (%d)", len(g.Members))),
	)

	for i, mem := range g.Members {
		line := fmt.Sprintf("%s %s  %d/%d tasks · %s",
			theme.RoleStyle(mem.Role).Render(mem.Role.Label()),
			mem.Name, mem.TasksCompleted, mem.TasksAssigned, mem.CompletionRate)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		sections = append(sections, line)
	}
	if len(g.Members) == 0 {
		sections = append(sections, theme.MutedStyle.Render("No members"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderProfile() string {
	p := m.profile
	var sections []string

	if u := p.User; u != nil {
		sections = append(sections,
			headStyle.Render(u.Name)+" "+theme.RoleStyle(u.Role).Render(u.Role.Label()),
			"",
			field("Email", u.Email),
		)
		if u.EmployeeCode != "" {
			sections = append(sections, field("Code", u.EmployeeCode))
		}
		group := "none"
		if u.Group != nil {
			group = u.Group.Name
		}
		sections = append(sections, field("Group", group))

		if s := u.Statistics; s != nil {
			sections = append(sections,
				"",
				m.separator(),
				headStyle.Render("Statistics"),
				field("Tasks", fmt.Sprintf("%d total · %d done · %d in progress · %d to do",
					s.TotalTasks, s.CompletedTasks, s.InProgressTasks, s.TodoTasks)),
				field("Completion", s.CompletionRate),
				field("Files", humanize.Comma(int64(s.UploadedFiles))),
				field("Reports", humanize.Comma(int64(s.ReportsCreated))),
			)
		}
	}

	if f := p.Files; f != nil {
		sections = append(sections,
			"",
			m.separator(),
			headStyle.Render(fmt.Sprintf("Files (%d, %s)", f.TotalFiles, humanize.IBytes(uint64(f.TotalSize)))),
		)
		for _, file := range f.Files {
			line := fmt.Sprintf("%s  %s", file.Filename, metaStyle.Render(humanize.IBytes(uint64(file.FileSize))))
			if file.UploadDate != nil {
				line += "  " + theme.MutedStyle.Render(humanize.Time(file.UploadDate.Time))
			}
			sections = append(sections, theme.ListItemStyle.Render(line))
		}
	}

	if len(p.Reports) > 0 {
		sections = append(sections, "", m.separator(), headStyle.Render("Reports"))
		for _, r := range p.Reports {
			line := fmt.Sprintf("%s  %s %s  %s", r.Filename, r.ReportType, r.WeekPeriod,
				metaStyle.Render(humanize.IBytes(uint64(r.FileSize))))
			sections = append(sections, theme.ListItemStyle.Render(line))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}
