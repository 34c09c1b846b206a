// Package taskform is the task assignment form used from a group detail.
package taskform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
	"github.com/nhle/workhub/internal/view"
)

// SubmitMsg is dispatched when the form is completed.
type SubmitMsg struct {
	AssigneeIDs []int64
	Form        view.TaskForm
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.TaskPriority
	deadline    string
	assignees   []int64
	parent      string
}

// Model is the Bubble Tea model for the assignment form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	groupID int64
	width   int
	height  int
}

// New creates a new assignment form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.TaskPriorityMedium},
		width:  width,
		height: height,
	}
}

// Start initializes the form for groupID. members are the selectable
// assignees; preselected members start checked. parents are the tasks a
// new task can be nested under.
func (m *Model) Start(groupID int64, members []model.Member, preselected []int64, parents []model.TaskOption) tea.Cmd {
	m.groupID = groupID
	*m.fb = formBindings{priority: model.TaskPriorityMedium, assignees: append([]int64(nil), preselected...)}

	memberOpts := make([]huh.Option[int64], len(members))
	for i, mem := range members {
		memberOpts[i] = huh.NewOption(mem.Name, mem.ID)
	}

	priorityOpts := make([]huh.Option[model.TaskPriority], len(model.AllTaskPriorities))
	for i, p := range model.AllTaskPriorities {
		priorityOpts[i] = huh.NewOption(p.Label(), p)
	}

	fields := []huh.Field{
		huh.NewMultiSelect[int64]().
			Title("Assign to").
			Options(memberOpts...).
			Value(&m.fb.assignees),
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[model.TaskPriority]().
			Title("Priority").
			Options(priorityOpts...).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Deadline").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.deadline).
			Validate(validateOptionalDate),
	}
	if len(parents) > 0 {
		parentOpts := []huh.Option[string]{huh.NewOption("None", "")}
		for _, p := range parents {
			parentOpts = append(parentOpts, huh.NewOption(fmt.Sprintf("%s (%s)", p.Title, p.Status.Label()), strconv.FormatInt(p.ID, 10)))
		}
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Parent task").
				Options(parentOpts...).
				Value(&m.fb.parent),
		)
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit := m.submission()
		m.form = nil
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// submission leaves empty titles and assignee lists for the controller,
// which warns about them.
func (m Model) submission() SubmitMsg {
	form := view.TaskForm{
		Title:       m.fb.title,
		Description: strings.TrimSpace(m.fb.description),
		Priority:    m.fb.priority,
		Deadline:    strings.TrimSpace(m.fb.deadline),
		GroupID:     m.groupID,
	}
	if id, err := strconv.ParseInt(m.fb.parent, 10, 64); err == nil {
		form.ParentTaskID = &id
	}
	return SubmitMsg{AssigneeIDs: append([]int64(nil), m.fb.assignees...), Form: form}
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return theme.PanelStyle.Render(theme.TitleStyle.Render("Assign Task") + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(api.DeadlineLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
