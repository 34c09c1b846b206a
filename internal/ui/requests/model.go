// Package requests lists group join requests: the pending queue for
// admins and leaders, and the user's own requests for employees.
package requests

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
)

// ReviewMsg asks the parent to approve or reject a pending request.
type ReviewMsg struct {
	RequestID int64
	Approve   bool
}

// CloseMsg returns to the group list.
type CloseMsg struct{}

type item struct {
	jr model.JoinRequest
}

func (i item) FilterValue() string { return "" }

type delegate struct{}

func (delegate) Height() int                         { return 2 }
func (delegate) Spacing() int                        { return 0 }
func (delegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	jr := it.jr

	who, group := "", ""
	if jr.User != nil {
		who = jr.User.Name
	}
	if jr.Group != nil {
		group = jr.Group.Name
	}
	status := theme.JoinRequestStyle(jr.Status).Render(string(jr.Status))
	head := fmt.Sprintf("%s → %s %s", who, group, status)

	note := jr.Message
	if jr.AdminMessage != "" {
		note += "  reply: " + jr.AdminMessage
	}
	when := ""
	if !jr.CreatedAt.IsZero() {
		when = humanize.Time(jr.CreatedAt.Time)
	}
	text := head + "\n    " + note + "  " + theme.MutedStyle.Render(when)

	if index == m.Index() {
		text = theme.SelectedItemStyle.Render(text)
	} else {
		text = theme.ListItemStyle.Render(text)
	}
	fmt.Fprint(w, text)
}

// Model is the join request list.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	reviewer bool
	width    int
	height   int
}

// New creates a request list.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	return Model{list: l, keys: k, width: width, height: height}
}

// SetRequests shows reqs. reviewer enables approve/reject.
func (m *Model) SetRequests(reqs []model.JoinRequest, reviewer bool) tea.Cmd {
	m.reviewer = reviewer
	if reviewer {
		m.list.Title = fmt.Sprintf("Pending join requests (%d)", len(reqs))
	} else {
		m.list.Title = "My join requests"
	}
	items := make([]list.Item, len(reqs))
	for i, jr := range reqs {
		items[i] = item{jr: jr}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the request list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case m.reviewer && key.Matches(msg, m.keys.Approve):
			return m, m.review(true)

		case m.reviewer && key.Matches(msg, m.keys.Reject):
			return m, m.review(false)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) review(approve bool) tea.Cmd {
	it, ok := m.list.SelectedItem().(item)
	if !ok || it.jr.Status != model.JoinRequestPending {
		return nil
	}
	id := it.jr.ID
	return func() tea.Msg { return ReviewMsg{RequestID: id, Approve: approve} }
}

// View renders the request list.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No join requests")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
