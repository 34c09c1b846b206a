// Package notifications renders the notification dropdown panel.
package notifications

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/workhub/internal/keys"
	"github.com/nhle/workhub/internal/model"
	appsync "github.com/nhle/workhub/internal/sync"
	"github.com/nhle/workhub/internal/theme"
)

// MarkReadMsg asks the parent to mark one notification read.
type MarkReadMsg struct {
	ID int64
}

// MarkAllReadMsg asks the parent to mark the whole feed read.
type MarkAllReadMsg struct{}

// DeleteMsg asks the parent to delete one notification.
type DeleteMsg struct {
	ID int64
}

// ClearAllMsg asks the parent to confirm and clear the feed.
type ClearAllMsg struct{}

// CloseMsg closes the panel.
type CloseMsg struct{}

type item struct {
	n model.Notification
}

func (i item) FilterValue() string { return i.n.Title }

type delegate struct {
	now func() time.Time
}

func (d delegate) Height() int                         { return 2 }
func (d delegate) Spacing() int                        { return 0 }
func (d delegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	n := it.n

	marker := " "
	if !n.IsRead {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("•")
	}
	if n.IsImportant {
		marker += lipgloss.NewStyle().Foreground(theme.ColorRed).Render("!")
	}

	title := fmt.Sprintf("%s %s %s", marker, theme.NotificationIcon(n.Type), n.Title)
	when := ""
	if !n.CreatedAt.IsZero() {
		when = humanize.RelTime(n.CreatedAt.Time, d.now(), "ago", "from now")
	}
	body := "    " + n.Message + "  " + theme.MutedStyle.Render(when)

	text := title + "\n" + body
	if n.IsRead {
		text = theme.DimmedStyle.Render(text)
	}
	if index == m.Index() {
		text = theme.SelectedItemStyle.Render(text)
	} else {
		text = theme.ListItemStyle.Render(text)
	}
	fmt.Fprint(w, text)
}

// Model is the notification panel.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	snapshot appsync.Snapshot
	width    int
	height   int
}

// New creates a notification panel.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{now: time.Now}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// SetSnapshot renders the latest feed state.
func (m *Model) SetSnapshot(s appsync.Snapshot) tea.Cmd {
	m.snapshot = s
	items := make([]list.Item, len(s.Notifications))
	for i, n := range s.Notifications {
		items[i] = item{n: n}
	}
	m.list.Title = fmt.Sprintf("Notifications (%d unread)", s.UnreadCount)
	return m.list.SetItems(items)
}

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.MarkRead):
			it, ok := m.list.SelectedItem().(item)
			if !ok || it.n.IsRead {
				return m, nil
			}
			id := it.n.ID
			return m, func() tea.Msg { return MarkReadMsg{ID: id} }

		case key.Matches(msg, m.keys.Delete):
			it, ok := m.list.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			id := it.n.ID
			return m, func() tea.Msg { return DeleteMsg{ID: id} }

		case key.Matches(msg, m.keys.MarkAllRead):
			if m.snapshot.UnreadCount == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return MarkAllReadMsg{} }

		case key.Matches(msg, m.keys.ClearAll):
			if len(m.snapshot.Notifications) == 0 {
				return m, nil
			}
			return m, func() tea.Msg { return ClearAllMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	footer := ""
	switch {
	case m.snapshot.State == appsync.StateRefreshing:
		footer = theme.MutedStyle.Render("refreshing...")
	case m.snapshot.Err != nil:
		footer = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("⚠ last refresh failed")
	case !m.snapshot.LastSync.IsZero():
		footer = theme.MutedStyle.Render("updated " + humanize.Time(m.snapshot.LastSync))
	}

	if len(m.snapshot.Notifications) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height - 1).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications")
		return lipgloss.JoinVertical(lipgloss.Left, empty, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-1)
}
