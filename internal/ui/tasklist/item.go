package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task

	prefix := "○"
	if t.Status == model.TaskStatusDone {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.Label())
	priBadge := theme.PriorityStyle(t.Priority).Render(t.Priority.Label())

	due := ""
	if t.Deadline != nil && !t.Deadline.IsZero() {
		style := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if t.Status != model.TaskStatusDone && t.Deadline.Before(d.now()) {
			style = lipgloss.NewStyle().Foreground(theme.ColorRed).Bold(true)
		}
		due = style.Render(" due " + humanize.RelTime(t.Deadline.Time, d.now(), "ago", "from now"))
	}

	group := ""
	if t.Group != nil {
		group = theme.MutedStyle.Render(" [" + t.Group.Name + "]")
	}

	line := fmt.Sprintf("%s %s %s %s%s%s", prefix, statusBadge, priBadge, t.Title, group, due)
	if t.Status == model.TaskStatusDone {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
