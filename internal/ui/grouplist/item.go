package grouplist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/theme"
)

// GroupItem wraps a model.Group so it can be used in a bubbles/list.
type GroupItem struct {
	Group model.Group

	// Mine marks the group the current user belongs to.
	Mine bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i GroupItem) FilterValue() string { return i.Group.Name }

// ItemDelegate implements list.ItemDelegate for rendering group rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single group line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	gi, ok := item.(GroupItem)
	if !ok {
		return
	}
	g := gi.Group

	prefix := "○"
	if gi.Mine {
		prefix = "●"
	}

	leader := theme.MutedStyle.Render("no leader")
	if g.HasLeader() {
		leader = lipgloss.NewStyle().Foreground(theme.ColorOrange).Render(g.LeaderName)
	}

	rate := g.CompletionRate
	if rate == "" {
		rate = "0%"
	}
	stats := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%d members · %d/%d tasks · %s", g.MemberCount, g.CompletedTasks, g.TotalTasks, rate))

	line := fmt.Sprintf("%s %s  %s  %s", prefix, g.Name, leader, stats)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
