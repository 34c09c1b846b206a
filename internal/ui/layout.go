package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title on the left and
// the user/sync summary on the right.
func (l Layout) RenderHeader(title, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	rightRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(right)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		rightRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderAlerts renders the visible alerts, newest last, one per line.
func (l Layout) RenderAlerts(alerts []alert.Alert) string {
	if len(alerts) == 0 {
		return ""
	}
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = theme.AlertStyle(a.Kind).
			MaxWidth(l.Width).
			Render(a.Kind.Icon() + " " + a.Message)
	}
	return strings.Join(lines, "\n")
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, alert stack, content area, and status bar. The content is
// clipped so the alerts never push the status bar off screen.
func (l Layout) RenderWithFrame(header, alerts, content, statusBar string) string {
	parts := []string{header}
	height := l.ContentHeight()
	if alerts != "" {
		parts = append(parts, alerts)
		height -= lipgloss.Height(alerts)
	}
	if height < 0 {
		height = 0
	}
	parts = append(parts,
		lipgloss.NewStyle().MaxHeight(height).Render(content),
		statusBar,
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
