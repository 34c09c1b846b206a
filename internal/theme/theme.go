package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps detail, help and form content.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle renders read notifications and finished tasks.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// MutedStyle renders secondary text such as timestamps.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// TitleStyle renders a panel title.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// BadgeStyle renders the unread counter in the header.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

var badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// StatusStyle returns a color-coded style for a task status.
func StatusStyle(status model.TaskStatus) lipgloss.Style {
	switch status {
	case model.TaskStatusTodo:
		return badgeBase.Foreground(ColorBlue)
	case model.TaskStatusDoing:
		return badgeBase.Foreground(ColorYellow)
	case model.TaskStatusDone:
		return badgeBase.Foreground(ColorGreen)
	default:
		return badgeBase.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a task priority.
func PriorityStyle(priority model.TaskPriority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.TaskPriorityHigh:
		return base.Foreground(ColorRed)
	case model.TaskPriorityMedium:
		return base.Foreground(ColorYellow)
	case model.TaskPriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// RoleStyle returns the badge style for a user role.
func RoleStyle(role model.Role) lipgloss.Style {
	switch role {
	case model.RoleAdmin:
		return badgeBase.Foreground(ColorRed)
	case model.RoleLeader:
		return badgeBase.Foreground(ColorOrange)
	case model.RoleEmployee:
		return badgeBase.Foreground(ColorBlue)
	default:
		return badgeBase.Foreground(ColorGray)
	}
}

// JoinRequestStyle returns the badge style for a join request status.
func JoinRequestStyle(status model.JoinRequestStatus) lipgloss.Style {
	switch status {
	case model.JoinRequestPending:
		return badgeBase.Foreground(ColorYellow)
	case model.JoinRequestApproved:
		return badgeBase.Foreground(ColorGreen)
	case model.JoinRequestRejected:
		return badgeBase.Foreground(ColorRed)
	default:
		return badgeBase.Foreground(ColorGray)
	}
}

// AlertStyle returns the style of an alert line.
func AlertStyle(kind alert.Kind) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder(), false, false, false, true)

	switch kind {
	case alert.Success:
		return base.Foreground(ColorGreen).BorderForeground(ColorGreen)
	case alert.Danger:
		return base.Foreground(ColorRed).BorderForeground(ColorRed)
	case alert.Warning:
		return base.Foreground(ColorYellow).BorderForeground(ColorYellow)
	case alert.Info:
		return base.Foreground(ColorBlue).BorderForeground(ColorBlue)
	default:
		return base.Foreground(ColorGray).BorderForeground(ColorGray)
	}
}

// NotificationIcon returns the glyph shown for a notification type.
func NotificationIcon(t model.NotificationType) string {
	switch t {
	case model.NotificationTaskAssigned, model.NotificationTaskUpdated:
		return "◆"
	case model.NotificationTaskCompleted:
		return "✓"
	case model.NotificationTaskOverdue, model.NotificationTaskDeadlineSoon:
		return "⏰"
	case model.NotificationGroupJoined, model.NotificationGroupRemoved,
		model.NotificationGroupJoinRequest, model.NotificationGroupJoinApproved,
		model.NotificationGroupJoinRejected:
		return "●"
	case model.NotificationRoleChanged:
		return "★"
	case model.NotificationReportGenerated:
		return "▤"
	case model.NotificationSystemAnnouncement:
		return "!"
	default:
		return "·"
	}
}
