package app

import (
	"fmt"
	"strings"

	"github.com/nhle/workhub/internal/theme"
	"github.com/nhle/workhub/internal/ui/config"
)

// View renders the full terminal UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.headerRight())
	alerts := m.layout.RenderAlerts(m.alerts.Active())
	status := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, alerts, m.renderContent(), status)
}

func (m Model) title() string {
	switch m.currentView {
	case ViewLogin:
		return "Work Management"
	case ViewGroups:
		if s := m.groupList.FilterSummary(); s != "" {
			return "Groups · " + s
		}
		return "Groups"
	case ViewGroupDetail, ViewAssign:
		return "Group"
	case ViewRequests:
		return "Join Requests"
	case ViewTasks:
		if s := m.taskList.FilterSummary(); s != "" {
			return "My Tasks · " + s
		}
		return "My Tasks"
	case ViewNotifications, ViewConfirm:
		return "Notifications"
	case ViewProfile:
		return "Profile"
	case ViewSettings:
		return "Settings"
	case ViewHelp:
		return "Help"
	case ViewCommand:
		return "Command"
	default:
		return "Work Management"
	}
}

// headerRight shows who is signed in, their group and the unread badge.
func (m Model) headerRight() string {
	sess := m.sessions.Current()
	if sess == nil {
		return "not signed in"
	}

	parts := []string{sess.Name, theme.RoleStyle(sess.Role).Render(sess.Role.Label())}
	if sess.Group != nil {
		parts = append(parts, sess.Group.Name)
	}
	if m.busy > 0 {
		parts = append(parts, "working...")
	}
	if m.feed.UnreadCount > 0 {
		parts = append(parts, theme.BadgeStyle.Render(fmt.Sprintf("%d new", m.feed.UnreadCount)))
	}
	return strings.Join(parts, " ")
}

// renderContent returns the view content for the current view state.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewGroups:
		return m.groupList.View()
	case ViewGroupDetail, ViewProfile:
		return m.detailView.View()
	case ViewRequests:
		return m.requestsView.View()
	case ViewTasks:
		return m.taskList.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewAssign:
		return m.taskForm.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewConfirm:
		return m.confirmView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns context-sensitive keyboard hints for the status bar.
func (m Model) keyHints() string {
	manage := m.sessions.Current().CanManageGroups()

	switch m.currentView {
	case ViewLogin:
		return "tab: next field  enter: sign in  ctrl+n: register  ctrl+c: quit"
	case ViewGroups:
		if m.groupList.Searching() {
			return "enter: apply  esc: cancel"
		}
		if manage {
			return "enter: open  /: search  tab: sort  J: join  R: requests  t: tasks  n: notifications  z: dismiss alert  ?: help"
		}
		return "enter: open  /: search  tab: sort  J: request to join  L: leave  t: tasks  n: notifications  z: dismiss alert  ?: help"
	case ViewGroupDetail:
		if manage {
			return "j/k: member  A: assign  D: remove  U: promote  esc: back"
		}
		return "j/k: scroll  esc: back"
	case ViewRequests:
		if manage {
			return "a: approve  x: reject  esc: back"
		}
		return "esc: back"
	case ViewTasks:
		if m.taskList.Searching() {
			return "enter: apply  esc: cancel"
		}
		return "/: search  s: status  tab: sort  g: groups  r: refresh  q: quit"
	case ViewNotifications:
		return "m: mark read  d: delete  M: mark all read  X: clear all  z: dismiss alert  esc: close"
	case ViewProfile:
		return "j/k: scroll  esc: back"
	case ViewAssign:
		return "tab: next field  enter: submit  esc: cancel"
	case ViewSettings:
		if m.settingsView.Mode() == config.ModeMenu {
			return "j/k: move  enter: open  esc: back"
		}
		return "tab: next field  enter: submit  esc: cancel"
	case ViewConfirm:
		return "y/n: answer  enter: confirm"
	case ViewHelp:
		return "esc/?: close help"
	case ViewCommand:
		return "enter: execute  tab: complete  esc: cancel"
	default:
		return ""
	}
}
