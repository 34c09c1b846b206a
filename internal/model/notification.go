package model

// NotificationType classifies the event a notification reports.
type NotificationType string

const (
	NotificationTaskAssigned       NotificationType = "task_assigned"
	NotificationTaskUpdated        NotificationType = "task_updated"
	NotificationTaskCompleted      NotificationType = "task_completed"
	NotificationTaskOverdue        NotificationType = "task_overdue"
	NotificationTaskDeadlineSoon   NotificationType = "task_deadline_soon"
	NotificationGroupJoined        NotificationType = "group_joined"
	NotificationGroupRemoved       NotificationType = "group_removed"
	NotificationGroupJoinRequest   NotificationType = "group_join_request"
	NotificationGroupJoinApproved  NotificationType = "group_join_approved"
	NotificationGroupJoinRejected  NotificationType = "group_join_rejected"
	NotificationRoleChanged        NotificationType = "role_changed"
	NotificationReportGenerated    NotificationType = "report_generated"
	NotificationSystemAnnouncement NotificationType = "system_announcement"
)

// AllNotificationTypes lists every NotificationType value.
var AllNotificationTypes = []NotificationType{
	NotificationTaskAssigned,
	NotificationTaskUpdated,
	NotificationTaskCompleted,
	NotificationTaskOverdue,
	NotificationTaskDeadlineSoon,
	NotificationGroupJoined,
	NotificationGroupRemoved,
	NotificationGroupJoinRequest,
	NotificationGroupJoinApproved,
	NotificationGroupJoinRejected,
	NotificationRoleChanged,
	NotificationReportGenerated,
	NotificationSystemAnnouncement,
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is a server-generated alert for the current user.
type Notification struct {
	// ID is the server-assigned unique identifier.
	ID int64 `json:"id"`

	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`

	// IsRead flips false to true on an explicit read action.
	IsRead      bool       `json:"is_read"`
	IsImportant bool       `json:"is_important"`
	CreatedAt   Timestamp  `json:"created_at"`
	ReadAt      *Timestamp `json:"read_at,omitempty"`

	// Optional links to the entity the notification is about.
	TaskID   *int64 `json:"task_id,omitempty"`
	GroupID  *int64 `json:"group_id,omitempty"`
	ReportID *int64 `json:"report_id,omitempty"`
}

// NotificationPage is one page of the notification feed, most recent first.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

// CountUnread returns the number of unread notifications in ns.
func CountUnread(ns []Notification) int {
	n := 0
	for _, item := range ns {
		if !item.IsRead {
			n++
		}
	}
	return n
}
