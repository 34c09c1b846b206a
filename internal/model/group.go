package model

import (
	"strconv"
	"strings"
)

// Group is the list snapshot of a group with denormalized counters.
type Group struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	LeaderID       *int64    `json:"leader_id"`
	LeaderName     string    `json:"leader_name"`
	MemberCount    int       `json:"member_count"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CompletionRate string    `json:"completion_rate"`
	CreatedAt      Timestamp `json:"created_at"`
}

// HasLeader reports whether the group has a leader assigned.
func (g Group) HasLeader() bool {
	return g.LeaderID != nil && *g.LeaderID != 0
}

// CompletionPercent parses CompletionRate ("62.5%") into a number.
// Unparseable values count as 0.
func (g Group) CompletionPercent() float64 {
	return ParsePercent(g.CompletionRate)
}

// ParsePercent parses a percentage-formatted string such as "80%" or
// "12.5%". It returns 0 when the value is empty or malformed.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// GroupStatistics holds task counters for a group detail view.
type GroupStatistics struct {
	TotalMembers    int    `json:"total_members"`
	TotalTasks      int    `json:"total_tasks"`
	CompletedTasks  int    `json:"completed_tasks"`
	InProgressTasks int    `json:"in_progress_tasks"`
	TodoTasks       int    `json:"todo_tasks"`
	CompletionRate  string `json:"completion_rate"`
}

// Member is a group member with per-member task counters.
type Member struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	EmployeeCode   string `json:"employee_code,omitempty"`
	TasksAssigned  int    `json:"tasks_assigned"`
	TasksCompleted int    `json:"tasks_completed"`
	CompletionRate string `json:"completion_rate"`
}

// GroupDetail is the full view of a single group.
type GroupDetail struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Leader      *UserRef        `json:"leader"`
	CreatedAt   Timestamp       `json:"created_at"`
	Statistics  GroupStatistics `json:"statistics"`
	Members     []Member        `json:"members"`
}

// Ref returns the GroupRef for the detail's group.
func (d GroupDetail) Ref() GroupRef {
	return GroupRef{ID: d.ID, Name: d.Name, Description: d.Description}
}

// TransferOption is a candidate target group for a member transfer.
type TransferOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	LeaderName  string `json:"leader_name"`
	MemberCount int    `json:"member_count"`
	CanJoin     bool   `json:"can_join"`
}

// JoinRequestStatus is the lifecycle state of a join request.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// AllJoinRequestStatuses lists every JoinRequestStatus value.
var AllJoinRequestStatuses = []JoinRequestStatus{
	JoinRequestPending,
	JoinRequestApproved,
	JoinRequestRejected,
}

// Terminal reports whether no further transition is possible.
func (s JoinRequestStatus) Terminal() bool {
	return s == JoinRequestApproved || s == JoinRequestRejected
}

// JoinRequest is an employee's petition to join a group.
type JoinRequest struct {
	ID           int64             `json:"id"`
	User         *UserRef          `json:"user"`
	Group        *GroupRef         `json:"group"`
	Status       JoinRequestStatus `json:"status"`
	Message      string            `json:"message"`
	AdminMessage string            `json:"admin_message"`
	ProcessedBy  *UserRef          `json:"processed_by,omitempty"`
	ProcessedAt  *Timestamp        `json:"processed_at,omitempty"`
	CreatedAt    Timestamp         `json:"created_at"`
}

// MessageResponse is the minimal body returned by every mutating call.
type MessageResponse struct {
	Message string `json:"message"`
}
