package model

// Role is the authorization level of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLeader   Role = "leader"
	RoleEmployee Role = "employee"
)

// AllRoles lists every Role value.
var AllRoles = []Role{RoleAdmin, RoleLeader, RoleEmployee}

// Label returns the capitalized role name shown in the user menu.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleLeader:
		return "Leader"
	case RoleEmployee:
		return "Employee"
	}
	return string(r)
}

// GroupRef is the denormalized group membership carried on a user.
type GroupRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Session is the client-held record of the authenticated user. It is the
// JSON blob persisted between runs.
type Session struct {
	UserID       int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	EmployeeCode string    `json:"employee_code,omitempty"`
	Group        *GroupRef `json:"group"`

	// Token is the bearer token issued by the server, if any.
	Token string `json:"token,omitempty"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Group != nil {
		g := *s.Group
		c.Group = &g
	}
	return &c
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// CanManageGroups reports whether the user may approve requests, add
// members and assign tasks.
func (s *Session) CanManageGroups() bool {
	return s != nil && (s.Role == RoleAdmin || s.Role == RoleLeader)
}

// Navigation describes which role-gated navigation sections are visible.
type Navigation struct {
	LoginButton     bool
	UserMenu        bool
	Notifications   bool
	Groups          bool
	AdminLeaderOnly bool
	AdminOnly       bool
}

// NavigationFor computes navigation gating for the given session. A nil
// session is logged out.
func NavigationFor(s *Session) Navigation {
	if s == nil {
		return Navigation{LoginButton: true}
	}

	nav := Navigation{
		UserMenu:      true,
		Notifications: true,
		Groups:        true,
	}
	switch s.Role {
	case RoleAdmin:
		nav.AdminOnly = true
		nav.AdminLeaderOnly = true
	case RoleLeader:
		nav.AdminLeaderOnly = true
	case RoleEmployee:
	}
	return nav
}

// User is a user record as returned by the users endpoints.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	EmployeeCode string    `json:"employee_code,omitempty"`
	Group        *GroupRef `json:"group,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    Timestamp `json:"created_at"`

	// Populated by the available-leaders listing.
	IsLeading   bool      `json:"is_leading,omitempty"`
	CanBeLeader bool      `json:"can_be_leader,omitempty"`
	LedGroup    *GroupRef `json:"led_group,omitempty"`

	// Populated by the single-user endpoint.
	Statistics *UserStatistics `json:"statistics,omitempty"`
}

// UserStatistics are the per-user counters shown on a profile.
type UserStatistics struct {
	TotalTasks      int    `json:"total_tasks"`
	CompletedTasks  int    `json:"completed_tasks"`
	InProgressTasks int    `json:"in_progress_tasks"`
	TodoTasks       int    `json:"todo_tasks"`
	UploadedFiles   int    `json:"uploaded_files"`
	ReportsCreated  int    `json:"reports_created"`
	CompletionRate  string `json:"completion_rate"`
}

// UserRef is the compact user reference embedded in other entities.
type UserRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Role         Role   `json:"role,omitempty"`
}
