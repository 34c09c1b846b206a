package model

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "todo"
	TaskStatusDoing TaskStatus = "doing"
	TaskStatusDone  TaskStatus = "done"
)

// AllTaskStatuses lists every TaskStatus value.
var AllTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusDoing, TaskStatusDone}

// Label returns the display label of the status.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "To Do"
	case TaskStatusDoing:
		return "In Progress"
	case TaskStatusDone:
		return "Completed"
	}
	return string(s)
}

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// AllTaskPriorities lists every TaskPriority value.
var AllTaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

// Label returns the display label of the priority.
func (p TaskPriority) Label() string {
	switch p {
	case TaskPriorityLow:
		return "Low"
	case TaskPriorityMedium:
		return "Medium"
	case TaskPriorityHigh:
		return "High"
	}
	return string(p)
}

// Rank orders priorities from most to least urgent (high = 0).
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityHigh:
		return 0
	case TaskPriorityMedium:
		return 1
	case TaskPriorityLow:
		return 2
	}
	return 3
}

// Task is a unit of assigned work.
type Task struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	Deadline     *Timestamp   `json:"deadline,omitempty"`
	CreatedAt    Timestamp    `json:"created_at"`
	UpdatedAt    *Timestamp   `json:"updated_at,omitempty"`
	AssigneeID   *int64       `json:"assignee_id,omitempty"`
	AssignerID   *int64       `json:"assigner_id,omitempty"`
	GroupID      *int64       `json:"group_id,omitempty"`
	ParentTaskID *int64       `json:"parent_task_id,omitempty"`

	// Assigner and Group are populated by the per-user listing.
	Assigner *UserRef  `json:"assigner,omitempty"`
	Group    *GroupRef `json:"group,omitempty"`
}

// TaskOption is a candidate parent task offered when assigning work.
type TaskOption struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Status    TaskStatus   `json:"status"`
	Priority  TaskPriority `json:"priority"`
	Assignee  string       `json:"assignee"`
	CreatedAt Timestamp    `json:"created_at"`
}

// TaskRef is the compact task reference embedded in file listings.
type TaskRef struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}

// File is an uploaded attachment.
type File struct {
	ID         int64      `json:"id"`
	Filename   string     `json:"filename"`
	FileSize   int64      `json:"file_size"`
	Task       *TaskRef   `json:"task,omitempty"`
	UploadDate *Timestamp `json:"upload_date,omitempty"`
}

// UserFiles is the per-user file listing.
type UserFiles struct {
	User       UserRef `json:"user"`
	Files      []File  `json:"files"`
	TotalFiles int     `json:"total_files"`
	TotalSize  int64   `json:"total_size"`
}

// UploadedFile is returned after a successful upload.
type UploadedFile struct {
	Message string `json:"message"`
	File    *File  `json:"file,omitempty"`
}

// Report is a generated report entry.
type Report struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	ReportType string    `json:"report_type"`
	Format     string    `json:"format"`
	WeekPeriod string    `json:"week_period"`
	FileSize   int64     `json:"file_size"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  Timestamp `json:"created_at"`
}
