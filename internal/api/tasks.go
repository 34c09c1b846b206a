package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/workhub/internal/model"
)

// DeadlineLayout is the date format accepted for task deadlines.
const DeadlineLayout = "2006-01-02"

// TaskInput assigns a single task.
type TaskInput struct {
	Title        string             `json:"title" validate:"required,max=200"`
	Description  string             `json:"description"`
	Status       model.TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=todo doing done"`
	Priority     model.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Deadline     string             `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AssignerID   int64              `json:"assigner_id" validate:"gt=0"`
	AssigneeID   int64              `json:"assignee_id" validate:"gt=0"`
	GroupID      int64              `json:"group_id,omitempty"`
	ParentTaskID *int64             `json:"parent_task_id,omitempty"`
}

// TaskResult is returned after creating a task.
type TaskResult struct {
	Message string      `json:"message"`
	Task    *model.Task `json:"task,omitempty"`
}

// CreateTask assigns a task to one user.
func (g *Gateway) CreateTask(ctx context.Context, in TaskInput) (*TaskResult, error) {
	const endpoint = "/tasks/create"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out TaskResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkTaskInput assigns the same task to several users.
type BulkTaskInput struct {
	AssignerID  int64              `json:"assigner_id" validate:"gt=0"`
	AssigneeIDs []int64            `json:"assignee_ids" validate:"min=1,dive,gt=0"`
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description"`
	Status      model.TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=todo doing done"`
	Priority    model.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Deadline    string             `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	GroupID     int64              `json:"group_id,omitempty"`
}

// BulkTaskResult reports how many tasks were created.
type BulkTaskResult struct {
	Message      string `json:"message"`
	TasksCreated int    `json:"tasks_created"`
}

// BulkCreateTasks assigns one task per assignee.
func (g *Gateway) BulkCreateTasks(ctx context.Context, in BulkTaskInput) (*BulkTaskResult, error) {
	const endpoint = "/tasks/bulk-create"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out BulkTaskResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParentOptionsQuery narrows the candidate parent tasks. Zero values are
// omitted; the server defaults to unfinished tasks and 50 results.
type ParentOptionsQuery struct {
	GroupID    int64
	AssigneeID int64
	Statuses   []model.TaskStatus
	Limit      int
}

func (q ParentOptionsQuery) encode() string {
	v := url.Values{}
	if q.GroupID > 0 {
		v.Set("group_id", strconv.FormatInt(q.GroupID, 10))
	}
	if q.AssigneeID > 0 {
		v.Set("assignee_id", strconv.FormatInt(q.AssigneeID, 10))
	}
	if len(q.Statuses) > 0 {
		parts := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v.Encode()
}

// ParentOptions lists top-level tasks that a new task can be nested under.
func (g *Gateway) ParentOptions(ctx context.Context, q ParentOptionsQuery) ([]model.TaskOption, error) {
	endpoint := "/tasks/parent-options"
	if qs := q.encode(); qs != "" {
		endpoint += "?" + qs
	}

	var out []model.TaskOption
	if err := g.Request(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserTasks lists the tasks assigned to a user, newest first.
func (g *Gateway) UserTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	var out []model.Task
	if err := g.Request(ctx, fmt.Sprintf("/tasks/user/%d", userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
