package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

// ErrIncomplete is returned when a form is missing a required value. The
// user has already been warned.
var ErrIncomplete = errors.New("form is incomplete")

const keyTasks = "tasks"

// TasksAPI is the Gateway surface used by the task screens.
type TasksAPI interface {
	UserTasks(ctx context.Context, userID int64) ([]model.Task, error)
	CreateTask(ctx context.Context, in api.TaskInput) (*api.TaskResult, error)
	BulkCreateTasks(ctx context.Context, in api.BulkTaskInput) (*api.BulkTaskResult, error)
	ParentOptions(ctx context.Context, q api.ParentOptionsQuery) ([]model.TaskOption, error)
}

// TaskForm is the assignment form shared by single and bulk assignment.
type TaskForm struct {
	Title       string
	Description string
	Priority    model.TaskPriority

	// Deadline is a date in api.DeadlineLayout, or empty.
	Deadline     string
	GroupID      int64
	ParentTaskID *int64
}

// TasksController drives the "my tasks" list and the assignment forms.
type TasksController struct {
	base
	api TasksAPI

	mu         gosync.Mutex
	tasks      []model.Task
	criteria   TaskCriteria
	onAssigned func(ctx context.Context)
}

// NewTasksController creates a controller.
func NewTasksController(client TasksAPI, session Session, alerts Alerter, opts ...Option) *TasksController {
	c := &TasksController{api: client}
	c.base.init(session, alerts, opts)
	return c
}

// OnAssigned registers a follow-up run after a successful assignment,
// typically reloading the open group detail.
func (c *TasksController) OnAssigned(fn func(ctx context.Context)) {
	c.mu.Lock()
	c.onAssigned = fn
	c.mu.Unlock()
}

// Mount starts the view lifecycle and loads the user's tasks.
func (c *TasksController) Mount(ctx context.Context) error {
	c.life.mount(ctx)
	return c.Load(ctx)
}

// Unmount cancels in-flight requests.
func (c *TasksController) Unmount() {
	c.life.unmount()
}

// Load fetches the tasks assigned to the current user.
func (c *TasksController) Load(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return nil
	}
	err := load(&c.base, ctx, keyTasks,
		func(ctx context.Context) ([]model.Task, error) {
			return c.api.UserTasks(ctx, sess.UserID)
		},
		func(tasks []model.Task) {
			c.mu.Lock()
			c.tasks = tasks
			c.mu.Unlock()
		},
	)
	if err != nil {
		c.fail(err, "Failed to load tasks")
	}
	return err
}

// ApplyFilter stores criteria and returns the filtered tasks.
func (c *TasksController) ApplyFilter(criteria TaskCriteria) []model.Task {
	c.mu.Lock()
	c.criteria = criteria
	out := FilterTasks(c.tasks, criteria)
	c.mu.Unlock()

	c.changed()
	return out
}

// Tasks returns the loaded tasks under the current criteria.
func (c *TasksController) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilterTasks(c.tasks, c.criteria)
}

// Criteria returns the current filter.
func (c *TasksController) Criteria() TaskCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// Assign creates one task for assigneeID.
func (c *TasksController) Assign(ctx context.Context, assigneeID int64, form TaskForm) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	if strings.TrimSpace(form.Title) == "" {
		c.alerts.Show(alert.Warning, "Please enter task title")
		return ErrIncomplete
	}

	in := api.TaskInput{
		Title:        strings.TrimSpace(form.Title),
		Description:  form.Description,
		Status:       model.TaskStatusTodo,
		Priority:     priorityOrDefault(form.Priority),
		Deadline:     form.Deadline,
		AssignerID:   sess.UserID,
		AssigneeID:   assigneeID,
		GroupID:      form.GroupID,
		ParentTaskID: form.ParentTaskID,
	}
	return c.mutate(ctx, "Task assigned successfully", "Failed to assign task",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.CreateTask(ctx, in); err != nil {
				return "", err
			}
			return "", nil
		},
		c.afterAssign,
	)
}

// BulkAssign creates the same task for every id in assigneeIDs.
func (c *TasksController) BulkAssign(ctx context.Context, assigneeIDs []int64, form TaskForm) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	if len(assigneeIDs) == 0 {
		c.alerts.Show(alert.Warning, "Please select at least one member")
		return ErrIncomplete
	}
	if strings.TrimSpace(form.Title) == "" {
		c.alerts.Show(alert.Warning, "Please enter task title")
		return ErrIncomplete
	}

	in := api.BulkTaskInput{
		AssignerID:  sess.UserID,
		AssigneeIDs: assigneeIDs,
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Status:      model.TaskStatusTodo,
		Priority:    priorityOrDefault(form.Priority),
		Deadline:    form.Deadline,
		GroupID:     form.GroupID,
	}
	okMsg := fmt.Sprintf("Tasks assigned to %d member(s) successfully", len(assigneeIDs))
	return c.mutate(ctx, okMsg, "Failed to assign tasks",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.BulkCreateTasks(ctx, in); err != nil {
				return "", err
			}
			return okMsg, nil
		},
		c.afterAssign,
	)
}

// ParentOptions lists unfinished top-level tasks that a new task for
// assigneeID in groupID can be nested under.
func (c *TasksController) ParentOptions(ctx context.Context, groupID, assigneeID int64) ([]model.TaskOption, error) {
	reqCtx, done, ok := c.life.request(ctx)
	if !ok {
		return nil, ErrNotMounted
	}
	defer done()

	opts, err := c.api.ParentOptions(reqCtx, api.ParentOptionsQuery{
		GroupID:    groupID,
		AssigneeID: assigneeID,
		Statuses:   []model.TaskStatus{model.TaskStatusTodo, model.TaskStatusDoing},
	})
	if err != nil {
		c.fail(err, "Failed to load parent tasks")
		return nil, err
	}
	return opts, nil
}

func (c *TasksController) afterAssign(ctx context.Context) {
	c.mu.Lock()
	fn := c.onAssigned
	c.mu.Unlock()
	if fn != nil {
		fn(ctx)
	}
}

func priorityOrDefault(p model.TaskPriority) model.TaskPriority {
	if p == "" {
		return model.TaskPriorityMedium
	}
	return p
}
