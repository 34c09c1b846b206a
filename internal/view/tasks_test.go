package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/model"
)

func mountTasks(t *testing.T, e *env) *TasksController {
	t.Helper()
	c := NewTasksController(e.gateway, e.session, e.alerts)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(c.Unmount)
	return c
}

func TestTasksLoadAndFilter(t *testing.T) {
	e := newEnv(t, employee(7))
	e.fake.AddTask(7, model.Task{ID: 1, Title: "a", Status: model.TaskStatusTodo})
	e.fake.AddTask(7, model.Task{ID: 2, Title: "b", Status: model.TaskStatusDone})
	e.fake.AddTask(8, model.Task{ID: 3, Title: "other"})
	c := mountTasks(t, e)

	if got := c.Tasks(); len(got) != 2 {
		t.Fatalf("tasks = %d, want 2", len(got))
	}
	got := c.ApplyFilter(TaskCriteria{Status: model.TaskStatusDone})
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("filtered = %+v", got)
	}
	if c.Criteria().Status != model.TaskStatusDone {
		t.Error("criteria not kept")
	}
}

func TestAssignTask(t *testing.T) {
	e := newEnv(t, &model.Session{UserID: 5, Role: model.RoleLeader, Group: &model.GroupRef{ID: 3}})
	c := mountTasks(t, e)

	var followUps int
	c.OnAssigned(func(context.Context) { followUps++ })

	err := c.Assign(context.Background(), 9, TaskForm{Title: "  Ship it ", GroupID: 3, Deadline: "2026-11-01"})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	e.alerts.only(t, alert.Success, "Task assigned successfully")
	if followUps != 1 {
		t.Errorf("follow-ups = %d, want 1", followUps)
	}

	var body struct {
		Title      string `json:"title"`
		Priority   string `json:"priority"`
		AssignerID int64  `json:"assigner_id"`
		AssigneeID int64  `json:"assignee_id"`
	}
	if err := json.Unmarshal(e.fake.LastBody("POST /tasks/create"), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Title != "Ship it" || body.Priority != "medium" || body.AssignerID != 5 || body.AssigneeID != 9 {
		t.Errorf("body = %+v", body)
	}
}

func TestAssignFailure(t *testing.T) {
	e := newEnv(t, &model.Session{UserID: 5, Role: model.RoleLeader})
	c := mountTasks(t, e)
	e.fake.Fail("POST /tasks/create", http.StatusBadRequest, "")

	var followUps int
	c.OnAssigned(func(context.Context) { followUps++ })
	if err := c.Assign(context.Background(), 9, TaskForm{Title: "x"}); err == nil {
		t.Fatal("expected error")
	}
	e.alerts.only(t, alert.Danger, "Failed to assign task")
	if followUps != 0 {
		t.Error("follow-up ran after failure")
	}
}

func TestBulkAssignPreChecks(t *testing.T) {
	e := newEnv(t, &model.Session{UserID: 5, Role: model.RoleLeader})
	c := mountTasks(t, e)

	if err := c.BulkAssign(context.Background(), nil, TaskForm{Title: "x"}); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	e.alerts.only(t, alert.Warning, "Please select at least one member")

	e.alerts.items = nil
	if err := c.BulkAssign(context.Background(), []int64{1}, TaskForm{Title: "   "}); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	e.alerts.only(t, alert.Warning, "Please enter task title")

	if e.fake.Calls("POST /tasks/bulk-create") != 0 {
		t.Error("incomplete form reached the server")
	}
}

func TestBulkAssign(t *testing.T) {
	e := newEnv(t, &model.Session{UserID: 5, Role: model.RoleLeader})
	c := mountTasks(t, e)

	if err := c.BulkAssign(context.Background(), []int64{7, 8, 9}, TaskForm{Title: "Review", Priority: model.TaskPriorityHigh}); err != nil {
		t.Fatalf("BulkAssign: %v", err)
	}
	e.alerts.only(t, alert.Success, "Tasks assigned to 3 member(s) successfully")
}

func TestParentOptions(t *testing.T) {
	e := newEnv(t, &model.Session{UserID: 5, Role: model.RoleLeader})
	e.fake.AddTask(9, model.Task{ID: 1, Title: "parent", Status: model.TaskStatusDoing})
	e.fake.AddTask(9, model.Task{ID: 2, Title: "done", Status: model.TaskStatusDone})
	c := mountTasks(t, e)

	got, err := c.ParentOptions(context.Background(), 3, 9)
	if err != nil {
		t.Fatalf("ParentOptions: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("options = %+v", got)
	}
}
