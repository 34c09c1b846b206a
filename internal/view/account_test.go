package view

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

func newAccount(t *testing.T, e *env) *AccountController {
	t.Helper()
	c := NewAccountController(e.gateway, e.session, e.alerts)
	c.Mount(context.Background())
	t.Cleanup(c.Unmount)
	return c
}

func TestLoginStoresSession(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.AddUser(model.User{ID: 7, Name: "Emp", Email: "emp@example.com", Role: model.RoleEmployee}, "secret1")
	c := newAccount(t, e)

	sess, err := c.Login(context.Background(), "emp@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.UserID != 7 || e.session.Current() == nil {
		t.Errorf("session = %+v", sess)
	}
	e.alerts.only(t, alert.Success, "Login successful!")
}

func TestLoginShowsRejection(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.AddUser(model.User{ID: 7, Email: "emp@example.com", Role: model.RoleEmployee}, "secret1")
	c := newAccount(t, e)

	_, err := c.Login(context.Background(), "emp@example.com", "wrong")
	if !api.IsAuthError(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	e.alerts.only(t, alert.Danger, "Invalid email or password")
	if e.session.Current() != nil {
		t.Error("session stored after failed login")
	}
}

func TestRegister(t *testing.T) {
	e := newEnv(t, nil)
	c := newAccount(t, e)

	err := c.Register(context.Background(), api.RegisterInput{Name: "New", Email: "new@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	e.alerts.only(t, alert.Success, "Registration successful! Please login.")
}

func TestRegisterDuplicateShowsServerMessage(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.AddUser(model.User{ID: 1, Email: "dup@example.com"}, "x")
	c := newAccount(t, e)

	err := c.Register(context.Background(), api.RegisterInput{Name: "Dup", Email: "dup@example.com", Password: "secret1"})
	if err == nil {
		t.Fatal("expected error")
	}
	e.alerts.only(t, alert.Danger, "Email already exists")
}

func TestLogoutClearsSessionEvenIfServerFails(t *testing.T) {
	e := newEnv(t, employee(7))
	e.fake.Fail("POST /auth/logout", http.StatusInternalServerError, "")
	c := newAccount(t, e)

	var purged int64
	c.OnLogout(func(_ context.Context, userID int64) { purged = userID })

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if e.session.Current() != nil {
		t.Error("session not cleared")
	}
	if purged != 7 {
		t.Errorf("logout hook user = %d, want 7", purged)
	}
	e.alerts.only(t, alert.Info, "Logged out successfully")
}

func TestChangePasswordMismatch(t *testing.T) {
	e := newEnv(t, employee(7))
	c := newAccount(t, e)

	err := c.ChangePassword(context.Background(), "old-pass", "new-pass1", "new-pass2")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("err = %v, want ErrPasswordMismatch", err)
	}
	e.alerts.only(t, alert.Danger, "New passwords do not match")
	if e.fake.Calls("POST /auth/change-password") != 0 {
		t.Error("mismatched passwords reached the server")
	}
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t, employee(7))
	c := newAccount(t, e)

	if err := c.ChangePassword(context.Background(), "old-pass", "new-pass1", "new-pass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	e.alerts.only(t, alert.Success, "Password changed successfully")
}

func TestProfileFailure(t *testing.T) {
	e := newEnv(t, employee(7))
	c := newAccount(t, e)

	if _, err := c.Profile(context.Background()); err == nil {
		t.Fatal("expected error for unknown user")
	}
	e.alerts.only(t, alert.Danger, "User not found")
}

func TestProfileStatistics(t *testing.T) {
	e := newEnv(t, employee(7))
	e.fake.AddUser(model.User{ID: 7, Name: "Emp", Email: "e@x.io", Role: model.RoleEmployee}, "pw")
	e.fake.AddTask(7, model.Task{ID: 1, Status: model.TaskStatusDone})
	e.fake.AddTask(7, model.Task{ID: 2, Status: model.TaskStatusTodo})
	c := newAccount(t, e)

	u, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.Statistics == nil || u.Statistics.TotalTasks != 2 || u.Statistics.CompletedTasks != 1 {
		t.Errorf("statistics = %+v", u.Statistics)
	}
}

func TestUploadChecks(t *testing.T) {
	e := newEnv(t, employee(7))
	c := newAccount(t, e)

	big := bytes.Repeat([]byte{0}, api.MaxUploadSize+1)
	if err := c.Upload(context.Background(), 1, "big.bin", big); err == nil {
		t.Fatal("expected size error")
	}
	e.alerts.only(t, alert.Warning, "File size must be less than 10MB")

	e.alerts.items = nil
	if err := c.Upload(context.Background(), 1, "x.sh", []byte("#!/bin/sh\necho hi\n")); err == nil {
		t.Fatal("expected type error")
	}
	e.alerts.only(t, alert.Warning, "File type not allowed")

	if e.fake.Calls("POST /files/upload") != 0 {
		t.Error("rejected upload reached the server")
	}
}

func TestUploadAndList(t *testing.T) {
	e := newEnv(t, employee(7))
	c := newAccount(t, e)

	pdf := []byte("%PDF-1.4\n%%EOF\n")
	if err := c.Upload(context.Background(), 4, "plan.pdf", pdf); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	e.alerts.only(t, alert.Success, "File uploaded successfully")

	files, err := c.Files(context.Background())
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if files.TotalFiles != 1 || files.Files[0].Filename != "plan.pdf" {
		t.Errorf("files = %+v", files)
	}
}

func TestReports(t *testing.T) {
	e := newEnv(t, admin(1))
	e.fake.AddReport(model.Report{ID: 1, Filename: "week.pdf", ReportType: "weekly"})
	c := newAccount(t, e)

	got, err := c.Reports(context.Background())
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(got) != 1 || got[0].Filename != "week.pdf" {
		t.Errorf("reports = %+v", got)
	}
}
