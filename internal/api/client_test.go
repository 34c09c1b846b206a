package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/testutil"
)

type shown struct {
	kind alert.Kind
	msg  string
}

type recordingAlerts struct {
	mu    sync.Mutex
	items []shown
}

func (r *recordingAlerts) Show(kind alert.Kind, msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, shown{kind, msg})
	return "id"
}

func (r *recordingAlerts) all() []shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shown(nil), r.items...)
}

type memorySession struct {
	mu      sync.Mutex
	current *model.Session
	clears  int
}

func (m *memorySession) Current() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

func (m *memorySession) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.clears++
	return nil
}

func newTestGateway(t *testing.T, sess *model.Session) (*Gateway, *testutil.FakeAPI, *memorySession, *recordingAlerts) {
	t.Helper()
	fake := testutil.NewFakeAPI(t)
	store := &memorySession{current: sess}
	alerts := &recordingAlerts{}
	return NewGateway(fake.URL(), store, alerts), fake, store, alerts
}

func TestRequestSetsDefaultHeaders(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1, Token: "tok"})

	if _, err := g.Groups(context.Background()); err != nil {
		t.Fatalf("Groups: %v", err)
	}
	h := fake.LastHeader("GET /groups/all")
	if h.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", h.Get("Content-Type"))
	}
	if h.Get("Authorization") != "Bearer tok" {
		t.Errorf("Authorization = %q", h.Get("Authorization"))
	}
	if h.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRequestWithoutTokenSendsNoAuthorization(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})

	if _, err := g.Groups(context.Background()); err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if h := fake.LastHeader("GET /groups/all"); h.Get("Authorization") != "" {
		t.Errorf("Authorization = %q, want none", h.Get("Authorization"))
	}
}

func TestUnauthorizedClearsSessionWithoutAlert(t *testing.T) {
	var hooked atomic.Int32
	fake := testutil.NewFakeAPI(t)
	store := &memorySession{current: &model.Session{UserID: 1}}
	alerts := &recordingAlerts{}
	g := NewGateway(fake.URL(), store, alerts, WithUnauthorizedHook(func() { hooked.Add(1) }))

	fake.Fail("GET /groups/all", http.StatusUnauthorized, "Session expired")
	_, err := g.Groups(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if !Handled(err) {
		t.Error("401 not marked handled")
	}
	if store.Current() != nil || store.clears != 1 {
		t.Errorf("session not cleared, clears = %d", store.clears)
	}
	if hooked.Load() != 1 {
		t.Errorf("hook calls = %d, want 1", hooked.Load())
	}
	if n := len(alerts.all()); n != 0 {
		t.Errorf("alerts = %d, want none", n)
	}
}

func TestForbiddenShowsAccessDenied(t *testing.T) {
	g, fake, store, alerts := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("GET /groups/all", http.StatusForbidden, "nope")

	_, err := g.Groups(context.Background())
	if KindOf(err) != KindForbidden || !Handled(err) {
		t.Fatalf("err = %v, want handled forbidden", err)
	}
	got := alerts.all()
	if len(got) != 1 || got[0].kind != alert.Danger || got[0].msg != "Access denied" {
		t.Errorf("alerts = %+v", got)
	}
	if store.Current() == nil {
		t.Error("403 must not clear the session")
	}
}

func TestServerErrorShowsGenericAlert(t *testing.T) {
	g, fake, _, alerts := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("GET /groups/all", http.StatusInternalServerError, "stack trace")

	_, err := g.Groups(context.Background())
	if KindOf(err) != KindServer || !Handled(err) {
		t.Fatalf("err = %v, want handled server error", err)
	}
	got := alerts.all()
	if len(got) != 1 || got[0].msg != "Server error. Please try again later." {
		t.Errorf("alerts = %+v", got)
	}
}

func TestQuietContextSuppressesAlerts(t *testing.T) {
	g, fake, _, alerts := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("GET /notifications/list", http.StatusBadGateway, "")

	_, err := g.Notifications(WithQuiet(context.Background()), 1, 10)
	if KindOf(err) != KindServer {
		t.Fatalf("err = %v, want server error", err)
	}
	if Handled(err) {
		t.Error("quiet failure marked handled")
	}
	if n := len(alerts.all()); n != 0 {
		t.Errorf("alerts = %d, want none", n)
	}
}

func TestQuietContextStillClearsSessionOn401(t *testing.T) {
	g, fake, store, _ := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("GET /notifications/list", http.StatusUnauthorized, "")

	if _, err := g.Notifications(WithQuiet(context.Background()), 1, 10); !IsAuthError(err) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if store.Current() != nil {
		t.Error("session not cleared")
	}
}

func TestValidationFailureCarriesServerMessage(t *testing.T) {
	g, fake, _, alerts := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("POST /groups/join", http.StatusBadRequest, "User is already in a group")

	_, err := g.JoinGroup(context.Background(), MembershipInput{UserID: 1, GroupID: 2})
	if KindOf(err) != KindValidation || Handled(err) {
		t.Fatalf("err = %v, want unhandled validation error", err)
	}
	if got := MessageOr(err, "Failed to join group"); got != "User is already in a group" {
		t.Errorf("MessageOr = %q", got)
	}
	if n := len(alerts.all()); n != 0 {
		t.Errorf("gateway alerted for a 4xx: %+v", alerts.all())
	}
}

func TestValidationFailureWithoutMessageUsesFallback(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})
	fake.Fail("POST /groups/join", http.StatusConflict, "")

	_, err := g.JoinGroup(context.Background(), MembershipInput{UserID: 1, GroupID: 2})
	if got := MessageOr(err, "Failed to join group"); got != "Failed to join group" {
		t.Errorf("MessageOr = %q", got)
	}
	if got := MessageOr(err, ""); got != FallbackMessage {
		t.Errorf("MessageOr with no fallback = %q", got)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGateway(url, &memorySession{}, &recordingAlerts{})
	_, err := g.Groups(context.Background())
	if KindOf(err) != KindTransport {
		t.Fatalf("err = %v, want transport", err)
	}
	if Handled(err) {
		t.Error("transport failure marked handled")
	}
}

func TestRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, &memorySession{}, &recordingAlerts{})
	if _, err := g.Groups(context.Background()); err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := retryAfterDuration(resp, 2); got.Seconds() != 4 {
		t.Errorf("backoff = %v, want 4s", got)
	}
	if got := retryAfterDuration(resp, 10); got.Seconds() != 30 {
		t.Errorf("backoff = %v, want capped 30s", got)
	}
	resp.Header.Set("Retry-After", "7")
	if got := retryAfterDuration(resp, 0); got.Seconds() != 7 {
		t.Errorf("retry-after = %v, want 7s", got)
	}
}

func TestRequestOptionsOverrideHeaders(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, &memorySession{}, &recordingAlerts{})
	err := g.Request(context.Background(), "/raw", &RequestOptions{
		Method:  http.MethodPost,
		Header:  http.Header{"Content-Type": []string{"text/plain"}},
		RawBody: []byte("hi"),
	}, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotType != "text/plain" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestLoginReturnsSession(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, nil)
	fake.AddUser(model.User{ID: 5, Name: "Lee", Email: "lee@example.com", Role: model.RoleLeader, Group: &model.GroupRef{ID: 2, Name: "Ops"}}, "secret1")

	res, err := g.Login(context.Background(), LoginInput{Email: "lee@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sess := res.Session()
	if sess.UserID != 5 || sess.Role != model.RoleLeader || sess.Group == nil || sess.Group.ID != 2 {
		t.Errorf("session = %+v", sess)
	}
}

func TestLoginRejectsInvalidEmailLocally(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, nil)

	_, err := g.Login(context.Background(), LoginInput{Email: "not-an-email", Password: "x"})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if !strings.Contains(MessageOr(err, ""), "email") {
		t.Errorf("message = %q", MessageOr(err, ""))
	}
	if fake.Calls("POST /auth/login") != 0 {
		t.Error("invalid input reached the server")
	}
}

func TestChangePasswordRequiresDifferentPassword(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})

	_, err := g.ChangePassword(context.Background(), ChangePasswordInput{UserID: 1, CurrentPassword: "abcdef", NewPassword: "abcdef"})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if fake.Calls("POST /auth/change-password") != 0 {
		t.Error("invalid input reached the server")
	}
}

func TestNotificationEndpoints(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 3})
	first := fake.AddNotification(3, model.Notification{Title: "a", Type: model.NotificationTaskAssigned})
	fake.AddNotification(3, model.Notification{Title: "b", Type: model.NotificationTaskUpdated})

	page, err := g.Notifications(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if page.Total != 2 || page.UnreadCount != 2 || len(page.Notifications) != 2 {
		t.Fatalf("page = %+v", page)
	}

	if err := g.MarkNotificationRead(context.Background(), first.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := g.MarkAllNotificationsRead(context.Background(), 3); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(fake.LastBody("PUT /notifications/mark-all-read"), &body); err != nil || body.UserID != 3 {
		t.Errorf("mark-all-read body = %s", fake.LastBody("PUT /notifications/mark-all-read"))
	}

	if err := g.ClearNotifications(context.Background(), 3); err != nil {
		t.Fatalf("ClearNotifications: %v", err)
	}
	if n := len(fake.Notifications(3)); n != 0 {
		t.Errorf("notifications after clear = %d", n)
	}
}

func TestCreateNotificationRejectsUnknownType(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})
	_, err := g.CreateNotification(context.Background(), NotificationInput{UserID: 2, Title: "t", Message: "m", Type: "party"})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if fake.Calls("POST /notifications/create") != 0 {
		t.Error("unknown type reached the server")
	}
}

func TestBulkCreateTasksRequiresAssignees(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})
	_, err := g.BulkCreateTasks(context.Background(), BulkTaskInput{AssignerID: 1, Title: "Write docs"})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}

	res, err := g.BulkCreateTasks(context.Background(), BulkTaskInput{AssignerID: 1, AssigneeIDs: []int64{2, 3}, Title: "Write docs"})
	if err != nil {
		t.Fatalf("BulkCreateTasks: %v", err)
	}
	if res.TasksCreated != 2 || fake.Calls("POST /tasks/bulk-create") != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestCreateTaskRejectsBadDeadline(t *testing.T) {
	g, _, _, _ := newTestGateway(t, &model.Session{UserID: 1})
	_, err := g.CreateTask(context.Background(), TaskInput{Title: "x", AssignerID: 1, AssigneeID: 2, Deadline: "next friday"})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestParentOptionsQuery(t *testing.T) {
	q := ParentOptionsQuery{GroupID: 2, AssigneeID: 5, Statuses: []model.TaskStatus{model.TaskStatusTodo, model.TaskStatusDoing}, Limit: 50}
	got := q.encode()
	for _, want := range []string{"group_id=2", "assignee_id=5", "status=todo%2Cdoing", "limit=50"} {
		if !strings.Contains(got, want) {
			t.Errorf("query %q missing %q", got, want)
		}
	}
	if (ParentOptionsQuery{}).encode() != "" {
		t.Error("empty query not empty")
	}
}

func TestAddMemberRequiresGroup(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 1})
	_, err := g.AddMember(context.Background(), MemberInput{AdminID: 1, UserID: 2})
	if KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if fake.Calls("POST /groups/add-member") != 0 {
		t.Error("request without group reached the server")
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 4})
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

	res, err := g.UploadFile(context.Background(), UploadInput{TaskID: 9, UploadedBy: 4, Filename: "report.pdf", Content: pdf})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if res.File == nil || res.File.Filename != "report.pdf" || res.File.Task.ID != 9 {
		t.Errorf("uploaded = %+v", res.File)
	}
	ct := fake.LastHeader("POST /files/upload").Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		t.Errorf("Content-Type = %q", ct)
	}

	files, err := g.UserFiles(context.Background(), 4)
	if err != nil {
		t.Fatalf("UserFiles: %v", err)
	}
	if files.TotalFiles != 1 {
		t.Errorf("total files = %d", files.TotalFiles)
	}
}

func TestCheckUpload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if mime, err := CheckUpload(png); err != nil || mime != "image/png" {
		t.Errorf("png: mime = %q, err = %v", mime, err)
	}

	if _, err := CheckUpload([]byte("#!/bin/sh\necho hi\n")); !errors.Is(err, ErrUploadType) {
		t.Errorf("script: err = %v, want ErrUploadType", err)
	}
	if _, err := CheckUpload(nil); !errors.Is(err, ErrUploadEmpty) {
		t.Errorf("empty: err = %v, want ErrUploadEmpty", err)
	}
	big := make([]byte, MaxUploadSize+1)
	copy(big, png)
	if _, err := CheckUpload(big); !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("big: err = %v, want ErrUploadTooLarge", err)
	}
}

func TestUploadFileRejectsDisallowedTypeLocally(t *testing.T) {
	g, fake, _, _ := newTestGateway(t, &model.Session{UserID: 4})
	_, err := g.UploadFile(context.Background(), UploadInput{TaskID: 9, UploadedBy: 4, Filename: "x.sh", Content: []byte("#!/bin/sh\n")})
	if !errors.Is(err, ErrUploadType) || KindOf(err) != KindValidation {
		t.Fatalf("err = %v, want rejected upload", err)
	}
	if fake.Calls("POST /files/upload") != 0 {
		t.Error("rejected upload reached the server")
	}
}

func TestErrorKindString(t *testing.T) {
	for k, want := range map[ErrorKind]string{
		KindTransport:   "transport",
		KindAuthExpired: "auth_expired",
		KindForbidden:   "forbidden",
		KindValidation:  "validation",
		KindServer:      "server",
	} {
		if k.String() != want {
			t.Errorf("%d = %q, want %q", k, k.String(), want)
		}
	}
}
