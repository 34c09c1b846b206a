package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/workhub/internal/model"
)

// FakeAPI is an in-memory Work Management API served over httptest. Routes
// are keyed by "METHOD pattern", e.g. "GET /notifications/list".
type FakeAPI struct {
	server *httptest.Server

	mu            sync.Mutex
	nextID        int64
	users         map[int64]*model.User
	passwords     map[string]string
	groups        []model.Group
	details       map[int64]*model.GroupDetail
	notifications map[int64][]model.Notification
	requests      []model.JoinRequest
	tasks         map[int64][]model.Task
	files         map[int64][]model.File
	reports       []model.Report

	failures map[string]failure
	holds    map[string]chan struct{}
	calls    map[string]int
	bodies   map[string][]byte
	headers  map[string]http.Header
}

type failure struct {
	status  int
	message string
}

// NewFakeAPI starts a fake server that is closed when the test completes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		nextID:        1000,
		users:         make(map[int64]*model.User),
		passwords:     make(map[string]string),
		details:       make(map[int64]*model.GroupDetail),
		notifications: make(map[int64][]model.Notification),
		tasks:         make(map[int64][]model.Task),
		files:         make(map[int64][]model.File),
		failures:      make(map[string]failure),
		holds:         make(map[string]chan struct{}),
		calls:         make(map[string]int),
		bodies:        make(map[string][]byte),
		headers:       make(map[string]http.Header),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Route("/api", f.routes)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the API root to pass to api.NewGateway.
func (f *FakeAPI) URL() string {
	return f.server.URL + "/api"
}

func (f *FakeAPI) routes(r chi.Router) {
	f.handle(r, http.MethodPost, "/auth/login", f.login)
	f.handle(r, http.MethodPost, "/auth/register", f.register)
	f.handle(r, http.MethodPost, "/auth/logout", f.ok("Logout successful"))
	f.handle(r, http.MethodPost, "/auth/change-password", f.ok("Password changed successfully"))

	f.handle(r, http.MethodGet, "/users/employees", f.employees)
	f.handle(r, http.MethodGet, "/users/available-leaders", f.leaders)
	f.handle(r, http.MethodGet, "/users/{id}", f.user)

	f.handle(r, http.MethodGet, "/groups/all", f.listGroups)
	f.handle(r, http.MethodPost, "/groups/create", f.createGroup)
	f.handle(r, http.MethodGet, "/groups/{id}", f.groupDetail)
	f.handle(r, http.MethodPut, "/groups/{id}", f.ok("Group updated successfully"))
	f.handle(r, http.MethodDelete, "/groups/{id}", f.deleteGroup)
	f.handle(r, http.MethodPost, "/groups/join", f.joinGroup)
	f.handle(r, http.MethodPost, "/groups/leave", f.leaveGroup)
	f.handle(r, http.MethodPost, "/groups/join-request", f.createJoinRequest)
	f.handle(r, http.MethodGet, "/groups/join-requests", f.listJoinRequests)
	f.handle(r, http.MethodGet, "/groups/my-join-requests", f.myJoinRequests)
	f.handle(r, http.MethodPost, "/groups/join-requests/{id}/{action}", f.reviewJoinRequest)
	f.handle(r, http.MethodPost, "/groups/add-member", f.ok("Member added successfully"))
	f.handle(r, http.MethodPost, "/groups/remove-member", f.ok("Member removed successfully"))
	f.handle(r, http.MethodPost, "/groups/promote-member", f.ok("Member promoted to leader successfully"))
	f.handle(r, http.MethodPost, "/groups/transfer-member", f.ok("Member transferred successfully"))
	f.handle(r, http.MethodGet, "/groups/transfer-options/{id}", f.transferOptions)

	f.handle(r, http.MethodGet, "/notifications/list", f.listNotifications)
	f.handle(r, http.MethodPut, "/notifications/mark-read/{id}", f.markRead)
	f.handle(r, http.MethodPut, "/notifications/mark-all-read", f.markAllRead)
	f.handle(r, http.MethodDelete, "/notifications/clear-all", f.clearAll)
	f.handle(r, http.MethodDelete, "/notifications/delete/{id}", f.ok("Notification deleted"))
	f.handle(r, http.MethodPost, "/notifications/create", f.createNotification)

	f.handle(r, http.MethodPost, "/tasks/create", f.createTask)
	f.handle(r, http.MethodPost, "/tasks/bulk-create", f.bulkCreateTasks)
	f.handle(r, http.MethodGet, "/tasks/parent-options", f.parentOptions)
	f.handle(r, http.MethodGet, "/tasks/user/{id}", f.userTasks)

	f.handle(r, http.MethodPost, "/files/upload", f.upload)
	f.handle(r, http.MethodGet, "/files/user/{id}", f.userFiles)

	f.handle(r, http.MethodGet, "/reports/list", f.listReports)
}

// handle registers h and records every call before applying any injected
// failure or hold for the route.
func (f *FakeAPI) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		req.Body.Close()

		f.mu.Lock()
		f.calls[key]++
		f.bodies[key] = body
		f.headers[key] = req.Header.Clone()
		fail, failing := f.failures[key]
		hold := f.holds[key]
		f.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-req.Context().Done():
				return
			}
		}
		if failing {
			if fail.message == "" {
				w.WriteHeader(fail.status)
				return
			}
			writeJSON(w, fail.status, map[string]string{"message": fail.message})
			return
		}

		req.Body = io.NopCloser(bytes.NewReader(body))
		h(w, req)
	})
}

// Fail makes every request to route answer status with message. An empty
// message sends an empty body.
func (f *FakeAPI) Fail(route string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = failure{status: status, message: message}
}

// Recover removes an injected failure.
func (f *FakeAPI) Recover(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, route)
}

// Hold makes requests to route block until the returned release func is
// called.
func (f *FakeAPI) Hold(route string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.holds[route] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.holds, route)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests reached route.
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// LastBody returns the body of the most recent request to route.
func (f *FakeAPI) LastBody(route string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[route]
}

// LastHeader returns the headers of the most recent request to route.
func (f *FakeAPI) LastHeader(route string) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[route]
}

// AddUser registers a user who can log in with password.
func (f *FakeAPI) AddUser(u model.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
	f.passwords[u.Email] = password
}

// AddGroup appends a group to the list.
func (f *FakeAPI) AddGroup(g model.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, g)
}

// SetDetail sets the detail returned for a group.
func (f *FakeAPI) SetDetail(d model.GroupDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[d.ID] = &d
}

// AddNotification prepends n to the user's feed. A zero ID is assigned.
func (f *FakeAPI) AddNotification(userID int64, n model.Notification) model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == 0 {
		n.ID = f.id()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = model.Timestamp{Time: time.Now().UTC().Truncate(time.Second)}
	}
	f.notifications[userID] = append([]model.Notification{n}, f.notifications[userID]...)
	return n
}

// Notifications returns the stored feed for userID.
func (f *FakeAPI) Notifications(userID int64) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Notification(nil), f.notifications[userID]...)
}

// AddJoinRequest stores a join request.
func (f *FakeAPI) AddJoinRequest(jr model.JoinRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, jr)
}

// AddTask assigns t to userID.
func (f *FakeAPI) AddTask(userID int64, t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[userID] = append(f.tasks[userID], t)
}

// AddReport stores a report.
func (f *FakeAPI) AddReport(r model.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
}

// UserGroup returns the group the fake currently records for userID.
func (f *FakeAPI) UserGroup(userID int64) *model.GroupRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok && u.Group != nil {
		g := *u.Group
		return &g
	}
	return nil
}

func (f *FakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeAPI) ok(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[in.Email]; !ok || pw != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	for _, u := range f.users {
		if u.Email == in.Email {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "user": u})
			return
		}
	}
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[in.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email already exists"})
		return
	}
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}
	u := &model.User{ID: f.id(), Name: in.Name, Email: in.Email, Role: in.Role, IsActive: true}
	f.users[u.ID] = u
	f.passwords[u.Email] = in.Password
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": u})
}

func (f *FakeAPI) user(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	out := *u
	if out.Statistics == nil {
		tasks := f.tasks[id]
		stats := &model.UserStatistics{TotalTasks: len(tasks), UploadedFiles: len(f.files[id])}
		for _, t := range tasks {
			switch t.Status {
			case model.TaskStatusDone:
				stats.CompletedTasks++
			case model.TaskStatusDoing:
				stats.InProgressTasks++
			case model.TaskStatusTodo:
				stats.TodoTasks++
			}
		}
		out.Statistics = stats
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) employees(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.usersWhere(func(u *model.User) bool { return u.Role == model.RoleEmployee }))
}

func (f *FakeAPI) leaders(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.usersWhere(func(u *model.User) bool { return u.Role != model.RoleEmployee }))
}

func (f *FakeAPI) usersWhere(keep func(*model.User) bool) []model.User {
	out := []model.User{}
	for _, u := range f.users {
		if keep(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *FakeAPI) listGroups(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Group{}, f.groups...)
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) createGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		LeaderID    *int64 `json:"leader_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Name == in.Name {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Group name already exists"})
			return
		}
	}
	g := model.Group{
		ID:             f.id(),
		Name:           in.Name,
		Description:    in.Description,
		LeaderID:       in.LeaderID,
		CompletionRate: "0%",
		CreatedAt:      model.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
	}
	f.groups = append(f.groups, g)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Group created successfully", "group": g})
}

func (f *FakeAPI) groupDetail(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Group not found"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (f *FakeAPI) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, g := range f.groups {
		if g.ID != id {
			continue
		}
		if g.MemberCount > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Cannot delete group with members"})
			return
		}
		f.groups = append(f.groups[:i], f.groups[i+1:]...)
		delete(f.details, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Group not found"})
}

func (f *FakeAPI) joinGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID  int64 `json:"user_id"`
		GroupID int64 `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[in.UserID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	if u.Group != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User is already in a group"})
		return
	}
	for i, g := range f.groups {
		if g.ID == in.GroupID {
			f.groups[i].MemberCount++
			u.Group = &model.GroupRef{ID: g.ID, Name: g.Name}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully joined " + g.Name})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Group not found"})
}

func (f *FakeAPI) leaveGroup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[in.UserID]
	if !ok || u.Group == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User is not in any group"})
		return
	}
	for i, g := range f.groups {
		if g.ID == u.Group.ID && f.groups[i].MemberCount > 0 {
			f.groups[i].MemberCount--
		}
	}
	u.Group = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully left group"})
}

func (f *FakeAPI) createJoinRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID  int64  `json:"user_id"`
		GroupID int64  `json:"group_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, jr := range f.requests {
		if jr.User != nil && jr.User.ID == in.UserID && jr.Status == model.JoinRequestPending {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "You already have a pending join request"})
			return
		}
	}
	jr := model.JoinRequest{
		ID:        f.id(),
		User:      &model.UserRef{ID: in.UserID},
		Group:     &model.GroupRef{ID: in.GroupID},
		Status:    model.JoinRequestPending,
		Message:   in.Message,
		CreatedAt: model.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
	}
	if u, ok := f.users[in.UserID]; ok {
		jr.User.Name = u.Name
	}
	f.requests = append(f.requests, jr)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Join request sent successfully", "request": jr})
}

func (f *FakeAPI) listJoinRequests(w http.ResponseWriter, r *http.Request) {
	status := model.JoinRequestStatus(r.URL.Query().Get("status"))

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.JoinRequest{}
	for _, jr := range f.requests {
		if status == "all" || jr.Status == status {
			out = append(out, jr)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) myJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.JoinRequest{}
	for _, jr := range f.requests {
		if jr.User != nil && jr.User.ID == userID {
			out = append(out, jr)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) reviewJoinRequest(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")
	action := chi.URLParam(r, "action")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, jr := range f.requests {
		if jr.ID != id {
			continue
		}
		if jr.Status != model.JoinRequestPending {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Request has already been processed"})
			return
		}
		switch action {
		case "approve":
			f.requests[i].Status = model.JoinRequestApproved
		case "reject":
			f.requests[i].Status = model.JoinRequestRejected
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Unknown action"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Request " + string(f.requests[i].Status)})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Join request not found"})
}

func (f *FakeAPI) transferOptions(w http.ResponseWriter, r *http.Request) {
	current := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.TransferOption{}
	for _, g := range f.groups {
		if g.ID == current {
			continue
		}
		out = append(out, model.TransferOption{
			ID:          g.ID,
			Name:        g.Name,
			LeaderName:  g.LeaderName,
			MemberCount: g.MemberCount,
			CanJoin:     g.HasLeader(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) listNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, _ := strconv.ParseInt(q.Get("user_id"), 10, 64)
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.notifications[userID]
	page := all
	if len(page) > limit {
		page = page[:limit]
	}
	writeJSON(w, http.StatusOK, model.NotificationPage{
		Notifications: append([]model.Notification{}, page...),
		Total:         len(all),
		UnreadCount:   model.CountUnread(all),
	})
}

func (f *FakeAPI) markRead(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, ns := range f.notifications {
		for i := range ns {
			if ns[i].ID == id {
				f.notifications[userID][i].IsRead = true
				writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Notification not found"})
}

func (f *FakeAPI) markAllRead(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID int64 `json:"user_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	ns := f.notifications[in.UserID]
	for i := range ns {
		ns[i].IsRead = true
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}

func (f *FakeAPI) clearAll(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID int64 `json:"user_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notifications, in.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "All notifications cleared"})
}

func (f *FakeAPI) createNotification(w http.ResponseWriter, r *http.Request) {
	var in model.Notification
	var target struct {
		UserID int64 `json:"user_id"`
	}
	body, _ := io.ReadAll(r.Body)
	if json.Unmarshal(body, &in) != nil || json.Unmarshal(body, &target) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}
	n := f.AddNotification(target.UserID, in)
	writeJSON(w, http.StatusCreated, n)
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var in model.Task
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.AssigneeID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	in.ID = f.id()
	f.tasks[*in.AssigneeID] = append(f.tasks[*in.AssigneeID], in)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Task created successfully", "task": in})
}

func (f *FakeAPI) bulkCreateTasks(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AssigneeIDs []int64            `json:"assignee_ids"`
		Title       string             `json:"title"`
		Priority    model.TaskPriority `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.AssigneeIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range in.AssigneeIDs {
		f.tasks[id] = append(f.tasks[id], model.Task{ID: f.id(), Title: in.Title, Priority: in.Priority, Status: model.TaskStatusTodo})
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Tasks created successfully",
		"tasks_created": len(in.AssigneeIDs),
	})
}

func (f *FakeAPI) parentOptions(w http.ResponseWriter, r *http.Request) {
	assignee, _ := strconv.ParseInt(r.URL.Query().Get("assignee_id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.TaskOption{}
	for _, t := range f.tasks[assignee] {
		if t.ParentTaskID == nil && t.Status != model.TaskStatusDone {
			out = append(out, model.TaskOption{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) userTasks(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]model.Task{}, f.tasks[id]...))
}

func (f *FakeAPI) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file provided"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file provided"})
		return
	}
	defer file.Close()

	uploader, _ := strconv.ParseInt(r.FormValue("uploaded_by"), 10, 64)
	taskID, _ := strconv.ParseInt(r.FormValue("task_id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	rec := model.File{
		ID:       f.id(),
		Filename: header.Filename,
		FileSize: header.Size,
		Task:     &model.TaskRef{ID: taskID},
	}
	f.files[uploader] = append(f.files[uploader], rec)
	writeJSON(w, http.StatusCreated, model.UploadedFile{Message: "File uploaded successfully", File: &rec})
}

func (f *FakeAPI) userFiles(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	out := model.UserFiles{Files: append([]model.File{}, f.files[id]...)}
	if u, ok := f.users[id]; ok {
		out.User = model.UserRef{ID: u.ID, Name: u.Name}
	}
	for _, file := range out.Files {
		out.TotalSize += file.FileSize
	}
	out.TotalFiles = len(out.Files)
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) listReports(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]model.Report{}, f.reports...))
}

func urlID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
