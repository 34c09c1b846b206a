package view

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/credential"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/session"
	"github.com/nhle/workhub/internal/testutil"
)

type shownAlert struct {
	kind alert.Kind
	msg  string
}

type alertRecorder struct {
	mu    gosync.Mutex
	items []shownAlert
}

func (r *alertRecorder) Show(kind alert.Kind, msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, shownAlert{kind, msg})
	return "id"
}

func (r *alertRecorder) all() []shownAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shownAlert(nil), r.items...)
}

// only fails the test unless exactly one alert of kind with msg was shown.
func (r *alertRecorder) only(t *testing.T, kind alert.Kind, msg string) {
	t.Helper()
	got := r.all()
	if len(got) != 1 || got[0].kind != kind || got[0].msg != msg {
		t.Errorf("alerts = %+v, want one %s %q", got, kind, msg)
	}
}

type env struct {
	fake    *testutil.FakeAPI
	gateway *api.Gateway
	session *session.Store
	alerts  *alertRecorder
}

func newEnv(t *testing.T, sess *model.Session) *env {
	t.Helper()
	fake := testutil.NewFakeAPI(t)
	store := session.NewStore(credential.New(keyring.NewArrayKeyring(nil)))
	if sess != nil {
		if err := store.Set(sess); err != nil {
			t.Fatalf("seeding session: %v", err)
		}
	}
	alerts := &alertRecorder{}
	return &env{
		fake:    fake,
		gateway: api.NewGateway(fake.URL(), store, alerts),
		session: store,
		alerts:  alerts,
	}
}

func mountGroups(t *testing.T, e *env, opts ...Option) *GroupsController {
	t.Helper()
	c := NewGroupsController(e.gateway, e.session, e.alerts, nil, opts...)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(c.Unmount)
	return c
}

func employee(id int64) *model.Session {
	return &model.Session{UserID: id, Name: "Emp", Role: model.RoleEmployee}
}

func admin(id int64) *model.Session {
	return &model.Session{UserID: id, Name: "Boss", Role: model.RoleAdmin}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}
