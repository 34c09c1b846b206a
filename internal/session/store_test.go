package session

import (
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v4"

	"github.com/nhle/workhub/internal/credential"
	"github.com/nhle/workhub/internal/model"
)

func newTestStore(t *testing.T) (*Store, *credential.Keyring) {
	t.Helper()
	backend := credential.New(keyring.NewArrayKeyring(nil))
	return NewStore(backend), backend
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestSetPersistsAndLoadRestores(t *testing.T) {
	s, backend := newTestStore(t)

	sess := &model.Session{UserID: 7, Name: "Ana", Role: model.RoleLeader, Group: &model.GroupRef{ID: 3, Name: "Ops"}}
	if err := s.Set(sess); err != nil {
		t.Fatalf("Set: %v", err)
	}

	restored := NewStore(backend).Load()
	if restored == nil {
		t.Fatal("Load returned nil after Set")
	}
	if restored.UserID != 7 || restored.Role != model.RoleLeader {
		t.Errorf("restored = %+v, want user 7 leader", restored)
	}
	if restored.Group == nil || restored.Group.ID != 3 {
		t.Errorf("restored group = %+v, want id 3", restored.Group)
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Set(&model.Session{UserID: 1, Role: model.RoleEmployee, Group: &model.GroupRef{ID: 2}}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c := s.Current()
	c.Group.ID = 99
	c.Role = model.RoleAdmin

	again := s.Current()
	if again.Group.ID != 2 || again.Role != model.RoleEmployee {
		t.Errorf("mutating a returned session leaked into the store: %+v", again)
	}
}

func TestLoadWithoutBlobIsLoggedOut(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.Load(); got != nil {
		t.Errorf("Load() = %+v, want nil", got)
	}
	if nav := s.Navigation(); !nav.LoginButton || nav.UserMenu {
		t.Errorf("navigation = %+v, want logged out", nav)
	}
}

func TestLoadDiscardsCorruptBlob(t *testing.T) {
	s, backend := newTestStore(t)
	if err := backend.Set(StorageKey, []byte("{not json")); err != nil {
		t.Fatalf("seeding blob: %v", err)
	}

	if got := s.Load(); got != nil {
		t.Errorf("Load() = %+v, want nil", got)
	}
	if _, err := backend.Get(StorageKey); err != credential.ErrNotFound {
		t.Errorf("corrupt blob still present, Get err = %v", err)
	}
}

func TestLoadDiscardsExpiredToken(t *testing.T) {
	s, backend := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	writer := NewStore(backend)
	err := writer.Set(&model.Session{UserID: 7, Role: model.RoleEmployee, Token: signedToken(t, now.Add(-time.Minute))})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got := s.Load(); got != nil {
		t.Errorf("Load() = %+v, want nil for expired token", got)
	}
}

func TestLoadKeepsValidToken(t *testing.T) {
	s, backend := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	writer := NewStore(backend)
	token := signedToken(t, now.Add(time.Hour))
	if err := writer.Set(&model.Session{UserID: 7, Role: model.RoleEmployee, Token: token}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got := s.Load()
	if got == nil || got.Token != token {
		t.Fatalf("Load() = %+v, want session with token", got)
	}
}

func TestOpaqueTokenNeverExpiresLocally(t *testing.T) {
	if tokenExpired("opaque-token", time.Now()) {
		t.Error("opaque token reported as expired")
	}
}

func TestClearNotifiesListeners(t *testing.T) {
	s, backend := newTestStore(t)

	var navs []model.Navigation
	s.Subscribe(func(_ *model.Session, nav model.Navigation) {
		navs = append(navs, nav)
	})

	if err := s.Set(&model.Session{UserID: 1, Role: model.RoleAdmin}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if len(navs) != 2 {
		t.Fatalf("listener calls = %d, want 2", len(navs))
	}
	if !navs[0].AdminOnly || !navs[0].AdminLeaderOnly {
		t.Errorf("admin navigation = %+v", navs[0])
	}
	if !navs[1].LoginButton {
		t.Errorf("navigation after clear = %+v, want login button", navs[1])
	}
	if s.Current() != nil {
		t.Error("Current() not nil after Clear")
	}
	if _, err := backend.Get(StorageKey); err != credential.ErrNotFound {
		t.Errorf("blob still persisted after Clear, err = %v", err)
	}
}

func TestPatchGroup(t *testing.T) {
	s, backend := newTestStore(t)
	if err := s.Set(&model.Session{UserID: 4, Name: "Bo", Role: model.RoleEmployee}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.PatchGroup(&model.GroupRef{ID: 9, Name: "Design"}); err != nil {
		t.Fatalf("PatchGroup: %v", err)
	}
	restored := NewStore(backend).Load()
	if restored == nil || restored.Group == nil || restored.Group.ID != 9 {
		t.Fatalf("persisted group = %+v, want 9", restored)
	}
	if restored.Name != "Bo" {
		t.Errorf("PatchGroup changed other fields: %+v", restored)
	}

	if err := s.PatchGroup(nil); err != nil {
		t.Fatalf("PatchGroup(nil): %v", err)
	}
	if s.Current().Group != nil {
		t.Error("group not cleared")
	}
}

func TestPatchGroupLoggedOutIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.PatchGroup(&model.GroupRef{ID: 1}); err != nil {
		t.Fatalf("PatchGroup: %v", err)
	}
	if s.Current() != nil {
		t.Error("PatchGroup created a session")
	}
}

// slowBackend delays writes like a system keyring round trip.
type slowBackend struct {
	Backend
	delay time.Duration
}

func (b slowBackend) Set(key string, value []byte) error {
	time.Sleep(b.delay)
	return b.Backend.Set(key, value)
}

func TestPatchGroupDoesNotUndoClear(t *testing.T) {
	for i := 0; i < 20; i++ {
		backend := credential.New(keyring.NewArrayKeyring(nil))
		s := NewStore(slowBackend{Backend: backend, delay: 10 * time.Millisecond})
		if err := s.Set(&model.Session{UserID: 5, Role: model.RoleEmployee}); err != nil {
			t.Fatalf("Set: %v", err)
		}

		done := make(chan error, 1)
		go func() { done <- s.PatchGroup(&model.GroupRef{ID: 2, Name: "Ops"}) }()
		time.Sleep(3 * time.Millisecond)
		if err := s.Clear(); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if err := <-done; err != nil {
			t.Fatalf("PatchGroup: %v", err)
		}

		if got := s.Current(); got != nil {
			t.Fatalf("run %d: session alive after Clear: %+v", i, got)
		}
		if _, err := backend.Get(StorageKey); err != credential.ErrNotFound {
			t.Fatalf("run %d: blob persisted after Clear, err = %v", i, err)
		}
	}
}
