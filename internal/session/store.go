// Package session holds the authenticated user's profile snapshot and
// persists it between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nhle/workhub/internal/credential"
	"github.com/nhle/workhub/internal/model"
)

// StorageKey is the fixed key the session blob is persisted under.
const StorageKey = "currentUser"

// Backend is durable key/value storage for the session blob.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Listener is called synchronously after every session mutation with the
// navigation gating that now applies.
// Listeners must not mutate the store.
type Listener func(s *model.Session, nav model.Navigation)

// Store is the single source of truth for the current user. All methods
// are safe for concurrent use.
type Store struct {
	backend Backend
	// write serializes mutations across the backend round trip so a
	// Clear is never undone by a Set that started before it.
	write     gosync.Mutex
	mu        gosync.Mutex
	current   *model.Session
	listeners []Listener
	now       func() time.Time
}

// NewStore creates a Store persisting to backend. Call Load to restore a
// previous session.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
	}
}

// Subscribe registers fn to be notified after every mutation.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load reads the persisted session blob. Missing, corrupt or expired data
// is treated as logged out: Load returns nil and removes the stale blob.
func (s *Store) Load() *model.Session {
	s.write.Lock()
	defer s.write.Unlock()

	data, err := s.backend.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			log.Printf("session: reading persisted session: %v", err)
		}
		s.replace(nil)
		return nil
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.UserID == 0 {
		log.Printf("session: discarding unreadable session blob")
		s.discard()
		return nil
	}

	if sess.Token != "" && tokenExpired(sess.Token, s.now()) {
		log.Printf("session: token for user %d has expired", sess.UserID)
		s.discard()
		return nil
	}

	s.replace(&sess)
	return sess.Clone()
}

// Current returns a copy of the current session, or nil when logged out.
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Navigation returns the gating for the current session.
func (s *Store) Navigation() model.Navigation {
	return model.NavigationFor(s.Current())
}

// Set overwrites the in-memory and persisted session.
func (s *Store) Set(sess *model.Session) error {
	if sess == nil {
		return s.Clear()
	}

	s.write.Lock()
	defer s.write.Unlock()
	return s.store(sess)
}

// store persists sess and makes it current. Callers hold s.write.
func (s *Store) store(sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.backend.Set(StorageKey, data); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.replace(sess.Clone())
	return nil
}

// Clear removes the persisted session and logs the user out in memory.
// The in-memory copy is cleared even if the backend delete fails.
func (s *Store) Clear() error {
	s.write.Lock()
	defer s.write.Unlock()

	err := s.backend.Delete(StorageKey)
	s.replace(nil)
	if err != nil {
		return fmt.Errorf("removing persisted session: %w", err)
	}
	return nil
}

// PatchGroup updates only the group membership of the current session and
// re-persists it. It is a no-op when logged out.
func (s *Store) PatchGroup(ref *model.GroupRef) error {
	s.write.Lock()
	defer s.write.Unlock()

	sess := s.Current()
	if sess == nil {
		return nil
	}

	if ref != nil {
		g := *ref
		sess.Group = &g
	} else {
		sess.Group = nil
	}
	return s.store(sess)
}

// discard drops an unusable persisted blob without failing the caller.
func (s *Store) discard() {
	if err := s.backend.Delete(StorageKey); err != nil {
		log.Printf("session: removing stale session: %v", err)
	}
	s.replace(nil)
}

// replace swaps the current session and calls every listener with the new
// state outside the lock.
func (s *Store) replace(sess *model.Session) {
	s.mu.Lock()
	s.current = sess
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	nav := model.NavigationFor(sess)
	for _, fn := range listeners {
		fn(sess.Clone(), nav)
	}
}

// tokenExpired reports whether a JWT bearer token carries an exp claim in
// the past. Tokens that are not JWTs never expire client-side; the server
// remains the authority and answers 401.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
