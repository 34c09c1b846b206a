// Package alert implements the transient feedback surface: dismissible,
// auto-expiring messages driven by action outcomes.
package alert

import (
	gosync "sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the severity of an alert.
type Kind int

const (
	Success Kind = iota
	Danger
	Warning
	Info
)

// AllKinds lists every Kind value.
var AllKinds = []Kind{Success, Danger, Warning, Info}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Danger:
		return "danger"
	case Warning:
		return "warning"
	case Info:
		return "info"
	}
	return "unknown"
}

// Icon returns the glyph rendered in front of the message.
func (k Kind) Icon() string {
	switch k {
	case Success:
		return "✓"
	case Danger:
		return "✗"
	case Warning:
		return "!"
	case Info:
		return "i"
	}
	return "i"
}

const (
	// DefaultDuration is how long an alert stays visible unless dismissed.
	DefaultDuration = 5 * time.Second

	// DefaultMaxVisible caps the number of alerts shown at once.
	DefaultMaxVisible = 5
)

// Alert is a single visible message.
type Alert struct {
	ID        string
	Kind      Kind
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Surface holds the visible alerts. Each Show is independent: alerts are
// never de-duplicated, and once MaxVisible is reached the oldest one is
// evicted to make room.
type Surface struct {
	mu         gosync.Mutex
	alerts     []Alert
	timers     map[string]*time.Timer
	maxVisible int
	duration   time.Duration
	onChange   func([]Alert)
}

// Option configures a Surface.
type Option func(*Surface)

// WithMaxVisible overrides the visible alert cap.
func WithMaxVisible(n int) Option {
	return func(s *Surface) {
		if n > 0 {
			s.maxVisible = n
		}
	}
}

// WithDuration overrides the default display duration.
func WithDuration(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithOnChange registers a callback invoked with the visible alerts after
// every change. It runs outside the surface lock, possibly on a timer
// goroutine.
func WithOnChange(fn func([]Alert)) Option {
	return func(s *Surface) {
		s.onChange = fn
	}
}

// NewSurface creates an empty alert surface.
func NewSurface(opts ...Option) *Surface {
	s := &Surface{
		timers:     make(map[string]*time.Timer),
		maxVisible: DefaultMaxVisible,
		duration:   DefaultDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show displays message for the default duration and returns the alert id.
func (s *Surface) Show(kind Kind, message string) string {
	return s.ShowFor(kind, message, s.duration)
}

// ShowFor displays message for d and returns the alert id. A non-positive
// d uses the default duration.
func (s *Surface) ShowFor(kind Kind, message string, d time.Duration) string {
	if d <= 0 {
		d = s.duration
	}

	now := time.Now()
	a := Alert{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(d),
	}

	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	for len(s.alerts) > s.maxVisible {
		s.dropLocked(s.alerts[0].ID)
	}
	s.timers[a.ID] = time.AfterFunc(d, func() { s.Dismiss(a.ID) })
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return a.ID
}

// Dismiss removes the alert with the given id. Unknown ids are ignored.
func (s *Surface) Dismiss(id string) {
	s.mu.Lock()
	if !s.dropLocked(id) {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// DismissLatest removes the newest visible alert and reports whether
// there was one.
func (s *Surface) DismissLatest() bool {
	s.mu.Lock()
	if len(s.alerts) == 0 {
		s.mu.Unlock()
		return false
	}
	s.dropLocked(s.alerts[len(s.alerts)-1].ID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// DismissAll removes every visible alert.
func (s *Surface) DismissAll() {
	s.mu.Lock()
	if len(s.alerts) == 0 {
		s.mu.Unlock()
		return
	}
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.alerts = nil
	s.mu.Unlock()

	s.notify(nil)
}

// Active returns the visible alerts, oldest first.
func (s *Surface) Active() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close dismisses everything and stops pending expiry timers.
func (s *Surface) Close() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.alerts = nil
	s.mu.Unlock()

	s.notify(nil)
}

func (s *Surface) dropLocked(id string) bool {
	for i, a := range s.alerts {
		if a.ID != id {
			continue
		}
		s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
		return true
	}
	return false
}

func (s *Surface) snapshotLocked() []Alert {
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func (s *Surface) notify(alerts []Alert) {
	if s.onChange != nil {
		s.onChange(alerts)
	}
}
