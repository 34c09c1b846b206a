package sync

import (
	"context"
	"fmt"
	"log"
	"slices"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

// State is the synchronizer state shown by the host.
type State int

const (
	StateIdle State = iota
	StateRefreshing
	StateDropdownOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateDropdownOpen:
		return "dropdown_open"
	}
	return "unknown"
}

const (
	// DefaultInterval is the background refresh period.
	DefaultInterval = 30 * time.Second

	// DefaultLimit is the feed page size.
	DefaultLimit = 10

	// fetchTimeout is the maximum time allowed for a single fetch.
	fetchTimeout = 30 * time.Second

	// ClearPrompt is the question passed to the Confirmer by ClearAll.
	ClearPrompt = "Are you sure you want to clear all notifications?"
)

// Alert messages shown for bulk actions.
const (
	MsgAllRead      = "All notifications marked as read"
	MsgAllReadError = "Error marking notifications as read"
	MsgCleared      = "All notifications cleared"
	MsgClearedError = "Error clearing notifications"
	MsgDeletedError = "Error deleting notification"
)

// NotificationAPI is the subset of the Gateway used by the synchronizer.
type NotificationAPI interface {
	Notifications(ctx context.Context, userID int64, limit int) (*model.NotificationPage, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	ClearNotifications(ctx context.Context, userID int64) error
	DeleteNotification(ctx context.Context, id int64) error
}

// SessionReader returns the current session, or nil when logged out.
type SessionReader interface {
	Current() *model.Session
}

// Alerter shows a transient message.
type Alerter interface {
	Show(kind alert.Kind, message string) string
}

// Cache persists the last fetched page per user.
type Cache interface {
	LoadNotifications(ctx context.Context, userID int64) (*model.NotificationPage, error)
	SaveNotifications(ctx context.Context, userID int64, page *model.NotificationPage) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer func(prompt string) bool

// Snapshot is a copy of the feed state.
type Snapshot struct {
	Notifications []model.Notification
	UnreadCount   int
	Total         int
	State         State
	LastSync      time.Time
	Err           error
}

// UpdateMsg is a tea.Msg sent after every state change.
type UpdateMsg struct {
	Snapshot Snapshot

	// NewUnread is the number of unread notifications first seen by the
	// refresh that produced this update.
	NewUnread int
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithInterval overrides the background refresh period. Periods are
// rounded down to whole seconds, with a minimum of one second.
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLimit overrides the feed page size.
func WithLimit(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithCache attaches a snapshot cache used to prime the feed on Start and
// persist every successful refresh.
func WithCache(c Cache) Option {
	return func(s *Synchronizer) {
		s.cache = c
	}
}

// Synchronizer keeps a local copy of the notification feed fresh and
// applies read/clear actions optimistically.
type Synchronizer struct {
	api     NotificationAPI
	session SessionReader
	alerts  Alerter
	cache   Cache

	interval time.Duration
	limit    int

	mu            gosync.Mutex
	notifications []model.Notification
	unread        int
	total         int
	refreshing    int
	open          bool
	lastSync      time.Time
	lastErr       error
	seen          map[int64]bool
	primed        bool
	gen           uint64

	cron     *cron.Cron
	updateCh chan UpdateMsg
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

// New creates a Synchronizer. Call Start to begin background refreshes.
func New(client NotificationAPI, session SessionReader, alerts Alerter, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		api:      client,
		session:  session,
		alerts:   alerts,
		interval: DefaultInterval,
		limit:    DefaultLimit,
		seen:     make(map[int64]bool),
		updateCh: make(chan UpdateMsg, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start primes the feed from the cache, schedules the periodic silent
// refresh and performs an initial one. It stops when parent is cancelled
// or Stop is called.
func (s *Synchronizer) Start(parent context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return fmt.Errorf("synchronizer already stopped")
	}
	s.running = true
	s.mu.Unlock()

	context.AfterFunc(parent, s.Stop)

	s.primeFromCache()

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() {
		if err := s.Refresh(s.ctx, true); err != nil {
			log.Printf("sync: background refresh: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling refresh %q: %w", spec, err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	go func() {
		if err := s.Refresh(s.ctx, true); err != nil {
			log.Printf("sync: initial refresh: %v", err)
		}
	}()
	return nil
}

// Stop cancels the schedule. Responses that arrive afterwards are
// discarded.
func (s *Synchronizer) Stop() {
	s.cancel()

	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Reset drops the local feed, e.g. after logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.total = 0
	s.open = false
	s.lastErr = nil
	s.seen = make(map[int64]bool)
	s.primed = false
	s.gen++
	s.sendLocked(UpdateMsg{Snapshot: s.snapshotLocked()})
	s.mu.Unlock()
}

// Refresh fetches the latest page. A silent refresh never alerts; a
// non-silent one announces newly arrived unread notifications. When
// logged out Refresh does nothing.
func (s *Synchronizer) Refresh(ctx context.Context, silent bool) error {
	sess := s.session.Current()
	if sess == nil {
		return nil
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.refreshing++
	s.mu.Unlock()
	s.publish(0)

	if silent {
		ctx = api.WithQuiet(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	page, err := s.api.Notifications(ctx, sess.UserID, s.limit)

	s.mu.Lock()
	s.refreshing--
	if s.ctx.Err() != nil || gen != s.gen {
		s.mu.Unlock()
		s.publish(0)
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		log.Printf("sync: loading notifications: %v", err)
		s.publish(0)
		return err
	}

	newUnread := s.applyLocked(page)
	announce := !silent && s.primed && newUnread > 0
	s.primed = true
	s.lastSync = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	if announce {
		s.alerts.Show(alert.Info, fmt.Sprintf("You have %d new notifications", newUnread))
	}
	s.persist(ctx, sess.UserID, page)
	s.publish(newUnread)
	return nil
}

// OpenDropdown enters DropdownOpen and forces a non-silent refresh.
func (s *Synchronizer) OpenDropdown(ctx context.Context) error {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	s.publish(0)

	return s.Refresh(ctx, false)
}

// CloseDropdown returns to Idle.
func (s *Synchronizer) CloseDropdown() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	s.publish(0)
}

// ToggleDropdown opens a closed dropdown or closes an open one.
func (s *Synchronizer) ToggleDropdown(ctx context.Context) error {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	if open {
		s.CloseDropdown()
		return nil
	}
	return s.OpenDropdown(ctx)
}

// MarkAsRead flips the notification to read locally before calling the
// server. A failed call is logged and not rolled back; the next refresh
// reconciles.
func (s *Synchronizer) MarkAsRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	changed := false
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID != id || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &model.Timestamp{Time: time.Now()}
		changed = true
		break
	}
	if changed {
		s.unread = max(s.unread-1, 0)
		s.gen++
	}
	s.mu.Unlock()
	s.publish(0)

	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		log.Printf("sync: marking notification %d as read: %v", id, err)
		return err
	}
	return nil
}

// MarkAllAsRead marks every local notification read, then calls the
// server and reports the outcome.
func (s *Synchronizer) MarkAllAsRead(ctx context.Context) error {
	sess := s.session.Current()
	if sess == nil {
		return nil
	}

	s.mu.Lock()
	now := time.Now()
	for i := range s.notifications {
		n := &s.notifications[i]
		if !n.IsRead {
			n.IsRead = true
			n.ReadAt = &model.Timestamp{Time: now}
		}
	}
	s.unread = 0
	s.gen++
	s.mu.Unlock()
	s.publish(0)

	if err := s.api.MarkAllNotificationsRead(ctx, sess.UserID); err != nil {
		log.Printf("sync: marking all notifications as read: %v", err)
		if !api.Handled(err) {
			s.alerts.Show(alert.Danger, MsgAllReadError)
		}
		return err
	}
	s.alerts.Show(alert.Success, MsgAllRead)
	return nil
}

// ClearAll deletes every notification after confirm approves. A declined
// confirmation changes nothing.
func (s *Synchronizer) ClearAll(ctx context.Context, confirm Confirmer) error {
	sess := s.session.Current()
	if sess == nil {
		return nil
	}
	if confirm == nil || !confirm(ClearPrompt) {
		return nil
	}

	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.total = 0
	s.gen++
	s.mu.Unlock()
	s.publish(0)

	if err := s.api.ClearNotifications(ctx, sess.UserID); err != nil {
		log.Printf("sync: clearing notifications: %v", err)
		if !api.Handled(err) {
			s.alerts.Show(alert.Danger, MsgClearedError)
		}
		return err
	}
	s.alerts.Show(alert.Success, MsgCleared)
	return nil
}

// Delete removes one notification locally and then on the server. A
// failure is alerted but not rolled back; the next refresh restores it.
func (s *Synchronizer) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.notifications, func(n model.Notification) bool { return n.ID == id })
	if idx >= 0 {
		if !s.notifications[idx].IsRead {
			s.unread = max(s.unread-1, 0)
		}
		s.notifications = slices.Delete(slices.Clone(s.notifications), idx, idx+1)
		s.total = max(s.total-1, 0)
		s.gen++
	}
	s.mu.Unlock()
	s.publish(0)

	if err := s.api.DeleteNotification(ctx, id); err != nil {
		log.Printf("sync: deleting notification %d: %v", id, err)
		if !api.Handled(err) {
			s.alerts.Show(alert.Danger, MsgDeletedError)
		}
		return err
	}
	return nil
}

// Snapshot returns a copy of the current feed state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// WaitForUpdate returns a tea.Cmd that waits for the next UpdateMsg. Call
// it again after handling each message to keep listening. It yields nil
// once the synchronizer is stopped.
func (s *Synchronizer) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.updateCh:
			return msg
		case <-s.ctx.Done():
			return nil
		}
	}
}

// applyLocked replaces the page and returns how many unread notifications
// had not been seen before.
func (s *Synchronizer) applyLocked(page *model.NotificationPage) int {
	items := make([]model.Notification, len(page.Notifications))
	copy(items, page.Notifications)

	newUnread := 0
	for _, n := range items {
		if !n.IsRead && !s.seen[n.ID] {
			newUnread++
		}
		s.seen[n.ID] = true
	}

	s.notifications = items
	s.unread = model.CountUnread(items)
	s.total = page.Total
	return newUnread
}

func (s *Synchronizer) primeFromCache() {
	if s.cache == nil {
		return
	}
	sess := s.session.Current()
	if sess == nil {
		return
	}

	page, err := s.cache.LoadNotifications(s.ctx, sess.UserID)
	if err != nil {
		log.Printf("sync: reading cached notifications: %v", err)
		return
	}
	if page == nil {
		return
	}

	s.mu.Lock()
	s.applyLocked(page)
	s.primed = true
	s.mu.Unlock()
	s.publish(0)
}

func (s *Synchronizer) persist(ctx context.Context, userID int64, page *model.NotificationPage) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveNotifications(ctx, userID, page); err != nil {
		log.Printf("sync: caching notifications: %v", err)
	}
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	items := make([]model.Notification, len(s.notifications))
	copy(items, s.notifications)

	state := StateIdle
	switch {
	case s.refreshing > 0:
		state = StateRefreshing
	case s.open:
		state = StateDropdownOpen
	}

	return Snapshot{
		Notifications: items,
		UnreadCount:   s.unread,
		Total:         s.total,
		State:         state,
		LastSync:      s.lastSync,
		Err:           s.lastErr,
	}
}

func (s *Synchronizer) publish(newUnread int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(UpdateMsg{Snapshot: s.snapshotLocked(), NewUnread: newUnread})
}

// sendLocked delivers msg without blocking. When the channel is full the
// oldest update is dropped, so the last message received always carries
// the current state. Holding s.mu keeps snapshots in order.
func (s *Synchronizer) sendLocked(msg UpdateMsg) {
	for {
		select {
		case s.updateCh <- msg:
			return
		default:
		}
		select {
		case <-s.updateCh:
		default:
		}
	}
}
