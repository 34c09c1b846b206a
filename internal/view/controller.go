// Package view holds the controllers behind the group, task and account
// screens. Controllers call the API Gateway, keep the last loaded data in
// memory and report outcomes through the alert surface.
package view

import (
	"context"
	"errors"
	gosync "sync"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

// ErrNotMounted is returned by operations on a controller that is not
// mounted.
var ErrNotMounted = errors.New("view is not mounted")

// Session is the part of the session store controllers use.
type Session interface {
	Current() *model.Session
	PatchGroup(ref *model.GroupRef) error
}

// Alerter shows a transient message.
type Alerter interface {
	Show(kind alert.Kind, message string) string
}

// Option configures a controller.
type Option func(*base)

// WithBusy registers the busy indicator. It is called with true before a
// mutation starts and always with false once it finishes.
func WithBusy(fn func(busy bool)) Option {
	return func(b *base) {
		b.busy = fn
	}
}

// WithOnChange registers a callback run after loaded data changes.
func WithOnChange(fn func()) Option {
	return func(b *base) {
		b.onChange = fn
	}
}

// base carries the dependencies and lifecycle shared by all controllers.
type base struct {
	session  Session
	alerts   Alerter
	busy     func(bool)
	onChange func()

	life lifecycle
}

func (b *base) init(session Session, alerts Alerter, opts []Option) {
	b.session = session
	b.alerts = alerts
	for _, opt := range opts {
		opt(b)
	}
}

func (b *base) setBusy(on bool) {
	if b.busy != nil {
		b.busy(on)
	}
}

func (b *base) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}

// fail surfaces err unless the Gateway already did or the view went away.
func (b *base) fail(err error, fallback string) {
	if api.Handled(err) || errors.Is(err, ErrNotMounted) || errors.Is(err, context.Canceled) {
		return
	}
	b.alerts.Show(alert.Danger, api.MessageOr(err, fallback))
}

// mutate runs call with the busy indicator on. On success the server
// message (or okMsg when empty) is shown and after runs; on failure the
// error is surfaced and after is skipped.
func (b *base) mutate(ctx context.Context, okMsg, failMsg string, call func(ctx context.Context) (string, error), after func(ctx context.Context)) error {
	reqCtx, done, ok := b.life.request(ctx)
	if !ok {
		return ErrNotMounted
	}
	defer done()

	b.setBusy(true)
	defer b.setBusy(false)

	msg, err := call(reqCtx)
	if err != nil {
		b.fail(err, failMsg)
		return err
	}
	if msg == "" {
		msg = okMsg
	}
	b.alerts.Show(alert.Success, msg)

	if after != nil {
		after(reqCtx)
	}
	return nil
}

// lifecycle scopes requests to a mounted view. Unmount cancels in-flight
// requests, and each load key carries a generation so only the newest
// response for that key is applied.
type lifecycle struct {
	mu     gosync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	gens   map[string]uint64
}

func (l *lifecycle) mount(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	l.gens = make(map[string]uint64)
}

func (l *lifecycle) unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
}

func (l *lifecycle) mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx != nil && l.ctx.Err() == nil
}

// request derives a context cancelled by either ctx or Unmount.
func (l *lifecycle) request(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	l.mu.Lock()
	life := l.ctx
	l.mu.Unlock()

	if life == nil || life.Err() != nil {
		return nil, nil, false
	}

	reqCtx, cancel := context.WithCancel(life)
	stop := context.AfterFunc(ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}, true
}

// begin starts a load for key and returns its generation.
func (l *lifecycle) begin(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gens == nil {
		l.gens = make(map[string]uint64)
	}
	l.gens[key]++
	return l.gens[key]
}

// current reports whether gen is still the newest load for key and the
// view is still mounted.
func (l *lifecycle) current(key string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx != nil && l.ctx.Err() == nil && l.gens[key] == gen
}
