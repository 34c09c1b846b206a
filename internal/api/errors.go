package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed request by who handles it.
type ErrorKind int

const (
	// KindTransport covers network failures and undecodable responses.
	KindTransport ErrorKind = iota
	// KindAuthExpired is a 401: the session is cleared and the user sent
	// back to login.
	KindAuthExpired
	// KindForbidden is a 403: a generic "access denied" alert is shown.
	KindForbidden
	// KindValidation is any other 4xx, or a request rejected before
	// dispatch. Callers surface the message themselves.
	KindValidation
	// KindServer is a 5xx: a generic "server error" alert is shown.
	KindServer
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthExpired:
		return "auth_expired"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is returned for every failed Gateway request.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Method     string
	Endpoint   string

	// Message is the server-supplied message, if any.
	Message string

	// handled is set when the Gateway already surfaced the failure.
	handled bool
	err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.err != nil {
		msg = e.err.Error()
	}
	if msg == "" {
		msg = FallbackMessage
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Endpoint, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Endpoint, e.Kind, msg)
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// KindOf returns the classification of err. Errors that did not come from
// the Gateway are reported as KindTransport.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsAuthError reports whether err (or any error in its chain) is a 401.
func IsAuthError(err error) bool {
	return err != nil && KindOf(err) == KindAuthExpired
}

// Handled reports whether the Gateway already performed the user-visible
// side effect for err (logout, access denied or server error alert), so
// callers should not alert again.
func Handled(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.handled
	}
	return false
}

// MessageOr returns the server-supplied message carried by err, or
// fallback when there is none. An empty fallback means FallbackMessage.
func MessageOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return FallbackMessage
	}
	return fallback
}

// FallbackMessage describes a 4xx response that carried no message.
const FallbackMessage = "Request failed"

type quietKey struct{}

// WithQuiet marks requests made with ctx as background requests: the
// Gateway skips the shared 403 and 5xx alerts. A 401 still clears the
// session.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

func isQuiet(ctx context.Context) bool {
	quiet, _ := ctx.Value(quietKey{}).(bool)
	return quiet
}
