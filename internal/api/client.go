// Package api is the only component that talks to the network. It wraps the
// Work Management REST API with JSON defaults, bearer authentication and the
// shared handling of 401, 403 and 5xx responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/model"
)

const (
	msgAccessDenied = "Access denied"
	msgServerError  = "Server error. Please try again later."
)

// SessionStore is the part of the session store the Gateway needs.
type SessionStore interface {
	Current() *model.Session
	Clear() error
}

// Alerter shows a transient message to the user.
type Alerter interface {
	Show(kind alert.Kind, message string) string
}

// RequestOptions overrides the Gateway defaults for a single request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Header values replace the defaults with the same name.
	Header http.Header

	// Body is JSON-encoded. Ignored when RawBody is set.
	Body any

	// RawBody is sent as-is, e.g. a multipart form. Set Content-Type in
	// Header alongside it.
	RawBody []byte
}

// Gateway issues requests against the REST API.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	session    SessionStore
	alerts     Alerter
	maxRetries int

	onUnauthorized func()
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithUnauthorizedHook registers fn to run after a 401 cleared the
// session. The host uses it to return to the login screen.
func WithUnauthorizedHook(fn func()) Option {
	return func(g *Gateway) {
		g.onUnauthorized = fn
	}
}

// NewGateway creates a Gateway for the API rooted at baseURL
// (e.g. http://localhost:5000/api).
func NewGateway(baseURL string, session SessionStore, alerts Alerter, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		session:    session,
		alerts:     alerts,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the API root.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Request performs a request against endpoint (relative to the base URL)
// and decodes a JSON response into result when result is non-nil.
func (g *Gateway) Request(ctx context.Context, endpoint string, opts *RequestOptions, result any) error {
	if opts == nil {
		opts = &RequestOptions{}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	payload := opts.RawBody
	if payload == nil && opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return &Error{Kind: KindValidation, Method: method, Endpoint: endpoint, err: fmt.Errorf("marshaling request body: %w", err)}
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		resp, respBody, err := g.send(ctx, method, endpoint, opts.Header, payload)
		if err != nil {
			return &Error{Kind: KindTransport, Method: method, Endpoint: endpoint, err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, endpoint)
			select {
			case <-ctx.Done():
				return &Error{Kind: KindTransport, Method: method, Endpoint: endpoint, err: ctx.Err()}
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return g.fail(ctx, method, endpoint, resp.StatusCode, respBody)
		}

		if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{
				Kind:       KindTransport,
				StatusCode: resp.StatusCode,
				Method:     method,
				Endpoint:   endpoint,
				err:        fmt.Errorf("unmarshaling response: %w", err),
			}
		}
		return nil
	}

	return &Error{
		Kind:       KindServer,
		StatusCode: http.StatusTooManyRequests,
		Method:     method,
		Endpoint:   endpoint,
		err:        fmt.Errorf("max retries (%d) exceeded: %w", g.maxRetries, lastErr),
	}
}

func (g *Gateway) send(ctx context.Context, method, endpoint string, header http.Header, payload []byte) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if sess := g.session.Current(); sess != nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	for name, values := range header {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("executing request %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp, respBody, nil
}

// fail classifies a non-2xx response and performs the shared side effect
// for its class.
func (g *Gateway) fail(ctx context.Context, method, endpoint string, status int, body []byte) error {
	apiErr := &Error{
		StatusCode: status,
		Method:     method,
		Endpoint:   endpoint,
		Message:    serverMessage(body),
	}

	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindAuthExpired
		apiErr.handled = true
		if err := g.session.Clear(); err != nil {
			log.Printf("api: clearing session after 401: %v", err)
		}
		if g.onUnauthorized != nil {
			g.onUnauthorized()
		}

	case status == http.StatusForbidden:
		apiErr.Kind = KindForbidden
		if !isQuiet(ctx) {
			apiErr.handled = true
			g.alerts.Show(alert.Danger, msgAccessDenied)
		}

	case status >= 500:
		apiErr.Kind = KindServer
		if !isQuiet(ctx) {
			apiErr.handled = true
			g.alerts.Show(alert.Danger, msgServerError)
		}

	default:
		apiErr.Kind = KindValidation
	}

	log.Printf("api: %s %s failed with %d", method, endpoint, status)
	return apiErr
}

// serverMessage extracts the "message" (or "error") field from a JSON
// error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// errRejected wraps a request rejected before dispatch.
func errRejected(method, endpoint string, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	return &Error{Kind: KindValidation, Method: method, Endpoint: endpoint, Message: err.Error(), err: err}
}
