package view

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/nhle/workhub/internal/alert"
	"github.com/nhle/workhub/internal/api"
	"github.com/nhle/workhub/internal/model"
)

// ErrPasswordMismatch is returned when the new password and its
// confirmation differ.
var ErrPasswordMismatch = errors.New("new passwords do not match")

// logoutTimeout bounds the best-effort server logout.
const logoutTimeout = 5 * time.Second

// AccountAPI is the Gateway surface used by the login and profile screens.
type AccountAPI interface {
	Login(ctx context.Context, in api.LoginInput) (*api.LoginResult, error)
	Register(ctx context.Context, in api.RegisterInput) (*api.RegisterResult, error)
	Logout(ctx context.Context) (*model.MessageResponse, error)
	ChangePassword(ctx context.Context, in api.ChangePasswordInput) (*model.MessageResponse, error)
	User(ctx context.Context, id int64) (*model.User, error)
	UserFiles(ctx context.Context, userID int64) (*model.UserFiles, error)
	UploadFile(ctx context.Context, in api.UploadInput) (*model.UploadedFile, error)
	Reports(ctx context.Context, userID int64) ([]model.Report, error)
}

// AccountSession is the session store surface needed to log in and out.
type AccountSession interface {
	Session
	Set(s *model.Session) error
	Clear() error
}

// AccountController handles login, registration, logout and the profile
// screen. Login and Register work without a mounted view.
type AccountController struct {
	base
	api     AccountAPI
	session AccountSession

	onLogout func(ctx context.Context, userID int64)
}

// NewAccountController creates a controller.
func NewAccountController(client AccountAPI, session AccountSession, alerts Alerter, opts ...Option) *AccountController {
	c := &AccountController{api: client, session: session}
	c.base.init(session, alerts, opts)
	return c
}

// OnLogout registers a hook run after the session is cleared, used to
// stop background sync and purge cached data for userID.
func (c *AccountController) OnLogout(fn func(ctx context.Context, userID int64)) {
	c.onLogout = fn
}

// Mount starts the profile view lifecycle.
func (c *AccountController) Mount(ctx context.Context) {
	c.life.mount(ctx)
}

// Unmount cancels in-flight profile requests.
func (c *AccountController) Unmount() {
	c.life.unmount()
}

// Login authenticates and stores the resulting session. The server's
// message is shown on failure, including for rejected credentials.
func (c *AccountController) Login(ctx context.Context, email, password string) (*model.Session, error) {
	c.setBusy(true)
	defer c.setBusy(false)

	res, err := c.api.Login(ctx, api.LoginInput{Email: email, Password: password})
	if err != nil {
		if api.IsAuthError(err) || !api.Handled(err) {
			c.alerts.Show(alert.Danger, api.MessageOr(err, "Login failed"))
		}
		return nil, err
	}

	sess := res.Session()
	if err := c.session.Set(sess); err != nil {
		log.Printf("view: storing session: %v", err)
		c.alerts.Show(alert.Danger, "Login failed")
		return nil, err
	}
	c.alerts.Show(alert.Success, "Login successful!")
	return sess, nil
}

// Register creates an employee account (or, for admins, any role).
func (c *AccountController) Register(ctx context.Context, in api.RegisterInput) error {
	c.setBusy(true)
	defer c.setBusy(false)

	if sess := c.session.Current(); sess.IsAdmin() {
		in.AdminID = sess.UserID
	}
	if _, err := c.api.Register(ctx, in); err != nil {
		c.fail(err, "Registration failed")
		return err
	}
	c.alerts.Show(alert.Success, "Registration successful! Please login.")
	return nil
}

// Logout ends the session. The server is told on a best-effort basis; the
// local session is cleared regardless.
func (c *AccountController) Logout(ctx context.Context) error {
	sess := c.session.Current()
	if sess == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(api.WithQuiet(ctx), logoutTimeout)
	if _, err := c.api.Logout(callCtx); err != nil {
		log.Printf("view: server logout: %v", err)
	}
	cancel()

	err := c.session.Clear()
	if err != nil {
		log.Printf("view: clearing session: %v", err)
	}
	if c.onLogout != nil {
		c.onLogout(ctx, sess.UserID)
	}
	c.alerts.Show(alert.Info, "Logged out successfully")
	return err
}

// ChangePassword replaces the current user's password after checking the
// confirmation locally.
func (c *AccountController) ChangePassword(ctx context.Context, current, next, confirm string) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	if next != confirm {
		c.alerts.Show(alert.Danger, "New passwords do not match")
		return ErrPasswordMismatch
	}

	in := api.ChangePasswordInput{UserID: sess.UserID, CurrentPassword: current, NewPassword: next}
	return c.mutate(ctx, "Password changed successfully", "Failed to change password",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.ChangePassword(ctx, in); err != nil {
				return "", err
			}
			return "", nil
		},
		nil,
	)
}

// Profile loads the current user's record with statistics.
func (c *AccountController) Profile(ctx context.Context) (*model.User, error) {
	sess := c.session.Current()
	if sess == nil {
		return nil, ErrNotMounted
	}
	return fetch(&c.base, ctx, "Failed to load profile information", func(ctx context.Context) (*model.User, error) {
		return c.api.User(ctx, sess.UserID)
	})
}

// Files lists the current user's uploads.
func (c *AccountController) Files(ctx context.Context) (*model.UserFiles, error) {
	sess := c.session.Current()
	if sess == nil {
		return nil, ErrNotMounted
	}
	return fetch(&c.base, ctx, "Failed to load files", func(ctx context.Context) (*model.UserFiles, error) {
		return c.api.UserFiles(ctx, sess.UserID)
	})
}

// Reports lists the reports visible to the current user.
func (c *AccountController) Reports(ctx context.Context) ([]model.Report, error) {
	sess := c.session.Current()
	if sess == nil {
		return nil, ErrNotMounted
	}
	return fetch(&c.base, ctx, "Failed to load reports", func(ctx context.Context) ([]model.Report, error) {
		return c.api.Reports(ctx, sess.UserID)
	})
}

// Upload attaches content to taskID. Oversized or disallowed files are
// rejected locally with a warning.
func (c *AccountController) Upload(ctx context.Context, taskID int64, filename string, content []byte) error {
	sess := c.session.Current()
	if sess == nil {
		return ErrNotMounted
	}
	if _, err := api.CheckUpload(content); err != nil {
		switch {
		case errors.Is(err, api.ErrUploadTooLarge):
			c.alerts.Show(alert.Warning, "File size must be less than 10MB")
		case errors.Is(err, api.ErrUploadEmpty):
			c.alerts.Show(alert.Warning, "Please select a file")
		default:
			c.alerts.Show(alert.Warning, "File type not allowed")
		}
		return err
	}

	in := api.UploadInput{TaskID: taskID, UploadedBy: sess.UserID, Filename: filename, Content: content}
	return c.mutate(ctx, "File uploaded successfully", "Failed to upload file",
		func(ctx context.Context) (string, error) {
			if _, err := c.api.UploadFile(ctx, in); err != nil {
				return "", err
			}
			return "", nil
		},
		nil,
	)
}

// fetch runs a one-shot read scoped to the view lifecycle.
func fetch[T any](b *base, ctx context.Context, failMsg string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	reqCtx, done, ok := b.life.request(ctx)
	if !ok {
		return zero, ErrNotMounted
	}
	defer done()

	v, err := call(reqCtx)
	if err != nil {
		b.fail(err, failMsg)
		return zero, err
	}
	return v, nil
}
