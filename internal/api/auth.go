package api

import (
	"context"
	"net/http"

	"github.com/nhle/workhub/internal/model"
)

// LoginInput is the credentials form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
	Token   string     `json:"token,omitempty"`
}

// Session converts the login result into the client session record.
func (r LoginResult) Session() *model.Session {
	return &model.Session{
		UserID:       r.User.ID,
		Name:         r.User.Name,
		Email:        r.User.Email,
		Role:         r.User.Role,
		EmployeeCode: r.User.EmployeeCode,
		Group:        r.User.Group,
		Token:        r.Token,
	}
}

// Login authenticates with email and password.
func (g *Gateway) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	const endpoint = "/auth/login"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out LoginResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterInput creates an account. Creating admin or leader accounts
// requires AdminID.
type RegisterInput struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role,omitempty" validate:"omitempty,oneof=admin leader employee"`
	AdminID  int64      `json:"admin_id,omitempty"`
}

// RegisterResult is returned after a successful registration.
type RegisterResult struct {
	Message string      `json:"message"`
	User    *model.User `json:"user,omitempty"`
}

// Register creates a new account.
func (g *Gateway) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const endpoint = "/auth/register"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}

	var out RegisterResult
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePasswordInput replaces the user's password.
type ChangePasswordInput struct {
	UserID          int64  `json:"user_id" validate:"gt=0"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,nefield=CurrentPassword"`
}

// ChangePassword updates the password of the given user.
func (g *Gateway) ChangePassword(ctx context.Context, in ChangePasswordInput) (*model.MessageResponse, error) {
	const endpoint = "/auth/change-password"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	return g.message(ctx, http.MethodPost, endpoint, in)
}

// Logout notifies the server that the session ended.
func (g *Gateway) Logout(ctx context.Context) (*model.MessageResponse, error) {
	return g.message(ctx, http.MethodPost, "/auth/logout", nil)
}

// message issues a mutating request whose response is a bare message.
func (g *Gateway) message(ctx context.Context, method, endpoint string, body any) (*model.MessageResponse, error) {
	var out model.MessageResponse
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: method, Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
