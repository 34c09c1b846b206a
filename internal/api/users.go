package api

import (
	"context"
	"fmt"

	"github.com/nhle/workhub/internal/model"
)

// User fetches a single user with profile statistics.
func (g *Gateway) User(ctx context.Context, id int64) (*model.User, error) {
	var out model.User
	if err := g.Request(ctx, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Employees lists every employee account, used to pick members to add.
func (g *Gateway) Employees(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := g.Request(ctx, "/users/employees", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableLeaders lists leader and admin accounts with their current
// leadership.
func (g *Gateway) AvailableLeaders(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := g.Request(ctx, "/users/available-leaders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
