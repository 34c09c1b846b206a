package store

import (
	"context"

	"github.com/nhle/workhub/internal/model"
)

// Store is the local snapshot cache. It keeps the last fetched group list
// and notification page per user so the client can render immediately on
// start, before the first network round trip completes.
type Store interface {
	SaveGroups(ctx context.Context, userID int64, groups []model.Group) error
	LoadGroups(ctx context.Context, userID int64) ([]model.Group, error)

	SaveNotifications(ctx context.Context, userID int64, page *model.NotificationPage) error
	LoadNotifications(ctx context.Context, userID int64) (*model.NotificationPage, error)

	// Purge drops everything cached for the user, e.g. on logout.
	Purge(ctx context.Context, userID int64) error

	Close() error
}
