package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/workhub/internal/model"
)

// Notifications fetches the most recent page of the user's feed.
func (g *Gateway) Notifications(ctx context.Context, userID int64, limit int) (*model.NotificationPage, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out model.NotificationPage
	if err := g.Request(ctx, "/notifications/list?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkNotificationRead marks one notification as read.
func (g *Gateway) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := g.message(ctx, http.MethodPut, fmt.Sprintf("/notifications/mark-read/%d", id), nil)
	return err
}

type userBody struct {
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// MarkAllNotificationsRead marks every notification of the user as read.
func (g *Gateway) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	const endpoint = "/notifications/mark-all-read"
	in := userBody{UserID: userID}
	if err := check(http.MethodPut, endpoint, in); err != nil {
		return err
	}
	_, err := g.message(ctx, http.MethodPut, endpoint, in)
	return err
}

// ClearNotifications deletes every notification of the user.
func (g *Gateway) ClearNotifications(ctx context.Context, userID int64) error {
	const endpoint = "/notifications/clear-all"
	in := userBody{UserID: userID}
	if err := check(http.MethodDelete, endpoint, in); err != nil {
		return err
	}
	_, err := g.message(ctx, http.MethodDelete, endpoint, in)
	return err
}

// DeleteNotification deletes a single notification.
func (g *Gateway) DeleteNotification(ctx context.Context, id int64) error {
	_, err := g.message(ctx, http.MethodDelete, fmt.Sprintf("/notifications/delete/%d", id), nil)
	return err
}

// NotificationInput creates a notification for another user.
type NotificationInput struct {
	UserID      int64                  `json:"user_id" validate:"gt=0"`
	Title       string                 `json:"title" validate:"required,max=200"`
	Message     string                 `json:"message" validate:"required"`
	Type        model.NotificationType `json:"type" validate:"required"`
	IsImportant bool                   `json:"is_important,omitempty"`
	TaskID      *int64                 `json:"task_id,omitempty"`
	GroupID     *int64                 `json:"group_id,omitempty"`
	ReportID    *int64                 `json:"report_id,omitempty"`
}

// CreateNotification posts a notification.
func (g *Gateway) CreateNotification(ctx context.Context, in NotificationInput) (*model.Notification, error) {
	const endpoint = "/notifications/create"
	if err := check(http.MethodPost, endpoint, in); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, errRejected(http.MethodPost, endpoint, fmt.Errorf("unknown notification type %q", in.Type))
	}

	var out model.Notification
	if err := g.Request(ctx, endpoint, &RequestOptions{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
