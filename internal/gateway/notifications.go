package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/model"
)

// ListNotifications returns one page of the user's notifications.
func (c *Client) ListNotifications(ctx context.Context, skip, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var out []model.Notification
	err := c.call(ctx, request{
		method: http.MethodGet,
		path:   "/notifications/",
		query:  url.Values{"skip": {strconv.Itoa(skip)}, "limit": {strconv.Itoa(limit)}},
		authed: true,
	}, &out)
	return out, err
}

// UnreadCount asks the server how many notifications are unread.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var r unreadCountResponse
	err := c.call(ctx, request{method: http.MethodGet, path: "/notifications/unread-count", authed: true}, &r)
	return r.UnreadCount, err
}

// MarkNotificationRead flags notification id as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.mutateNotification(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id))
}

// DeleteNotification removes notification id.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.mutateNotification(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id))
}

func (c *Client) mutateNotification(ctx context.Context, method, path string) error {
	var r mutationResponse
	if err := c.call(ctx, request{method: method, path: path, authed: true}, &r); err != nil {
		return err
	}
	if r.Error != "" {
		return apierr.NotFound(r.Error)
	}
	return nil
}
