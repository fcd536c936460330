package api

import (
	"context"
	"net/http"
)

func (c *Client) ListNotifications(ctx context.Context, q NotificationQuery) (*NotificationList, error) {
	var out NotificationList
	if err := c.do(ctx, http.MethodGet, c.routes.Notifications, q.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, expand(c.routes.NotificationRead, id), nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, c.routes.NotificationsRead, nil, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, expand(c.routes.Notification, id), nil, nil, nil)
}
