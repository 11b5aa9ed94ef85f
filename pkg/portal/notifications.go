package portal

import (
	"context"

	"github.com/napryag/tg_wellness_bot/pkg/repository/model"
)

type unreadCountBody struct {
	Count int `json:"count"`
}

func (c *Client) Notifications(ctx context.Context, token string) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.get(ctx, "/notifications", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var out unreadCountBody
	if err := c.get(ctx, "/notifications/unread-count", token, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	return c.patch(ctx, pathID("/notifications/%s/read", id), token, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context, token string) error {
	return c.patch(ctx, "/notifications/read-all", token, nil, nil)
}
