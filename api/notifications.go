package api

import (
	"context"
	"net/http"
	"strconv"
)

type NotificationType string

const (
	NotificationComment     NotificationType = "comment"
	NotificationPostLike    NotificationType = "post_like"
	NotificationCommentLike NotificationType = "comment_like"
)

type Notification struct {
	NotificationID int64            `json:"notificationId"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"isRead"`
	CreatedAt      string           `json:"createdAt"`
	PostID         *int64           `json:"postId,omitempty"`
	CommentID      *int64           `json:"commentId,omitempty"`
	SenderID       int64            `json:"senderId"`
}

func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var resp struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.getJSON(ctx, "/notifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, notificationPath(id)+"/read", nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, notificationPath(id), nil, nil)
}

// DeleteNotifications removes several notifications in one call
func (c *Client) DeleteNotifications(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	body := struct {
		NotificationIDs []int64 `json:"notificationIds"`
	}{NotificationIDs: ids}
	return c.doJSON(ctx, http.MethodDelete, "/notifications", body, nil)
}

func notificationPath(id int64) string {
	return "/notifications/" + strconv.FormatInt(id, 10)
}
