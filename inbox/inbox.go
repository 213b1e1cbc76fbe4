// Package inbox keeps the dev backend's per-user notifications
package inbox

import "time"

type Type string

const (
	TypeComment     Type = "comment"
	TypePostLike    Type = "post_like"
	TypeCommentLike Type = "comment_like"
)

type Notification struct {
	ID          int64
	RecipientID int64
	SenderID    int64
	Type        Type
	Message     string
	IsRead      bool
	CreatedAt   time.Time
	PostID      *int64
	CommentID   *int64
}

// Repo stores notifications. Every operation is scoped to the recipient so that one user
// can never read or remove another user's notifications.
type Repo interface {
	// Add assigns the next id
	Add(n *Notification) error
	// ListFor returns the recipient's notifications, newest first
	ListFor(recipientID int64) ([]*Notification, error)
	MarkRead(recipientID, id int64) error
	Delete(recipientID, id int64) error
	// DeleteMany removes the listed ids; unknown ids are ignored
	DeleteMany(recipientID int64, ids []int64) error
}
