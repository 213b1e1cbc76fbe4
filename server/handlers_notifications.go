package server

import (
	"net/http"

	"github.com/jrsteele09/go-bizcard-client/inbox"
	"github.com/jrsteele09/go-bizcard-client/token"
	"github.com/rs/zerolog/log"
)

type notificationResponse struct {
	NotificationID int64  `json:"notificationId"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	IsRead         bool   `json:"isRead"`
	CreatedAt      string `json:"createdAt"`
	PostID         *int64 `json:"postId,omitempty"`
	CommentID      *int64 `json:"commentId,omitempty"`
	SenderID       int64  `json:"senderId"`
}

// notify records a notification for recipientID. Acting on your own content is silent.
func (s *Server) notify(recipientID int64, sender *token.AccessClaims, kind inbox.Type, message string, postID, commentID *int64) {
	if recipientID == sender.UserID {
		return
	}
	n := &inbox.Notification{
		RecipientID: recipientID,
		SenderID:    sender.UserID,
		Type:        kind,
		Message:     message,
		CreatedAt:   s.now(),
		PostID:      postID,
		CommentID:   commentID,
	}
	if err := s.repos.Inbox.Add(n); err != nil {
		log.Err(err).Int64("recipient_id", recipientID).Msg("failed to add notification")
	}
}

func (s *Server) ListNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Inbox.ListFor(claimsFrom(r).UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}

		out := make([]notificationResponse, 0, len(list))
		for _, n := range list {
			out = append(out, notificationResponse{
				NotificationID: n.ID,
				Type:           string(n.Type),
				Message:        n.Message,
				IsRead:         n.IsRead,
				CreatedAt:      formatTime(n.CreatedAt),
				PostID:         n.PostID,
				CommentID:      n.CommentID,
				SenderID:       n.SenderID,
			})
		}
		writeJSON(w, http.StatusOK, map[string][]notificationResponse{"notifications": out})
	}
}

func (s *Server) MarkNotificationReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "notificationId")
		if !ok {
			return
		}
		if err := s.repos.Inbox.MarkRead(claimsFrom(r).UserID, id); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "notification read"})
	}
}

func (s *Server) DeleteNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "notificationId")
		if !ok {
			return
		}
		if err := s.repos.Inbox.Delete(claimsFrom(r).UserID, id); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "notification deleted"})
	}
}

// DeleteNotificationsHandler removes the ids listed in the body
func (s *Server) DeleteNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NotificationIDs []int64 `json:"notificationIds"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.NotificationIDs) == 0 {
			writeError(w, http.StatusBadRequest, "notificationIds is required")
			return
		}
		if err := s.repos.Inbox.DeleteMany(claimsFrom(r).UserID, req.NotificationIDs); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "notifications deleted"})
	}
}
