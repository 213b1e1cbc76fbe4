package notifications

import (
	"context"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
)

// API is the part of the resource client notifications need
type API interface {
	ListNotifications(ctx context.Context) ([]api.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error
	DeleteNotifications(ctx context.Context, ids []int64) error
}

// Service applies a change on the server first and mirrors it in the Store only when the
// server accepted it.
type Service struct {
	api   API
	store *Store
}

func NewService(client API, store *Store) *Service {
	return &Service{
		api:   client,
		store: store,
	}
}

func (s *Service) Store() *Store {
	return s.store
}

// Refresh replaces the Store with the server's list
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.RefreshIf(ctx, nil)
	return err
}

// RefreshIf fetches the server's list and stores it only if valid still holds when the
// response arrives. A list fetched for a session that has since ended is dropped.
func (s *Service) RefreshIf(ctx context.Context, valid func() bool) (bool, error) {
	items, err := s.api.ListNotifications(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "notifications.Refresh")
	}
	return s.store.SetIf(items, valid), nil
}

func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		return errors.Wrapf(err, "notifications.MarkRead")
	}
	s.store.MarkRead(id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteNotification(ctx, id); err != nil {
		return errors.Wrapf(err, "notifications.Delete")
	}
	s.store.Delete(id)
	return nil
}

// DeleteAll removes every notification currently in the Store
func (s *Service) DeleteAll(ctx context.Context) error {
	ids := s.store.IDs()
	if len(ids) == 0 {
		return nil
	}
	if err := s.api.DeleteNotifications(ctx, ids); err != nil {
		return errors.Wrapf(err, "notifications.DeleteAll")
	}
	s.store.DeleteMany(ids)
	return nil
}
