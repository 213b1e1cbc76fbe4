// Package notifications keeps the user's notification list and unread count in step with
// the server.
package notifications

import (
	"sync"

	"github.com/jrsteele09/go-bizcard-client/api"
)

// Store is the in-memory notification list, newest first
type Store struct {
	mu     sync.RWMutex
	items  []api.Notification
	unread int
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the list with a fresh copy from the server
func (s *Store) Set(items []api.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]api.Notification(nil), items...)
	s.recountLocked()
}

// SetIf replaces the list only if valid still holds once the Store is locked. It reports
// whether the list was replaced.
func (s *Store) SetIf(items []api.Notification, valid func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if valid != nil && !valid() {
		return false
	}
	s.items = append([]api.Notification(nil), items...)
	s.recountLocked()
	return true
}

// Add prepends a single notification
func (s *Store) Add(n api.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]api.Notification{n}, s.items...)
	if !n.IsRead {
		s.unread++
	}
}

func (s *Store) MarkRead(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].NotificationID == id && !s.items[i].IsRead {
			s.items[i].IsRead = true
			s.unread = max(0, s.unread-1)
			return
		}
	}
}

func (s *Store) Delete(id int64) {
	s.DeleteMany([]int64{id})
}

func (s *Store) DeleteMany(ids []int64) {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, n := range s.items {
		if _, ok := drop[n.NotificationID]; !ok {
			kept = append(kept, n)
		}
	}
	s.items = kept
	s.recountLocked()
}

// List returns a copy of the notifications
func (s *Store) List() []api.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Notification(nil), s.items...)
}

// IDs returns the ids of every stored notification
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, len(s.items))
	for i, n := range s.items {
		ids[i] = n.NotificationID
	}
	return ids
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *Store) recountLocked() {
	s.unread = 0
	for _, n := range s.items {
		if !n.IsRead {
			s.unread++
		}
	}
}
