// Package memkv is an in-memory session.KV. Nothing survives the process; it backs tests
// and the "memory" store type.
package memkv

import (
	"sync"

	"github.com/jrsteele09/go-bizcard-client/session"
)

var _ session.KV = (*Store)(nil)

type Store struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

func (s *Store) GetMany(keys ...string) (map[string]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	found := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			found[k] = v
		}
	}
	return found, nil
}

func (s *Store) SetMany(values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *Store) Delete(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}
