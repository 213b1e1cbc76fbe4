package token

import (
	"sync"
	"time"
)

// Revocations remembers access tokens rejected before their expiry, such as the token
// used to change a password
type Revocations interface {
	Revoke(jti string, until time.Time)
	IsRevoked(jti string) bool
}

// memoryRevocations keeps a jti only until the token would have expired anyway
type memoryRevocations struct {
	mu      sync.RWMutex
	until   map[string]time.Time
	nowFunc func() time.Time
}

func NewMemoryRevocations(now func() time.Time) Revocations {
	if now == nil {
		now = time.Now
	}
	return &memoryRevocations{
		until:   make(map[string]time.Time),
		nowFunc: now,
	}
}

func (r *memoryRevocations) Revoke(jti string, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	for id, exp := range r.until {
		if now.After(exp) {
			delete(r.until, id)
		}
	}
	r.until[jti] = until
}

func (r *memoryRevocations) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.until[jti]
	return ok
}
