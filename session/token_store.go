package session

import (
	"strconv"
	"sync"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
)

// Persisted session record keys
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyUserName     = "userName"
)

var recordKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserID, KeyUserName}

// TokenStore is the only writer of the persisted session record.
type TokenStore struct {
	kv KV
	mu sync.Mutex
}

func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv}
}

// Save writes all four fields of the session in a single batch
func (s *TokenStore) Save(sess Session) error {
	if !sess.Complete() {
		return errors.ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.SetMany(map[string]string{
		KeyAccessToken:  sess.AccessToken,
		KeyRefreshToken: sess.RefreshToken,
		KeyUserID:       strconv.FormatInt(sess.UserID, 10),
		KeyUserName:     sess.DisplayName,
	})
	return errors.Wrapf(err, "TokenStore.Save")
}

// Load returns the persisted session only if every field is present and valid.
// A partially filled record is reported as absent.
func (s *TokenStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.kv.GetMany(recordKeys...)
	if err != nil {
		return Session{}, false, errors.Wrapf(err, "TokenStore.Load")
	}

	userID, err := strconv.ParseInt(values[KeyUserID], 10, 64)
	if err != nil {
		return Session{}, false, nil
	}

	sess := Session{
		UserID:       userID,
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		DisplayName:  values[KeyUserName],
	}
	if !sess.Complete() {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Clear removes every field of the record
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Wrapf(s.kv.Delete(recordKeys...), "TokenStore.Clear")
}
