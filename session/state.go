package session

import (
	"sync"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// State is the single source of {isAuthenticated, isLoading, userInfo} for the
// application. It owns the in-memory session and keeps the TokenStore in step with it.
//
// Mutations are serialised by writeMu, which is held across TokenStore I/O. Readers only
// take mu, so reading the current token never waits on persistence.
type State struct {
	store *TokenStore

	writeMu sync.Mutex

	mu            sync.RWMutex
	loading       bool
	bootstrapped  bool
	authenticated bool
	session       Session
	epoch         uint64

	ready     chan struct{}
	readyOnce sync.Once

	listenersMu  sync.Mutex
	listeners    map[uint64]func(Snapshot)
	nextListener uint64
}

// NewState returns a State that reports IsLoading until Bootstrap completes
func NewState(store *TokenStore) *State {
	return &State{
		store:     store,
		loading:   true,
		ready:     make(chan struct{}),
		listeners: make(map[uint64]func(Snapshot)),
	}
}

// Bootstrap restores the session from the TokenStore. A complete record authenticates
// the state; anything else is cleared. IsLoading is always false afterwards.
func (s *State) Bootstrap() error {
	s.writeMu.Lock()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	sess, ok, loadErr := s.store.Load()
	if loadErr != nil {
		log.Err(loadErr).Msg("Bootstrap: failed to load persisted session")
	}

	var clearErr error
	if !ok {
		clearErr = s.store.Clear()
		if clearErr != nil {
			log.Err(clearErr).Msg("Bootstrap: failed to clear stale session")
		}
	}

	s.mu.Lock()
	s.authenticated = ok
	s.session = sess
	s.loading = false
	s.bootstrapped = true
	s.epoch++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.markReady()
	log.Debug().Bool("authenticated", ok).Msg("Session bootstrapped")
	s.notify(snap)

	if loadErr != nil {
		return loadErr
	}
	return clearErr
}

// Login persists the session and marks the state authenticated
func (s *State) Login(sess Session) error {
	if sess.DisplayName == "" {
		sess.DisplayName = DefaultDisplayName
	}
	if !sess.Complete() {
		return errors.ErrIncompleteSession
	}

	s.writeMu.Lock()
	if err := s.store.Save(sess); err != nil {
		s.writeMu.Unlock()
		return err
	}

	s.mu.Lock()
	s.authenticated = true
	s.session = sess
	s.loading = false
	s.bootstrapped = true
	s.epoch++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.markReady()
	log.Info().Int64("user_id", sess.UserID).Msg("Logged in")
	s.notify(snap)
	return nil
}

// Logout clears the in-memory and persisted session. Calling it while logged out
// leaves the same cleared state.
func (s *State) Logout() error {
	s.writeMu.Lock()
	err := s.store.Clear()
	if err != nil {
		log.Err(err).Msg("Logout: failed to clear persisted session")
	}

	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.authenticated = false
	s.session = Session{}
	s.epoch++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	if wasAuthenticated {
		log.Info().Msg("Logged out")
	}
	s.notify(snap)
	return err
}

// UpdateAccessToken replaces only the access token, in memory and in the TokenStore
func (s *State) UpdateAccessToken(token string) error {
	_, err := s.updateAccessToken(nil, token)
	return err
}

// UpdateAccessTokenIf replaces the access token only if no login or logout happened
// since epoch was read. It reports whether the token was written.
func (s *State) UpdateAccessTokenIf(epoch uint64, token string) (bool, error) {
	return s.updateAccessToken(&epoch, token)
}

func (s *State) updateAccessToken(epoch *uint64, token string) (bool, error) {
	if token == "" {
		return false, errors.ErrInvalidToken
	}

	s.writeMu.Lock()

	s.mu.RLock()
	current, authenticated, currentEpoch := s.session, s.authenticated, s.epoch
	s.mu.RUnlock()

	if epoch != nil && *epoch != currentEpoch {
		s.writeMu.Unlock()
		return false, nil
	}
	if !authenticated {
		s.writeMu.Unlock()
		return false, errors.ErrNotAuthenticated
	}

	current.AccessToken = token
	if err := s.store.Save(current); err != nil {
		s.writeMu.Unlock()
		return false, err
	}

	s.mu.Lock()
	s.session = current
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(snap)
	return true, nil
}

// UpdateDisplayName renames the current user
func (s *State) UpdateDisplayName(name string) error {
	if name == "" {
		return errors.Wrapf(errors.ErrIncompleteSession, "display name is required")
	}

	s.writeMu.Lock()

	s.mu.RLock()
	current, authenticated := s.session, s.authenticated
	s.mu.RUnlock()

	if !authenticated {
		s.writeMu.Unlock()
		return errors.ErrNotAuthenticated
	}

	current.DisplayName = name
	if err := s.store.Save(current); err != nil {
		s.writeMu.Unlock()
		return err
	}

	s.mu.Lock()
	s.session = current
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(snap)
	return nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		IsAuthenticated: s.authenticated,
		IsLoading:       s.loading,
	}
	if s.authenticated {
		snap.UserInfo = s.session.userInfo()
	}
	return snap
}

// AccessToken returns the current access token. ok is false until the state has been
// bootstrapped, in which case callers should fall back to the TokenStore.
func (s *State) AccessToken() (token string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.bootstrapped {
		return "", false
	}
	return s.session.AccessToken, true
}

// RefreshToken returns the current refresh token, or "" when logged out
func (s *State) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// Epoch changes on every bootstrap, login and logout
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Store returns the TokenStore backing the state
func (s *State) Store() *TokenStore {
	return s.store
}

// Ready is closed once the state has been bootstrapped (or logged in)
func (s *State) Ready() <-chan struct{} {
	return s.ready
}

func (s *State) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Subscribe registers fn to be called after every state change. fn runs on the
// goroutine that made the change and must not block.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *State) notify(snap Snapshot) {
	s.listenersMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
