package session_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/jrsteele09/go-bizcard-client/session/memkv"
	"github.com/stretchr/testify/require"
)

func testSession() session.Session {
	return session.Session{
		UserID:       42,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		DisplayName:  "Alice",
	}
}

func TestTokenStore_SaveLoadClear(t *testing.T) {
	kv := memkv.New()
	store := session.NewTokenStore(kv)

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(testSession()))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testSession(), got)

	values, err := kv.GetMany(session.KeyUserID, session.KeyUserName)
	require.NoError(t, err)
	require.Equal(t, "42", values[session.KeyUserID])
	require.Equal(t, "Alice", values[session.KeyUserName])

	require.NoError(t, store.Clear())
	require.Equal(t, 0, kv.Len())

	// Clearing an empty store is fine
	require.NoError(t, store.Clear())
}

func TestTokenStore_SaveRejectsIncompleteSession(t *testing.T) {
	kv := memkv.New()
	store := session.NewTokenStore(kv)

	sess := testSession()
	sess.RefreshToken = ""

	err := store.Save(sess)
	require.ErrorIs(t, err, errors.ErrIncompleteSession)
	require.Equal(t, 0, kv.Len())
}

func TestTokenStore_LoadPartialRecord(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{
			name: "missing refresh token",
			values: map[string]string{
				session.KeyAccessToken: "a",
				session.KeyUserID:      "1",
				session.KeyUserName:    "Alice",
			},
		},
		{
			name: "access token only",
			values: map[string]string{
				session.KeyAccessToken: "a",
			},
		},
		{
			name: "bad user id",
			values: map[string]string{
				session.KeyAccessToken:  "a",
				session.KeyRefreshToken: "r",
				session.KeyUserID:       "not-a-number",
				session.KeyUserName:     "Alice",
			},
		},
		{
			name: "empty user name",
			values: map[string]string{
				session.KeyAccessToken:  "a",
				session.KeyRefreshToken: "r",
				session.KeyUserID:       "1",
				session.KeyUserName:     "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memkv.New()
			require.NoError(t, kv.SetMany(tt.values))

			sess, ok, err := session.NewTokenStore(kv).Load()
			require.NoError(t, err)
			require.False(t, ok)
			require.Equal(t, session.Session{}, sess)
		})
	}
}

// Readers racing with writers see either nothing or a whole record
func TestTokenStore_ConcurrentSaveClearNeverPartial(t *testing.T) {
	kv := memkv.New()
	store := session.NewTokenStore(kv)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				if i%2 == 0 {
					sess := testSession()
					sess.AccessToken = fmt.Sprintf("access-%d-%d", w, i)
					sess.RefreshToken = fmt.Sprintf("refresh-%d-%d", w, i)
					_ = store.Save(sess)
				} else {
					_ = store.Clear()
				}
			}
		}(w)
	}

	for i := 0; i < 2000; i++ {
		values, err := kv.GetMany(session.KeyAccessToken, session.KeyRefreshToken, session.KeyUserID, session.KeyUserName)
		require.NoError(t, err)
		require.Contains(t, []int{0, 4}, len(values))
	}
	close(stop)
	wg.Wait()
}
