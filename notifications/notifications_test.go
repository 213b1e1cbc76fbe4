package notifications_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/notifications"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/jrsteele09/go-bizcard-client/session/memkv"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	items    []api.Notification
	lists    atomic.Int32
	listErr  error
	writeErr error
	deleted  []int64
	// block runs before each list call returns
	block func()
}

func (f *fakeAPI) ListNotifications(ctx context.Context) ([]api.Notification, error) {
	f.lists.Add(1)
	if f.block != nil {
		f.block()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.Notification(nil), f.items...), nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, id int64) error {
	return f.writeErr
}

func (f *fakeAPI) DeleteNotification(ctx context.Context, id int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) DeleteNotifications(ctx context.Context, ids []int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

func sample() []api.Notification {
	return []api.Notification{
		{NotificationID: 1, Type: api.NotificationComment, Message: "Bob commented"},
		{NotificationID: 2, Type: api.NotificationPostLike, Message: "Carol liked", IsRead: true},
		{NotificationID: 3, Type: api.NotificationCommentLike, Message: "Dan liked"},
	}
}

func TestStore(t *testing.T) {
	store := notifications.NewStore()
	store.Set(sample())
	require.Equal(t, 2, store.UnreadCount())

	store.Add(api.Notification{NotificationID: 4})
	require.Equal(t, int64(4), store.List()[0].NotificationID)
	require.Equal(t, 3, store.UnreadCount())

	store.MarkRead(1)
	store.MarkRead(1)
	store.MarkRead(2)
	store.MarkRead(99)
	require.Equal(t, 2, store.UnreadCount())

	store.Delete(3)
	require.Equal(t, 1, store.UnreadCount())
	require.Len(t, store.List(), 3)

	store.DeleteMany([]int64{1, 2, 4})
	require.Empty(t, store.List())
	require.Equal(t, 0, store.UnreadCount())
}

func TestService(t *testing.T) {
	fake := &fakeAPI{items: sample()}
	svc := notifications.NewService(fake, notifications.NewStore())
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	require.Equal(t, 2, svc.Store().UnreadCount())

	require.NoError(t, svc.MarkRead(ctx, 1))
	require.Equal(t, 1, svc.Store().UnreadCount())

	t.Run("server failure leaves the store untouched", func(t *testing.T) {
		fake.writeErr = fmt.Errorf("503")
		defer func() { fake.writeErr = nil }()

		require.Error(t, svc.Delete(ctx, 3))
		require.Len(t, svc.Store().List(), 3)
	})

	require.NoError(t, svc.Delete(ctx, 3))
	require.Equal(t, 0, svc.Store().UnreadCount())

	require.NoError(t, svc.DeleteAll(ctx))
	require.Empty(t, svc.Store().List())
	require.Equal(t, []int64{3, 1, 2}, fake.deleted)

	// Nothing left to delete
	require.NoError(t, svc.DeleteAll(ctx))
}

func TestPoller(t *testing.T) {
	kv := memkv.New()
	state := session.NewState(session.NewTokenStore(kv))
	fake := &fakeAPI{items: sample()}
	svc := notifications.NewService(fake, notifications.NewStore())

	var updates atomic.Int32
	poller := notifications.NewPoller(svc, state,
		notifications.WithInterval(10*time.Millisecond),
		notifications.WithOnUpdate(func(*notifications.Store) { updates.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// Logged out: ticks are skipped
	require.NoError(t, state.Bootstrap())
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, int32(0), fake.lists.Load())

	require.NoError(t, state.Login(session.Session{UserID: 1, AccessToken: "a", RefreshToken: "r", DisplayName: "Alice"}))
	require.Eventually(t, func() bool { return updates.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 2, svc.Store().UnreadCount())

	// Errors are not fatal
	fake.mu.Lock()
	fake.listErr = fmt.Errorf("502")
	fake.mu.Unlock()
	before := fake.lists.Load()
	require.Eventually(t, func() bool { return fake.lists.Load() > before+1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestService_RefreshIf(t *testing.T) {
	fake := &fakeAPI{items: sample()}
	svc := notifications.NewService(fake, notifications.NewStore())

	applied, err := svc.RefreshIf(context.Background(), func() bool { return false })
	require.NoError(t, err)
	require.False(t, applied)
	require.Empty(t, svc.Store().List())

	applied, err = svc.RefreshIf(context.Background(), func() bool { return true })
	require.NoError(t, err)
	require.True(t, applied)
	require.Len(t, svc.Store().List(), 3)
}

func TestPoller_DropsListFetchedBeforeLogout(t *testing.T) {
	kv := memkv.New()
	state := session.NewState(session.NewTokenStore(kv))
	require.NoError(t, state.Bootstrap())
	require.NoError(t, state.Login(session.Session{UserID: 1, AccessToken: "a", RefreshToken: "r", DisplayName: "Alice"}))

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake := &fakeAPI{items: sample(), block: func() {
		once.Do(func() {
			close(started)
			<-release
		})
	}}
	svc := notifications.NewService(fake, notifications.NewStore())

	var updates atomic.Int32
	poller := notifications.NewPoller(svc, state,
		notifications.WithInterval(time.Hour),
		notifications.WithOnUpdate(func(*notifications.Store) { updates.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	<-started
	require.NoError(t, state.Logout())
	svc.Store().Set(nil)
	close(release)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	require.Empty(t, svc.Store().List(), "previous user's notifications must not come back")
	require.Equal(t, 0, svc.Store().UnreadCount())
	require.Equal(t, int32(0), updates.Load())
}
