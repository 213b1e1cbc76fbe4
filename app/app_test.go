package app_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/app"
	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/notifications"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/jrsteele09/go-bizcard-client/server"
	"github.com/jrsteele09/go-bizcard-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type testFixture struct {
	cfg config.Config
	nav *recordingNavigator
	reg *prometheus.Registry

	mu  sync.Mutex
	now time.Time
}

func (f *testFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *testFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// setupTestFixture starts a dev server and points a file backed client config at it
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENV", "TEST")
	t.Setenv("JWT_SECRET", "e2e-secret")
	t.Setenv("BIZCARD_STORE", "file")
	t.Setenv("BIZCARD_STORE_PATH", filepath.Join(dir, "session.yaml"))

	f := &testFixture{
		nav: &recordingNavigator{},
		reg: prometheus.NewRegistry(),
		now: time.Now(),
	}

	serverCfg, err := config.New()
	require.NoError(t, err)
	s, err := server.New(serverCfg, server.NewInMemoryRepos(), server.WithNowFunc(f.clock))
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	t.Setenv("BIZCARD_API_URL", srv.URL+server.RouteAPIPrefix)
	f.cfg, err = config.New()
	require.NoError(t, err)
	return f
}

func (f *testFixture) newApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	opts = append([]app.Option{app.WithNavigator(f.nav)}, opts...)
	a, err := app.New(f.cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Start())
	return a
}

func TestLoginAndGuard(t *testing.T) {
	f := setupTestFixture(t)
	a := f.newApp(t)
	ctx := context.Background()

	d, err := a.Navigate(ctx, router.RouteFeed)
	require.NoError(t, err)
	require.Equal(t, router.Redirect, d.Kind)
	require.Equal(t, router.RouteLogin, d.Target)

	t.Run("bad credentials keep the user logged out", func(t *testing.T) {
		_, err := a.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
		require.False(t, a.State().Snapshot().IsAuthenticated)
	})

	d, err = a.Login(ctx, "alice", server.DemoPassword)
	require.NoError(t, err)
	require.Equal(t, router.Render, d.Kind)
	require.Equal(t, router.RouteFeed, d.Route)

	snap := a.State().Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "Alice", snap.UserInfo.Name)
	require.Equal(t, int64(1), snap.UserInfo.UserID)

	d, err = a.Navigate(ctx, router.RouteNotifications)
	require.NoError(t, err)
	require.Equal(t, router.Render, d.Kind)

	d, err = a.Navigate(ctx, router.RouteLogin)
	require.NoError(t, err)
	require.Equal(t, router.Redirect, d.Kind)
	require.Equal(t, router.RouteNotifications, d.Target)

	require.NoError(t, a.Logout())
	require.Equal(t, router.RouteLogin, f.nav.Routes()[len(f.nav.Routes())-1])
	require.NoError(t, a.Logout(), "logout is idempotent")
}

func TestRestartRestoresSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first := f.newApp(t)
	_, err := first.Login(ctx, "alice", server.DemoPassword)
	require.NoError(t, err)
	_, err = first.Navigate(ctx, router.FriendFeed("2"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := f.newApp(t)
	snap := second.State().Snapshot()
	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "Alice", snap.UserInfo.Name)

	d, err := second.Navigate(ctx, router.RouteLogin)
	require.NoError(t, err)
	require.Equal(t, router.Redirect, d.Kind)
	require.Equal(t, "/friends/2", d.Target)

	contacts, err := second.API().ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := setupTestFixture(t)
	a := f.newApp(t, app.WithRegisterer(f.reg))
	ctx := context.Background()

	_, err := a.Login(ctx, "alice", server.DemoPassword)
	require.NoError(t, err)
	before, _ := a.State().AccessToken()

	f.advance(20 * time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.API().ListPosts(ctx, api.ListPostsParams{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	after, ok := a.State().AccessToken()
	require.True(t, ok)
	require.NotEqual(t, before, after)
	require.Equal(t, transport.PhaseIdle, a.Coordinator().Phase())
	require.Equal(t, 1.0, counterValue(t, f.reg, "bizcard_client_token_refreshes_total"))
}

func TestRevokedSessionExpires(t *testing.T) {
	f := setupTestFixture(t)
	a := f.newApp(t)
	ctx := context.Background()

	_, err := a.Login(ctx, "alice", server.DemoPassword)
	require.NoError(t, err)

	require.NoError(t, a.Notifications().Refresh(ctx))
	require.NotEmpty(t, a.Notifications().Store().List())

	msg, err := a.API().ChangePassword(ctx, server.DemoPassword, "NewSecret1", "NewSecret1")
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	_, err = a.API().ListContacts(ctx)
	require.ErrorIs(t, err, transport.ErrSessionExpired)
	require.Empty(t, a.Notifications().Store().List(), "expiry clears notifications")

	require.False(t, a.State().Snapshot().IsAuthenticated)
	require.Equal(t, transport.PhaseFailed, a.Coordinator().Phase())
	require.Equal(t, router.RouteLogin, f.nav.Routes()[len(f.nav.Routes())-1])

	d, err := a.Navigate(ctx, router.RouteFeed)
	require.NoError(t, err)
	require.Equal(t, router.Redirect, d.Kind)
	require.Equal(t, router.RouteLogin, d.Target)

	t.Run("logging in again resets the coordinator", func(t *testing.T) {
		_, err := a.Login(ctx, "alice", "NewSecret1")
		require.NoError(t, err)
		require.Equal(t, transport.PhaseIdle, a.Coordinator().Phase())

		_, err = a.API().ListContacts(ctx)
		require.NoError(t, err)
	})
}

func TestNotificationsPolling(t *testing.T) {
	f := setupTestFixture(t)
	t.Setenv("BIZCARD_NOTIFY_INTERVAL", "20ms")
	var err error
	f.cfg, err = config.New()
	require.NoError(t, err)

	updates := make(chan int, 10)
	a := f.newApp(t, app.WithNotificationUpdates(func(s *notifications.Store) {
		select {
		case updates <- s.UnreadCount():
		default:
		}
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err = a.Login(ctx, "alice", server.DemoPassword)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.RunNotifications(ctx) }()

	select {
	case unread := <-updates:
		require.Equal(t, 2, unread)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification update")
	}

	cancel()
	require.NoError(t, <-done)

	require.NoError(t, a.Notifications().DeleteAll(context.Background()))
	require.Zero(t, a.Notifications().Store().UnreadCount())
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
