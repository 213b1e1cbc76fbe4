package transport_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/jrsteele09/go-bizcard-client/session/memkv"
	"github.com/jrsteele09/go-bizcard-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// apiServer accepts exactly one bearer token at a time
type apiServer struct {
	*httptest.Server
	valid atomic.Value
	hits  atomic.Int32
}

func newAPIServer(t *testing.T, validToken string) *apiServer {
	t.Helper()

	s := &apiServer{}
	s.valid.Store(validToken)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+s.valid.Load().(string) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"token expired"}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = fmt.Fprintf(w, "ok:%s", body)
	}))
	t.Cleanup(s.Close)
	return s
}

type fakeRefresher struct {
	calls   atomic.Int32
	token   string
	err     error
	delay   time.Duration
	release chan struct{}
	started chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if refreshToken == "" {
		return "", errors.ErrRefreshRejected
	}
	return f.token, f.err
}

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
	kv          *memkv.Store
	state       *session.State
	refresher   *fakeRefresher
	navigator   *recordingNavigator
	metrics     *transport.Metrics
	coordinator *transport.Coordinator
	client      *http.Client
}

func setupTestFixture(t *testing.T, refresher *fakeRefresher) *testFixture {
	t.Helper()

	kv := memkv.New()
	state := session.NewState(session.NewTokenStore(kv))
	require.NoError(t, state.Bootstrap())
	require.NoError(t, state.Login(session.Session{UserID: 1, AccessToken: "old", RefreshToken: "refresh-1", DisplayName: "Alice"}))

	nav := &recordingNavigator{}
	metrics := transport.NewMetrics(prometheus.NewRegistry())
	coord := transport.NewCoordinator(state, transport.NewInjector(state, nil), refresher,
		transport.WithNavigator(nav),
		transport.WithMetrics(metrics),
		transport.WithRefreshTimeout(time.Second),
	)
	t.Cleanup(coord.Close)

	return &testFixture{
		kv:          kv,
		state:       state,
		refresher:   refresher,
		navigator:   nav,
		metrics:     metrics,
		coordinator: coord,
		client:      &http.Client{Transport: coord, Timeout: 5 * time.Second},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestInjector(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(transport.HeaderRequestID)
	}))
	defer srv.Close()

	kv := memkv.New()
	store := session.NewTokenStore(kv)
	state := session.NewState(store)
	client := &http.Client{Transport: transport.NewInjector(state, nil)}

	t.Run("falls back to the token store before bootstrap", func(t *testing.T) {
		require.NoError(t, store.Save(session.Session{UserID: 1, AccessToken: "persisted", RefreshToken: "r", DisplayName: "Alice"}))

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, "Bearer persisted", gotAuth)
		require.NotEmpty(t, gotRequestID)
		require.Empty(t, req.Header.Get("Authorization"), "caller's request must not be modified")
	})

	t.Run("uses the session state once bootstrapped", func(t *testing.T) {
		require.NoError(t, state.Bootstrap())
		require.NoError(t, state.UpdateAccessToken("fresh"))

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, "Bearer fresh", gotAuth)
	})

	t.Run("sends unauthenticated after logout", func(t *testing.T) {
		require.NoError(t, state.Logout())

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer stale")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Empty(t, gotAuth)
	})
}

func TestCoordinator_RefreshAndRetry(t *testing.T) {
	srv := newAPIServer(t, "new")
	f := setupTestFixture(t, &fakeRefresher{token: "new"})

	resp, err := f.client.Post(srv.URL+"/posts", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok:hello", readBody(t, resp))

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, int32(2), srv.hits.Load())
	require.Equal(t, transport.PhaseIdle, f.coordinator.Phase())

	token, _ := f.state.AccessToken()
	require.Equal(t, "new", token)
	persisted, ok, err := f.state.Store().Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new", persisted.AccessToken)
	require.Equal(t, "refresh-1", persisted.RefreshToken)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Retries))
	require.Empty(t, f.navigator.Routes())
}

func TestCoordinator_RefreshRejectedEndsSession(t *testing.T) {
	srv := newAPIServer(t, "never")
	f := setupTestFixture(t, &fakeRefresher{err: errors.Wrapf(errors.ErrRefreshRejected, "401")})

	_, err := f.client.Get(srv.URL + "/feed")
	require.ErrorIs(t, err, transport.ErrSessionExpired)

	require.Equal(t, transport.PhaseFailed, f.coordinator.Phase())
	require.False(t, f.state.Snapshot().IsAuthenticated)
	require.Equal(t, 0, f.kv.Len())
	require.Equal(t, []string{router.RouteLogin}, f.navigator.Routes())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Expirations))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshFailures.WithLabelValues("rejected")))

	t.Run("failed phase does not refresh again", func(t *testing.T) {
		_, err := f.client.Get(srv.URL + "/feed")
		require.ErrorIs(t, err, transport.ErrSessionExpired)
		require.Equal(t, int32(1), f.refresher.calls.Load())
		require.Len(t, f.navigator.Routes(), 1)
	})

	t.Run("login resets the phase", func(t *testing.T) {
		require.NoError(t, f.state.Login(session.Session{UserID: 1, AccessToken: "never", RefreshToken: "r2", DisplayName: "Alice"}))
		require.Equal(t, transport.PhaseIdle, f.coordinator.Phase())

		resp, err := f.client.Get(srv.URL + "/feed")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCoordinator_SecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	// The refreshed token is still refused by the server
	srv := newAPIServer(t, "nobody-has-this")
	f := setupTestFixture(t, &fakeRefresher{token: "new"})

	_, err := f.client.Get(srv.URL)
	require.ErrorIs(t, err, transport.ErrSessionExpired)

	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, int32(2), srv.hits.Load())
	require.Equal(t, transport.PhaseFailed, f.coordinator.Phase())
	require.False(t, f.state.Snapshot().IsAuthenticated)
	require.Equal(t, []string{router.RouteLogin}, f.navigator.Routes())
}

func TestCoordinator_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	srv := newAPIServer(t, "new")
	f := setupTestFixture(t, &fakeRefresher{token: "new", delay: 50 * time.Millisecond})

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.client.Get(srv.URL)
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), f.refresher.calls.Load())
	require.Equal(t, transport.PhaseIdle, f.coordinator.Phase())
}

func TestCoordinator_TransientRefreshErrorKeepsSession(t *testing.T) {
	srv := newAPIServer(t, "new")
	f := setupTestFixture(t, &fakeRefresher{err: fmt.Errorf("dial tcp: connection refused")})

	_, err := f.client.Get(srv.URL)
	require.Error(t, err)
	require.False(t, errors.Is(err, transport.ErrSessionExpired))

	require.Equal(t, transport.PhaseIdle, f.coordinator.Phase())
	require.True(t, f.state.Snapshot().IsAuthenticated)
	require.Equal(t, 4, f.kv.Len())
	require.Empty(t, f.navigator.Routes())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshFailures.WithLabelValues("transient")))
}

func TestCoordinator_LogoutDuringRefresh(t *testing.T) {
	srv := newAPIServer(t, "new")
	refresher := &fakeRefresher{token: "new", release: make(chan struct{}), started: make(chan struct{})}
	f := setupTestFixture(t, refresher)

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := f.client.Get(srv.URL)
		done <- result{resp, err}
	}()

	<-refresher.started
	require.NoError(t, f.state.Logout())
	close(refresher.release)

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, http.StatusUnauthorized, res.resp.StatusCode)
	res.resp.Body.Close()

	require.False(t, f.state.Snapshot().IsAuthenticated)
	require.Equal(t, 0, f.kv.Len(), "refreshed token must not resurrect the session")
	require.Equal(t, int32(1), srv.hits.Load())
}

func TestCoordinator_UnauthorizedBeforeBootstrapRefreshesOnceLoaded(t *testing.T) {
	srv := newAPIServer(t, "new")
	refresher := &fakeRefresher{token: "new"}

	kv := memkv.New()
	state := session.NewState(session.NewTokenStore(kv))
	require.NoError(t, state.Store().Save(session.Session{UserID: 1, AccessToken: "old", RefreshToken: "refresh-1", DisplayName: "Alice"}))
	coord := transport.NewCoordinator(state, transport.NewInjector(state, nil), refresher, transport.WithRefreshTimeout(time.Second))
	t.Cleanup(coord.Close)
	client := &http.Client{Transport: coord, Timeout: 5 * time.Second}

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := client.Get(srv.URL)
		done <- result{resp, err}
	}()

	require.Eventually(t, func() bool { return srv.hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	select {
	case res := <-done:
		t.Fatalf("request finished before bootstrap: %v", res.err)
	case <-time.After(20 * time.Millisecond):
	}
	require.Equal(t, int32(0), refresher.calls.Load())

	require.NoError(t, state.Bootstrap())

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.Equal(t, http.StatusOK, res.resp.StatusCode)
		res.resp.Body.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("request never completed")
	}

	require.Equal(t, int32(1), refresher.calls.Load())
	require.Equal(t, int32(2), srv.hits.Load())
	token, _ := state.AccessToken()
	require.Equal(t, "new", token)
}

func TestCoordinator_TokenReplacedWhileRequestInFlight(t *testing.T) {
	arrived := make(chan struct{})
	hold := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(arrived)
			<-hold
		}
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	f := setupTestFixture(t, &fakeRefresher{token: "newer"})

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := f.client.Get(srv.URL)
		done <- result{resp, err}
	}()

	<-arrived
	require.NoError(t, f.state.UpdateAccessToken("new"))
	close(hold)

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, "ok", readBody(t, res.resp))

	require.Equal(t, int32(0), f.refresher.calls.Load(), "the replacement token is reused")
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Refreshes))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Retries))
	token, _ := f.state.AccessToken()
	require.Equal(t, "new", token)
}

func TestCoordinator_CallerCancelDoesNotAbortRefresh(t *testing.T) {
	srv := newAPIServer(t, "new")
	refresher := &fakeRefresher{token: "new", release: make(chan struct{}), started: make(chan struct{})}
	f := setupTestFixture(t, refresher)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.client.Do(req)
		done <- err
	}()

	<-refresher.started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(refresher.release)
	require.Eventually(t, func() bool {
		token, _ := f.state.AccessToken()
		return token == "new"
	}, time.Second, 10*time.Millisecond)
}

func TestCoordinator_SuccessPassesThrough(t *testing.T) {
	srv := newAPIServer(t, "old")
	f := setupTestFixture(t, &fakeRefresher{token: "new"})

	resp, err := f.client.Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, "ok:", readBody(t, resp))
	require.Equal(t, int32(0), f.refresher.calls.Load())
	require.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Retries))
}
