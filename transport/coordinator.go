package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned (inside a *url.Error) when a request hit a 401 that
// could not be recovered. By then the session has been cleared and the client sent to
// the login route.
var ErrSessionExpired = errors.ErrSessionExpired

const (
	defaultRefreshTimeout = 10 * time.Second
	refreshKey            = "refresh"
	maxDrain              = 4 << 10
)

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseRefreshing
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Refresher exchanges a refresh token for a new access token. Errors wrapping
// errors.ErrRefreshRejected end the session; any other error is treated as transient.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Coordinator is an http.RoundTripper that recovers from 401 responses. Concurrent 401s
// share one refresh call; each request is retried at most once.
type Coordinator struct {
	state          *session.State
	injector       *Injector
	refresher      Refresher
	navigator      router.Navigator
	metrics        *Metrics
	refreshTimeout time.Duration

	group       singleflight.Group
	phase       atomic.Int32
	unsubscribe func()
}

type CoordinatorOption func(*Coordinator)

// WithNavigator is told to show the login route when the session expires
func WithNavigator(n router.Navigator) CoordinatorOption {
	return func(c *Coordinator) {
		c.navigator = n
	}
}

func WithMetrics(m *Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithRefreshTimeout bounds a refresh call independently of the request that started it
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

func NewCoordinator(state *session.State, injector *Injector, refresher Refresher, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		state:          state,
		injector:       injector,
		refresher:      refresher,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(c)
	}

	// A new login ends the Failed phase
	c.unsubscribe = state.Subscribe(func(snap session.Snapshot) {
		if snap.IsAuthenticated && c.phase.CompareAndSwap(int32(PhaseFailed), int32(PhaseIdle)) {
			log.Debug().Msg("Refresh coordinator reset after login")
		}
	})
	return c
}

// Close detaches the coordinator from the Session State
func (c *Coordinator) Close() {
	c.unsubscribe()
}

func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

type refreshResult struct {
	token     string
	committed bool
}

// RoundTrip implements http.RoundTripper. The attempt counter lives in this call only, so
// no state leaks between requests.
func (c *Coordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	base, err := replayable(req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		out, err := cloneForAttempt(base, attempt)
		if err != nil {
			return nil, err
		}

		resp, sent, err := c.injector.send(out)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		if attempt > 0 {
			drain(resp)
			log.Warn().Str("url", req.URL.Redacted()).Msg("Request unauthorized after refresh")
			c.expire()
			return nil, ErrSessionExpired
		}

		// A request sent with the stored token before bootstrap waits for the state to load
		select {
		case <-c.state.Ready():
		case <-req.Context().Done():
			drain(resp)
			return nil, req.Context().Err()
		}
		if c.Phase() == PhaseFailed {
			drain(resp)
			return nil, ErrSessionExpired
		}
		if !c.state.Snapshot().IsAuthenticated {
			return resp, nil
		}

		result, err := c.refresh(req.Context(), sent)
		if err != nil {
			drain(resp)
			return nil, err
		}

		current := c.injector.Token()
		if !result.committed && (current == "" || current == sent) {
			// Logged out while the refresh was in flight
			return resp, nil
		}

		drain(resp)
		c.metrics.retried()
	}
}

// refresh joins the in-flight refresh for the rejected token sent or starts one. The
// refresh itself runs detached from ctx; only the wait is abandoned when ctx ends.
func (c *Coordinator) refresh(ctx context.Context, sent string) (refreshResult, error) {
	ch := c.group.DoChan(refreshKey+":"+sent, func() (interface{}, error) {
		return c.doRefresh(ctx, sent)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return refreshResult{}, res.Err
		}
		return res.Val.(refreshResult), nil
	case <-ctx.Done():
		return refreshResult{}, ctx.Err()
	}
}

func (c *Coordinator) doRefresh(parent context.Context, sent string) (refreshResult, error) {
	// Already replaced since the request went out
	if current := c.injector.Token(); current != "" && current != sent {
		return refreshResult{token: current, committed: true}, nil
	}

	c.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseRefreshing))

	epoch := c.state.Epoch()
	refreshToken := c.state.RefreshToken()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.refreshTimeout)
	defer cancel()

	log.Debug().Msg("Refreshing access token")
	c.metrics.refreshed()

	token, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, errors.ErrRefreshRejected) {
			c.metrics.refreshFailed("rejected")
			log.Info().Err(err).Msg("Refresh token rejected")
			c.expire()
			return refreshResult{}, errors.Wrapf(ErrSessionExpired, "refresh rejected")
		}

		c.metrics.refreshFailed("transient")
		c.phase.CompareAndSwap(int32(PhaseRefreshing), int32(PhaseIdle))
		log.Err(err).Msg("Refresh failed, keeping session")
		return refreshResult{}, errors.Wrapf(err, "refresh access token")
	}

	committed, err := c.state.UpdateAccessTokenIf(epoch, token)
	c.phase.CompareAndSwap(int32(PhaseRefreshing), int32(PhaseIdle))
	if err != nil && !errors.Is(err, errors.ErrNotAuthenticated) {
		return refreshResult{}, errors.Wrapf(err, "store refreshed token")
	}
	if !committed {
		log.Debug().Msg("Discarding refreshed token, session changed during refresh")
	} else {
		log.Debug().Msg("Access token refreshed")
	}
	return refreshResult{token: token, committed: committed}, nil
}

// expire clears the session and sends the client to login once per failure
func (c *Coordinator) expire() {
	if err := c.state.Logout(); err != nil {
		log.Err(err).Msg("Failed to clear expired session")
	}
	if Phase(c.phase.Swap(int32(PhaseFailed))) == PhaseFailed {
		return
	}

	c.metrics.expired()
	log.Info().Msg("Session expired, redirecting to login")
	if c.navigator != nil {
		c.navigator.Navigate(router.RouteLogin)
	}
}

// replayable returns a copy of req whose body can be read once per attempt
func replayable(req *http.Request) (*http.Request, error) {
	base := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return base, nil
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "buffer request body")
	}
	base.Body = io.NopCloser(bytes.NewReader(body))
	base.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return base, nil
}

func cloneForAttempt(base *http.Request, attempt int) (*http.Request, error) {
	out := base.Clone(base.Context())
	if attempt == 0 || base.GetBody == nil {
		return out, nil
	}

	body, err := base.GetBody()
	if err != nil {
		return nil, errors.Wrapf(err, "rewind request body")
	}
	out.Body = body
	return out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()
}
