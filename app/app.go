// Package app assembles the client: persisted session, Session State, the refreshing
// HTTP transport, API clients, route guard and notification polling.
package app

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/authapi"
	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/telemetry"
	"github.com/jrsteele09/go-bizcard-client/notifications"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/jrsteele09/go-bizcard-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type App struct {
	kv      session.KV
	closeKV func() error

	state       *session.State
	auth        *authapi.Client
	coordinator *transport.Coordinator
	httpClient  *http.Client
	api         *api.Client
	guard       *router.Guard
	navigator   router.Navigator

	notifications *notifications.Service
	poller        *notifications.Poller
	unsubscribe   func()
}

type options struct {
	kv         session.KV
	navigator  router.Navigator
	transport  http.RoundTripper
	registerer prometheus.Registerer
	onUpdate   func(*notifications.Store)
}

type Option func(*options)

// WithKV uses kv for persistence instead of the configured store
func WithKV(kv session.KV) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithNavigator receives every forced navigation (login, logout, expired session)
func WithNavigator(n router.Navigator) Option {
	return func(o *options) {
		o.navigator = n
	}
}

// WithTransport sets the network transport under the auth and tracing layers
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithRegisterer registers the client's refresh counters
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithNotificationUpdates is called after each successful notification poll
func WithNotificationUpdates(fn func(*notifications.Store)) Option {
	return func(o *options) {
		o.onUpdate = fn
	}
}

func New(cfg config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{kv: o.kv, closeKV: func() error { return nil }}
	if a.kv == nil {
		kv, closeKV, err := OpenKV(cfg)
		if err != nil {
			return nil, err
		}
		a.kv, a.closeKV = kv, closeKV
	}

	a.navigator = o.navigator
	if a.navigator == nil {
		a.navigator = router.NavigatorFunc(func(string) {})
	}

	a.state = session.NewState(session.NewTokenStore(a.kv))
	base := telemetry.Transport(o.transport)

	a.auth = authapi.New(cfg.GetAPIBaseURL(), authapi.WithHTTPClient(&http.Client{
		Transport: base,
		Timeout:   cfg.GetRequestTimeout(),
	}))

	a.coordinator = transport.NewCoordinator(
		a.state,
		transport.NewInjector(a.state, base),
		a.auth,
		transport.WithNavigator(a.navigator),
		transport.WithMetrics(transport.NewMetrics(o.registerer)),
		transport.WithRefreshTimeout(cfg.GetRefreshTimeout()),
	)
	a.httpClient = &http.Client{Transport: a.coordinator}
	a.api = api.New(cfg.GetAPIBaseURL(), a.httpClient)

	a.guard = router.NewGuard(a.state, a.kv, router.WithDefaultRoute(cfg.GetDefaultRoute()))

	a.notifications = notifications.NewService(a.api, notifications.NewStore())
	pollerOpts := []notifications.PollerOption{notifications.WithInterval(cfg.GetNotificationInterval())}
	if o.onUpdate != nil {
		pollerOpts = append(pollerOpts, notifications.WithOnUpdate(o.onUpdate))
	}
	a.poller = notifications.NewPoller(a.notifications, a.state, pollerOpts...)

	// Logout and session expiry both empty the notification list
	a.unsubscribe = a.state.Subscribe(func(snap session.Snapshot) {
		if !snap.IsAuthenticated && !snap.IsLoading {
			a.notifications.Store().Set(nil)
		}
	})

	return a, nil
}

// Start loads the persisted session. Route decisions wait for it to finish.
func (a *App) Start() error {
	return a.state.Bootstrap()
}

// Login authenticates, stores the new session and opens the last protected route
func (a *App) Login(ctx context.Context, loginID, password string) (router.Decision, error) {
	resp, err := a.auth.Login(ctx, loginID, password)
	if err != nil {
		return router.Decision{}, err
	}

	err = a.state.Login(session.Session{
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		DisplayName:  resp.Name,
	})
	if err != nil {
		return router.Decision{}, err
	}

	target := a.guard.LastRoute()
	a.navigator.Navigate(target)
	return a.guard.Navigate(ctx, target)
}

// Logout clears the session everywhere and shows the login route
func (a *App) Logout() error {
	err := a.state.Logout()
	a.navigator.Navigate(router.RouteLogin)
	return err
}

// Navigate resolves route through the guard, following redirects on the navigator
func (a *App) Navigate(ctx context.Context, route string) (router.Decision, error) {
	d, err := a.guard.Navigate(ctx, route)
	if err != nil {
		return d, err
	}
	if d.Kind == router.Redirect {
		a.navigator.Navigate(d.Target)
	}
	return d, nil
}

// RunNotifications polls notifications until ctx ends
func (a *App) RunNotifications(ctx context.Context) error {
	return a.poller.Run(ctx)
}

func (a *App) Close() error {
	a.unsubscribe()
	a.coordinator.Close()
	if err := a.closeKV(); err != nil {
		log.Err(err).Msg("Failed to close session store")
		return err
	}
	return nil
}

func (a *App) State() *session.State {
	return a.state
}

func (a *App) Auth() *authapi.Client {
	return a.auth
}

func (a *App) API() *api.Client {
	return a.api
}

func (a *App) Guard() *router.Guard {
	return a.guard
}

func (a *App) Coordinator() *transport.Coordinator {
	return a.coordinator
}

func (a *App) Notifications() *notifications.Service {
	return a.notifications
}

// HTTPClient sends requests with the session's bearer token and refreshes on 401
func (a *App) HTTPClient() *http.Client {
	return a.httpClient
}
