// Package router decides what the client shows for a requested route, based on the
// Session State.
package router

import (
	"context"
	"strconv"
	"sync"

	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/rs/zerolog/log"
)

const (
	// KeyLastRoute is the KV key holding the last rendered protected route
	KeyLastRoute = "lastRoute"
	// KeyLastRouteUser holds the id of the user who rendered it
	KeyLastRouteUser = "lastRouteUser"
)

type DecisionKind int

const (
	// Render the requested route
	Render DecisionKind = iota
	// Loading placeholder; no redirect decision has been made
	Loading
	// Redirect to Target instead of the requested route
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Kind   DecisionKind
	Route  string // requested route, cleaned
	Target string // set for Redirect
}

// Destination is the route that ends up on screen (empty while loading)
func (d Decision) Destination() string {
	switch d.Kind {
	case Render:
		return d.Route
	case Redirect:
		return d.Target
	}
	return ""
}

// Navigator shows a route. Implementations render views; they must not block.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to a Navigator
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type Guard struct {
	state        *session.State
	kv           session.KV
	defaultRoute string

	mu        sync.Mutex
	lastRoute string
	owner     int64
	loaded    bool
}

type Option func(*Guard)

// WithDefaultRoute overrides the landing route used when no protected route is recorded
func WithDefaultRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.defaultRoute = Clean(route)
		}
	}
}

// NewGuard returns a guard over state. kv persists the last protected route across
// restarts and may be nil.
func NewGuard(state *session.State, kv session.KV, options ...Option) *Guard {
	g := &Guard{
		state:        state,
		kv:           kv,
		defaultRoute: DefaultRoute,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Resolve decides what to show for route given the current Session State. It never
// waits: while the state is loading the answer is Loading.
func (g *Guard) Resolve(route string) Decision {
	route = Clean(route)
	snap := g.state.Snapshot()

	if snap.IsLoading {
		return Decision{Kind: Loading, Route: route}
	}

	if IsPublic(route) {
		if snap.IsAuthenticated {
			return Decision{Kind: Redirect, Route: route, Target: g.LastRoute()}
		}
		return Decision{Kind: Render, Route: route}
	}

	if !snap.IsAuthenticated {
		return Decision{Kind: Redirect, Route: route, Target: RouteLogin}
	}

	g.record(route, snap.UserInfo.UserID)
	return Decision{Kind: Render, Route: route}
}

// Navigate waits for the Session State to finish bootstrapping and then resolves route.
// It returns ctx.Err() if the wait is abandoned.
func (g *Guard) Navigate(ctx context.Context, route string) (Decision, error) {
	select {
	case <-g.state.Ready():
	case <-ctx.Done():
		return Decision{Kind: Loading, Route: Clean(route)}, ctx.Err()
	}

	d := g.Resolve(route)
	if d.Kind == Redirect {
		log.Debug().Str("route", d.Route).Str("target", d.Target).Msg("Route redirected")
	}
	return d, nil
}

// LastRoute is the last protected route the logged in user rendered, or the default
// landing route. A route recorded by another user is never returned.
func (g *Guard) LastRoute() string {
	snap := g.state.Snapshot()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.loadLocked()
	if g.lastRoute == "" || !snap.IsAuthenticated || snap.UserInfo == nil || snap.UserInfo.UserID != g.owner {
		return g.defaultRoute
	}
	return g.lastRoute
}

func (g *Guard) record(route string, userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.loaded = true
	if g.lastRoute == route && g.owner == userID {
		return
	}
	g.lastRoute = route
	g.owner = userID

	if g.kv == nil {
		return
	}
	err := g.kv.SetMany(map[string]string{
		KeyLastRoute:     route,
		KeyLastRouteUser: strconv.FormatInt(userID, 10),
	})
	if err != nil {
		log.Err(err).Str("route", route).Msg("Failed to persist last route")
	}
}

func (g *Guard) loadLocked() {
	if g.loaded {
		return
	}
	g.loaded = true

	if g.kv == nil {
		return
	}
	values, err := g.kv.GetMany(KeyLastRoute, KeyLastRouteUser)
	if err != nil {
		log.Err(err).Msg("Failed to load last route")
		return
	}
	owner, err := strconv.ParseInt(values[KeyLastRouteUser], 10, 64)
	if err != nil {
		return
	}
	if route := values[KeyLastRoute]; route != "" && !IsPublic(route) {
		g.lastRoute = Clean(route)
		g.owner = owner
	}
}
