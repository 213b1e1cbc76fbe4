package router

import (
	"path"
	"strings"
)

// Route path constants
// Every view the client can open is named here
const (
	// Public routes, never guarded
	RouteLogin  = "/login"
	RouteSignup = "/signup"

	// Protected routes
	RouteFeed          = "/feed"
	RouteFriends       = "/friends"
	RouteFriendFeed    = "/friends/{userId}"
	RouteMyPage        = "/mypage"
	RouteCreatePost    = "/create-post"
	RouteNotifications = "/notifications"

	// DefaultRoute is where an authenticated user lands when nothing else is recorded
	DefaultRoute = RouteFeed
)

// IsPublic reports whether route renders without a session
func IsPublic(route string) bool {
	switch Clean(route) {
	case RouteLogin, RouteSignup:
		return true
	}
	return false
}

// Clean normalises a user supplied route to a rooted path without a trailing slash
func Clean(route string) string {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return path.Clean(route)
}

// FriendFeed builds the route of a contact's feed
func FriendFeed(userID string) string {
	return strings.Replace(RouteFriendFeed, "{userId}", userID, 1)
}
