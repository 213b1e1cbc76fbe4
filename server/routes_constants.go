package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// RouteAPIPrefix is where the client's base URL points
	RouteAPIPrefix = "/api"

	// Auth Routes
	RouteAuthLogin   = RouteAPIPrefix + "/auth/login"
	RouteAuthRefresh = RouteAPIPrefix + "/auth/refresh"
	RouteSignup      = RouteAPIPrefix + "/signup"
	RouteCheckID     = RouteAPIPrefix + "/check-id"

	// Account Routes
	RouteChangePassword = RouteAPIPrefix + "/users/password"

	// Contact Routes
	RouteContacts = RouteAPIPrefix + "/contacts"
	RouteContact  = RouteAPIPrefix + "/contacts/{userId}"

	// Post Routes
	RoutePosts       = RouteAPIPrefix + "/posts"
	RoutePost        = RouteAPIPrefix + "/posts/{postId}"
	RoutePostLike    = RouteAPIPrefix + "/posts/{postId}/like"
	RouteComments    = RouteAPIPrefix + "/posts/{postId}/comments"
	RouteComment     = RouteAPIPrefix + "/posts/{postId}/comments/{commentId}"
	RouteCommentLike = RouteAPIPrefix + "/posts/{postId}/comments/{commentId}/like"

	// Notification Routes
	RouteNotifications    = RouteAPIPrefix + "/notifications"
	RouteNotification     = RouteAPIPrefix + "/notifications/{notificationId}"
	RouteNotificationRead = RouteAPIPrefix + "/notifications/{notificationId}/read"

	// Uploaded post images
	RouteUploads = "/uploads/{file}"

	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
