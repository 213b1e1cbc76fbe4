package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCheckID, ChainMiddleware(s.CheckIDHandler(), s.APIMiddleware()...))

	// ACCOUNT
	s.RegisterRouteHandler("PUT "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CONTACTS
	s.RegisterRouteHandler("GET "+RouteContacts, ChainMiddleware(s.ListContactsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteContact, ChainMiddleware(s.GetContactHandler(), s.APIMiddleware(s.RequireAuth())...))

	// POSTS
	s.RegisterRouteHandler("GET "+RoutePosts, ChainMiddleware(s.ListPostsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RoutePosts, ChainMiddleware(s.CreatePostHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RoutePost, ChainMiddleware(s.GetPostHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RoutePost, ChainMiddleware(s.UpdatePostHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RoutePost, ChainMiddleware(s.DeletePostHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RoutePostLike, ChainMiddleware(s.LikePostHandler(), s.APIMiddleware(s.RequireAuth())...))

	// COMMENTS
	s.RegisterRouteHandler("POST "+RouteComments, ChainMiddleware(s.AddCommentHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteComment, ChainMiddleware(s.UpdateCommentHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteComment, ChainMiddleware(s.DeleteCommentHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteCommentLike, ChainMiddleware(s.LikeCommentHandler(), s.APIMiddleware(s.RequireAuth())...))

	// NOTIFICATIONS
	s.RegisterRouteHandler("GET "+RouteNotifications, ChainMiddleware(s.ListNotificationsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteNotifications, ChainMiddleware(s.DeleteNotificationsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteNotification, ChainMiddleware(s.DeleteNotificationHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PATCH "+RouteNotificationRead, ChainMiddleware(s.MarkNotificationReadHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteUploads, ChainMiddleware(s.UploadHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
