// Package server is an in-memory stand-in for the business card service. It serves the
// auth and resource endpoints the client talks to, for local runs and end-to-end tests.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/telemetry"
	"github.com/jrsteele09/go-bizcard-client/token"
	"github.com/jrsteele09/go-bizcard-client/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	repos    Repos
	tokens   *token.Manager
	refresh  *refresh.Manager
	uploads  *uploadStore
	metrics  *serverMetrics
	registry *prometheus.Registry
	nowFunc  func() time.Time
	seed     bool
}

type Option func(*Server)

// WithNowFunc sets the clock used for token expiry and timestamps
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

// WithRegistry exposes the server metrics through reg instead of a private registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithoutSeed starts the server with empty repos
func WithoutSeed() Option {
	return func(s *Server) {
		s.seed = false
	}
}

func New(cfg config.Config, repos Repos, opts ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		repos:   repos,
		uploads: newUploadStore(),
		nowFunc: time.Now,
		seed:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	metrics, err := newServerMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to register metrics: %w", err)
	}
	s.metrics = metrics

	s.tokens = token.New(
		token.NewHMACSigner(cfg.GetJWTSecret()),
		token.WithIssuer(cfg.GetIssuer()),
		token.WithTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithNowFunc(s.nowFunc),
	)
	s.refresh = refresh.NewManager(repos.RefreshTokens, cfg)

	if s.seed {
		if err := s.InitialiseSystem(); err != nil {
			return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
		}
	}

	s.initRoutes()
	s.logRoutes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.GetAllowedOrigins(),
		AllowedMethods:   cfg.GetAllowedMethods(),
		AllowedHeaders:   cfg.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           86400,
	})
	s.handler = corsHandler.Handler(telemetry.Handler(s.metrics.instrument(s.mux), "devserver"))

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}

func (s *Server) now() time.Time {
	return s.nowFunc()
}
