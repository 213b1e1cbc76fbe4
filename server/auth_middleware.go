package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the validated access token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates a Bearer access token.
// Every failure is a 401 with a JSON message; clients treat that as "refresh and retry".
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			scheme, raw, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			claims, err := s.tokens.Validate(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, errors.ErrTokenExpired) {
					msg = "token expired"
				}
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("access token rejected")
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// claimsFrom returns the claims RequireAuth stored on the request
func claimsFrom(r *http.Request) *token.AccessClaims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*token.AccessClaims)
	return claims
}
