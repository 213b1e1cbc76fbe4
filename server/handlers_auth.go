package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/users"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID       int64  `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Name         string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type signupRequest struct {
	Username   string `json:"username"`
	UserID     string `json:"userId"`
	Password   string `json:"password"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
}

// LoginHandler exchanges a login id and password for an access/refresh token pair
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.LoginID == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "login id and password are required")
			return
		}

		user, err := s.repos.Users.GetByLoginID(req.LoginID)
		if err != nil || !user.CheckPassword(req.Password) {
			// Don't reveal if user exists or not
			s.metrics.logins.WithLabelValues(result(false)).Inc()
			writeError(w, http.StatusUnauthorized, "invalid login id or password")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to create access token")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		refreshToken, err := s.refresh.Create(user.ID)
		if err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to create refresh token")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		user.LastLogin = s.now()
		if err := s.repos.Users.Upsert(user); err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
		}

		s.metrics.logins.WithLabelValues(result(true)).Inc()
		writeJSON(w, http.StatusOK, loginResponse{
			UserID:       user.ID,
			AccessToken:  *accessToken,
			RefreshToken: *refreshToken,
			Name:         user.Name,
		})
	}
}

// RefreshHandler issues a new access token for a valid refresh token. The refresh token
// itself is not rotated.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refresh token is required")
			return
		}

		stored, err := s.refresh.Validate(req.RefreshToken)
		if err != nil {
			s.metrics.refresh.WithLabelValues(result(false)).Inc()
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		user, err := s.repos.Users.GetByID(stored.UserID)
		if err != nil {
			s.metrics.refresh.WithLabelValues(result(false)).Inc()
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to create access token")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		s.metrics.refresh.WithLabelValues(result(true)).Inc()
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: *accessToken})
	}
}

// SignupHandler registers a new user together with their business card
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.UserID = strings.TrimSpace(req.UserID)
		if req.UserID == "" || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username, user id and password are required")
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			log.Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		user := &users.User{
			LoginID:      req.UserID,
			PasswordHash: hash,
			Name:         req.Username,
			Company:      req.Company,
			Department:   req.Department,
			Position:     req.Position,
			Email:        req.Email,
			Phone:        req.Contact,
			DateJoined:   s.now(),
		}
		if err := s.repos.Users.Upsert(user); err != nil {
			if errors.Is(err, errors.ErrLoginIDTaken) {
				writeError(w, http.StatusConflict, "user id is already in use")
				return
			}
			writeRepoError(w, err)
			return
		}

		log.Info().Int64("user_id", user.ID).Str("login_id", user.LoginID).Msg("user signed up")
		writeJSON(w, http.StatusCreated, messageResponse{Message: "signup complete"})
	}
}

// CheckIDHandler reports whether a login id is still free
func (s *Server) CheckIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"userId"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeError(w, http.StatusBadRequest, "user id is required")
			return
		}

		_, err := s.repos.Users.GetByLoginID(strings.TrimSpace(req.UserID))
		available := errors.Is(err, errors.ErrUserNotFound)
		if err != nil && !available {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"available": available})
	}
}
