package server

import (
	"net/http"

	"github.com/jrsteele09/go-bizcard-client/users"
	"github.com/rs/zerolog/log"
)

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ChangePasswordHandler replaces the caller's password and signs them out everywhere:
// the presented access token is revoked and the refresh token deleted.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)

		var req changePasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.NewPassword != req.ConfirmNewPassword {
			writeError(w, http.StatusBadRequest, "new passwords do not match")
			return
		}

		user, err := s.repos.Users.GetByID(claims.UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		// 400 rather than 401: a wrong current password must not look like an expired token
		if !user.CheckPassword(req.CurrentPassword) {
			writeError(w, http.StatusBadRequest, "current password is incorrect")
			return
		}
		if err := users.ValidatePasswordStrength(req.NewPassword); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := users.HashPassword(req.NewPassword)
		if err != nil {
			log.Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		user.PasswordHash = hash
		if err := s.repos.Users.Upsert(user); err != nil {
			writeRepoError(w, err)
			return
		}

		if err := s.tokens.Revoke(claims); err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to revoke access token")
		}
		if err := s.refresh.RevokeUser(user.ID); err != nil {
			log.Err(err).Int64("user_id", user.ID).Msg("failed to revoke refresh token")
		}

		log.Info().Int64("user_id", user.ID).Msg("password changed")
		writeJSON(w, http.StatusOK, messageResponse{Message: "password changed, please log in again"})
	}
}
