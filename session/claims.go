package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
)

// TokenInfo describes what can be read from an access token without verifying it.
// Access tokens are opaque to the client; this is used for display only and never for
// authorization decisions.
type TokenInfo struct {
	Subject   string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that is before now
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InspectAccessToken decodes the claims of a JWT access token without checking the
// signature. Non-JWT tokens return ErrInvalidToken.
func InspectAccessToken(raw string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, errors.Wrapf(errors.ErrInvalidToken, "InspectAccessToken: %v", err)
	}

	var info TokenInfo
	info.Subject, _ = claims.GetSubject()
	info.Name, _ = claims["name"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}
