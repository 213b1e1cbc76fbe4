package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	bizerrors "github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/users"
	"github.com/pkg/errors"
)

// AccessClaims is what the dev backend reads back from a valid access token
type AccessClaims struct {
	UserID    int64
	Name      string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// accessTokenClaims is the JWT payload. The client reads sub, name and exp for display.
type accessTokenClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Manager issues and validates HS256 access tokens
type Manager struct {
	signer            Signer
	issuer            string
	accessTokenExpiry time.Duration
	revocations       Revocations
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocations(r Revocations) ManagerOption {
	return func(m *Manager) {
		m.revocations = r
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer: signer,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	if m.revocations == nil {
		m.revocations = NewMemoryRevocations(m.nowFunc)
	}
	return m
}

func (m *Manager) CreateAccessToken(user *users.User) (*string, error) {
	if user == nil {
		return nil, errors.New("Manager.CreateAccessToken: user is required")
	}

	now := m.nowFunc()
	claims := accessTokenClaims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.CreateAccessToken")
	}
	return &signed, nil
}

// Validate checks the signature, issuer, expiry and revocation of rawToken
func (m *Manager) Validate(rawToken string) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.Method().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims accessTokenClaims
	if _, err := jwt.ParseWithClaims(rawToken, &claims, m.signer.Keyfunc, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(bizerrors.ErrTokenExpired, err.Error())
		}
		return nil, errors.Wrap(bizerrors.ErrInvalidToken, err.Error())
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, errors.Wrap(bizerrors.ErrInvalidToken, "subject is not a user id")
	}

	out := &AccessClaims{
		UserID: userID,
		Name:   claims.Name,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	if out.JTI != "" && m.revocations.IsRevoked(out.JTI) {
		return nil, errors.Wrap(bizerrors.ErrInvalidToken, "token revoked")
	}
	return out, nil
}

// Revoke rejects the token identified by claims until it would have expired anyway
func (m *Manager) Revoke(claims *AccessClaims) error {
	if claims == nil || claims.JTI == "" {
		return nil
	}
	m.revocations.Revoke(claims.JTI, claims.ExpiresAt)
	return nil
}
