package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs access tokens and hands the parser the key to verify them with
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Keyfunc(token *jwt.Token) (any, error)
	Method() jwt.SigningMethod
}

// HMACSigner signs with a shared HS256 secret. The dev backend is the only party that
// verifies its tokens, so a symmetric key is enough.
type HMACSigner struct {
	secret []byte
}

var _ Signer = (*HMACSigner)(nil)

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(h.Method(), claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "HMACSigner.Sign")
	}
	return signed, nil
}

func (h *HMACSigner) Keyfunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != h.Method().Alg() {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (*HMACSigner) Method() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
