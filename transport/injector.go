// Package transport carries the session onto outgoing API requests. The Injector adds the
// bearer token; the Coordinator recovers from expired access tokens with one shared
// refresh.
package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// HeaderRequestID correlates client and server logs for a single call
const HeaderRequestID = "X-Request-ID"

// Injector sets "Authorization: Bearer <token>" from the Session State. It holds no
// token of its own, so a logout is visible on the next request.
type Injector struct {
	state *session.State
	next  http.RoundTripper
}

// NewInjector sends requests through next (http.DefaultTransport when nil)
func NewInjector(state *session.State, next http.RoundTripper) *Injector {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Injector{
		state: state,
		next:  next,
	}
}

// Token returns the access token requests are sent with, or "" when logged out. Before
// the Session State is bootstrapped the TokenStore is read directly.
func (i *Injector) Token() string {
	if token, ok := i.state.AccessToken(); ok {
		return token
	}

	sess, ok, err := i.state.Store().Load()
	if err != nil {
		log.Err(err).Msg("Injector: failed to read persisted session")
		return ""
	}
	if !ok {
		return ""
	}
	return sess.AccessToken
}

// Apply sets the authorization and request id headers on req and returns the access
// token used. Requests without a token are left unauthenticated.
func (i *Injector) Apply(req *http.Request) string {
	token := i.Token()

	req.Header.Del("Authorization")
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return token
}

// RoundTrip implements http.RoundTripper
func (i *Injector) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, _, err := i.send(req.Clone(req.Context()))
	return resp, err
}

// send authorizes req in place and dispatches it, reporting the token it carried
func (i *Injector) send(req *http.Request) (*http.Response, string, error) {
	token := i.Apply(req)
	resp, err := i.next.RoundTrip(req)
	return resp, token, err
}
