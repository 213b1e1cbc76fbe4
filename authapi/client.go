// Package authapi talks to the authentication endpoints of the service. It never goes
// through the refreshing transport: a 401 from /auth/refresh must not trigger another
// refresh.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bizerrors "github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	signupPath  = "/signup"
	checkIDPath = "/check-id"

	maxErrorBody = 64 << 10
)

type LoginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID       int64  `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Name         string `json:"name"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// SignupRequest is the business card a new user registers with
type SignupRequest struct {
	Username   string `json:"username"`
	UserID     string `json:"userId"`
	Password   string `json:"password"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Email      string `json:"email"`
	Contact    string `json:"contact"`
}

type checkIDRequest struct {
	UserID string `json:"userId"`
}

type checkIDResponse struct {
	Available bool `json:"available"`
}

// ResponseError is a non-2xx answer from the auth service
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (plain transport, 5s timeout)
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session. The response is validated so callers never
// build a partial session from it.
func (c *Client) Login(ctx context.Context, loginID, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, loginPath, LoginRequest{LoginID: loginID, Password: password}, &resp); err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusUnauthorized {
			return nil, errors.Wrap(bizerrors.ErrInvalidCredentials, respErr.Error())
		}
		return nil, errors.Wrap(err, "Login")
	}

	if resp.UserID <= 0 || resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.Errorf("Login: incomplete login response (userId=%d)", resp.UserID)
	}
	return &resp, nil
}

// Refresh trades a refresh token for a new access token. Rejections (400, 401, 403) wrap
// ErrRefreshRejected; anything else is a transient failure.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.Wrap(bizerrors.ErrRefreshRejected, "Refresh: no refresh token")
	}

	var resp RefreshResponse
	if err := c.post(ctx, refreshPath, RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return "", errors.Wrap(bizerrors.ErrRefreshRejected, respErr.Error())
			}
		}
		return "", errors.Wrap(err, "Refresh")
	}

	if resp.AccessToken == "" {
		return "", errors.Wrap(bizerrors.ErrRefreshRejected, "Refresh: empty access token")
	}
	return resp.AccessToken, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return errors.Wrap(c.post(ctx, signupPath, req, nil), "Signup")
}

// CheckLoginID reports whether id is still free to register
func (c *Client) CheckLoginID(ctx context.Context, id string) (bool, error) {
	var resp checkIDResponse
	if err := c.post(ctx, checkIDPath, checkIDRequest{UserID: id}, &resp); err != nil {
		return false, errors.Wrap(err, "CheckLoginID")
	}
	return resp.Available, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
	}
	respErr := &ResponseError{StatusCode: resp.StatusCode}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		respErr.Message = body.Message
	} else {
		respErr.Message = strings.TrimSpace(string(raw))
	}
	return respErr
}
