// Package api is the network boundary for identity: it decorates outgoing
// requests with the stored credential, classifies error responses into the
// shared taxonomy, and exposes the auth endpoints of the Luma backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/olegsv/lumacli/internal/client/models"
	"github.com/olegsv/lumacli/internal/common"
	"github.com/olegsv/lumacli/internal/logging"
)

const (
	defaultTimeout = 12 * time.Second
	healthTimeout  = 5 * time.Second
)

// CredentialStore is the slice of the credential store the client reads and
// writes: token and client id for request decoration, user for caching
// freshly fetched profiles.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	ClientID(ctx context.Context) (string, error)
	StoreUser(ctx context.Context, user *models.User) error
}

// Client is the remote identity contract the session layer depends on.
type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	VerifyToken(ctx context.Context) (*models.User, error)
	Health(ctx context.Context) bool
	OnUnauthorized(hook UnauthorizedHook)
	Close() error
}

// HTTPClient implements Client against the backend's REST API.
type HTTPClient struct {
	baseURL   string
	http      *http.Client
	probe     *http.Client
	transport *authTransport
	store     CredentialStore
	logger    logging.Logger
	now       func() time.Time
}

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout overrides the per-request timeout (health probes keep their
// own, shorter budget).
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithHTTPNow overrides the clock used to derive absolute expiry times.
func WithHTTPNow(now func() time.Time) HTTPOption {
	return func(c *HTTPClient) { c.now = now }
}

// NewHTTPClient builds a client for the backend at baseURL. Every request
// goes through the auth transport; the health probe deliberately bypasses it
// so a reachability check can never trigger session side effects.
func NewHTTPClient(baseURL string, store CredentialStore, logger logging.Logger, opts ...HTTPOption) *HTTPClient {
	transport := newAuthTransport(nil, store)
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Transport: transport, Timeout: defaultTimeout},
		probe:     &http.Client{Timeout: healthTimeout},
		transport: transport,
		store:     store,
		logger:    logger.With("component", "api"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers a hook fired whenever any request returns 401.
func (c *HTTPClient) OnUnauthorized(hook UnauthorizedHook) {
	c.transport.onUnauthorized(hook)
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	c.probe.CloseIdleConnections()
	return nil
}

// do performs one request and decodes a 2xx JSON body into out (when out is
// non-nil). Transport-level failures map to NetworkError; everything else is
// classified by responseError.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &common.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Login exchanges credentials for a token. This endpoint expects the
// credentials as query parameters, not a JSON body; an asymmetry of the
// backend that register does not share.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("password", password)

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", query, nil, &resp); err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     resp.AccessToken,
		User:      resp.User,
		ExpiresAt: c.loginExpiry(ctx, resp.ExpiresIn, resp.AccessToken),
	}, nil
}

// loginExpiry turns an expires_in seconds value into an absolute time. When
// the backend sent none, a JWT-shaped token's exp claim is used as a
// fallback; an opaque token yields the zero time (fail-open downstream).
func (c *HTTPClient) loginExpiry(ctx context.Context, expiresIn int64, token string) time.Time {
	if expiresIn > 0 {
		return c.now().Add(time.Duration(expiresIn) * time.Second)
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	c.logger.Debug(ctx, "expiry derived from token exp claim", "expires_at", claims.ExpiresAt.Time)
	return claims.ExpiresAt.Time
}

// Register creates an account. The backend returns the new profile only;
// obtaining a session afterwards is the caller's job.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tells the backend to drop the session. Callers treat it as
// best-effort.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, nil)
}

// CurrentUser fetches the profile for the stored token and caches it.
func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	if err := c.store.StoreUser(ctx, &user); err != nil {
		c.logger.Warn(ctx, "failed to cache fetched user", "error", err)
	}
	return &user, nil
}

// VerifyToken asks the backend whether the stored token is still valid and
// returns the (possibly refreshed) identity. It does not purge on failure;
// the caller decides.
func (c *HTTPClient) VerifyToken(ctx context.Context) (*models.User, error) {
	var resp verifyResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/verify", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid || resp.User == nil {
		return nil, &common.AuthError{Message: "token rejected"}
	}
	if err := c.store.StoreUser(ctx, resp.User); err != nil {
		c.logger.Warn(ctx, "failed to cache verified user", "error", err)
	}
	return resp.User, nil
}

// Health is a best-effort reachability probe: true only for a 2xx answer
// within the probe budget. It never returns an error and bypasses the auth
// transport entirely.
func (c *HTTPClient) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
