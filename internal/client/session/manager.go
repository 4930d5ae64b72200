// Package session composes the credential store and the API client into
// coherent login/logout/verification flows. This is the authentication state
// machine: a process moves Unknown -> Checking -> Authenticated or
// Unauthenticated, and an authenticated session dies by logout, expiry, or an
// authorization failure surfaced by any request.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegsv/lumacli/internal/client/api"
	"github.com/olegsv/lumacli/internal/client/models"
	"github.com/olegsv/lumacli/internal/common"
	"github.com/olegsv/lumacli/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Store is the slice of the credential store the manager drives.
type Store interface {
	StoreToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, error)
	StoreUser(ctx context.Context, user *models.User) error
	User(ctx context.Context) (*models.User, error)
	StoreExpiry(ctx context.Context, at time.Time) error
	IsExpired(ctx context.Context) bool
	ClearAll(ctx context.Context)
}

// Manager defines the session lifecycle operations.
//
// Contract:
//   - Login: exchange credentials for a session and persist it.
//   - Register: create an account, then log in with the same credentials
//     (the backend returns no token on register).
//   - Logout: best-effort remote logout, unconditional local purge; never
//     fails from the caller's perspective.
//   - CheckAuthStatus: resolve the stored state to Authenticated (non-nil
//     session) or Unauthenticated (nil), purging on every failure path.
//   - RefreshUser: re-fetch the profile; a no-op when unauthenticated.
//   - WaitForServer: block until the backend answers its health probe.
//
// Concurrent calls are allowed to race; each resolves independently and the
// last writer wins. Checks converge to the server's ground truth, so races
// cost redundant network calls, not incorrect terminal state.
type Manager interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, req api.RegisterRequest) (*models.Session, error)
	Logout(ctx context.Context)
	CheckAuthStatus(ctx context.Context) *models.Session
	RefreshUser(ctx context.Context) (*models.User, error)
	WaitForServer(ctx context.Context) error
	Health(ctx context.Context) bool
}

type manager struct {
	client api.Client
	store  Store
	logger logging.Logger
}

// NewManager wires the manager to the API client and credential store, and
// registers the purge observer: any request answered with 401, anywhere in
// the app, clears the stored session so the UI self-heals on the next check.
func NewManager(client api.Client, store Store, logger logging.Logger) Manager {
	m := &manager{
		client: client,
		store:  store,
		logger: logger.With("component", "session"),
	}

	client.OnUnauthorized(func(ctx context.Context) {
		m.logger.Info(ctx, "authorization failure reported, purging session")
		m.store.ClearAll(ctx)
	})

	return m
}

// Login exchanges credentials for a session and persists token, user and
// expiry. A session that cannot be persisted is not usable, so storage
// failures surface here.
func (m *manager) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	res, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil {
		return nil, &common.ServerError{Status: 200, Message: "login response missing token or user"}
	}

	if err := m.store.StoreToken(ctx, res.Token); err != nil {
		return nil, err
	}
	if err := m.store.StoreUser(ctx, res.User); err != nil {
		return nil, err
	}
	if !res.ExpiresAt.IsZero() {
		if err := m.store.StoreExpiry(ctx, res.ExpiresAt); err != nil {
			return nil, err
		}
	}

	m.logger.Info(ctx, "logged in", "user_id", res.User.ID)
	return &models.Session{Token: res.Token, User: res.User}, nil
}

// Register creates the account and immediately logs in with the same
// credentials: the register endpoint returns a profile only, never a token.
// When the second call fails the account already exists server-side; the
// returned error wraps ErrAccountCreatedLoginFailed so callers can tell the
// half-done state apart from a plain registration failure.
func (m *manager) Register(ctx context.Context, req api.RegisterRequest) (*models.Session, error) {
	if _, err := m.client.Register(ctx, req); err != nil {
		return nil, err
	}

	sess, err := m.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAccountCreatedLoginFailed, err)
	}
	return sess, nil
}

// Logout is best-effort remotely and unconditional locally. It never fails:
// a logout that leaves the app stuck is worse than a leaked server session.
func (m *manager) Logout(ctx context.Context) {
	m.attemptLog(ctx, "remote logout", func() error {
		return m.client.Logout(ctx)
	})
	m.store.ClearAll(ctx)
	m.logger.Info(ctx, "logged out")
}

// CheckAuthStatus resolves the stored state: missing pieces or a passed
// expiry short-circuit to Unauthenticated without touching the network;
// otherwise the token is verified remotely. Every failure path purges, so
// the store is never left holding a partial session.
func (m *manager) CheckAuthStatus(ctx context.Context) *models.Session {
	token, err := m.store.Token(ctx)
	if err != nil {
		m.logger.Warn(ctx, "token read failed during status check", "error", err)
	}
	user, err := m.store.User(ctx)
	if err != nil {
		m.logger.Warn(ctx, "user read failed during status check", "error", err)
	}

	if token == "" || user == nil {
		m.store.ClearAll(ctx)
		return nil
	}

	if m.store.IsExpired(ctx) {
		m.logger.Info(ctx, "stored token expired, purging session")
		m.store.ClearAll(ctx)
		return nil
	}

	verified, err := m.client.VerifyToken(ctx)
	if err != nil {
		m.logger.Info(ctx, "token verification failed, purging session", "error", err)
		m.store.ClearAll(ctx)
		return nil
	}

	return &models.Session{Token: token, User: verified}
}

// RefreshUser re-fetches the profile for the current session. When no
// session is active it is a no-op. An authorization failure cascades into a
// full logout rather than leaving stale cached data visible.
func (m *manager) RefreshUser(ctx context.Context) (*models.User, error) {
	token, err := m.store.Token(ctx)
	if err != nil || token == "" {
		return nil, nil
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			m.Logout(ctx)
		}
		return nil, err
	}
	return user, nil
}

// WaitForServer blocks until the health probe answers, backing off between
// attempts. It returns the context's error when the wait is abandoned.
func (m *manager) WaitForServer(ctx context.Context) error {
	backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !m.client.Health(ctx) {
			return retry.RetryableError(common.ErrUnavailable)
		}
		return nil
	})
}

// Health proxies the reachability probe.
func (m *manager) Health(ctx context.Context) bool {
	return m.client.Health(ctx)
}

// attemptLog runs a best-effort step: a failure is logged and dropped. Kept
// as a named combinator so the "attempt, log, ignore" policy is visible at
// every call site.
func (m *manager) attemptLog(ctx context.Context, what string, fn func() error) {
	if err := fn(); err != nil {
		m.logger.Warn(ctx, what+" failed, ignoring", "error", err)
	}
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return &common.ValidationError{Field: "email", Message: "valid email required"}
	}
	if password == "" {
		return &common.ValidationError{Field: "password", Message: "password required"}
	}
	return nil
}
