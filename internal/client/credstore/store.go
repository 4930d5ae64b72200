package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olegsv/lumacli/internal/client/models"
	"github.com/olegsv/lumacli/internal/common"
	"github.com/olegsv/lumacli/internal/dbx"
	"github.com/olegsv/lumacli/internal/logging"
)

// Persisted keys. Absence of any of them is a valid state.
const (
	keyToken    = "authToken"
	keyUserData = "userData"
	keyExpiry   = "tokenExpiry"
	keyClientID = "clientID"
)

// ErrEmptyToken rejects persisting an empty bearer token.
var ErrEmptyToken = errors.New("empty token")

// Store is the durable credential store. It persists to sqlite and memoizes
// token and user in memory after the first read; the memo cache is guarded by
// a mutex because the 401 purge hook may fire from a request goroutine.
type Store struct {
	db     *sql.DB
	repo   Repository
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	tokenRead bool
	user      *models.User
	userRead  bool
}

// Option customizes a Store.
type Option func(*Store)

// WithNow overrides the clock used by IsExpired. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a Store over an already-migrated database handle.
func NewStore(db *sql.DB, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		db:     db,
		repo:   NewSQLiteRepository(db),
		logger: logger.With("component", "credstore"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreToken persists the bearer token and refreshes the memo cache.
func (s *Store) StoreToken(ctx context.Context, token string) error {
	if token == "" {
		return &common.StorageError{Op: "store token", Err: ErrEmptyToken}
	}
	if err := s.repo.Set(ctx, keyToken, []byte(token)); err != nil {
		return &common.StorageError{Op: "store token", Err: err}
	}

	s.mu.Lock()
	s.token = token
	s.tokenRead = true
	s.mu.Unlock()
	return nil
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.tokenRead {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	value, err := s.repo.Get(ctx, keyToken)
	if err != nil {
		return "", &common.StorageError{Op: "get token", Err: err}
	}

	s.mu.Lock()
	s.token = string(value)
	s.tokenRead = true
	s.mu.Unlock()
	return string(value), nil
}

// StoreUser persists the profile snapshot and refreshes the memo cache.
func (s *Store) StoreUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &common.StorageError{Op: "encode user", Err: err}
	}
	if err := s.repo.Set(ctx, keyUserData, data); err != nil {
		return &common.StorageError{Op: "store user", Err: err}
	}

	s.mu.Lock()
	s.user = user
	s.userRead = true
	s.mu.Unlock()
	return nil
}

// User returns the cached profile snapshot, or nil when none is stored.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	if s.userRead {
		user := s.user
		s.mu.Unlock()
		return user, nil
	}
	s.mu.Unlock()

	value, err := s.repo.Get(ctx, keyUserData)
	if err != nil {
		return nil, &common.StorageError{Op: "get user", Err: err}
	}

	var user *models.User
	if len(value) > 0 {
		user = &models.User{}
		if err := json.Unmarshal(value, user); err != nil {
			// A corrupt snapshot is unusable; treat as absent.
			s.logger.Warn(ctx, "discarding corrupt user snapshot", "error", err)
			user = nil
		}
	}

	s.mu.Lock()
	s.user = user
	s.userRead = true
	s.mu.Unlock()
	return user, nil
}

// StoreExpiry persists the absolute expiry timestamp as epoch milliseconds.
func (s *Store) StoreExpiry(ctx context.Context, at time.Time) error {
	value := strconv.FormatInt(at.UnixMilli(), 10)
	if err := s.repo.Set(ctx, keyExpiry, []byte(value)); err != nil {
		return &common.StorageError{Op: "store expiry", Err: err}
	}
	return nil
}

// IsExpired reports whether the stored expiry timestamp has passed. Absence
// of a stored expiry means "not expired" (fail-open): not every login flow
// populates it. Storage or parse failures also fail open, logged.
func (s *Store) IsExpired(ctx context.Context) bool {
	value, err := s.repo.Get(ctx, keyExpiry)
	if err != nil {
		s.logger.Warn(ctx, "expiry read failed, treating as not expired", "error", err)
		return false
	}
	if len(value) == 0 {
		return false
	}

	millis, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		s.logger.Warn(ctx, "unparseable expiry, treating as not expired", "value", string(value))
		return false
	}

	return s.now().UnixMilli() > millis
}

// ClearAll removes token, user snapshot and expiry in one transaction and
// wipes the memo cache. Persistence failures are logged, never surfaced:
// logout must not leave the app stuck, and the in-memory wipe alone already
// makes the session unusable. The client id survives.
func (s *Store) ClearAll(ctx context.Context) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, key := range []string{keyToken, keyUserData, keyExpiry} {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "failed to clear persisted credentials", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.tokenRead = true
	s.user = nil
	s.userRead = true
	s.mu.Unlock()
}

// ClientID returns the stable per-install identifier, creating and persisting
// it on first use.
func (s *Store) ClientID(ctx context.Context) (string, error) {
	value, err := s.repo.Get(ctx, keyClientID)
	if err != nil {
		return "", &common.StorageError{Op: "get client id", Err: err}
	}
	if len(value) > 0 {
		return string(value), nil
	}

	id := uuid.NewString()
	if err := s.repo.Set(ctx, keyClientID, []byte(id)); err != nil {
		return "", &common.StorageError{Op: "store client id", Err: err}
	}
	return id, nil
}
