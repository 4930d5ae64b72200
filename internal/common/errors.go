// Package common defines the shared error taxonomy used across the Luma
// client. The typed errors carry backend-supplied detail (human message,
// offending field, HTTP status); callers classify with errors.As and match
// flow-control conditions with errors.Is against the sentinels.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means no response was received from the server at all.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized means the server rejected the credential or session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountCreatedLoginFailed marks the half-done registration state:
	// the account exists server-side but the follow-up login did not complete.
	ErrAccountCreatedLoginFailed = errors.New("account created but login failed")

	// ErrNotAuthenticated is returned by operations that require an active
	// session when none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// NetworkError wraps a transport-level failure: the request never produced
// an HTTP response (DNS, dial, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return ErrUnavailable }

// AuthError is a 401/403 outcome: invalid credentials or an expired/revoked
// session. Message is the backend-supplied human-readable text, if any.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// ValidationError is a 400/422 outcome. Field names the offending input when
// the backend attributes one; it is passed through unchanged so the UI can
// highlight the matching control.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ServerError is a 5xx outcome.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// StorageError wraps a local persistence failure. A session that cannot be
// persisted is not usable, so login surfaces this; logout swallows it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
