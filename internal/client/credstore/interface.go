// Package credstore persists the client's credential material: bearer token,
// cached user snapshot, token expiry and the per-install client id. Values
// live in a local sqlite key/value table and are memoized in memory after the
// first read within a process lifetime.
package credstore

import "context"

// Repository is the raw key/value persistence contract backing the store.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
