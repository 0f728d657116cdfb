package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or already expired.
var ErrNotFound = errors.New("kv: key not found")

// ErrWrongType is returned when a string operation hits a list key or the
// other way around, matching the networked backend's WRONGTYPE behavior.
var ErrWrongType = errors.New("kv: operation against a key holding the wrong kind of value")

// Store is the TTL-aware key/value surface shared by both backends. The
// backend is chosen once at startup and never swapped mid-run.
type Store interface {
	Get(ctx context.Context, key string) (string, error)

	// Set writes a string value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Append pushes values onto the tail of a list key and returns the new
	// list length.
	Append(ctx context.Context, key string, values ...string) (int64, error)

	// Range returns list elements between start and stop inclusive. Negative
	// indices address from the tail, -1 being the last element.
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)

	// RefreshTTL resets the key's expiry and reports whether the key existed.
	RefreshTTL(ctx context.Context, key string, ttl time.Duration) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys returns all keys matching a glob pattern. Administrative use only.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Backend identifies the selected implementation ("redis" or "memory").
	Backend() string

	Close() error
}
