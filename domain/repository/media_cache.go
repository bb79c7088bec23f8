package repository

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by a persistent cache store when the key is absent.
var ErrCacheMiss = errors.New("cache: key not found")

// IPersistentCache is the slower second cache tier. It stores opaque
// envelopes; expiry is judged by the caller, so stores keep entries
// physically present past expiresAt (until their own retention purge).
type IPersistentCache interface {
	// Get returns the stored bytes or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the entry for key.
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and nothing else.
	DeletePrefix(ctx context.Context, prefix string) error
}

// IPurger is implemented by stores that can drop entries whose expiry is
// older than the given cutoff.
type IPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
