package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when a key is absent or expired.
	ErrNotFound = errors.New("storage: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: store closed")

	// ErrInvalidTTL is returned when Store is called with a non-positive TTL.
	ErrInvalidTTL = errors.New("storage: ttl must be positive")
)

// Store is a TTL key/value store with lazy expiry.
type Store interface {
	// Store upserts value under key. The entry expires ttl after this call.
	Store(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the live value for key, or ErrNotFound. An expired entry
	// is removed as a side effect.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)
