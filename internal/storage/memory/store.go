package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yndnr/seqlink-go/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is an in-process storage.Store. Values are copied on the way in
// and out so callers never share buffers with the cache.
type Store struct {
	cache  *Cache[string, []byte]
	closed atomic.Bool
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...CacheOption) *Store {
	return &Store{cache: NewCache[string, []byte](opts...)}
}

// Store implements storage.Store.
func (s *Store) Store(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if ttl <= 0 {
		return storage.ErrInvalidTTL
	}
	s.cache.Store(key, clone(value), ttl)
	return nil
}

// Get implements storage.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(v), nil
}

// Delete implements storage.Store.
func (s *Store) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.cache.Delete(key)
	return nil
}

// Len returns the number of held entries.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close implements storage.Store.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
