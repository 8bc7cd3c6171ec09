package cmap

import (
	"fmt"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 32

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint32
	seed      uint32
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// Option configures a Map.
type Option func(*config)

type config struct {
	shards int
	seed   uint32
}

// WithShardCount sets the number of shards. Values that are not a power of
// two fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(c *config) {
		c.shards = n
	}
}

// WithSeed sets the hash seed used for shard selection.
func WithSeed(seed uint32) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// New creates a new sharded map.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	cfg := config{shards: DefaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}
	n := cfg.shards
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], n),
		shardMask: uint32(n - 1),
		seed:      cfg.seed,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

func (m *Map[K, V]) shardIndex(key K) uint32 {
	var h uint32
	switch k := any(key).(type) {
	case string:
		h = murmur3.Sum32WithSeed([]byte(k), m.seed)
	case []byte:
		h = murmur3.Sum32WithSeed(k, m.seed)
	default:
		h = murmur3.Sum32WithSeed([]byte(fmt.Sprint(k)), m.seed)
	}
	return h & m.shardMask
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	return m.shards[m.shardIndex(key)]
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.items[key]
	return val, ok
}

// Set stores a key-value pair, replacing any existing value.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Pop removes a key and returns its value.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return val, ok
}

// Action tells Compute what to do with the value its callback returns.
type Action int

const (
	// Keep leaves the map unchanged.
	Keep Action = iota
	// Store writes the returned value.
	Store
	// Remove deletes the key.
	Remove
)

// Compute runs fn under the key's shard write lock. fn sees the current
// value and decides whether to keep, replace or remove it. Compute returns
// the value fn returned and whether the key is present afterwards.
func (m *Map[K, V]) Compute(key K, fn func(value V, exists bool) (V, Action)) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[key]
	next, action := fn(existing, exists)
	switch action {
	case Store:
		s.items[key] = next
		return next, true
	case Remove:
		delete(s.items, key)
		return next, false
	default:
		return next, exists
	}
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		count += len(s.items)
		s.mu.RUnlock()
	}
	return count
}

// Clear removes all items.
func (m *Map[K, V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.items = make(map[K]V)
		s.mu.Unlock()
	}
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int {
	return len(m.shards)
}
