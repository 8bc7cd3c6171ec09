// Package memory provides the in-process TTL cache.
//
// Cache is a generic map from keys to values with a per-entry lifetime.
// Entries are checked on lookup and removed once their lifetime has
// elapsed; nothing runs in the background. Cache is sharded through
// pkg/cmap, so lookups on distinct keys do not contend and operations on the
// same key are serialized by its shard lock.
//
// Store adapts a Cache of byte slices to storage.Store.
package memory
