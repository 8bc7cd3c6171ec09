// Package cmap provides a concurrent map sharded by key hash.
//
// Each shard owns an RWMutex, so operations on keys in different shards
// never contend and operations on the same key are serialized. Shards are
// chosen with MurmurHash3 over the key's string form.
//
// Usage:
//
//	m := cmap.New[string, []byte]()
//	m.Set("conv/1/tx", state)
//	val, ok := m.Get("conv/1/tx")
package cmap
