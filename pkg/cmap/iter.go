package cmap

// Range iterates over all key-value pairs until fn returns false.
// Shards are locked one at a time, so the view is not a snapshot.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// RemoveIf deletes every entry for which fn returns true and reports how
// many were removed.
func (m *Map[K, V]) RemoveIf(fn func(key K, value V) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if fn(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Stats returns the number of items held by each shard.
func (m *Map[K, V]) Stats() []int {
	stats := make([]int, len(m.shards))
	for i, s := range m.shards {
		s.mu.RLock()
		stats[i] = len(s.items)
		s.mu.RUnlock()
	}
	return stats
}
