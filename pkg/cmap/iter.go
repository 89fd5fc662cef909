package cmap

// Range calls fn for every entry until fn returns false.
//
// fn runs under the shard's read lock and must not modify m.
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

// Values returns all values.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.Count())
	m.Range(func(_ K, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Filter returns the values for which keep reports true.
func (m *Map[K, V]) Filter(keep func(key K, value V) bool) []V {
	var out []V
	m.Range(func(k K, v V) bool {
		if keep(k, v) {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Update atomically replaces the value for key with fn's result.
func (m *Map[K, V]) Update(key K, fn func(value V, exists bool) V) V {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[key]
	updated := fn(existing, exists)
	s.items[key] = updated
	return updated
}

// DeleteWhere removes every entry for which match reports true and
// returns the number removed.
func (m *Map[K, V]) DeleteWhere(match func(key K, value V) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if match(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
