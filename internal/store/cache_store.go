package store

import "sync"

// LocalCacheStore is a bounded key->value map. It owns its entries
// exclusively: values are replaced on update, never mutated in place.
//
// Entry mutation for a given key is serialized by the per-key executor,
// but Len is read from other goroutines (eviction checks, metrics), so
// the map is still guarded by a lock.
type LocalCacheStore struct {
	mu       sync.RWMutex
	data     map[string]string
	capacity int
}

// NewLocalCacheStore creates a store bounded to capacity entries.
func NewLocalCacheStore(capacity int) *LocalCacheStore {
	if capacity <= 0 {
		panic("store: capacity must be > 0")
	}
	return &LocalCacheStore{
		data:     make(map[string]string, capacity),
		capacity: capacity,
	}
}

// Get returns the value for key and a presence flag.
func (s *LocalCacheStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set inserts or replaces the value for key.
func (s *LocalCacheStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes key if present and reports whether it existed.
func (s *LocalCacheStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok
}

// Len returns the number of resident entries.
func (s *LocalCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Capacity returns the configured entry limit.
func (s *LocalCacheStore) Capacity() int { return s.capacity }
