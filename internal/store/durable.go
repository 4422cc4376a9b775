package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound reports that a key is absent. It is a valid result, not a
// failure: callers distinguish it from durable I/O errors.
var ErrNotFound = errors.New("store: key not found")

// StoreError wraps a durable I/O failure. It always propagates to the
// coordinator layer, which decides between fallback and failure.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("durable store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DurableStore is the synchronous persistence collaborator behind the
// cache. Implementations are expected to be safe for concurrent use.
type DurableStore interface {
	// Read returns the value for key, or ErrNotFound.
	Read(ctx context.Context, key string) (string, error)
	// Write persists key->value.
	Write(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// InMemoryDurableStore is an in-memory DurableStore for tests and demos.
type InMemoryDurableStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewInMemoryDurableStore creates an empty in-memory durable store.
func NewInMemoryDurableStore() *InMemoryDurableStore {
	return &InMemoryDurableStore{data: make(map[string]string)}
}

// Read returns the value for key, or ErrNotFound.
func (s *InMemoryDurableStore) Read(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Write persists key->value.
func (s *InMemoryDurableStore) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *InMemoryDurableStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ DurableStore = (*InMemoryDurableStore)(nil)
