package engine

import (
	"context"
	"errors"

	"distcache/internal/store"
)

// ReadPolicy loads values that miss the local cache.
type ReadPolicy interface {
	// Read returns the value for key, or store.ErrNotFound.
	Read(ctx context.Context, key string) (string, error)
}

// WritePolicy applies a write to the cache and its backing store.
type WritePolicy interface {
	Write(ctx context.Context, key, value string) error
}

// ReadThrough queries the durable store on a miss and populates the
// cache on a hit, so future reads are served locally.
type ReadThrough struct {
	cache   *store.LocalCacheStore
	durable store.DurableStore
}

// NewReadThrough creates a read-through policy over cache and durable.
func NewReadThrough(cache *store.LocalCacheStore, durable store.DurableStore) *ReadThrough {
	return &ReadThrough{cache: cache, durable: durable}
}

// Read returns the value for key, inserting it into the cache on a
// durable hit. A durable miss is store.ErrNotFound; durable I/O
// failures come back wrapped as a *store.StoreError.
func (p *ReadThrough) Read(ctx context.Context, key string) (string, error) {
	value, err := p.durable.Read(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", &store.StoreError{Op: "read", Key: key, Err: err}
	}
	p.cache.Set(key, value)
	return value, nil
}

// WriteThrough writes the cache first, then the durable store. If the
// durable write fails after the cache write succeeded, the two are left
// inconsistent: the error is returned and callers must treat the
// operation as failed even though the cache holds the new value.
type WriteThrough struct {
	cache   *store.LocalCacheStore
	durable store.DurableStore
}

// NewWriteThrough creates a write-through policy over cache and durable.
func NewWriteThrough(cache *store.LocalCacheStore, durable store.DurableStore) *WriteThrough {
	return &WriteThrough{cache: cache, durable: durable}
}

// Write stores key->value in the cache, then in the durable store.
func (p *WriteThrough) Write(ctx context.Context, key, value string) error {
	p.cache.Set(key, value)
	if err := p.durable.Write(ctx, key, value); err != nil {
		return &store.StoreError{Op: "write", Key: key, Err: err}
	}
	return nil
}

var (
	_ ReadPolicy  = (*ReadThrough)(nil)
	_ WritePolicy = (*WriteThrough)(nil)
)
