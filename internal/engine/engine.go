package engine

import (
	"context"
	"errors"
	"log"

	"distcache/internal/eviction"
	"distcache/internal/executor"
	"distcache/internal/store"
)

// Options configures the engine. Cache, Eviction, Reader, Writer, and
// Executor are required; nil Metrics defaults to NoopMetrics.
type Options struct {
	NodeID   string
	Cache    *store.LocalCacheStore
	Durable  store.DurableStore
	Eviction eviction.Policy
	Reader   ReadPolicy
	Writer   WritePolicy
	Executor *executor.PerKeyExecutor
	Metrics  Metrics
}

// Engine is the single-node cache: a bounded store with read-through,
// write-through, and pluggable eviction. Every single-key operation is
// routed through the per-key executor, so operations on the same key
// (and on keys sharing its bucket) execute strictly in submission order.
type Engine struct {
	nodeID  string
	cache   *store.LocalCacheStore
	durable store.DurableStore
	policy  eviction.Policy
	reader  ReadPolicy
	writer  WritePolicy
	exec    *executor.PerKeyExecutor
	metrics Metrics
}

// New constructs an engine from Options.
func New(opt Options) *Engine {
	if opt.Cache == nil || opt.Durable == nil || opt.Eviction == nil ||
		opt.Reader == nil || opt.Writer == nil || opt.Executor == nil {
		panic("engine: Cache, Durable, Eviction, Reader, Writer and Executor are required")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &Engine{
		nodeID:  opt.NodeID,
		cache:   opt.Cache,
		durable: opt.Durable,
		policy:  opt.Eviction,
		reader:  opt.Reader,
		writer:  opt.Writer,
		exec:    opt.Executor,
		metrics: opt.Metrics,
	}
}

// Get returns the value for key. On a cache miss it reads through to
// the durable store, populating the cache on a hit so the next read is
// local. A miss in both layers returns store.ErrNotFound.
func (e *Engine) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := e.exec.Do(ctx, key, func() error {
		if v, ok := e.cache.Get(key); ok {
			e.policy.Touch(key)
			e.metrics.Hit()
			value = v
			return nil
		}
		e.metrics.Miss()

		v, err := e.reader.Read(ctx, key)
		if err != nil {
			// A durable miss has no eviction side effect.
			return err
		}
		e.policy.Touch(key)
		if e.cache.Len() > e.cache.Capacity() {
			e.evictOne()
		}
		e.metrics.Size(e.cache.Len())
		value = v
		return nil
	})
	return value, err
}

// Put writes key->value through the cache and durable store. When the
// cache is full a victim is evicted first, never the key being written,
// so capacity holds at every return.
func (e *Engine) Put(ctx context.Context, key, value string) error {
	return e.exec.Do(ctx, key, func() error {
		return e.putSerialized(ctx, key, value)
	})
}

// InternalPut is Put without any replication hook layered above it.
// Replica nodes apply inbound replicated writes through this path to
// avoid re-triggering replication.
func (e *Engine) InternalPut(ctx context.Context, key, value string) error {
	return e.exec.Do(ctx, key, func() error {
		return e.putSerialized(ctx, key, value)
	})
}

// Delete removes key from the cache, eviction state, and durable store.
func (e *Engine) Delete(ctx context.Context, key string) error {
	return e.exec.Do(ctx, key, func() error {
		e.cache.Delete(key)
		e.policy.Remove(key)
		e.metrics.Size(e.cache.Len())
		if err := e.durable.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return &store.StoreError{Op: "delete", Key: key, Err: err}
		}
		return nil
	})
}

// Len returns the number of resident cache entries.
func (e *Engine) Len() int { return e.cache.Len() }

// Capacity returns the cache's entry limit.
func (e *Engine) Capacity() int { return e.cache.Capacity() }

// putSerialized runs inside the key's executor slot.
func (e *Engine) putSerialized(ctx context.Context, key, value string) error {
	// Overwrites do not grow the store, so the eviction check only
	// applies to new keys. This also guarantees the victim is never the
	// key being written: an untracked key cannot be chosen by Evict.
	if _, exists := e.cache.Get(key); !exists && e.cache.Len() >= e.cache.Capacity() {
		e.evictOne()
	}

	wErr := e.writer.Write(ctx, key, value)
	// The cache was updated even when the durable write failed; the key
	// must be tracked or it could never be evicted.
	e.policy.Touch(key)
	e.metrics.Size(e.cache.Len())
	return wErr
}

// evictOne removes one victim from the store and eviction state.
// Eviction on an empty policy is a no-op, never an error.
func (e *Engine) evictOne() {
	victim, ok := e.policy.Evict()
	if !ok {
		return
	}
	e.cache.Delete(victim)
	e.metrics.Evict()
	log.Printf("[%s] evicted key=%s", e.nodeID, victim)
}
