// Package executor provides the per-key serial executor: a fixed pool of
// workers where all operations for keys hashing to the same worker run
// strictly in submission order. Serialization is bucket-level: distinct
// keys sharing a bucket are also serialized against each other.
package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ErrClosed is returned by Submit and Do after Close.
var ErrClosed = errors.New("executor: closed")

const defaultQueueDepth = 128

// PerKeyExecutor routes tasks for a key to one of N serial workers via
// hash(key) mod N.
type PerKeyExecutor struct {
	mu     sync.RWMutex
	queues []chan func()
	wg     sync.WaitGroup
	closed bool
}

// New starts an executor with n workers. queueDepth bounds each worker's
// backlog; non-positive values use a default.
func New(n, queueDepth int) *PerKeyExecutor {
	if n <= 0 {
		n = 1
	}
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}

	e := &PerKeyExecutor{queues: make([]chan func(), n)}
	for i := range e.queues {
		q := make(chan func(), queueDepth)
		e.queues[i] = q
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for task := range q {
				task()
			}
		}()
	}
	return e
}

// Workers returns the number of serial workers.
func (e *PerKeyExecutor) Workers() int { return len(e.queues) }

// Bucket returns the worker index key routes to.
func (e *PerKeyExecutor) Bucket(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(e.queues)))
}

// Submit enqueues task on key's worker. Tasks submitted for the same
// bucket execute strictly in submission order.
func (e *PerKeyExecutor) Submit(key string, task func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrClosed
	}
	e.queues[e.Bucket(key)] <- task
	return nil
}

// Do runs fn on key's worker and waits for it to finish, or for ctx to
// be done. A ctx expiry abandons the wait, not the task: fn still runs
// in its serialized slot.
func (e *PerKeyExecutor) Do(ctx context.Context, key string, fn func() error) error {
	done := make(chan error, 1)
	if err := e.Submit(key, func() { done <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued tasks to drain.
func (e *PerKeyExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, q := range e.queues {
		close(q)
	}
	e.mu.Unlock()
	e.wg.Wait()
}
