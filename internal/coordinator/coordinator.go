// Package coordinator is the top-level entry point of the distributed
// cache: it resolves key ownership on the hash ring, routes gets to the
// owning node, and propagates puts to the replica set under the
// configured replication strategy.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"distcache/internal/clock"
	"distcache/internal/engine"
	"distcache/internal/replication"
	"distcache/internal/ring"
	"distcache/internal/store"
)

// ErrNodeUnavailable reports an RPC timeout or refusal. Reads fall back
// to the local engine; writes count the replica as non-acknowledging.
var ErrNodeUnavailable = errors.New("coordinator: node unavailable")

// Transport is the outbound RPC surface the coordinator consumes.
type Transport interface {
	replication.Transport
	// RemoteGet reads key from node. A remote miss is store.ErrNotFound;
	// RPC failures must wrap ErrNodeUnavailable.
	RemoteGet(ctx context.Context, node ring.Node, key string) (string, error)
	// RemoteDelete removes key on node.
	RemoteDelete(ctx context.Context, node ring.Node, key string) error
}

// Options configures the coordinator.
type Options struct {
	Self              ring.Node
	Ring              *ring.Ring
	Engine            *engine.Engine
	Strategy          replication.Strategy
	Transport         Transport
	ReplicationFactor int
	RPCTimeout        time.Duration
	Clock             clock.Clock
}

// Coordinator routes client operations across the cluster.
type Coordinator struct {
	self     ring.Node
	ring     *ring.Ring
	engine   *engine.Engine
	strategy replication.Strategy
	rpc      Transport
	rf       int
	timeout  time.Duration
	clk      clock.Clock
}

// New constructs a coordinator from Options.
func New(opt Options) *Coordinator {
	if opt.Ring == nil || opt.Engine == nil || opt.Strategy == nil || opt.Transport == nil {
		panic("coordinator: Ring, Engine, Strategy and Transport are required")
	}
	if opt.ReplicationFactor <= 0 {
		opt.ReplicationFactor = 3
	}
	if opt.RPCTimeout <= 0 {
		opt.RPCTimeout = replication.DefaultTimeout
	}
	if opt.Clock == nil {
		opt.Clock = clock.System{}
	}
	return &Coordinator{
		self:     opt.Self,
		ring:     opt.Ring,
		engine:   opt.Engine,
		strategy: opt.Strategy,
		rpc:      opt.Transport,
		rf:       opt.ReplicationFactor,
		timeout:  opt.RPCTimeout,
		clk:      opt.Clock,
	}
}

// Get resolves key's owner and reads from it. When the owner is remote
// and unreachable, the read falls back to the local engine: best
// effort, possibly stale or absent.
func (c *Coordinator) Get(ctx context.Context, key string) (string, error) {
	owner, ok := c.ring.Owner(key)
	if !ok || owner.ID == c.self.ID {
		return c.engine.Get(ctx, key)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value, err := c.rpc.RemoteGet(rctx, owner, key)
	if err == nil {
		return value, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		// The owner answered: the key does not exist. Not a failure.
		return "", store.ErrNotFound
	}

	log.Printf("[%s] remote get from %s failed, falling back to local: %v", c.self.ID, owner.ID, err)
	return c.engine.Get(ctx, key)
}

// Put applies the write locally when this node is in the replica set,
// then propagates it to the remaining replicas under the configured
// strategy. A replication failure leaves the local write applied:
// locally durable, not fully replicated.
func (c *Coordinator) Put(ctx context.Context, key, value string) error {
	replicas := c.ring.ReplicaSet(key, c.rf)
	if len(replicas) == 0 {
		// Empty ring: degrade to a purely local write.
		return c.engine.InternalPut(ctx, key, value)
	}

	remote := make([]ring.Node, 0, len(replicas))
	acked := 0
	for _, replica := range replicas {
		if replica.ID == c.self.ID {
			continue
		}
		remote = append(remote, replica)
	}

	if len(remote) < len(replicas) {
		// Local node is a replica: apply via InternalPut, not the public
		// put path, so the write is not re-replicated and the eviction
		// check runs exactly once.
		if err := c.engine.InternalPut(ctx, key, value); err != nil {
			return err
		}
		acked = 1
	}

	if len(remote) == 0 {
		return nil
	}

	req := replication.NewPutRequest(key, value, c.clk)
	return c.strategy.Replicate(ctx, req, remote, acked)
}

// Delete removes key from every replica, best effort. The local engine
// is always cleared; the first remote failure is reported.
func (c *Coordinator) Delete(ctx context.Context, key string) error {
	replicas := c.ring.ReplicaSet(key, c.rf)

	var firstErr error
	deleteLocal := len(replicas) == 0
	for _, replica := range replicas {
		if replica.ID == c.self.ID {
			deleteLocal = true
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.rpc.RemoteDelete(rctx, replica, key)
		cancel()
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete on %s: %w", replica.ID, err)
		}
	}
	if deleteLocal {
		if err := c.engine.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// HandlePut is the replica-side handler for inbound replicated writes.
func (c *Coordinator) HandlePut(ctx context.Context, req replication.PutRequest) error {
	log.Printf("[%s] replica put: key=%s op=%s", c.self.ID, req.Key, req.OperationID)
	return c.engine.InternalPut(ctx, req.Key, req.Value)
}

// HandleGet is the server-side handler for inbound peer reads.
func (c *Coordinator) HandleGet(ctx context.Context, key string) (string, error) {
	return c.engine.Get(ctx, key)
}

// HandleDelete is the server-side handler for inbound peer deletes.
func (c *Coordinator) HandleDelete(ctx context.Context, key string) error {
	return c.engine.Delete(ctx, key)
}

// Self returns the local node.
func (c *Coordinator) Self() ring.Node { return c.self }
