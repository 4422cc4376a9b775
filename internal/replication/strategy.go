package replication

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"distcache/internal/ring"
)

// DefaultTimeout bounds each replica RPC when no timeout is configured.
const DefaultTimeout = 2 * time.Second

// Synchronous requires every replica to acknowledge before reporting
// success. A single error or timeout fails the write.
type Synchronous struct {
	transport Transport
	timeout   time.Duration
	metrics   Metrics
}

// NewSynchronous creates the all-replicas strategy.
func NewSynchronous(t Transport, timeout time.Duration, m Metrics) *Synchronous {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if m == nil {
		m = NoopMetrics{}
	}
	return &Synchronous{transport: t, timeout: timeout, metrics: m}
}

// Replicate issues the RPC to every replica concurrently and succeeds
// iff all acknowledge.
func (s *Synchronous) Replicate(ctx context.Context, req PutRequest, replicas []ring.Node, _ int) error {
	if len(replicas) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, replica := range replicas {
		replica := replica
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()
			if err := s.transport.ReplicaPut(rctx, replica, req); err != nil {
				s.metrics.ReplicaFailure()
				return fmt.Errorf("replica %s: %w", replica.ID, err)
			}
			s.metrics.ReplicaAck()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrReplicationFailed, err)
	}
	return nil
}

// Quorum requires at least W acknowledgments across the replica set.
// W is configured independently of the replica-set size; any
// 1 <= W <= R is accepted.
type Quorum struct {
	w         int
	transport Transport
	timeout   time.Duration
	metrics   Metrics
}

// NewQuorum creates the W-of-R strategy. Non-positive w falls back to a
// majority of the replica set at replicate time.
func NewQuorum(w int, t Transport, timeout time.Duration, m Metrics) *Quorum {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if m == nil {
		m = NoopMetrics{}
	}
	return &Quorum{w: w, transport: t, timeout: timeout, metrics: m}
}

// Replicate fans out to every replica concurrently and returns as soon
// as the outcome is decided: success once acks reach W, failure once W
// can no longer be reached. A replica that times out counts as
// non-acknowledging.
func (q *Quorum) Replicate(ctx context.Context, req PutRequest, replicas []ring.Node, acked int) error {
	total := len(replicas) + acked
	required := q.w
	if required <= 0 {
		required = total/2 + 1 // majority
	}
	if required > total {
		return fmt.Errorf("%w: required W=%d exceeds replica count=%d", ErrQuorumNotMet, required, total)
	}
	if acked >= required {
		return nil
	}
	if len(replicas) == 0 {
		return fmt.Errorf("%w: acks=%d required=%d", ErrQuorumNotMet, acked, required)
	}

	rctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	results := make(chan error, len(replicas))
	for _, replica := range replicas {
		replica := replica
		go func() {
			err := q.transport.ReplicaPut(rctx, replica, req)
			if err != nil {
				err = fmt.Errorf("replica %s: %w", replica.ID, err)
			}
			results <- err
		}()
	}

	acks := acked
	var failures int
	var lastErr error
	for i := 0; i < len(replicas); i++ {
		select {
		case err := <-results:
			if err == nil {
				q.metrics.ReplicaAck()
				acks++
				if acks >= required {
					return nil
				}
			} else {
				q.metrics.ReplicaFailure()
				failures++
				lastErr = err
				if total-failures < required {
					return fmt.Errorf("%w: acks=%d required=%d replicas=%d: %v",
						ErrQuorumNotMet, acks, required, total, lastErr)
				}
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: acks=%d required=%d: %v", ErrQuorumNotMet, acks, required, ctx.Err())
		}
	}

	return fmt.Errorf("%w: acks=%d required=%d replicas=%d: %v",
		ErrQuorumNotMet, acks, required, total, lastErr)
}

// Async issues all RPCs without awaiting responses and always reports
// success. Failures surface only through metrics and the log; this is a
// deliberate availability/consistency trade-off.
type Async struct {
	transport Transport
	timeout   time.Duration
	metrics   Metrics
}

// NewAsync creates the fire-and-forget strategy.
func NewAsync(t Transport, timeout time.Duration, m Metrics) *Async {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if m == nil {
		m = NoopMetrics{}
	}
	return &Async{transport: t, timeout: timeout, metrics: m}
}

// Replicate starts the fan-out and returns immediately. The deliveries
// are detached from the caller's context so an early return does not
// cancel them.
func (a *Async) Replicate(ctx context.Context, req PutRequest, replicas []ring.Node, _ int) error {
	for _, replica := range replicas {
		replica := replica
		go func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
			defer cancel()
			if err := a.transport.ReplicaPut(rctx, replica, req); err != nil {
				a.metrics.ReplicaFailure()
				log.Printf("async replication to %s failed: op=%s key=%s: %v",
					replica.ID, req.OperationID, req.Key, err)
				return
			}
			a.metrics.ReplicaAck()
		}()
	}
	return nil
}

var (
	_ Strategy = (*Synchronous)(nil)
	_ Strategy = (*Quorum)(nil)
	_ Strategy = (*Async)(nil)
)
