// Package replication fans a write out to its replica set under a
// configurable consistency strategy: Synchronous (all replicas must
// acknowledge), Quorum (at least W must acknowledge), or Async
// (fire-and-forget).
package replication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"distcache/internal/clock"
	"distcache/internal/ring"
)

var (
	// ErrReplicationFailed reports insufficient acknowledgments under the
	// Synchronous strategy. The coordinator's local write, if this node
	// was a replica, has already been applied: the value is locally
	// durable but not fully replicated.
	ErrReplicationFailed = errors.New("replication: failed")
	// ErrQuorumNotMet reports fewer than W acknowledgments.
	ErrQuorumNotMet = errors.New("replication: quorum not met")
	// ErrNoReplicas reports an empty replica set.
	ErrNoReplicas = errors.New("replication: no replicas")
)

// PutRequest is the replicated write carried across the RPC boundary.
// It is ephemeral: created per logical write and discarded after
// delivery. OperationID is an opaque unique token for traceability;
// receivers do not deduplicate on it.
type PutRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	OperationID string `json:"operationId"`
	Timestamp   int64  `json:"timestamp"`
}

// NewPutRequest stamps a fresh request for key->value.
func NewPutRequest(key, value string, clk clock.Clock) PutRequest {
	if clk == nil {
		clk = clock.System{}
	}
	return PutRequest{
		Key:         key,
		Value:       value,
		OperationID: uuid.NewString(),
		Timestamp:   clk.Now().UnixMilli(),
	}
}

// Transport issues the replica-level put RPC. Implementations must
// honor ctx cancellation and deadlines.
type Transport interface {
	ReplicaPut(ctx context.Context, node ring.Node, req PutRequest) error
}

// Strategy replicates a write to the remote members of a replica set.
// The coordinator has already applied the write locally when the local
// node is a replica; acked carries that pre-obtained acknowledgment
// count so quorum accounting spans the whole replica set.
type Strategy interface {
	Replicate(ctx context.Context, req PutRequest, replicas []ring.Node, acked int) error
}

// Metrics exposes replication observability hooks.
type Metrics interface {
	ReplicaAck()
	ReplicaFailure()
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) ReplicaAck()     {}
func (NoopMetrics) ReplicaFailure() {}

var _ Metrics = NoopMetrics{}

// New constructs the named strategy. Supported names: "sync", "quorum",
// "async". w is the write quorum, only meaningful for "quorum".
func New(name string, w int, t Transport, timeout time.Duration, m Metrics) (Strategy, error) {
	switch name {
	case "sync":
		return NewSynchronous(t, timeout, m), nil
	case "quorum":
		return NewQuorum(w, t, timeout, m), nil
	case "async":
		return NewAsync(t, timeout, m), nil
	default:
		return nil, fmt.Errorf("unknown replication strategy %q (expected sync, quorum or async)", name)
	}
}
