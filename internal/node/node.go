// Package node assembles a full cache node from configuration: store,
// eviction policy, executor, engine, ring, registry, replication
// strategy, coordinator and HTTP server.
package node

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"

	"distcache/internal/config"
	"distcache/internal/coordinator"
	"distcache/internal/engine"
	"distcache/internal/eviction"
	"distcache/internal/executor"
	"distcache/internal/metrics"
	"distcache/internal/registry"
	"distcache/internal/replication"
	"distcache/internal/ring"
	"distcache/internal/store"
	"distcache/internal/transport"
)

const executorQueueDepth = 64

// Node is a single running cluster member.
type Node struct {
	nodeID string
	cfg    config.Config

	registry    *registry.Static
	ring        *ring.Ring
	exec        *executor.PerKeyExecutor
	coordinator *coordinator.Coordinator
	metrics     *metrics.Adapter

	listener net.Listener
	server   *http.Server
	serveErr chan error
}

// New wires a node from a validated config.
func New(cfg config.Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	self, err := cfg.Self()
	if err != nil {
		return nil, err
	}
	members, err := cfg.BuildNodes()
	if err != nil {
		return nil, err
	}

	policy, err := eviction.New(cfg.Policy)
	if err != nil {
		return nil, err
	}

	cache := store.NewLocalCacheStore(cfg.Capacity)
	durable := store.NewInMemoryDurableStore()
	exec := executor.New(cfg.Workers, executorQueueDepth)
	prom := metrics.New(self.ID)

	eng := engine.New(engine.Options{
		NodeID:   self.ID,
		Cache:    cache,
		Durable:  durable,
		Eviction: policy,
		Reader:   engine.NewReadThrough(cache, durable),
		Writer:   engine.NewWriteThrough(cache, durable),
		Executor: exec,
		Metrics:  prom,
	})

	rng := ring.New(cfg.VNodes)
	rng.SetNodes(members)

	reg := registry.NewStatic(self.ID, members)
	reg.SetOnChange(func(active []ring.Node) {
		rng.SetNodes(active)
		log.Printf("[%s] ring rebuilt with %d nodes", self.ID, len(active))
	})

	client := transport.NewClient(cfg.Timeout())
	strategy, err := replicationStrategy(cfg, client, prom)
	if err != nil {
		return nil, err
	}

	coord := coordinator.New(coordinator.Options{
		Self:              self,
		Ring:              rng,
		Engine:            eng,
		Strategy:          strategy,
		Transport:         client,
		ReplicationFactor: cfg.ReplicationFactor,
		RPCTimeout:        cfg.Timeout(),
	})

	n := &Node{
		nodeID:      self.ID,
		cfg:         cfg,
		registry:    reg,
		ring:        rng,
		exec:        exec,
		coordinator: coord,
		metrics:     prom,
		serveErr:    make(chan error, 1),
	}
	n.server = &http.Server{
		Handler: transport.NewServer(self.ID, coord, prom.Handler()).Handler(),
	}
	return n, nil
}

// Start binds the listen address and begins serving in the background.
// After Start returns, Addr reports the bound address (useful with a
// ":0" listen address).
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", n.cfg.ListenAddr, err)
	}
	n.listener = lis

	log.Printf("[%s] serving on %s (policy=%s strategy=%s rf=%d)",
		n.nodeID, lis.Addr(), n.cfg.Policy, n.cfg.Strategy, n.cfg.ReplicationFactor)

	go func() {
		if err := n.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			n.serveErr <- err
		}
		close(n.serveErr)
	}()
	return nil
}

// Wait blocks until the server stops, returning the serve error if any.
func (n *Node) Wait() error { return <-n.serveErr }

// Stop shuts the HTTP server down gracefully and drains the executor.
func (n *Node) Stop(ctx context.Context) error {
	log.Printf("[%s] stopping", n.nodeID)
	err := n.server.Shutdown(ctx)
	n.exec.Close()
	return err
}

// Addr returns the bound listen address. Empty before Start.
func (n *Node) Addr() string {
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr().String()
}

func replicationStrategy(cfg config.Config, t replication.Transport, m replication.Metrics) (replication.Strategy, error) {
	return replication.New(cfg.Strategy, cfg.WriteQuorum, t, cfg.Timeout(), m)
}

// Coordinator exposes the request router, mainly for in-process tests.
func (n *Node) Coordinator() *coordinator.Coordinator { return n.coordinator }

// Registry exposes cluster membership.
func (n *Node) Registry() *registry.Static { return n.registry }
