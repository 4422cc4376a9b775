// Command distcache runs a single cache node. Flags override the
// optional YAML config file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distcache/internal/config"
	"distcache/internal/node"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		listen     = flag.String("listen", "", "listen address host:port")
		advertise  = flag.String("advertise", "", "address peers use to reach this node (defaults to listen)")
		peers      = flag.String("peers", "", "comma-separated peer addresses host:port,host:port")
		vnodes     = flag.Int("vnodes", 0, "virtual nodes per member")
		rf         = flag.Int("rf", 0, "replication factor")
		w          = flag.Int("w", 0, "write quorum (0 = majority)")
		strategy   = flag.String("strategy", "", "replication strategy: sync, quorum or async")
		capacity   = flag.Int("capacity", 0, "cache capacity in entries")
		policy     = flag.String("policy", "", "eviction policy: lru or lfu")
		workers    = flag.Int("workers", 0, "per-key executor workers")
		rpcTimeout = flag.String("rpc-timeout", "", "per-RPC timeout, e.g. 2s")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *advertise != "" {
		cfg.AdvertiseAddr = *advertise
	}
	if *peers != "" {
		parsed, err := config.ParsePeers(*peers)
		if err != nil {
			log.Fatalf("parse peers: %v", err)
		}
		cfg.Peers = parsed
	}
	if *vnodes > 0 {
		cfg.VNodes = *vnodes
	}
	if *rf > 0 {
		cfg.ReplicationFactor = *rf
	}
	if *w > 0 {
		cfg.WriteQuorum = *w
	}
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *capacity > 0 {
		cfg.Capacity = *capacity
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *rpcTimeout != "" {
		cfg.RPCTimeout = *rpcTimeout
	}

	n, err := node.New(cfg)
	if err != nil {
		log.Fatalf("configure node: %v", err)
	}
	if err := n.Start(); err != nil {
		log.Fatalf("start node: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("received %s, shutting down", s)
	case err := <-waitErr(n):
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Stop(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func waitErr(n *node.Node) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- n.Wait() }()
	return ch
}
