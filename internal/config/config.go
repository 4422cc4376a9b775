// Package config holds node configuration, loadable from a YAML file
// and overridable by flags in the command wiring.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"distcache/internal/ring"
)

// Config holds the node configuration. Zero or missing fields are
// filled in by Validate with the Default values.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`
	// AdvertiseAddr is the host:port peers use to reach this node.
	// Defaults to ListenAddr.
	AdvertiseAddr string `yaml:"advertise_addr"`
	// Peers lists the other cluster members as host:port addresses.
	Peers []string `yaml:"peers"`

	VNodes            int `yaml:"vnodes"`
	ReplicationFactor int `yaml:"replication_factor"`
	// WriteQuorum is W for the quorum strategy; 0 means majority.
	WriteQuorum int    `yaml:"write_quorum"`
	Strategy    string `yaml:"strategy"` // sync, quorum or async

	Capacity int    `yaml:"capacity"`
	Policy   string `yaml:"policy"` // lru or lfu
	Workers  int    `yaml:"workers"`

	// RPCTimeout is a Go duration string, e.g. "2s".
	RPCTimeout string `yaml:"rpc_timeout"`
}

// Default returns the configuration a single local node runs with.
func Default() Config {
	return Config{
		ListenAddr:        "127.0.0.1:7000",
		VNodes:            ring.DefaultVirtualNodes,
		ReplicationFactor: 3,
		Strategy:          "quorum",
		Capacity:          1024,
		Policy:            "lru",
		Workers:           8,
		RPCTimeout:        "2s",
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fills defaults for zero fields and rejects inconsistent
// settings.
func (c *Config) Validate() error {
	def := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.AdvertiseAddr == "" {
		c.AdvertiseAddr = c.ListenAddr
	}
	if c.VNodes <= 0 {
		c.VNodes = def.VNodes
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = def.ReplicationFactor
	}
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.Capacity == 0 {
		c.Capacity = def.Capacity
	}
	if c.Policy == "" {
		c.Policy = def.Policy
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.RPCTimeout == "" {
		c.RPCTimeout = def.RPCTimeout
	}

	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	switch c.Policy {
	case "lru", "lfu":
	default:
		return fmt.Errorf("unknown eviction policy %q (expected lru or lfu)", c.Policy)
	}
	switch c.Strategy {
	case "sync", "quorum", "async":
	default:
		return fmt.Errorf("unknown replication strategy %q (expected sync, quorum or async)", c.Strategy)
	}
	if c.WriteQuorum < 0 || c.WriteQuorum > c.ReplicationFactor {
		return fmt.Errorf("write quorum %d out of range for replication factor %d", c.WriteQuorum, c.ReplicationFactor)
	}
	if _, err := time.ParseDuration(c.RPCTimeout); err != nil {
		return fmt.Errorf("invalid rpc_timeout: %w", err)
	}
	if _, err := parseAddr(c.AdvertiseAddr); err != nil {
		return fmt.Errorf("invalid advertise_addr: %w", err)
	}
	for _, p := range c.Peers {
		if _, err := parseAddr(p); err != nil {
			return fmt.Errorf("invalid peer: %w", err)
		}
	}
	return nil
}

// Timeout returns the parsed RPC timeout. Validate must have passed.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RPCTimeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// ParsePeers parses a comma-separated list of host:port addresses:
// "10.0.0.1:7000,10.0.0.2:7000".
func ParsePeers(peersStr string) ([]string, error) {
	if strings.TrimSpace(peersStr) == "" {
		return nil, nil
	}
	parts := strings.Split(peersStr, ",")
	peers := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := parseAddr(part); err != nil {
			return nil, err
		}
		peers = append(peers, part)
	}
	return peers, nil
}

// Self returns this node's identity as seen by the cluster.
func (c *Config) Self() (ring.Node, error) {
	return parseAddr(c.AdvertiseAddr)
}

// BuildNodes converts the advertise address plus peers into ring nodes,
// self first. Peers that repeat the advertise address are skipped.
func (c *Config) BuildNodes() ([]ring.Node, error) {
	self, err := c.Self()
	if err != nil {
		return nil, err
	}
	nodes := []ring.Node{self}
	for _, p := range c.Peers {
		n, err := parseAddr(p)
		if err != nil {
			return nil, err
		}
		if n.ID == self.ID {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseAddr(addr string) (ring.Node, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return ring.Node{}, fmt.Errorf("address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return ring.Node{}, fmt.Errorf("address %q: bad port %q", addr, portStr)
	}
	return ring.NewNode(host, port), nil
}
