// Package it holds the in-process integration harness and smoke tests.
// Nodes run inside the test process on loopback ports, so no binary
// build step is needed.
package it

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"distcache/internal/config"
	"distcache/internal/node"
	"distcache/internal/store"
)

// Cluster is a set of in-process nodes sharing a static membership.
type Cluster struct {
	nodes []*node.Node
	addrs []string
	http  *http.Client
}

// StartCluster boots n nodes on reserved loopback ports. mutate, if
// non-nil, adjusts each node's config before wiring (same mutation for
// every node; ListenAddr, AdvertiseAddr and Peers are set afterwards).
func StartCluster(n int, mutate func(*config.Config)) (*Cluster, error) {
	addrs, err := reservePorts(n)
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		addrs: addrs,
		http:  &http.Client{Timeout: 5 * time.Second},
	}
	for i := 0; i < n; i++ {
		cfg := config.Default()
		cfg.Capacity = 128
		cfg.Workers = 4
		cfg.RPCTimeout = "1s"
		if mutate != nil {
			mutate(&cfg)
		}
		cfg.ListenAddr = addrs[i]
		cfg.AdvertiseAddr = addrs[i]
		cfg.Peers = otherAddrs(addrs, i)

		nd, err := node.New(cfg)
		if err != nil {
			c.Stop()
			return nil, fmt.Errorf("wire node %d: %w", i, err)
		}
		if err := nd.Start(); err != nil {
			c.Stop()
			return nil, fmt.Errorf("start node %d: %w", i, err)
		}
		c.nodes = append(c.nodes, nd)
	}
	return c, nil
}

// Stop shuts all nodes down.
func (c *Cluster) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, n := range c.nodes {
		_ = n.Stop(ctx)
	}
}

// Node returns the i-th node.
func (c *Cluster) Node(i int) *node.Node { return c.nodes[i] }

// Addr returns the i-th node's client address.
func (c *Cluster) Addr(i int) string { return c.addrs[i] }

// Size returns the number of nodes.
func (c *Cluster) Size() int { return len(c.nodes) }

// Put writes key=value through node i's public API.
func (c *Cluster) Put(i int, key, value string) error {
	req, err := http.NewRequest(http.MethodPut,
		fmt.Sprintf("http://%s/cache/%s", c.addrs[i], key), strings.NewReader(value))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("put via node %d: status %d", i, resp.StatusCode)
	}
	return nil
}

// Get reads key through node i's public API. A miss returns
// store.ErrNotFound.
func (c *Cluster) Get(i int, key string) (string, error) {
	resp, err := c.http.Get(fmt.Sprintf("http://%s/cache/%s", c.addrs[i], key))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		var out struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode get response: %w", err)
		}
		return out.Value, nil
	case http.StatusNotFound:
		return "", store.ErrNotFound
	default:
		return "", fmt.Errorf("get via node %d: status %d", i, resp.StatusCode)
	}
}

// Delete removes key through node i's public API.
func (c *Cluster) Delete(i int, key string) error {
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("http://%s/cache/%s", c.addrs[i], key), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete via node %d: status %d", i, resp.StatusCode)
	}
	return nil
}

// reservePorts grabs n distinct loopback ports and releases them so the
// nodes can bind. The window between release and rebind is small enough
// for test use.
func reservePorts(n int) ([]string, error) {
	listeners := make([]net.Listener, 0, n)
	addrs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			for _, held := range listeners {
				held.Close()
			}
			return nil, err
		}
		listeners = append(listeners, l)
		addrs = append(addrs, l.Addr().String())
	}
	for _, l := range listeners {
		l.Close()
	}
	return addrs, nil
}

func otherAddrs(addrs []string, self int) []string {
	out := make([]string, 0, len(addrs)-1)
	for i, a := range addrs {
		if i != self {
			out = append(out, a)
		}
	}
	return out
}
