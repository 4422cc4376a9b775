// Package registry tracks cluster membership and notifies subscribers
// when the active node set changes, so the hash ring can be rebuilt.
package registry

import (
	"log"
	"sort"
	"sync"

	"distcache/internal/ring"
)

// Registry is the membership view consumed by the rest of the node.
type Registry interface {
	// ActiveNodes returns the healthy members in stable (ID) order.
	ActiveNodes() []ring.Node
	Register(node ring.Node)
	Remove(nodeID string)
	UpdateHealth(nodeID string, healthy bool)
}

// Static is a fixed-membership registry seeded from configuration.
// Health transitions flip nodes in and out of the active set but the
// member list itself only changes through Register/Remove.
type Static struct {
	mu       sync.RWMutex
	nodeID   string
	members  map[string]ring.Node
	onChange func(active []ring.Node)
}

// NewStatic seeds the registry with the given members. nodeID is the
// local node, used only for log prefixes.
func NewStatic(nodeID string, members []ring.Node) *Static {
	s := &Static{nodeID: nodeID, members: make(map[string]ring.Node, len(members))}
	for _, n := range members {
		s.members[n.ID] = n
	}
	return s
}

// SetOnChange installs the membership-change callback. The callback
// runs synchronously with the mutation, outside the registry lock.
func (s *Static) SetOnChange(fn func(active []ring.Node)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Static) ActiveNodes() []ring.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Static) Register(node ring.Node) {
	s.mu.Lock()
	if _, ok := s.members[node.ID]; ok {
		s.mu.Unlock()
		return
	}
	s.members[node.ID] = node
	active, fn := s.activeLocked(), s.onChange
	s.mu.Unlock()

	log.Printf("[%s] registered node %s", s.nodeID, node.ID)
	if fn != nil {
		fn(active)
	}
}

func (s *Static) Remove(nodeID string) {
	s.mu.Lock()
	if _, ok := s.members[nodeID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.members, nodeID)
	active, fn := s.activeLocked(), s.onChange
	s.mu.Unlock()

	log.Printf("[%s] removed node %s", s.nodeID, nodeID)
	if fn != nil {
		fn(active)
	}
}

func (s *Static) UpdateHealth(nodeID string, healthy bool) {
	s.mu.Lock()
	n, ok := s.members[nodeID]
	if !ok || n.Healthy == healthy {
		s.mu.Unlock()
		return
	}
	n.Healthy = healthy
	s.members[nodeID] = n
	active, fn := s.activeLocked(), s.onChange
	s.mu.Unlock()

	log.Printf("[%s] node %s healthy=%v", s.nodeID, nodeID, healthy)
	if fn != nil {
		fn(active)
	}
}

func (s *Static) activeLocked() []ring.Node {
	active := make([]ring.Node, 0, len(s.members))
	for _, n := range s.members {
		if n.Healthy {
			active = append(active, n)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active
}

var _ Registry = (*Static)(nil)
