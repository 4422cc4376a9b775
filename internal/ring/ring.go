package ring

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// DefaultVirtualNodes is the vnode count used when none is configured.
const DefaultVirtualNodes = 128

// Node is a physical node in the cluster. Identity is ID, derived from
// host:port; a Node is immutable once constructed except for Healthy.
type Node struct {
	ID      string
	Host    string
	Port    int
	Healthy bool
}

// NewNode builds a node whose ID is derived from host and port.
func NewNode(host string, port int) Node {
	return Node{
		ID:      fmt.Sprintf("%s:%d", host, port),
		Host:    host,
		Port:    port,
		Healthy: true,
	}
}

// Addr returns the node's host:port address.
func (n Node) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

// point is a virtual node on the ring.
type point struct {
	hash   uint32
	nodeID string
}

// Ring implements consistent hashing with virtual nodes. Lookups are
// deterministic for a fixed membership set.
type Ring struct {
	mu           sync.RWMutex
	virtualNodes int
	points       []point // sorted by hash
	nodes        map[string]Node
}

// New creates a ring placing virtualNodes points per physical node.
func New(virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	return &Ring{
		virtualNodes: virtualNodes,
		nodes:        make(map[string]Node),
	}
}

// VirtualNodes returns the per-node vnode count.
func (r *Ring) VirtualNodes() int { return r.virtualNodes }

// SetNodes rebuilds the ring with the given membership. Deterministic:
// the same nodes produce the same ring regardless of order.
func (r *Ring) SetNodes(nodes []Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[string]Node, len(nodes))
	r.points = r.points[:0]

	for _, node := range nodes {
		if _, dup := r.nodes[node.ID]; dup {
			continue
		}
		r.nodes[node.ID] = node
		r.appendPointsLocked(node)
	}
	r.sortPointsLocked()
}

// AddNode places one node's virtual points on the ring. Adding a member
// twice is a no-op.
func (r *Ring) AddNode(node Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[node.ID]; exists {
		return
	}
	r.nodes[node.ID] = node
	r.appendPointsLocked(node)
	r.sortPointsLocked()
}

// RemoveNode removes a node and all its virtual points.
func (r *Ring) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[nodeID]; !exists {
		return
	}
	delete(r.nodes, nodeID)

	kept := r.points[:0]
	for _, p := range r.points {
		if p.nodeID != nodeID {
			kept = append(kept, p)
		}
	}
	r.points = kept
}

// Owner returns the node owning key: the node at the smallest ring point
// at or after hash(key), wrapping to the smallest point past the end.
// ok is false when the ring is empty.
func (r *Ring) Owner(key string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.ownerIndexLocked(key)
	if !ok {
		return Node{}, false
	}
	node, exists := r.nodes[r.points[idx].nodeID]
	return node, exists
}

// ReplicaSet returns up to n distinct nodes found walking the ring
// clockwise from key's owning point, wrapping once.
func (r *Ring) ReplicaSet(key string, n int) []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	idx, ok := r.ownerIndexLocked(key)
	if !ok {
		return nil
	}

	seen := make(map[string]bool, n)
	replicas := make([]Node, 0, n)
	for i := 0; i < len(r.points) && len(replicas) < n; i++ {
		p := r.points[(idx+i)%len(r.points)]
		if seen[p.nodeID] {
			continue
		}
		seen[p.nodeID] = true
		if node, exists := r.nodes[p.nodeID]; exists {
			replicas = append(replicas, node)
		}
	}
	return replicas
}

// Nodes returns all members currently on the ring.
func (r *Ring) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, len(r.nodes))
	for _, node := range r.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// ownerIndexLocked finds the first point with hash >= hash(key),
// wrapping to index 0.
func (r *Ring) ownerIndexLocked(key string) (int, bool) {
	if len(r.points) == 0 {
		return 0, false
	}
	h := hashString(key)
	idx := sort.Search(len(r.points), func(i int) bool {
		return r.points[i].hash >= h
	})
	if idx == len(r.points) {
		idx = 0
	}
	return idx, true
}

// appendPointsLocked inserts the node's virtual points, unsorted.
func (r *Ring) appendPointsLocked(node Node) {
	for i := 0; i < r.virtualNodes; i++ {
		label := fmt.Sprintf("%s#%d", node.ID, i)
		r.points = append(r.points, point{hash: hashString(label), nodeID: node.ID})
	}
}

func (r *Ring) sortPointsLocked() {
	sort.Slice(r.points, func(i, j int) bool {
		return r.points[i].hash < r.points[j].hash
	})
}

// hashString computes a 32-bit FNV-1a hash. The ring only needs a
// well-distributed deterministic digest, not cryptographic strength.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
