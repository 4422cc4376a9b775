package ring

import (
	"fmt"
	"testing"
)

func threeNodes() []Node {
	return []Node{
		NewNode("127.0.0.1", 7001),
		NewNode("127.0.0.1", 7002),
		NewNode("127.0.0.1", 7003),
	}
}

func TestNewNode_IdentityFromHostPort(t *testing.T) {
	n := NewNode("10.0.0.5", 9000)
	if n.ID != "10.0.0.5:9000" {
		t.Errorf("Expected ID 10.0.0.5:9000, got %s", n.ID)
	}
	if n.Addr() != n.ID {
		t.Errorf("Expected Addr to match ID, got %s", n.Addr())
	}
	if !n.Healthy {
		t.Error("Expected new node to start healthy")
	}
}

func TestRing_OwnerStability(t *testing.T) {
	r := New(64)
	r.SetNodes(threeNodes())

	key := "test-key-123"
	first, ok := r.Owner(key)
	if !ok {
		t.Fatal("Expected an owner")
	}
	for i := 0; i < 20; i++ {
		owner, ok := r.Owner(key)
		if !ok || owner.ID != first.ID {
			t.Fatalf("Owner changed for fixed membership: %s != %s", owner.ID, first.ID)
		}
	}
}

func TestRing_Determinism(t *testing.T) {
	r1 := New(64)
	r2 := New(64)
	r1.SetNodes(threeNodes())
	r2.SetNodes(threeNodes())

	for _, key := range []string{"key1", "key2", "key3", "key100", "key999"} {
		o1, _ := r1.Owner(key)
		o2, _ := r2.Owner(key)
		if o1.ID != o2.ID {
			t.Errorf("Determinism failed for key %s: %s != %s", key, o1.ID, o2.ID)
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	r := New(128)
	r.SetNodes(threeNodes())

	distribution := make(map[string]int)
	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		node, ok := r.Owner(fmt.Sprintf("key-%d", i))
		if !ok {
			t.Fatalf("Expected an owner for key-%d", i)
		}
		distribution[node.ID]++
	}

	if len(distribution) != 3 {
		t.Errorf("Expected 3 nodes to own keys, got %d", len(distribution))
	}
	for nodeID, count := range distribution {
		if count == 0 {
			t.Errorf("Node %s owns no keys", nodeID)
		}
		if pct := float64(count) / float64(numKeys) * 100; pct > 90 {
			t.Errorf("Node %s owns %.2f%% of keys (too high)", nodeID, pct)
		}
	}
}

func TestRing_ReplicaSet(t *testing.T) {
	r := New(64)
	r.SetNodes(threeNodes())

	replicas := r.ReplicaSet("test-key", 3)
	if len(replicas) != 3 {
		t.Fatalf("Expected 3 replicas, got %d", len(replicas))
	}

	seen := make(map[string]bool)
	for _, n := range replicas {
		if seen[n.ID] {
			t.Errorf("Duplicate node %s in replica set", n.ID)
		}
		seen[n.ID] = true
	}

	// First replica is the owner.
	owner, _ := r.Owner("test-key")
	if replicas[0].ID != owner.ID {
		t.Errorf("Expected replica set to start at owner %s, got %s", owner.ID, replicas[0].ID)
	}
}

func TestRing_ReplicaSetLargerThanMembership(t *testing.T) {
	r := New(64)
	r.SetNodes(threeNodes())

	replicas := r.ReplicaSet("k", 5)
	if len(replicas) != 3 {
		t.Errorf("Expected replica set capped at membership size 3, got %d", len(replicas))
	}

	if got := r.ReplicaSet("k", 0); got != nil {
		t.Errorf("Expected nil replica set for n=0, got %v", got)
	}
}

func TestRing_RemoveNode(t *testing.T) {
	r := New(64)
	nodes := threeNodes()
	r.SetNodes(nodes)
	removed := nodes[1].ID

	r.RemoveNode(removed)

	for i := 0; i < 100; i++ {
		node, ok := r.Owner(fmt.Sprintf("key-%d", i))
		if !ok {
			t.Fatalf("Expected an owner after removal")
		}
		if node.ID == removed {
			t.Errorf("Key key-%d still owned by removed node %s", i, removed)
		}
	}
	if len(r.Nodes()) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(r.Nodes()))
	}

	// Removing an unknown node is a no-op.
	r.RemoveNode("nope")
	if len(r.Nodes()) != 2 {
		t.Errorf("Expected 2 nodes after no-op removal, got %d", len(r.Nodes()))
	}
}

func TestRing_AddNode(t *testing.T) {
	r := New(64)
	r.SetNodes(threeNodes()[:1])

	extra := NewNode("127.0.0.1", 7002)
	r.AddNode(extra)
	r.AddNode(extra) // duplicate add is a no-op

	if len(r.Nodes()) != 2 {
		t.Errorf("Expected 2 nodes, got %d", len(r.Nodes()))
	}
}

func TestRing_Empty(t *testing.T) {
	r := New(64)

	if _, ok := r.Owner("any"); ok {
		t.Error("Expected no owner on empty ring")
	}
	if rs := r.ReplicaSet("any", 3); len(rs) != 0 {
		t.Errorf("Expected empty replica set, got %d nodes", len(rs))
	}
}

func TestRing_MinimalMovementOnRemoval(t *testing.T) {
	r := New(128)
	nodes := threeNodes()
	r.SetNodes(nodes)

	numKeys := 1000
	before := make(map[string]string, numKeys)
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		owner, _ := r.Owner(key)
		before[key] = owner.ID
	}

	removed := nodes[2].ID
	r.RemoveNode(removed)

	moved := 0
	for key, prev := range before {
		owner, _ := r.Owner(key)
		if prev != removed && owner.ID != prev {
			moved++
		}
	}
	// Keys not owned by the removed node must keep their owner.
	if moved != 0 {
		t.Errorf("%d keys moved that were not owned by the removed node", moved)
	}
}
