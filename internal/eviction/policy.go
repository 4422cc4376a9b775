// Package eviction provides pluggable eviction policies for the local
// cache engine. Policies track access order or frequency and choose the
// victim when the cache is at capacity.
//
// The policy state is cache-wide: every executor worker mutates it, so
// implementations guard their structures with an internal mutex.
package eviction

import "fmt"

// Policy tracks key accesses and selects eviction victims.
// Implementations are safe for concurrent use.
type Policy interface {
	// Touch records an access to key, inserting it if untracked.
	Touch(key string)
	// Evict removes and returns the victim key.
	// ok is false when no keys are tracked.
	Evict() (key string, ok bool)
	// Remove untracks key if present (explicit deletes).
	Remove(key string)
	// Len reports the number of tracked keys.
	Len() int
}

// New constructs the named policy. Supported names: "lru", "lfu".
func New(name string) (Policy, error) {
	switch name {
	case "lru":
		return NewLRU(), nil
	case "lfu":
		return NewLFU(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q (expected lru or lfu)", name)
	}
}
