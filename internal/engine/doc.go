// Package engine composes the local cache store, eviction policy,
// read/write-through policies, and the per-key executor into the
// single-node cache engine.
package engine
