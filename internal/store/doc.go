// Package store provides the node-local storage primitives: the bounded
// in-memory cache map with capacity accounting, and the DurableStore
// interface for the synchronous persistence service behind the cache.
package store
