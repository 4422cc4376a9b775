// Package ring implements a consistent hashing ring with virtual nodes.
// It maps keys to an owning node and to an ordered replica set, keeping
// key movement small when membership changes.
package ring
