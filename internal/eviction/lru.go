package eviction

import (
	"container/list"
	"sync"
)

// LRU is a least-recently-used policy: a doubly linked list ordered by
// recency (front = most recent) plus a key index for O(1) touch and evict.
type LRU struct {
	mu    sync.Mutex
	ll    *list.List
	index map[string]*list.Element
}

// NewLRU creates an empty LRU policy.
func NewLRU() *LRU {
	return &LRU{
		ll:    list.New(),
		index: make(map[string]*list.Element),
	}
}

// Touch moves key to the most-recent position, inserting it if untracked.
func (p *LRU) Touch(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.index[key]; ok {
		p.ll.MoveToFront(el)
		return
	}
	p.index[key] = p.ll.PushFront(key)
}

// Evict removes and returns the least-recently-touched key.
func (p *LRU) Evict() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	el := p.ll.Back()
	if el == nil {
		return "", false
	}
	key := el.Value.(string)
	p.ll.Remove(el)
	delete(p.index, key)
	return key, true
}

// Remove untracks key if present.
func (p *LRU) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.index[key]; ok {
		p.ll.Remove(el)
		delete(p.index, key)
	}
}

// Len reports the number of tracked keys.
func (p *LRU) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ll.Len()
}
