package eviction

import (
	"container/list"
	"sort"
	"sync"
)

// LFU is a least-frequently-used policy built from three co-owned
// structures: a key->frequency map, a frequency->bucket map where each
// bucket is a list of keys in insertion order (oldest at the front),
// and a sorted slice of active frequencies so the minimum is available
// in amortized O(1).
//
// Invariant: every tracked key has exactly one frequency entry and
// appears in exactly one bucket; a frequency is in the active slice
// iff its bucket is non-empty.
type LFU struct {
	mu      sync.Mutex
	freqs   map[string]int
	buckets map[int]*list.List
	index   map[string]*list.Element
	active  []int // ascending
}

// NewLFU creates an empty LFU policy.
func NewLFU() *LFU {
	return &LFU{
		freqs:   make(map[string]int),
		buckets: make(map[int]*list.List),
		index:   make(map[string]*list.Element),
	}
}

// Touch increments key's frequency, moving it to the back of the next
// bucket (freshest within that frequency). Untracked keys start at 1.
func (p *LFU) Touch(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := 1
	if f, ok := p.freqs[key]; ok {
		p.unlinkLocked(key, f)
		next = f + 1
	}

	b, ok := p.buckets[next]
	if !ok {
		b = list.New()
		p.buckets[next] = b
		p.addActiveLocked(next)
	}
	p.freqs[key] = next
	p.index[key] = b.PushBack(key)
}

// Evict removes and returns the oldest-inserted key at the minimum frequency.
func (p *LFU) Evict() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.active) == 0 {
		return "", false
	}
	minFreq := p.active[0]
	key := p.buckets[minFreq].Front().Value.(string)
	p.unlinkLocked(key, minFreq)
	delete(p.freqs, key)
	return key, true
}

// Remove untracks key if present.
func (p *LFU) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.freqs[key]
	if !ok {
		return
	}
	p.unlinkLocked(key, f)
	delete(p.freqs, key)
}

// Len reports the number of tracked keys.
func (p *LFU) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.freqs)
}

// unlinkLocked detaches key from the bucket for frequency f, dropping the
// bucket and its active-frequency entry when it empties.
func (p *LFU) unlinkLocked(key string, f int) {
	b := p.buckets[f]
	b.Remove(p.index[key])
	delete(p.index, key)
	if b.Len() == 0 {
		delete(p.buckets, f)
		p.removeActiveLocked(f)
	}
}

func (p *LFU) addActiveLocked(f int) {
	i := sort.SearchInts(p.active, f)
	if i < len(p.active) && p.active[i] == f {
		return
	}
	p.active = append(p.active, 0)
	copy(p.active[i+1:], p.active[i:])
	p.active[i] = f
}

func (p *LFU) removeActiveLocked(f int) {
	i := sort.SearchInts(p.active, f)
	if i < len(p.active) && p.active[i] == f {
		p.active = append(p.active[:i], p.active[i+1:]...)
	}
}
