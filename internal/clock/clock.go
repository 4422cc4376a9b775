// Package clock abstracts the time source so components that stamp
// outbound requests can be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current wall time.
type Clock interface {
	Now() time.Time
}

// System reads time.Now. It is the production clock.
type System struct{}

// Now returns the current wall time.
func (System) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu sync.Mutex
	t  time.Time
}

// NewFake creates a fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}
