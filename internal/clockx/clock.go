// Package clockx abstracts the wall clock so that expiry logic can be tested
// deterministically. Production code injects Real(); tests inject a Fake.
package clockx

import (
	"sync"
	"time"
)

// Clock is the subset of time operations the ticket engine depends on.
type Clock interface {
	Now() time.Time
}

// Unix returns the current time of c in whole seconds.
func Unix(c Clock) int64 {
	return c.Now().Unix()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns a Clock backed by time.Now.
func Real() Clock { return realClock{} }

// Fake is a Clock whose time only changes through Set and Advance.
// It is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

// NewFake returns a Fake stopped at initial.
func NewFake(initial time.Time) *Fake {
	return &Fake{current: initial}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// Set moves the fake time to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}
