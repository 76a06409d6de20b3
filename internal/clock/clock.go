package clock

import (
	"sync"
	"time"
)

// Clock is the source of the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed returns a settable instant; used to make SLA derivation deterministic.
type Fixed struct {
	mu sync.Mutex
	at time.Time
}

// NewFixed creates a Fixed clock at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{at: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.at
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = t
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = f.at.Add(d)
}
