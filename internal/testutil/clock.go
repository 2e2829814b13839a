// Package testutil provides deterministic stand-ins for time and session
// IDs so that scenario runs are byte-for-byte reproducible.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant handed out by a WallClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a monotonic sequence counter used to number trace
// events.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0. The first call to
// Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset resets the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// WallClock returns timestamps one step apart starting at Epoch. It
// satisfies engine.Clock and store.WithClock.
type WallClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewWallClock creates a WallClock advancing by step per call. A zero step
// means one second.
func NewWallClock(step time.Duration) *WallClock {
	if step == 0 {
		step = time.Second
	}
	return &WallClock{next: Epoch, step: step}
}

// Now returns the next timestamp.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}
