package state

import "sync/atomic"

// Clock is a monotonic logical clock for ordering state events.
//
// Tasks are stamped with a seq at enqueue and history snapshots are stamped
// at capture. Logical seq numbers, not wall-clock timestamps, keep ordering
// deterministic: replaying the same operations produces the same stamps.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), even
// though the Store itself is single-writer. The task runner reads the clock
// from its own goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used when resuming a session from an archived project so new stamps
// continue after the archived ones.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
