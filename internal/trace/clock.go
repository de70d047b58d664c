package trace

import "sync/atomic"

// Clock is the monotonic logical clock stamping trace entries and event
// ordering. All sequencing uses this counter, never wall-clock time:
// wall clocks can repeat and race, the logical clock cannot.
//
// Thread-safety: safe for concurrent use (atomic operations), though the
// engine's single-writer design means one goroutine typically calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
