package engine

import "sync/atomic"

// StepClock stamps trace steps. Implemented by Clock and by the
// deterministic test clock.
type StepClock interface {
	Next() int64
}

// Clock is a monotonic logical clock for ordering trace steps.
//
// Sequence numbers are strictly increasing for the lifetime of the clock,
// across runs of the same engine. Wall-clock time is never used.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start, e.g. after the last
// step already recorded in a store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
