// Package lclock provides the Lamport logical clock a process stamps on
// every message it sends and advances on every event it consumes.
package lclock

import "sync/atomic"

// Clock is a monotonic Lamport counter.
//
// Two operations advance it: Tick, called once per send, and Witness, called
// with the timestamp of every consumed event. Witness implements the Lamport
// receive rule, so after processing an event the clock is strictly greater
// than both its previous value and the event's timestamp. That yields a
// partial causal order across processes, not a total order.
//
// Thread-safety: safe for concurrent use, though a process's design keeps
// mutation on the main dispatch goroutine.
type Clock struct {
	value atomic.Uint64
}

// New creates a clock starting at 0.
func New() *Clock {
	return &Clock{}
}

// NewAt creates a clock starting at a specific value. Used by tests and by
// replayed runs resuming from a recorded position.
func NewAt(start uint64) *Clock {
	c := &Clock{}
	c.value.Store(start)
	return c
}

// Tick increments the clock and returns the new value.
func (c *Clock) Tick() uint64 {
	return c.value.Add(1)
}

// Witness folds an observed timestamp into the clock: the new value is
// max(current, observed) + 1. Returns the new value.
func (c *Clock) Witness(observed uint64) uint64 {
	for {
		current := c.value.Load()
		next := current
		if observed > current {
			next = observed
		}
		next++
		if c.value.CompareAndSwap(current, next) {
			return next
		}
	}
}

// Current returns the clock value without advancing it.
func (c *Clock) Current() uint64 {
	return c.value.Load()
}
