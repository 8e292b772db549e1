package sim

import (
	"context"
	"sync"
)

// SecondsInADay bounds a run
const SecondsInADay int64 = 86400

// Clock is the simulated time of day in seconds since midnight. Only the
// driver advances it; actors wait on it while they hold the intersection.
type Clock struct {
	mu       sync.Mutex
	now      int64
	tickRate int
	waiters  []clockWaiter
}

type clockWaiter struct {
	at int64
	ch chan struct{}
}

// NewClock creates a clock at midnight
func NewClock(tickRate int) *Clock {
	if tickRate < 1 {
		tickRate = 1
	}
	return &Clock{tickRate: tickRate}
}

// Now returns the current simulated time
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// TickRate returns the number of ticks per real second
func (c *Clock) TickRate() int {
	return c.tickRate
}

// Advance moves time forward one second, wakes waiters that are due and
// returns the new time
func (c *Clock) Advance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now++
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at <= c.now {
			close(w.ch)
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
	return c.now
}

// WaitUntil blocks until simulated time reaches t or ctx is done
func (c *Clock) WaitUntil(ctx context.Context, t int64) error {
	c.mu.Lock()
	if c.now >= t {
		c.mu.Unlock()
		return nil
	}
	w := clockWaiter{at: t, ch: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		c.forget(w.ch)
		return ctx.Err()
	}
}

func (c *Clock) forget(ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w.ch == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}
