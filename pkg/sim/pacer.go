package sim

import (
	"context"
	"time"
)

// Pacer turns simulated ticks into real delay. It never affects ordering.
type Pacer interface {
	Pause(ctx context.Context, ticks int)
}

// RealTimePacer sleeps one second divided by TickRate per tick
type RealTimePacer struct {
	TickRate int
}

// Pause sleeps for ticks simulated seconds, returning early if ctx is done
func (p RealTimePacer) Pause(ctx context.Context, ticks int) {
	rate := p.TickRate
	if rate < 1 {
		rate = 1
	}
	d := time.Duration(ticks) * time.Second / time.Duration(rate)
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// NoPacer runs the simulation as fast as the handshakes allow
type NoPacer struct{}

// Pause returns immediately
func (NoPacer) Pause(context.Context, int) {}
