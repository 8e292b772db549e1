package sim

import (
	"context"
	"errors"

	"github.com/anggasct/mavmon/pkg/arbiter"
	"github.com/anggasct/mavmon/pkg/utils"
)

// actor is the per-train protocol: wait for the gate, take the intersection,
// cross, depart
type actor struct {
	gate   *arbiter.Gate
	state  *arbiter.State
	pacer  Pacer
	onFail func(error)
}

func (a *actor) run(ctx context.Context) {
	if err := a.state.Await(ctx, a.gate); err != nil {
		if ctx.Err() == nil {
			a.onFail(err)
		}
		return
	}

	a.state.Acquire()
	if err := a.state.Cross(ctx, a.gate.Train()); err != nil {
		if ctx.Err() == nil || errors.Is(err, utils.ErrCollision) {
			a.onFail(err)
		}
		return
	}

	a.pacer.Pause(ctx, 1)
}
