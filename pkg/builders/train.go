package builders

import (
	"context"
	"fmt"

	"github.com/anggasct/mavmon/pkg/core"
)

// Context keys written by the train lifecycle
const (
	KeyTrainID   = "train_id"
	KeyArrivedAt = "arrived_at"
	KeyEnteredAt = "entered_at"
	KeyLeftAt    = "left_at"
)

// NewTrainLifecycle builds the Scheduled -> Waiting -> Crossing -> Departed
// machine. Enter and leave are only accepted for the train that arrived.
func NewTrainLifecycle(name string, observers ...core.StateMachineObserver) (*core.StateMachine, error) {
	b := NewStateMachineBuilder(name)

	b.WithState(core.StateScheduled)
	b.WithState(core.StateWaiting)
	b.WithState(core.StateCrossing)
	b.WithFinalState(core.StateDeparted)
	b.WithInitialState(core.StateScheduled)

	b.WithTransition(core.StateScheduled, core.StateWaiting, core.EventArrive).
		WithAction(stamp(KeyArrivedAt, true))
	b.WithTransition(core.StateWaiting, core.StateCrossing, core.EventEnter).
		WithGuard(sameTrain).
		WithAction(stamp(KeyEnteredAt, false))
	b.WithTransition(core.StateCrossing, core.StateDeparted, core.EventLeave).
		WithGuard(sameTrain).
		WithAction(stamp(KeyLeftAt, false))

	for _, o := range observers {
		b.WithObserver(o)
	}

	return b.Build()
}

// NewTrain creates a train whose lifecycle is started in the Scheduled state
func NewTrain(ctx context.Context, id uint32, dir core.Direction, observers ...core.StateMachineObserver) (*core.Train, error) {
	sm, err := NewTrainLifecycle(fmt.Sprintf("train-%d", id), observers...)
	if err != nil {
		return nil, err
	}

	train, err := core.NewTrain(id, dir, sm)
	if err != nil {
		return nil, err
	}

	if err := sm.Start(ctx); err != nil {
		return nil, err
	}
	return train, nil
}

func stamp(key string, bindTrain bool) core.Action {
	return func(ctx *core.Context) error {
		p, ok := ctx.GetEvent().Passage()
		if !ok {
			return fmt.Errorf("lifecycle event %s carries no passage", ctx.GetEvent().Name)
		}
		if bindTrain {
			ctx.Set(KeyTrainID, p.TrainID)
		}
		ctx.Set(key, p.Time)
		return nil
	}
}

func sameTrain(ctx *core.Context) bool {
	p, ok := ctx.GetEvent().Passage()
	if !ok {
		return false
	}
	id, ok := ctx.Get(KeyTrainID)
	return ok && id == p.TrainID
}
