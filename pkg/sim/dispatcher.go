package sim

import (
	"context"
	"sync"

	"github.com/anggasct/mavmon/pkg/arbiter"
	"github.com/anggasct/mavmon/pkg/builders"
	"github.com/anggasct/mavmon/pkg/core"
)

// Dispatcher turns due schedule events into waiting trains, each with its own
// actor goroutine
type Dispatcher struct {
	createLock sync.Mutex
	state      *arbiter.State
	clock      *Clock
	observer   core.StateMachineObserver
	spawn      func(ctx context.Context, gate *arbiter.Gate)
}

// NewDispatcher creates a dispatcher. spawn must start the actor without
// blocking.
func NewDispatcher(state *arbiter.State, clock *Clock, observer core.StateMachineObserver,
	spawn func(ctx context.Context, gate *arbiter.Gate)) *Dispatcher {
	return &Dispatcher{
		state:    state,
		clock:    clock,
		observer: observer,
		spawn:    spawn,
	}
}

// Arrive announces the train, queues it at its direction gate and starts its
// actor. It never waits for the actor.
func (d *Dispatcher) Arrive(ctx context.Context, ev core.ScheduleEvent) error {
	var observers []core.StateMachineObserver
	if d.observer != nil {
		observers = append(observers, d.observer)
	}

	train, err := builders.NewTrain(ctx, ev.TrainID, ev.Direction, observers...)
	if err != nil {
		return err
	}
	if err := train.Fire(ctx, core.EventArrive, d.clock.Now()); err != nil {
		return err
	}

	d.createLock.Lock()
	gate := d.state.Enqueue(train)
	d.spawn(ctx, gate)
	d.createLock.Unlock()
	return nil
}
