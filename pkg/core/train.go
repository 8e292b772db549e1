package core

import (
	"context"
	"fmt"
)

// Train lifecycle state names
const (
	StateScheduled = "scheduled"
	StateWaiting   = "waiting"
	StateCrossing  = "crossing"
	StateDeparted  = "departed"
)

// Train lifecycle event names
const (
	EventArrive = "arrive"
	EventEnter  = "enter"
	EventLeave  = "leave"
)

// Train is a single MAV. Its lifecycle machine is owned by the actor that
// drives it; nothing else keeps a handle once the train has departed.
type Train struct {
	ID        uint32
	Direction Direction
	machine   *StateMachine
}

// NewTrain binds a train to a started lifecycle machine
func NewTrain(id uint32, dir Direction, machine *StateMachine) (*Train, error) {
	if id == IntersectionEmpty {
		return nil, fmt.Errorf("train id %d is reserved for the empty intersection", id)
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("train %d: invalid direction %d", id, int(dir))
	}
	if machine == nil {
		return nil, fmt.Errorf("train %d: nil lifecycle machine", id)
	}
	return &Train{ID: id, Direction: dir, machine: machine}, nil
}

// Machine returns the train's lifecycle machine
func (t *Train) Machine() *StateMachine {
	return t.machine
}

// State returns the current lifecycle state name
func (t *Train) State() string {
	return t.machine.CurrentStateName()
}

// Fire advances the lifecycle with a Passage stamped at the simulated time now
func (t *Train) Fire(ctx context.Context, event string, now int64) error {
	return t.machine.HandleEvent(ctx, NewEventWithData(event, Passage{
		TrainID:   t.ID,
		Direction: t.Direction,
		Time:      now,
	}))
}

func (t *Train) String() string {
	return fmt.Sprintf("MAV %d heading %s", t.ID, t.Direction)
}
