// Package builders provides fluent builders for constructing state machines
package builders

import (
	"fmt"

	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/states"
)

// StateMachineBuilder provides a fluent interface for building state machines
type StateMachineBuilder struct {
	sm     *core.StateMachine
	errors []error
}

// StateBuilder provides a fluent interface for configuring individual states
type StateBuilder struct {
	builder *StateMachineBuilder
	state   *states.BaseState
}

// TransitionBuilder provides a fluent interface for configuring transitions
type TransitionBuilder struct {
	builder    *StateMachineBuilder
	transition *core.Transition
}

// NewStateMachineBuilder creates a new state machine builder
func NewStateMachineBuilder(name string) *StateMachineBuilder {
	return &StateMachineBuilder{
		sm: core.NewStateMachine(name),
	}
}

// WithState adds a simple state and returns a fluent StateBuilder
func (b *StateMachineBuilder) WithState(name string) *StateBuilder {
	state := states.NewSimpleState(name)
	b.sm.AddState(state)
	return &StateBuilder{builder: b, state: state.BaseState}
}

// WithFinalState adds a final state and returns a fluent StateBuilder
func (b *StateMachineBuilder) WithFinalState(name string) *StateBuilder {
	state := states.NewFinalState(name)
	b.sm.AddState(state)
	return &StateBuilder{builder: b, state: state.BaseState}
}

// WithInitialState sets the initial state of the state machine
func (b *StateMachineBuilder) WithInitialState(name string) *StateMachineBuilder {
	if b.sm.GetState(name) == nil {
		b.errors = append(b.errors, fmt.Errorf("initial state %q not declared", name))
		return b
	}
	b.sm.SetInitialStateByName(name)
	return b
}

// WithTransition adds a transition between two declared states
func (b *StateMachineBuilder) WithTransition(fromName, toName, event string) *TransitionBuilder {
	from := b.sm.GetState(fromName)
	to := b.sm.GetState(toName)

	if from == nil || to == nil {
		b.errors = append(b.errors, fmt.Errorf("transition %s -> %s on %s references an undeclared state", fromName, toName, event))
		return &TransitionBuilder{builder: b}
	}

	return &TransitionBuilder{
		builder:    b,
		transition: b.sm.AddTransition(from, to, event),
	}
}

// WithObserver attaches an observer to the machine being built
func (b *StateMachineBuilder) WithObserver(observer core.StateMachineObserver) *StateMachineBuilder {
	b.sm.AddObserver(observer)
	return b
}

// Build validates and returns the constructed state machine
func (b *StateMachineBuilder) Build() (*core.StateMachine, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("state machine %s: %w", b.sm.Name(), b.errors[0])
	}

	validator := NewValidationBuilder(b.sm)
	if err := validator.ValidateStateMachine(); err != nil {
		return nil, err
	}

	return b.sm, nil
}

// WithEntryAction adds an entry action to the state
func (sb *StateBuilder) WithEntryAction(action core.Action) *StateBuilder {
	sb.state.AddEntryAction(action)
	return sb
}

// WithExitAction adds an exit action to the state
func (sb *StateBuilder) WithExitAction(action core.Action) *StateBuilder {
	sb.state.AddExitAction(action)
	return sb
}

// Done returns to the machine builder
func (sb *StateBuilder) Done() *StateMachineBuilder {
	return sb.builder
}

// WithGuard adds a guard condition to the transition
func (tb *TransitionBuilder) WithGuard(guard core.GuardCondition) *TransitionBuilder {
	if tb.transition != nil {
		tb.transition.Guard = guard
	}
	return tb
}

// WithAction adds an action to the transition
func (tb *TransitionBuilder) WithAction(action core.Action) *TransitionBuilder {
	if tb.transition != nil {
		tb.transition.Action = action
	}
	return tb
}

// Done returns to the machine builder
func (tb *TransitionBuilder) Done() *StateMachineBuilder {
	return tb.builder
}
