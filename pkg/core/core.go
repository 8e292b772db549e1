// Package core provides the central types and interfaces shared by the
// intersection engine: directions, schedule events, the train lifecycle
// state machine and the observer contracts.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScheduleEvent is a single arrival read from a schedule
type ScheduleEvent struct {
	ArrivalTime int64
	TrainID     uint32
	Direction   Direction
}

// Passage is the payload carried by lifecycle events: which train, which
// direction, and the simulated time at which the event happened
type Passage struct {
	TrainID   uint32
	Direction Direction
	Time      int64
}

// Event represents a lifecycle event with optional data and metadata
type Event struct {
	Name      string
	Data      interface{}
	Timestamp time.Time
	ID        string
	Metadata  map[string]interface{}
}

// NewEvent creates a new event with the given name
func NewEvent(name string) *Event {
	return &Event{
		Name:      name,
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// NewEventWithData creates a new event with name and data
func NewEventWithData(name string, data interface{}) *Event {
	e := NewEvent(name)
	e.Data = data
	return e
}

// WithMetadata adds metadata to the event and returns the event
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// GetMetadata retrieves metadata from the event
func (e *Event) GetMetadata(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	return e.Metadata[key]
}

// Passage returns the event payload when it is a Passage
func (e *Event) Passage() (Passage, bool) {
	if e == nil {
		return Passage{}, false
	}
	p, ok := e.Data.(Passage)
	return p, ok
}

// Context holds the execution context for state machine operations
type Context struct {
	context.Context
	StateMachine *StateMachine
	Event        *Event
	Data         map[string]interface{}
	mutex        sync.RWMutex
}

// NewContext creates a new context for state machine operations
func NewContext(ctx context.Context, sm *StateMachine) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context:      ctx,
		StateMachine: sm,
		Data:         make(map[string]interface{}),
	}
}

// GetEvent returns the current event in the context
func (c *Context) GetEvent() *Event {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.Event
}

// SetEvent sets the current event in the context
func (c *Context) SetEvent(event *Event) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Event = event
}

// Set stores a value in the context data
func (c *Context) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Data[key] = value
}

// Get retrieves a value from the context data
func (c *Context) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	value, exists := c.Data[key]
	return value, exists
}

// GuardCondition evaluates whether a transition should be taken
type GuardCondition func(ctx *Context) bool

// Action performs an operation during state transitions or state activities
type Action func(ctx *Context) error

// State represents a state in the state machine
type State interface {
	Name() string
	Enter(ctx *Context) error
	Exit(ctx *Context) error
	IsFinal() bool
}

// Transition represents a transition between states
type Transition struct {
	From   State
	To     State
	Event  string
	Guard  GuardCondition
	Action Action
}

// NewTransition creates a new transition
func NewTransition(from, to State, event string) *Transition {
	return &Transition{
		From:  from,
		To:    to,
		Event: event,
	}
}

// WithGuard adds a guard condition to the transition
func (t *Transition) WithGuard(guard GuardCondition) *Transition {
	t.Guard = guard
	return t
}

// WithAction adds an action to the transition
func (t *Transition) WithAction(action Action) *Transition {
	t.Action = action
	return t
}

// CanExecute checks if the transition can be executed
func (t *Transition) CanExecute(ctx *Context) bool {
	if t.Guard == nil {
		return true
	}
	return t.Guard(ctx)
}

// StateMachineObserver observes lifecycle transitions of a single machine
type StateMachineObserver interface {
	OnStateEnter(sm *StateMachine, state State)
	OnStateExit(sm *StateMachine, state State)
	OnTransition(sm *StateMachine, from, to State, event *Event)
	OnEventProcessed(sm *StateMachine, event *Event)
	OnError(sm *StateMachine, err error)
}

// GrantRule names the mediator rule that produced a grant
type GrantRule int

const (
	RuleNone GrantRule = iota
	RuleStarvation
	RuleSingle
	RuleRightAngle
	RuleOpposite
	RuleThreeWay
	RuleAllFour
)

func (r GrantRule) String() string {
	switch r {
	case RuleStarvation:
		return "starvation-override"
	case RuleSingle:
		return "single-direction"
	case RuleRightAngle:
		return "right-angle"
	case RuleOpposite:
		return "opposite"
	case RuleThreeWay:
		return "three-way"
	case RuleAllFour:
		return "all-four"
	default:
		return "none"
	}
}

// Grant records one mediator decision
type Grant struct {
	Time      int64
	Direction Direction
	Rule      GrantRule
	Demand    DemandVector
	TrainID   uint32
	// Lost is set when the granted direction had no waiter to wake
	Lost bool
}

// IntersectionObserver receives run-level notifications from the driver and
// the arbiter. Observers that only care about lifecycle transitions need not
// implement it.
type IntersectionObserver interface {
	OnRunStarted(runID string)
	OnRunStopped(runID string, now int64)
	OnGrant(grant Grant)
	OnFault(err error)
}
