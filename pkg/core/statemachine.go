package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anggasct/mavmon/pkg/utils"
)

// StateMachineState represents the run state of a state machine
type StateMachineState int

const (
	// StateStopped indicates the state machine is stopped
	StateStopped StateMachineState = iota
	// StateRunning indicates the state machine is running
	StateRunning
	// StateCompleted indicates the state machine has reached a final state
	StateCompleted
	// StateError indicates the state machine encountered an error
	StateError
)

// StateMachine is a synchronous finite state machine. Events are handled on
// the caller's goroutine; a train actor owns exactly one machine.
type StateMachine struct {
	name         string
	states       map[string]State
	transitions  []*Transition
	currentState State
	initialState State
	context      *Context
	state        StateMachineState
	lastError    error
	observers    []StateMachineObserver
	mutex        sync.RWMutex
}

// NewStateMachine creates a new state machine with the given name
func NewStateMachine(name string) *StateMachine {
	return &StateMachine{
		name:        name,
		states:      make(map[string]State),
		transitions: make([]*Transition, 0),
		state:       StateStopped,
		observers:   make([]StateMachineObserver, 0),
	}
}

// Name returns the name of the state machine
func (sm *StateMachine) Name() string {
	return sm.name
}

// AddState adds a state to the state machine
func (sm *StateMachine) AddState(state State) *StateMachine {
	if state == nil {
		return sm
	}

	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.states[state.Name()] = state
	return sm
}

// GetState retrieves a state by name
func (sm *StateMachine) GetState(name string) State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.states[name]
}

// GetStates returns all states in the state machine
func (sm *StateMachine) GetStates() map[string]State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	result := make(map[string]State, len(sm.states))
	for k, v := range sm.states {
		result[k] = v
	}
	return result
}

// StateNames returns all state names in sorted order
func (sm *StateMachine) StateNames() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	names := make([]string, 0, len(sm.states))
	for name := range sm.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFinalStates returns the final states keyed by name
func (sm *StateMachine) GetFinalStates() map[string]State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	result := make(map[string]State)
	for k, v := range sm.states {
		if v.IsFinal() {
			result[k] = v
		}
	}
	return result
}

// SetInitialStateByName sets the initial state by name
func (sm *StateMachine) SetInitialStateByName(name string) *StateMachine {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if state, exists := sm.states[name]; exists {
		sm.initialState = state
	}
	return sm
}

// GetInitialState returns the initial state
func (sm *StateMachine) GetInitialState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.initialState
}

// AddTransition adds a transition between states
func (sm *StateMachine) AddTransition(from, to State, event string) *Transition {
	transition := NewTransition(from, to, event)

	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.transitions = append(sm.transitions, transition)

	return transition
}

// GetTransitions returns a copy of all transitions in declaration order
func (sm *StateMachine) GetTransitions() []*Transition {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	result := make([]*Transition, len(sm.transitions))
	copy(result, sm.transitions)
	return result
}

// AddObserver adds an observer to the state machine
func (sm *StateMachine) AddObserver(observer StateMachineObserver) {
	if observer == nil {
		return
	}

	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.observers = append(sm.observers, observer)
}

// Start enters the initial state
func (sm *StateMachine) Start(ctx context.Context) error {
	sm.mutex.Lock()

	if sm.state == StateRunning {
		sm.mutex.Unlock()
		return fmt.Errorf("state machine %s is already running", sm.name)
	}

	if sm.initialState == nil {
		sm.mutex.Unlock()
		return fmt.Errorf("no initial state set for state machine %s", sm.name)
	}

	if sm.context == nil {
		sm.context = NewContext(ctx, sm)
	} else if ctx != nil {
		sm.context.Context = ctx
	}

	sm.state = StateRunning
	sm.currentState = sm.initialState
	initial := sm.currentState
	smCtx := sm.context
	sm.mutex.Unlock()

	if err := initial.Enter(smCtx); err != nil {
		sm.fail(err)
		return err
	}

	sm.notifyStateEnter(initial)
	return nil
}

// CurrentState returns the current state
func (sm *StateMachine) CurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// CurrentStateName returns the name of the current state
func (sm *StateMachine) CurrentStateName() string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	if sm.currentState == nil {
		return ""
	}
	return sm.currentState.Name()
}

// IsStarted returns whether the state machine is running
func (sm *StateMachine) IsStarted() bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.state == StateRunning
}

// IsCompleted returns whether the state machine has reached a final state
func (sm *StateMachine) IsCompleted() bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.state == StateCompleted
}

// GetLastError returns the last error that occurred
func (sm *StateMachine) GetLastError() error {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.lastError
}

// Context returns the context of the state machine
func (sm *StateMachine) Context() *Context {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.context == nil {
		sm.context = NewContext(context.Background(), sm)
	}
	return sm.context
}

// HandleEvent processes an event synchronously. It returns an error matching
// utils.ErrInvalidTransition when no transition from the current state
// accepts the event.
func (sm *StateMachine) HandleEvent(ctx context.Context, event *Event) error {
	sm.mutex.Lock()
	if sm.state != StateRunning {
		state := sm.state
		sm.mutex.Unlock()
		return fmt.Errorf("state machine %s not running (state %d)", sm.name, state)
	}
	current := sm.currentState
	smCtx := sm.context
	if ctx != nil {
		smCtx.Context = ctx
	}
	smCtx.SetEvent(event)

	var selected *Transition
	for _, transition := range sm.transitions {
		if transition.From == current && transition.Event == event.Name {
			if transition.CanExecute(smCtx) {
				selected = transition
				break
			}
		}
	}
	sm.mutex.Unlock()

	if selected == nil {
		err := utils.NewTransitionError(sm.name, current.Name(), event.Name)
		sm.notifyError(err)
		return err
	}

	return sm.executeTransition(selected, event)
}

// executeTransition runs exit, transition action and entry in that order
func (sm *StateMachine) executeTransition(transition *Transition, event *Event) error {
	from := transition.From

	if err := from.Exit(sm.context); err != nil {
		sm.fail(err)
		return err
	}
	sm.notifyStateExit(from)

	if transition.Action != nil {
		if err := transition.Action(sm.context); err != nil {
			sm.fail(err)
			return err
		}
	}

	sm.mutex.Lock()
	sm.currentState = transition.To
	sm.mutex.Unlock()

	if err := transition.To.Enter(sm.context); err != nil {
		sm.fail(err)
		return err
	}

	sm.notifyStateEnter(transition.To)
	sm.notifyTransition(from, transition.To, event)
	sm.notifyEventProcessed(event)

	if transition.To.IsFinal() {
		sm.mutex.Lock()
		sm.state = StateCompleted
		sm.mutex.Unlock()
	}

	return nil
}

func (sm *StateMachine) fail(err error) {
	sm.mutex.Lock()
	sm.lastError = err
	sm.state = StateError
	sm.mutex.Unlock()
	sm.notifyError(err)
}

// Observer notification methods
func (sm *StateMachine) snapshotObservers() []StateMachineObserver {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	observers := make([]StateMachineObserver, len(sm.observers))
	copy(observers, sm.observers)
	return observers
}

func (sm *StateMachine) notifyStateEnter(state State) {
	for _, observer := range sm.snapshotObservers() {
		observer.OnStateEnter(sm, state)
	}
}

func (sm *StateMachine) notifyStateExit(state State) {
	for _, observer := range sm.snapshotObservers() {
		observer.OnStateExit(sm, state)
	}
}

func (sm *StateMachine) notifyTransition(from, to State, event *Event) {
	for _, observer := range sm.snapshotObservers() {
		observer.OnTransition(sm, from, to, event)
	}
}

func (sm *StateMachine) notifyEventProcessed(event *Event) {
	for _, observer := range sm.snapshotObservers() {
		observer.OnEventProcessed(sm, event)
	}
}

func (sm *StateMachine) notifyError(err error) {
	for _, observer := range sm.snapshotObservers() {
		observer.OnError(sm, err)
	}
}
