// Package states provides the state implementations used by lifecycle machines
package states

import (
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// BaseState provides common functionality for all state types
type BaseState struct {
	name        string
	entryAction core.Action
	exitAction  core.Action
	isActive    bool
	mutex       sync.RWMutex
}

// NewBaseState creates a new base state
func NewBaseState(name string) *BaseState {
	return &BaseState{
		name: name,
	}
}

// Name returns the state name
func (s *BaseState) Name() string {
	return s.name
}

// IsFinal returns false for base state, will be overridden by final states
func (s *BaseState) IsFinal() bool {
	return false
}

// AddEntryAction adds an action to execute when entering the state
func (s *BaseState) AddEntryAction(action core.Action) *BaseState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entryAction = chain(s.entryAction, action)
	return s
}

// AddExitAction adds an action to execute when exiting the state
func (s *BaseState) AddExitAction(action core.Action) *BaseState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.exitAction = chain(s.exitAction, action)
	return s
}

func chain(first, next core.Action) core.Action {
	if first == nil {
		return next
	}
	return func(ctx *core.Context) error {
		if err := first(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}

// Enter handles entry into the state
func (s *BaseState) Enter(ctx *core.Context) error {
	s.mutex.Lock()
	s.isActive = true
	action := s.entryAction
	s.mutex.Unlock()

	if action != nil {
		return action(ctx)
	}
	return nil
}

// Exit handles exit from the state
func (s *BaseState) Exit(ctx *core.Context) error {
	s.mutex.Lock()
	s.isActive = false
	action := s.exitAction
	s.mutex.Unlock()

	if action != nil {
		return action(ctx)
	}
	return nil
}

// IsActive returns whether the state is currently active
func (s *BaseState) IsActive() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isActive
}

// SimpleState represents a basic state with no internal structure
type SimpleState struct {
	*BaseState
}

// NewSimpleState creates a new simple state
func NewSimpleState(name string) *SimpleState {
	return &SimpleState{
		BaseState: NewBaseState(name),
	}
}

// FinalState represents a terminal state
type FinalState struct {
	*SimpleState
}

// NewFinalState creates a new final state
func NewFinalState(name string) *FinalState {
	return &FinalState{
		SimpleState: NewSimpleState(name),
	}
}

// IsFinal returns true for final state
func (s *FinalState) IsFinal() bool {
	return true
}
