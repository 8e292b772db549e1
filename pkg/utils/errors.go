// Package utils provides the error types shared across the intersection engine
package utils

import (
	"fmt"
	"sort"
	"strings"
)

// Error codes
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUsage             = "USAGE"
	CodeSchedule          = "SCHEDULE"
	CodeConfig            = "CONFIG"
	CodeCollision         = "COLLISION"
)

// MavError is a coded error carrying optional state, event and detail context
type MavError struct {
	Code      string
	Message   string
	StateID   string
	EventType string
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface
func (e *MavError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.StateID != "" {
		parts = append(parts, fmt.Sprintf("state: %s", e.StateID))
	}

	if e.EventType != "" {
		parts = append(parts, fmt.Sprintf("event: %s", e.EventType))
	}

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		parts = append(parts, fmt.Sprintf("details: {%s}", strings.Join(details, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " - ")
}

// Unwrap returns the underlying cause
func (e *MavError) Unwrap() error {
	return e.Cause
}

// Is matches any MavError with the same code
func (e *MavError) Is(target error) bool {
	t, ok := target.(*MavError)
	return ok && t.Code == e.Code
}

// WithState adds state information to the error
func (e *MavError) WithState(stateID string) *MavError {
	e.StateID = stateID
	return e
}

// WithEvent adds event information to the error
func (e *MavError) WithEvent(eventType string) *MavError {
	e.EventType = eventType
	return e
}

// WithCause adds cause information to the error
func (e *MavError) WithCause(err error) *MavError {
	e.Cause = err
	return e
}

// WithDetail adds a detail to the error
func (e *MavError) WithDetail(key string, value interface{}) *MavError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Sentinel errors, matched by code with errors.Is
var (
	// ErrInvalidTransition is returned when a lifecycle event is not valid from the current state
	ErrInvalidTransition = &MavError{Code: CodeInvalidTransition, Message: "invalid transition from current state"}

	// ErrUsage is returned for bad command line arguments
	ErrUsage = &MavError{Code: CodeUsage, Message: "invalid usage"}

	// ErrSchedule is returned when a schedule cannot be loaded
	ErrSchedule = &MavError{Code: CodeSchedule, Message: "invalid schedule"}

	// ErrConfig is returned for invalid configuration
	ErrConfig = &MavError{Code: CodeConfig, Message: "invalid configuration"}

	// ErrCollision matches any CollisionFault
	ErrCollision = &MavError{Code: CodeCollision, Message: "intersection collision"}
)

// NewTransitionError creates an error for a rejected lifecycle event
func NewTransitionError(machine, fromState, event string) *MavError {
	return &MavError{
		Code:      CodeInvalidTransition,
		Message:   fmt.Sprintf("no transition from current state in machine %s", machine),
		StateID:   fromState,
		EventType: event,
	}
}

// UsageError reports bad or missing command line arguments
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Is matches ErrUsage
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

// NewUsageError creates a usage error
func NewUsageError(message string) *UsageError {
	return &UsageError{Message: message}
}

// CollisionFault reports two trains occupying the intersection at once. It is
// a safety violation and is never retried.
type CollisionFault struct {
	Train    uint32
	Occupant uint32
	Time     int64
}

func (e *CollisionFault) Error() string {
	return fmt.Sprintf("CRASH: Train %d collided with train %d", e.Train, e.Occupant)
}

// Is matches ErrCollision
func (e *CollisionFault) Is(target error) bool {
	return target == ErrCollision
}

// NewCollisionFault creates a collision fault
func NewCollisionFault(train, occupant uint32, now int64) *CollisionFault {
	return &CollisionFault{Train: train, Occupant: occupant, Time: now}
}

// ScheduleError reports a malformed schedule file
type ScheduleError struct {
	Path  string
	Line  int
	Cause error
}

func (e *ScheduleError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s:%d: %v", CodeSchedule, e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", CodeSchedule, e.Path, e.Cause)
}

// Unwrap returns the underlying cause
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSchedule
func (e *ScheduleError) Is(target error) bool {
	return target == ErrSchedule
}

// NewScheduleError creates a schedule error; line is 0 when unknown
func NewScheduleError(path string, line int, cause error) *ScheduleError {
	return &ScheduleError{Path: path, Line: line, Cause: cause}
}

// ConfigError reports invalid configuration
type ConfigError struct {
	Component string
	Issue     string
	Cause     error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Component, e.Issue, e.Cause)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

// Unwrap returns the underlying cause
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is matches ErrConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a configuration error
func NewConfigError(component, issue string) *ConfigError {
	return &ConfigError{Component: component, Issue: issue}
}

// WithCause sets the underlying cause
func (e *ConfigError) WithCause(cause error) *ConfigError {
	e.Cause = cause
	return e
}
