package builders

import (
	"errors"
	"fmt"

	"github.com/anggasct/mavmon/pkg/core"
)

// ValidationBuilder checks a machine's static structure before it is used
type ValidationBuilder struct {
	sm *core.StateMachine
}

// NewValidationBuilder creates a new validation builder
func NewValidationBuilder(sm *core.StateMachine) *ValidationBuilder {
	return &ValidationBuilder{sm: sm}
}

// ValidateStateMachine requires an initial state, at least one final state,
// and every final state reachable from the initial state
func (v *ValidationBuilder) ValidateStateMachine() error {
	initial := v.sm.GetInitialState()
	if initial == nil {
		return fmt.Errorf("state machine '%s' has no initial state", v.sm.Name())
	}

	finals := v.sm.GetFinalStates()
	if len(finals) == 0 {
		return fmt.Errorf("state machine '%s' has no final state", v.sm.Name())
	}

	reachable := v.reachableFrom(initial)

	var errs []error
	for name := range finals {
		if !reachable[name] {
			errs = append(errs, fmt.Errorf("final state '%s' is unreachable", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("state machine '%s' is invalid: %w", v.sm.Name(), errors.Join(errs...))
	}

	return nil
}

func (v *ValidationBuilder) reachableFrom(start core.State) map[string]bool {
	edges := make(map[string][]string)
	for _, t := range v.sm.GetTransitions() {
		edges[t.From.Name()] = append(edges[t.From.Name()], t.To.Name())
	}

	seen := map[string]bool{start.Name(): true}
	queue := []string{start.Name()}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, next := range edges[name] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
