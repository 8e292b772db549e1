package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// ValidationObserver checks safety and fairness properties while a run is in
// progress: one train in the intersection at a time, departures never
// outnumber arrivals, lifecycle steps follow the allowed transitions and no
// direction holds the intersection longer than the starvation bound while
// another waits.
type ValidationObserver struct {
	threshold          int
	allowedTransitions map[string]map[string]bool
	occupant           uint32
	arrivals           [core.NumDirections]int
	departures         [core.NumDirections]int
	runDirection       core.Direction
	runLength          int
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates a validation observer for the train
// lifecycle with the given starvation threshold
func NewValidationObserver(threshold int) *ValidationObserver {
	o := &ValidationObserver{
		threshold:          threshold,
		allowedTransitions: make(map[string]map[string]bool),
		violations:         make([]string, 0),
	}
	o.AddAllowedTransition(core.StateScheduled, core.StateWaiting)
	o.AddAllowedTransition(core.StateWaiting, core.StateCrossing)
	o.AddAllowedTransition(core.StateCrossing, core.StateDeparted)
	return o
}

// AddAllowedTransition adds an allowed transition
func (o *ValidationObserver) AddAllowedTransition(from, to string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[string]bool)
	}

	o.allowedTransitions[from][to] = true
}

func (o *ValidationObserver) violate(format string, args ...interface{}) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnStateEnter implements core.StateMachineObserver
func (o *ValidationObserver) OnStateEnter(sm *core.StateMachine, state core.State) {}

// OnStateExit implements core.StateMachineObserver
func (o *ValidationObserver) OnStateExit(sm *core.StateMachine, state core.State) {}

// OnTransition validates transitions and intersection occupancy
func (o *ValidationObserver) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	if from == nil || to == nil {
		return
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()

	if allowed, exists := o.allowedTransitions[from.Name()]; exists && !allowed[to.Name()] {
		o.violate("invalid transition from '%s' to '%s' on event '%s'", from.Name(), to.Name(), event.Name)
	}

	p, ok := event.Passage()
	if !ok {
		return
	}

	switch to.Name() {
	case core.StateWaiting:
		o.arrivals[p.Direction]++
	case core.StateCrossing:
		if o.occupant != core.IntersectionEmpty {
			o.violate("time %d: train %d entered while train %d was crossing", p.Time, p.TrainID, o.occupant)
		}
		o.occupant = p.TrainID
	case core.StateDeparted:
		if o.occupant != p.TrainID {
			o.violate("time %d: train %d left but occupant was %d", p.Time, p.TrainID, o.occupant)
		}
		o.occupant = core.IntersectionEmpty
		o.departures[p.Direction]++
		if o.departures[p.Direction] > o.arrivals[p.Direction] {
			o.violate("time %d: %s departures exceed arrivals", p.Time, p.Direction)
		}
	}
}

// OnEventProcessed implements core.StateMachineObserver
func (o *ValidationObserver) OnEventProcessed(sm *core.StateMachine, event *core.Event) {}

// OnError records lifecycle errors
func (o *ValidationObserver) OnError(sm *core.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violate("error occurred: %v", err)
}

// OnRunStarted implements core.IntersectionObserver
func (o *ValidationObserver) OnRunStarted(runID string) {}

// OnRunStopped implements core.IntersectionObserver
func (o *ValidationObserver) OnRunStopped(runID string, now int64) {}

// OnGrant checks the consecutive-grant bound under contention
func (o *ValidationObserver) OnGrant(grant core.Grant) {
	if grant.Lost {
		return
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.runLength > 0 && grant.Direction == o.runDirection {
		o.runLength++
	} else {
		o.runDirection = grant.Direction
		o.runLength = 1
	}

	contended := grant.Demand.Without(grant.Direction) != 0
	if contended && o.runLength > o.threshold+1 {
		o.violate("time %d: %s granted %d times in a row while %s waited",
			grant.Time, grant.Direction, o.runLength, grant.Demand.Without(grant.Direction))
	}
}

// OnFault records run faults
func (o *ValidationObserver) OnFault(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violate("fault: %v", err)
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.occupant = core.IntersectionEmpty
	o.arrivals = [core.NumDirections]int{}
	o.departures = [core.NumDirections]int{}
	o.runLength = 0
	o.violations = make([]string, 0)
}
