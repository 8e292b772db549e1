package observers

import (
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// TransitionRecord captures one lifecycle transition
type TransitionRecord struct {
	Machine string
	From    string
	To      string
	Event   string
	Passage core.Passage
}

// RecordingObserver captures everything it sees. It is meant for tests and
// for tools that post-process a run.
type RecordingObserver struct {
	mutex       sync.RWMutex
	Transitions []TransitionRecord
	Grants      []core.Grant
	Errors      []error
	Faults      []error
	Runs        []string
	StoppedAt   int64
}

// NewRecordingObserver creates an empty recording observer
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{
		Transitions: make([]TransitionRecord, 0),
		Grants:      make([]core.Grant, 0),
	}
}

// OnTransition records the transition
func (o *RecordingObserver) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	rec := TransitionRecord{Machine: sm.Name()}
	if from != nil {
		rec.From = from.Name()
	}
	if to != nil {
		rec.To = to.Name()
	}
	if event != nil {
		rec.Event = event.Name
		rec.Passage, _ = event.Passage()
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Transitions = append(o.Transitions, rec)
}

func (o *RecordingObserver) OnStateEnter(*core.StateMachine, core.State) {}

func (o *RecordingObserver) OnStateExit(*core.StateMachine, core.State) {}

func (o *RecordingObserver) OnEventProcessed(*core.StateMachine, *core.Event) {}

// OnError records lifecycle errors
func (o *RecordingObserver) OnError(sm *core.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// OnRunStarted records the run id
func (o *RecordingObserver) OnRunStarted(runID string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Runs = append(o.Runs, runID)
}

// OnRunStopped records the stop time
func (o *RecordingObserver) OnRunStopped(runID string, now int64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.StoppedAt = now
}

// OnGrant records the grant
func (o *RecordingObserver) OnGrant(grant core.Grant) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Grants = append(o.Grants, grant)
}

// OnFault records the fault
func (o *RecordingObserver) OnFault(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Faults = append(o.Faults, err)
}

// TransitionsTo returns the recorded transitions into state, in order
func (o *RecordingObserver) TransitionsTo(state string) []TransitionRecord {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var out []TransitionRecord
	for _, t := range o.Transitions {
		if t.To == state {
			out = append(out, t)
		}
	}
	return out
}

// GrantsSnapshot returns a copy of the recorded grants
func (o *RecordingObserver) GrantsSnapshot() []core.Grant {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	out := make([]core.Grant, len(o.Grants))
	copy(out, o.Grants)
	return out
}
