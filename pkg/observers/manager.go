// Package observers provides observers for monitoring train lifecycles and
// intersection runs
package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// Manager fans notifications out to every registered observer. A panicking
// observer is reported to the others through OnFault and never reaches the
// caller.
type Manager struct {
	mutex        sync.RWMutex
	machines     []core.StateMachineObserver
	intersection []core.IntersectionObserver
}

// NewManager creates an empty observer manager
func NewManager() *Manager {
	return &Manager{
		machines:     make([]core.StateMachineObserver, 0),
		intersection: make([]core.IntersectionObserver, 0),
	}
}

// Add registers observer for every interface it implements. It returns false
// if observer implements neither.
func (m *Manager) Add(observer interface{}) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	added := false
	if o, ok := observer.(core.StateMachineObserver); ok {
		m.machines = append(m.machines, o)
		added = true
	}
	if o, ok := observer.(core.IntersectionObserver); ok {
		m.intersection = append(m.intersection, o)
		added = true
	}
	return added
}

// Remove unregisters observer
func (m *Manager) Remove(observer interface{}) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, o := range m.machines {
		if o == observer {
			m.machines = append(m.machines[:i], m.machines[i+1:]...)
			break
		}
	}
	for i, o := range m.intersection {
		if o == observer {
			m.intersection = append(m.intersection[:i], m.intersection[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct registrations
func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.machines) + len(m.intersection)
}

func (m *Manager) snapshotMachines() []core.StateMachineObserver {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	observers := make([]core.StateMachineObserver, len(m.machines))
	copy(observers, m.machines)
	return observers
}

func (m *Manager) snapshotIntersection() []core.IntersectionObserver {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	observers := make([]core.IntersectionObserver, len(m.intersection))
	copy(observers, m.intersection)
	return observers
}

// guard runs fn and turns a panic into an OnFault notification for the
// intersection observers other than source
func (m *Manager) guard(callback string, source interface{}, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("observer panic in %s: %v", callback, r)
			for _, o := range m.snapshotIntersection() {
				if interface{}(o) == source {
					continue
				}
				func() {
					defer func() { recover() }()
					o.OnFault(err)
				}()
			}
		}
	}()
	fn()
}

// OnStateEnter implements core.StateMachineObserver
func (m *Manager) OnStateEnter(sm *core.StateMachine, state core.State) {
	for _, o := range m.snapshotMachines() {
		o := o
		m.guard("OnStateEnter", o, func() { o.OnStateEnter(sm, state) })
	}
}

// OnStateExit implements core.StateMachineObserver
func (m *Manager) OnStateExit(sm *core.StateMachine, state core.State) {
	for _, o := range m.snapshotMachines() {
		o := o
		m.guard("OnStateExit", o, func() { o.OnStateExit(sm, state) })
	}
}

// OnTransition implements core.StateMachineObserver
func (m *Manager) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	for _, o := range m.snapshotMachines() {
		o := o
		m.guard("OnTransition", o, func() { o.OnTransition(sm, from, to, event) })
	}
}

// OnEventProcessed implements core.StateMachineObserver
func (m *Manager) OnEventProcessed(sm *core.StateMachine, event *core.Event) {
	for _, o := range m.snapshotMachines() {
		o := o
		m.guard("OnEventProcessed", o, func() { o.OnEventProcessed(sm, event) })
	}
}

// OnError implements core.StateMachineObserver
func (m *Manager) OnError(sm *core.StateMachine, err error) {
	for _, o := range m.snapshotMachines() {
		o := o
		m.guard("OnError", o, func() { o.OnError(sm, err) })
	}
}

// OnRunStarted implements core.IntersectionObserver
func (m *Manager) OnRunStarted(runID string) {
	for _, o := range m.snapshotIntersection() {
		o := o
		m.guard("OnRunStarted", o, func() { o.OnRunStarted(runID) })
	}
}

// OnRunStopped implements core.IntersectionObserver
func (m *Manager) OnRunStopped(runID string, now int64) {
	for _, o := range m.snapshotIntersection() {
		o := o
		m.guard("OnRunStopped", o, func() { o.OnRunStopped(runID, now) })
	}
}

// OnGrant implements core.IntersectionObserver
func (m *Manager) OnGrant(grant core.Grant) {
	for _, o := range m.snapshotIntersection() {
		o := o
		m.guard("OnGrant", o, func() { o.OnGrant(grant) })
	}
}

// OnFault implements core.IntersectionObserver
func (m *Manager) OnFault(err error) {
	for _, o := range m.snapshotIntersection() {
		o := o
		func() {
			defer func() { recover() }()
			o.OnFault(err)
		}()
	}
}
