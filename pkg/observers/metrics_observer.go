package observers

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/anggasct/mavmon/pkg/core"
)

// MetricsObserver collects crossing, grant and wait statistics for a run
type MetricsObserver struct {
	arrivals    [core.NumDirections]int
	crossings   [core.NumDirections]int
	maxWait     [core.NumDirections]int64
	totalWait   [core.NumDirections]int64
	ruleCounts  map[core.GrantRule]int
	lostGrants  int
	errorCount  int
	faultCount  int
	arrivedAt   map[uint32]int64
	stateVisits map[string]int
	mutex       sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		ruleCounts:  make(map[core.GrantRule]int),
		arrivedAt:   make(map[uint32]int64),
		stateVisits: make(map[string]int),
	}
}

// OnStateEnter records state entry metrics
func (o *MetricsObserver) OnStateEnter(sm *core.StateMachine, state core.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.stateVisits[state.Name()]++
}

// OnStateExit implements core.StateMachineObserver
func (o *MetricsObserver) OnStateExit(sm *core.StateMachine, state core.State) {}

// OnTransition records arrivals, crossings and waits
func (o *MetricsObserver) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	if to == nil || event == nil {
		return
	}
	p, ok := event.Passage()
	if !ok {
		return
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()

	switch to.Name() {
	case core.StateWaiting:
		o.arrivals[p.Direction]++
		o.arrivedAt[p.TrainID] = p.Time
	case core.StateCrossing:
		o.crossings[p.Direction]++
		if at, ok := o.arrivedAt[p.TrainID]; ok {
			wait := p.Time - at
			o.totalWait[p.Direction] += wait
			if wait > o.maxWait[p.Direction] {
				o.maxWait[p.Direction] = wait
			}
			delete(o.arrivedAt, p.TrainID)
		}
	}
}

// OnEventProcessed implements core.StateMachineObserver
func (o *MetricsObserver) OnEventProcessed(sm *core.StateMachine, event *core.Event) {}

// OnError records error metrics
func (o *MetricsObserver) OnError(sm *core.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// OnRunStarted implements core.IntersectionObserver
func (o *MetricsObserver) OnRunStarted(runID string) {}

// OnRunStopped implements core.IntersectionObserver
func (o *MetricsObserver) OnRunStopped(runID string, now int64) {}

// OnGrant records which rule produced each grant
func (o *MetricsObserver) OnGrant(grant core.Grant) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if grant.Lost {
		o.lostGrants++
		return
	}
	o.ruleCounts[grant.Rule]++
}

// OnFault records run faults
func (o *MetricsObserver) OnFault(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.faultCount++
}

// GetArrivals returns arrivals per direction
func (o *MetricsObserver) GetArrivals() [core.NumDirections]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.arrivals
}

// GetCrossings returns crossings per direction
func (o *MetricsObserver) GetCrossings() [core.NumDirections]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.crossings
}

// GetMaxWait returns the longest arrival-to-entry wait per direction
func (o *MetricsObserver) GetMaxWait() [core.NumDirections]int64 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.maxWait
}

// GetRuleCounts returns the number of grants per mediator rule
func (o *MetricsObserver) GetRuleCounts() map[core.GrantRule]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[core.GrantRule]int)
	for rule, count := range o.ruleCounts {
		result[rule] = count
	}
	return result
}

// GetStateVisitCounts returns the number of times each state was visited
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]int)
	for state, count := range o.stateVisits {
		result[state] = count
	}
	return result
}

// GetLostGrants returns how many grants found no waiter
func (o *MetricsObserver) GetLostGrants() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.lostGrants
}

// GetErrorCount returns the number of lifecycle errors and run faults
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount + o.faultCount
}

// WriteSummary prints a per-direction table followed by rule counts
func (o *MetricsObserver) WriteSummary(w io.Writer) error {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tARRIVED\tCROSSED\tMAX WAIT\tAVG WAIT")
	for _, d := range core.Directions {
		avg := 0.0
		if o.crossings[d] > 0 {
			avg = float64(o.totalWait[d]) / float64(o.crossings[d])
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\n", d, o.arrivals[d], o.crossings[d], o.maxWait[d], avg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	rules := []core.GrantRule{
		core.RuleSingle, core.RuleRightAngle, core.RuleOpposite,
		core.RuleThreeWay, core.RuleAllFour, core.RuleStarvation,
	}
	for _, rule := range rules {
		if n := o.ruleCounts[rule]; n > 0 {
			fmt.Fprintf(w, "%s: %d\n", rule, n)
		}
	}
	if o.lostGrants > 0 {
		fmt.Fprintf(w, "lost grants: %d\n", o.lostGrants)
	}
	_, err := fmt.Fprintf(w, "errors: %d\n", o.errorCount+o.faultCount)
	return err
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.arrivals = [core.NumDirections]int{}
	o.crossings = [core.NumDirections]int{}
	o.maxWait = [core.NumDirections]int64{}
	o.totalWait = [core.NumDirections]int64{}
	o.ruleCounts = make(map[core.GrantRule]int)
	o.lostGrants = 0
	o.errorCount = 0
	o.faultCount = 0
	o.arrivedAt = make(map[uint32]int64)
	o.stateVisits = make(map[string]int)
}
