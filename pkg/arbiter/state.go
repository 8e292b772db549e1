package arbiter

import (
	"context"
	"errors"
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// Clock is the simulated time source the arbiter reads and waits on
type Clock interface {
	Now() int64
	WaitUntil(ctx context.Context, t int64) error
}

// ErrNotGranted is returned when a gate opens without a grant behind it
var ErrNotGranted = errors.New("gate opened without a grant")

// Gate is one waiting train's place in its direction queue
type Gate struct {
	train   *core.Train
	ch      chan struct{}
	granted bool
}

// Train returns the train waiting at this gate
func (g *Gate) Train() *core.Train {
	return g.train
}

// Snapshot is a consistent copy of the shared counters
type Snapshot struct {
	Occupant   uint32
	Reserved   uint32
	Waiting    [core.NumDirections]int
	Starvation [core.NumDirections]int
	Previous   core.Direction
}

// Demand returns the demand vector of the snapshot
func (s Snapshot) Demand() core.DemandVector {
	return core.DemandFromCounts(s.Waiting)
}

// Pending returns the number of trains that have arrived but not departed
func (s Snapshot) Pending() int {
	n := 0
	for _, w := range s.Waiting {
		n += w
	}
	return n
}

// Option configures a State
type Option func(*State)

// WithThreshold sets the starvation override threshold
func WithThreshold(threshold int) Option {
	return func(s *State) {
		s.threshold = threshold
	}
}

// WithCrossingTicks sets how many simulated ticks a crossing holds the
// intersection
func WithCrossingTicks(ticks int) Option {
	return func(s *State) {
		s.crossingTicks = ticks
	}
}

// WithObserver registers a receiver for grant notifications
func WithObserver(observer core.IntersectionObserver) Option {
	return func(s *State) {
		s.observer = observer
	}
}

// State is the single owner of the intersection: occupancy, wait counts,
// starvation counters, the previous direction and the per-direction gate
// queues. All of it is guarded by mu. The intersection lock is separate and
// is held by a train from acquisition until departure.
type State struct {
	mu      sync.Mutex
	changed chan struct{}

	occupant   uint32
	dueAt      int64
	reserved   *Gate
	waiting    [core.NumDirections]int
	starvation [core.NumDirections]int
	previous   core.Direction
	queues     [core.NumDirections][]*Gate

	intersection sync.Mutex

	clock         Clock
	threshold     int
	crossingTicks int
	observer      core.IntersectionObserver
}

// New creates an empty intersection. The previous direction starts at North.
func New(clock Clock, opts ...Option) *State {
	s := &State{
		changed:       make(chan struct{}),
		occupant:      core.IntersectionEmpty,
		previous:      core.North,
		clock:         clock,
		threshold:     DefaultStarvationThreshold,
		crossingTicks: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.crossingTicks < 1 {
		s.crossingTicks = 1
	}
	return s
}

// Enqueue records a new waiter for the train's direction and returns the
// gate it must wait on
func (s *State) Enqueue(train *core.Train) *Gate {
	g := &Gate{train: train, ch: make(chan struct{})}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.waiting[train.Direction]++
	s.queues[train.Direction] = append(s.queues[train.Direction], g)
	s.notifyLocked()
	return g
}

// Mediate runs the decision table once. It does nothing while the
// intersection is occupied or a granted train has not yet entered. The
// returned bool reports whether a train was woken.
func (s *State) Mediate() (core.Grant, bool) {
	s.mu.Lock()

	if s.occupant != core.IntersectionEmpty || s.reserved != nil {
		s.mu.Unlock()
		return core.Grant{}, false
	}

	demand := core.DemandFromCounts(s.waiting)
	decision, ok := Decide(demand, s.starvation, s.threshold)
	if !ok {
		s.mu.Unlock()
		return core.Grant{}, false
	}

	grant := core.Grant{
		Time:      s.clock.Now(),
		Direction: decision.Direction,
		Rule:      decision.Rule,
		Demand:    demand,
	}

	queue := s.queues[decision.Direction]
	if len(queue) == 0 {
		grant.Lost = true
	} else {
		g := queue[0]
		queue[0] = nil
		s.queues[decision.Direction] = queue[1:]
		g.granted = true
		s.reserved = g
		grant.TrainID = g.train.ID
		close(g.ch)
	}
	s.notifyLocked()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.OnGrant(grant)
	}
	return grant, !grant.Lost
}

// Await blocks until the gate is granted or ctx is done
func (s *State) Await(ctx context.Context, g *Gate) error {
	select {
	case <-g.ch:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	granted := g.granted
	s.mu.Unlock()

	if !granted {
		return ErrNotGranted
	}
	return nil
}

// Acquire takes the intersection lock. It is released by Depart, or by
// Cross when the crossing cannot complete.
func (s *State) Acquire() {
	s.intersection.Lock()
}

// AwaitAdmission blocks until the outstanding grant, if any, has entered
func (s *State) AwaitAdmission(ctx context.Context) error {
	return s.await(ctx, func() bool {
		return s.reserved == nil
	})
}

// AwaitDeparture blocks until no crossing is due at or before now
func (s *State) AwaitDeparture(ctx context.Context, now int64) error {
	return s.await(ctx, func() bool {
		return s.occupant == core.IntersectionEmpty || s.dueAt > now
	})
}

// Idle reports whether no train is waiting, granted or crossing
func (s *State) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupant != core.IntersectionEmpty || s.reserved != nil {
		return false
	}
	for _, n := range s.waiting {
		if n > 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the shared counters
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Occupant:   s.occupant,
		Waiting:    s.waiting,
		Starvation: s.starvation,
		Previous:   s.previous,
	}
	if s.reserved != nil {
		snap.Reserved = s.reserved.train.ID
	}
	return snap
}

func (s *State) await(ctx context.Context, ready func() bool) error {
	for {
		s.mu.Lock()
		if ready() {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// notifyLocked wakes every await loop; mu must be held
func (s *State) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
