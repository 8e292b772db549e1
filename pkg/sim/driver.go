// Package sim drives simulated time: it dispatches arrivals, asks the arbiter
// for a grant every tick and runs one actor goroutine per train.
package sim

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/anggasct/mavmon/pkg/arbiter"
	"github.com/anggasct/mavmon/pkg/config"
	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/observers"
)

// Source is the schedule as the driver sees it
type Source interface {
	IsEmpty() bool
	Front() core.ScheduleEvent
	Pop()
}

// Option configures a Driver
type Option func(*Driver)

// WithPacer replaces the real-time pacer
func WithPacer(p Pacer) Option {
	return func(d *Driver) {
		d.pacer = p
	}
}

// WithObserver registers an observer for lifecycle and run notifications
func WithObserver(observer interface{}) Option {
	return func(d *Driver) {
		d.observers.Add(observer)
	}
}

// WithLogger sets the driver's logger
func WithLogger(logger *log.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithFaultHandler installs a function called with the first fault of the
// run, before the run is cancelled. A handler may end the process.
func WithFaultHandler(handler func(error)) Option {
	return func(d *Driver) {
		d.faultHandler = handler
	}
}

// Driver owns simulated time and mediation for one run
type Driver struct {
	runID      string
	dayLength  int64
	clock      *Clock
	state      *arbiter.State
	source     Source
	dispatcher *Dispatcher
	pacer      Pacer
	observers  *observers.Manager
	logger     *log.Logger

	faultHandler func(error)

	wg         sync.WaitGroup
	mutex      sync.Mutex
	fault      error
	cancel     context.CancelFunc
	dispatched int
}

// NewDriver creates a driver over source
func NewDriver(source Source, cfg config.Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		runID:     uuid.NewString(),
		dayLength: cfg.DayLength,
		clock:     NewClock(cfg.TickRate),
		source:    source,
		pacer:     RealTimePacer{TickRate: cfg.TickRate},
		observers: observers.NewManager(),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.state = arbiter.New(d.clock,
		arbiter.WithThreshold(cfg.StarvationThreshold),
		arbiter.WithCrossingTicks(cfg.CrossingTicks),
		arbiter.WithObserver(d.observers),
	)
	d.dispatcher = NewDispatcher(d.state, d.clock, d.observers, d.spawn)
	return d, nil
}

// RunID identifies this run in logs and observer notifications
func (d *Driver) RunID() string {
	return d.runID
}

// Clock returns the simulated clock
func (d *Driver) Clock() *Clock {
	return d.clock
}

// State returns the intersection state
func (d *Driver) State() *arbiter.State {
	return d.state
}

// Fault returns the first fault of the run, if any
func (d *Driver) Fault() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.fault
}

// Dispatched returns the number of arrivals dispatched so far
func (d *Driver) Dispatched() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.dispatched
}

// Process runs one tick and reports whether more work remains
func (d *Driver) Process(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	now := d.clock.Now()
	if d.source.IsEmpty() && d.state.Idle() {
		return false
	}
	if now > d.dayLength {
		return false
	}

	if _, woke := d.state.Mediate(); woke {
		if err := d.state.AwaitAdmission(ctx); err != nil {
			return false
		}
	}

	for !d.source.IsEmpty() && d.source.Front().ArrivalTime <= now {
		ev := d.source.Front()
		d.logger.Debug("dispatch", "time", now, "train", ev.TrainID, "direction", ev.Direction)
		if err := d.dispatcher.Arrive(ctx, ev); err != nil {
			d.fail(err)
			return false
		}
		d.source.Pop()

		d.mutex.Lock()
		d.dispatched++
		d.mutex.Unlock()
	}

	d.pacer.Pause(ctx, 1)
	now = d.clock.Advance()

	if err := d.state.AwaitDeparture(ctx, now); err != nil {
		return false
	}
	return true
}

// Run processes ticks until the schedule is exhausted, the day ends, a fault
// occurs or ctx is cancelled. Trains still waiting when the run ends are
// abandoned. Run returns the fault, or ctx.Err() on cancellation.
func (d *Driver) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mutex.Lock()
	d.cancel = cancel
	d.mutex.Unlock()

	d.observers.OnRunStarted(d.runID)

	for d.Process(runCtx) {
	}

	cancel()
	d.wg.Wait()

	now := d.clock.Now()
	d.logger.Info("run finished", "run", d.runID, "time", now,
		"dispatched", d.Dispatched(), "abandoned", d.state.Snapshot().Pending())
	d.observers.OnRunStopped(d.runID, now)

	if err := d.Fault(); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Driver) spawn(ctx context.Context, gate *arbiter.Gate) {
	a := &actor{
		gate:   gate,
		state:  d.state,
		pacer:  d.pacer,
		onFail: d.fail,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		a.run(ctx)
	}()
}

// fail records the first fault, reports it and cancels the run
func (d *Driver) fail(err error) {
	d.mutex.Lock()
	if d.fault != nil {
		d.mutex.Unlock()
		return
	}
	d.fault = err
	cancel := d.cancel
	handler := d.faultHandler
	d.mutex.Unlock()

	d.logger.Error("run fault", "run", d.runID, "err", err)
	d.observers.OnFault(err)

	if handler != nil {
		handler(err)
	}
	if cancel != nil {
		cancel()
	}
}
