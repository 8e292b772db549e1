// Package mavmon simulates a single-lane intersection shared by trains
// arriving from four directions. One driver owns simulated time and decides
// which direction may cross next; every arriving train runs as its own
// goroutine that waits for a grant, crosses alone and departs.
package mavmon

import (
	"context"
	"io"

	"github.com/anggasct/mavmon/pkg/arbiter"
	"github.com/anggasct/mavmon/pkg/builders"
	"github.com/anggasct/mavmon/pkg/config"
	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/observers"
	"github.com/anggasct/mavmon/pkg/schedule"
	"github.com/anggasct/mavmon/pkg/sim"
	"github.com/anggasct/mavmon/pkg/utils"
)

// Core types
type (
	// Direction is one of the four approaches
	Direction = core.Direction

	// DemandVector is the set of directions with waiting trains
	DemandVector = core.DemandVector

	// ScheduleEvent is one scheduled arrival
	ScheduleEvent = core.ScheduleEvent

	// Train is a single MAV and its lifecycle
	Train = core.Train

	// Grant records one mediator decision
	Grant = core.Grant

	// GrantRule names the rule behind a grant
	GrantRule = core.GrantRule

	// StateMachine is the train lifecycle engine
	StateMachine = core.StateMachine

	// StateMachineObserver receives lifecycle notifications
	StateMachineObserver = core.StateMachineObserver

	// IntersectionObserver receives run notifications
	IntersectionObserver = core.IntersectionObserver
)

// Run types
type (
	// Config holds run settings
	Config = config.Config

	// Schedule is an ordered set of arrivals
	Schedule = schedule.Schedule

	// Driver runs one simulated day
	Driver = sim.Driver

	// Option configures a Driver
	Option = sim.Option

	// Pacer maps simulated ticks to real delay
	Pacer = sim.Pacer

	// Decision is the outcome of one mediator evaluation
	Decision = arbiter.Decision
)

// Error types
type (
	// CollisionFault reports two trains in the intersection at once
	CollisionFault = utils.CollisionFault

	// UsageError reports bad command line arguments
	UsageError = utils.UsageError

	// ScheduleError reports a malformed schedule file
	ScheduleError = utils.ScheduleError

	// ConfigError reports invalid configuration
	ConfigError = utils.ConfigError
)

// Directions
const (
	North = core.North
	East  = core.East
	South = core.South
	West  = core.West
)

// Sentinel errors for errors.Is
var (
	ErrCollision         = utils.ErrCollision
	ErrUsage             = utils.ErrUsage
	ErrSchedule          = utils.ErrSchedule
	ErrConfig            = utils.ErrConfig
	ErrInvalidTransition = utils.ErrInvalidTransition
)

// Driver options
var (
	WithPacer        = sim.WithPacer
	WithObserver     = sim.WithObserver
	WithLogger       = sim.WithLogger
	WithFaultHandler = sim.WithFaultHandler
)

// DefaultConfig returns the settings of a plain run
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// LoadSchedule reads a schedule file
func LoadSchedule(path string) (*Schedule, error) {
	return schedule.Load(path)
}

// NewTrainLifecycle builds an unstarted train lifecycle machine
func NewTrainLifecycle(name string, observers ...StateMachineObserver) (*StateMachine, error) {
	return builders.NewTrainLifecycle(name, observers...)
}

// Decide evaluates the mediator decision table
func Decide(demand DemandVector, starvation [core.NumDirections]int, threshold int) (Decision, bool) {
	return arbiter.Decide(demand, starvation, threshold)
}

// NoPacer runs without real delay
func NoPacer() Pacer {
	return sim.NoPacer{}
}

// NewDriver creates a driver over a loaded schedule
func NewDriver(sched *Schedule, cfg Config, opts ...Option) (*Driver, error) {
	return sim.NewDriver(sched, cfg, opts...)
}

// Run loads the schedule at schedulePath and simulates one day, printing
// arrival, entry and departure lines to stdout. A collision ends the run and
// is returned as a *CollisionFault.
func Run(ctx context.Context, cfg Config, schedulePath string, stdout io.Writer, opts ...Option) error {
	sched, err := schedule.Load(schedulePath)
	if err != nil {
		return err
	}

	all := append([]Option{sim.WithObserver(observers.NewConsoleObserver(stdout))}, opts...)
	driver, err := sim.NewDriver(sched, cfg, all...)
	if err != nil {
		return err
	}
	return driver.Run(ctx)
}
