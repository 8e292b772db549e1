package observers

import (
	"github.com/charmbracelet/log"

	"github.com/anggasct/mavmon/pkg/core"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// LevelFor maps a charm log level onto the observer's verbosity
func LevelFor(level log.Level) LogLevel {
	switch {
	case level <= log.DebugLevel:
		return LogDebug
	case level <= log.InfoLevel:
		return LogInfo
	case level <= log.WarnLevel:
		return LogWarning
	default:
		return LogError
	}
}

// LoggingObserver logs lifecycle transitions and mediator decisions
type LoggingObserver struct {
	level  LogLevel
	logger *log.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(level LogLevel, logger *log.Logger) *LoggingObserver {
	return &LoggingObserver{
		level:  level,
		logger: logger,
	}
}

func (o *LoggingObserver) log(level LogLevel, msg string, keyvals ...interface{}) {
	if level > o.level || o.logger == nil {
		return
	}

	switch level {
	case LogError:
		o.logger.Error(msg, keyvals...)
	case LogWarning:
		o.logger.Warn(msg, keyvals...)
	case LogInfo:
		o.logger.Info(msg, keyvals...)
	default:
		o.logger.Debug(msg, keyvals...)
	}
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(sm *core.StateMachine, state core.State) {
	o.log(LogDebug, "enter state", "machine", sm.Name(), "state", state.Name())
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(sm *core.StateMachine, state core.State) {
	o.log(LogDebug, "exit state", "machine", sm.Name(), "state", state.Name())
}

// OnTransition logs transitions
func (o *LoggingObserver) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	fromName := "nil"
	if from != nil {
		fromName = from.Name()
	}

	toName := "nil"
	if to != nil {
		toName = to.Name()
	}

	keyvals := []interface{}{"machine", sm.Name(), "from", fromName, "to", toName, "event", event.Name}
	if p, ok := event.Passage(); ok {
		keyvals = append(keyvals, "time", p.Time)
	}
	o.log(LogDebug, "transition", keyvals...)
}

// OnEventProcessed logs events
func (o *LoggingObserver) OnEventProcessed(sm *core.StateMachine, event *core.Event) {
	o.log(LogDebug, "event processed", "machine", sm.Name(), "event", event.Name, "id", event.ID)
}

// OnError logs errors
func (o *LoggingObserver) OnError(sm *core.StateMachine, err error) {
	o.log(LogError, "lifecycle error", "machine", sm.Name(), "err", err)
}

// OnRunStarted logs the start of a run
func (o *LoggingObserver) OnRunStarted(runID string) {
	o.log(LogInfo, "run started", "run", runID)
}

// OnRunStopped logs the end of a run
func (o *LoggingObserver) OnRunStopped(runID string, now int64) {
	o.log(LogInfo, "run stopped", "run", runID, "time", now)
}

// OnGrant logs mediator decisions. A grant with no waiter is a warning.
func (o *LoggingObserver) OnGrant(grant core.Grant) {
	if grant.Lost {
		o.log(LogWarning, "grant lost", "time", grant.Time, "direction", grant.Direction,
			"rule", grant.Rule, "demand", grant.Demand)
		return
	}
	o.log(LogInfo, "grant", "time", grant.Time, "direction", grant.Direction,
		"rule", grant.Rule, "demand", grant.Demand, "train", grant.TrainID)
}

// OnFault logs run faults
func (o *LoggingObserver) OnFault(err error) {
	o.log(LogError, "fault", "err", err)
}
