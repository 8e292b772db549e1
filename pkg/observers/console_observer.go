package observers

import (
	"fmt"
	"io"
	"sync"

	"github.com/anggasct/mavmon/pkg/core"
)

// ConsoleObserver prints the arrival, entry and departure lines of every
// train. Writes are serialized so lines never interleave.
type ConsoleObserver struct {
	mutex sync.Mutex
	w     io.Writer
}

// NewConsoleObserver creates a console observer writing to w
func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

var consoleVerbs = map[string]string{
	core.StateWaiting:  "arrived at",
	core.StateCrossing: "entering",
	core.StateDeparted: "leaving",
}

// OnTransition prints one line per lifecycle step
func (o *ConsoleObserver) OnTransition(sm *core.StateMachine, from, to core.State, event *core.Event) {
	if to == nil || event == nil {
		return
	}
	verb, ok := consoleVerbs[to.Name()]
	if !ok {
		return
	}
	p, ok := event.Passage()
	if !ok {
		return
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	fmt.Fprintf(o.w, "Current time: %d MAV %d heading %s %s the intersection\n",
		p.Time, p.TrainID, p.Direction, verb)
}

func (o *ConsoleObserver) OnStateEnter(*core.StateMachine, core.State) {}

func (o *ConsoleObserver) OnStateExit(*core.StateMachine, core.State) {}

func (o *ConsoleObserver) OnEventProcessed(*core.StateMachine, *core.Event) {}

func (o *ConsoleObserver) OnError(*core.StateMachine, error) {}
