// Package schedule loads train arrival events and hands them to the driver in
// arrival order
package schedule

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/btree"

	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/utils"
)

const degree = 32

type item struct {
	event core.ScheduleEvent
	seq   uint64
}

// events with equal arrival times keep insertion order
func less(a, b item) bool {
	if a.event.ArrivalTime != b.event.ArrivalTime {
		return a.event.ArrivalTime < b.event.ArrivalTime
	}
	return a.seq < b.seq
}

// Schedule is an ordered set of arrival events, consumed from the front.
// It is owned by the driver and is not safe for concurrent use.
type Schedule struct {
	tree    *btree.BTreeG[item]
	nextSeq uint64
	ids     map[uint32]struct{}
}

// New creates an empty schedule
func New() *Schedule {
	return &Schedule{
		tree: btree.NewG[item](degree, less),
		ids:  make(map[uint32]struct{}),
	}
}

// Load creates a schedule from a file
func Load(path string) (*Schedule, error) {
	s := New()
	if err := s.Build(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Build reads path and adds its events. Files ending in .yaml or .yml are
// read as YAML; anything else as the line format.
func (s *Schedule) Build(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return utils.NewScheduleError(path, 0, err)
	}
	defer f.Close()

	var events []lineEvent
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		events, err = decodeYAML(f)
	default:
		events, err = decodeText(f)
	}
	if err != nil {
		var se *utils.ScheduleError
		if errors.As(err, &se) {
			se.Path = path
			return se
		}
		return utils.NewScheduleError(path, 0, err)
	}

	for _, le := range events {
		if err := s.Add(le.event); err != nil {
			return utils.NewScheduleError(path, le.line, err)
		}
	}
	return nil
}

// Add inserts an event. Train ids must be unique and non-zero.
func (s *Schedule) Add(ev core.ScheduleEvent) error {
	if ev.TrainID == core.IntersectionEmpty {
		return fmt.Errorf("train id %d is reserved", ev.TrainID)
	}
	if !ev.Direction.Valid() {
		return fmt.Errorf("train %d: invalid direction %d", ev.TrainID, int(ev.Direction))
	}
	if ev.ArrivalTime < 0 {
		return fmt.Errorf("train %d: negative arrival time %d", ev.TrainID, ev.ArrivalTime)
	}
	if _, dup := s.ids[ev.TrainID]; dup {
		return fmt.Errorf("train %d scheduled twice", ev.TrainID)
	}

	s.ids[ev.TrainID] = struct{}{}
	s.tree.ReplaceOrInsert(item{event: ev, seq: s.nextSeq})
	s.nextSeq++
	return nil
}

// IsEmpty reports whether every event has been consumed
func (s *Schedule) IsEmpty() bool {
	return s.tree.Len() == 0
}

// Front returns the earliest unconsumed event. It must not be called on an
// empty schedule.
func (s *Schedule) Front() core.ScheduleEvent {
	it, ok := s.tree.Min()
	if !ok {
		panic("schedule: Front on empty schedule")
	}
	return it.event
}

// Pop removes the earliest event
func (s *Schedule) Pop() {
	s.tree.DeleteMin()
}

// Len returns the number of unconsumed events
func (s *Schedule) Len() int {
	return s.tree.Len()
}

// Events returns the unconsumed events in arrival order
func (s *Schedule) Events() []core.ScheduleEvent {
	out := make([]core.ScheduleEvent, 0, s.tree.Len())
	s.tree.Ascend(func(it item) bool {
		out = append(out, it.event)
		return true
	})
	return out
}
