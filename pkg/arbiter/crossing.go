package arbiter

import (
	"context"

	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/utils"
)

// Cross runs a granted train through the intersection. The caller must hold
// the intersection lock (Acquire). On success the train has departed and the
// lock is released. An occupied intersection yields a *utils.CollisionFault.
func (s *State) Cross(ctx context.Context, train *core.Train) error {
	now := s.clock.Now()

	if err := train.Fire(ctx, core.EventEnter, now); err != nil {
		s.intersection.Unlock()
		return err
	}

	s.mu.Lock()
	if s.occupant != core.IntersectionEmpty {
		fault := utils.NewCollisionFault(train.ID, s.occupant, now)
		s.mu.Unlock()
		s.intersection.Unlock()
		return fault
	}

	s.occupant = train.ID
	s.dueAt = now + int64(s.crossingTicks)
	if s.reserved != nil && s.reserved.train == train {
		s.reserved = nil
	}

	if train.Direction == s.previous {
		s.starvation[train.Direction]++
	} else {
		s.starvation[s.previous] = 0
	}

	due := s.dueAt
	s.notifyLocked()
	s.mu.Unlock()

	if err := s.clock.WaitUntil(ctx, due); err != nil {
		s.intersection.Unlock()
		return err
	}

	return s.Depart(ctx, train)
}

// Depart clears the intersection for train and releases the intersection
// lock once every counter has been updated. It is the only place occupancy
// is cleared.
func (s *State) Depart(ctx context.Context, train *core.Train) error {
	err := train.Fire(ctx, core.EventLeave, s.clock.Now())

	s.mu.Lock()
	s.occupant = core.IntersectionEmpty
	s.waiting[train.Direction]--
	s.previous = train.Direction
	s.notifyLocked()
	s.mu.Unlock()

	s.intersection.Unlock()
	return err
}
