package arbiter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/mavmon/pkg/builders"
	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/utils"
)

// stillClock never moves; crossings complete as soon as they are due
type stillClock struct {
	mu  sync.Mutex
	now int64
}

func (c *stillClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stillClock) WaitUntil(context.Context, int64) error {
	return nil
}

type grantLog struct {
	mu     sync.Mutex
	grants []core.Grant
}

func (g *grantLog) OnRunStarted(string) {}

func (g *grantLog) OnRunStopped(string, int64) {}

func (g *grantLog) OnFault(error) {}

func (g *grantLog) OnGrant(grant core.Grant) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants = append(g.grants, grant)
}

func arrived(t *testing.T, id uint32, dir core.Direction) *core.Train {
	t.Helper()
	train, err := builders.NewTrain(context.Background(), id, dir)
	require.NoError(t, err)
	require.NoError(t, train.Fire(context.Background(), core.EventArrive, 0))
	return train
}

func cross(t *testing.T, s *State, g *Gate) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Await(ctx, g))
	s.Acquire()
	require.NoError(t, s.Cross(ctx, g.Train()))
}

func TestMediateFIFOAndReservation(t *testing.T) {
	log := &grantLog{}
	s := New(&stillClock{}, WithObserver(log))

	g1 := s.Enqueue(arrived(t, 1, core.North))
	g2 := s.Enqueue(arrived(t, 2, core.North))
	g3 := s.Enqueue(arrived(t, 3, core.East))

	grant, woke := s.Mediate()
	require.True(t, woke)
	assert.Equal(t, core.North, grant.Direction)
	assert.Equal(t, uint32(1), grant.TrainID)
	assert.Equal(t, core.RuleRightAngle, grant.Rule)

	_, woke = s.Mediate()
	assert.False(t, woke, "a second grant must wait for the first train to enter")
	assert.Equal(t, uint32(1), s.Snapshot().Reserved)

	cross(t, s, g1)
	snap := s.Snapshot()
	assert.Equal(t, core.IntersectionEmpty, snap.Occupant)
	assert.Equal(t, uint32(0), snap.Reserved)
	assert.Equal(t, [core.NumDirections]int{1, 1, 0, 0}, snap.Waiting)
	assert.Equal(t, 1, snap.Starvation[core.North])
	assert.Equal(t, core.North, snap.Previous)

	grant, woke = s.Mediate()
	require.True(t, woke)
	assert.Equal(t, uint32(2), grant.TrainID)
	cross(t, s, g2)

	grant, woke = s.Mediate()
	require.True(t, woke)
	assert.Equal(t, uint32(3), grant.TrainID)
	cross(t, s, g3)

	snap = s.Snapshot()
	assert.Equal(t, 0, snap.Starvation[core.North], "a different direction resets the previous run")
	assert.Equal(t, core.East, snap.Previous)
	assert.True(t, s.Idle())
	assert.Len(t, log.grants, 3)
}

func TestMediateWhileOccupied(t *testing.T) {
	s := New(&stillClock{})
	s.Enqueue(arrived(t, 1, core.West))

	s.mu.Lock()
	s.occupant = 42
	s.mu.Unlock()

	_, woke := s.Mediate()
	assert.False(t, woke)
	assert.False(t, s.Idle())
}

func TestCrossCollision(t *testing.T) {
	s := New(&stillClock{})
	train := arrived(t, 1, core.South)
	s.Enqueue(train)

	s.mu.Lock()
	s.occupant = 99
	s.mu.Unlock()

	s.Acquire()
	err := s.Cross(context.Background(), train)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrCollision))

	var fault *utils.CollisionFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, uint32(1), fault.Train)
	assert.Equal(t, uint32(99), fault.Occupant)
	assert.Equal(t, "CRASH: Train 1 collided with train 99", fault.Error())

	assert.True(t, s.intersection.TryLock(), "the intersection lock is released on collision")
	s.intersection.Unlock()
	assert.Equal(t, uint32(99), s.Snapshot().Occupant)
}

func TestLostGrant(t *testing.T) {
	log := &grantLog{}
	s := New(&stillClock{}, WithObserver(log))

	s.mu.Lock()
	s.waiting[core.East] = 1
	s.mu.Unlock()

	grant, woke := s.Mediate()
	assert.False(t, woke)
	assert.True(t, grant.Lost)
	assert.Equal(t, core.East, grant.Direction)
	require.Len(t, log.grants, 1)
	assert.True(t, log.grants[0].Lost)
}

func TestWaitCountConservation(t *testing.T) {
	s := New(&stillClock{})
	dirs := []core.Direction{core.North, core.East, core.East, core.West, core.South, core.North}

	gates := make([]*Gate, 0, len(dirs))
	var arrivals [core.NumDirections]int
	for i, d := range dirs {
		gates = append(gates, s.Enqueue(arrived(t, uint32(i+1), d)))
		arrivals[d]++
	}
	assert.Equal(t, arrivals, s.Snapshot().Waiting)

	var departures [core.NumDirections]int
	for range gates {
		grant, woke := s.Mediate()
		require.True(t, woke)
		for _, g := range gates {
			if g.Train().ID == grant.TrainID {
				cross(t, s, g)
			}
		}
		departures[grant.Direction]++

		snap := s.Snapshot()
		for _, d := range core.Directions {
			assert.Equal(t, arrivals[d]-departures[d], snap.Waiting[d])
			assert.GreaterOrEqual(t, snap.Waiting[d], 0)
		}
	}
	assert.True(t, s.Idle())
}

func TestAwaitCancelled(t *testing.T) {
	s := New(&stillClock{})
	g := s.Enqueue(arrived(t, 1, core.North))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Await(ctx, g), context.Canceled)

	s.mu.Lock()
	s.occupant = 5
	s.dueAt = 3
	s.mu.Unlock()
	assert.NoError(t, s.AwaitDeparture(context.Background(), 2), "crossing not yet due")
	assert.ErrorIs(t, s.AwaitDeparture(ctx, 3), context.Canceled)
}
