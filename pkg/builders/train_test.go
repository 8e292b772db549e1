package builders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/mavmon/pkg/builders"
	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/observers"
	"github.com/anggasct/mavmon/pkg/utils"
)

func TestTrainLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Full lifecycle stamps times", func(t *testing.T) {
		rec := observers.NewRecordingObserver()
		train, err := builders.NewTrain(ctx, 7, core.South, rec)
		require.NoError(t, err)
		assert.Equal(t, core.StateScheduled, train.State())

		require.NoError(t, train.Fire(ctx, core.EventArrive, 3))
		require.NoError(t, train.Fire(ctx, core.EventEnter, 5))
		require.NoError(t, train.Fire(ctx, core.EventLeave, 6))

		assert.Equal(t, core.StateDeparted, train.State())
		assert.True(t, train.Machine().IsCompleted())

		smCtx := train.Machine().Context()
		arrived, _ := smCtx.Get(builders.KeyArrivedAt)
		entered, _ := smCtx.Get(builders.KeyEnteredAt)
		left, _ := smCtx.Get(builders.KeyLeftAt)
		assert.Equal(t, int64(3), arrived)
		assert.Equal(t, int64(5), entered)
		assert.Equal(t, int64(6), left)

		require.Len(t, rec.Transitions, 3)
		assert.Equal(t, core.StateWaiting, rec.Transitions[0].To)
		assert.Equal(t, uint32(7), rec.Transitions[2].Passage.TrainID)
		assert.Equal(t, "MAV 7 heading South", train.String())
	})

	t.Run("Entering before arriving is rejected", func(t *testing.T) {
		train, err := builders.NewTrain(ctx, 1, core.North)
		require.NoError(t, err)

		err = train.Fire(ctx, core.EventEnter, 0)
		assert.True(t, errors.Is(err, utils.ErrInvalidTransition))
		assert.Equal(t, core.StateScheduled, train.State())
	})

	t.Run("Events for another train are rejected", func(t *testing.T) {
		train, err := builders.NewTrain(ctx, 1, core.North)
		require.NoError(t, err)
		require.NoError(t, train.Fire(ctx, core.EventArrive, 0))

		other := core.NewEventWithData(core.EventEnter, core.Passage{TrainID: 2, Direction: core.North, Time: 1})
		err = train.Machine().HandleEvent(ctx, other)
		assert.True(t, errors.Is(err, utils.ErrInvalidTransition))
		assert.Equal(t, core.StateWaiting, train.State())
	})

	t.Run("Reserved id and bad direction", func(t *testing.T) {
		_, err := builders.NewTrain(ctx, core.IntersectionEmpty, core.North)
		assert.Error(t, err)

		_, err = builders.NewTrain(ctx, 3, core.Direction(9))
		assert.Error(t, err)
	})
}
