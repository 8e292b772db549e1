package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anggasct/mavmon/pkg/core"
)

func TestDirection(t *testing.T) {
	t.Run("String and cyclic order", func(t *testing.T) {
		assert.Equal(t, "North", core.North.String())
		assert.Equal(t, "West", core.West.String())
		assert.Equal(t, core.East, core.North.Next())
		assert.Equal(t, core.North, core.West.Next())
		assert.False(t, core.Direction(4).Valid())
		assert.Equal(t, "Direction(7)", core.Direction(7).String())
	})

	t.Run("Parse", func(t *testing.T) {
		cases := map[string]core.Direction{
			"N": core.North, "east": core.East, " South ": core.South,
			"WEST": core.West, "0": core.North, "3": core.West,
		}
		for in, want := range cases {
			got, err := core.ParseDirection(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}

		_, err := core.ParseDirection("up")
		assert.Error(t, err)
		_, err = core.ParseDirection("4")
		assert.Error(t, err)
	})

	t.Run("YAML", func(t *testing.T) {
		var v struct {
			A core.Direction `yaml:"a"`
			B core.Direction `yaml:"b"`
		}
		require.NoError(t, yaml.Unmarshal([]byte("a: w\nb: 2\n"), &v))
		assert.Equal(t, core.West, v.A)
		assert.Equal(t, core.South, v.B)
	})
}

func TestDemandVector(t *testing.T) {
	v := core.DemandFromCounts([core.NumDirections]int{2, 0, 1, 0})
	assert.Equal(t, core.NewDemand(core.North, core.South), v)
	assert.True(t, v.Has(core.North))
	assert.False(t, v.Has(core.East))
	assert.Equal(t, 2, v.Count())
	assert.Equal(t, "North+South", v.String())
	assert.Equal(t, core.NewDemand(core.South), v.Without(core.North))
	assert.Equal(t, "none", core.DemandVector(0).String())
}

func TestEventPassage(t *testing.T) {
	p := core.Passage{TrainID: 9, Direction: core.East, Time: 12}
	ev := core.NewEventWithData(core.EventArrive, p)

	got, ok := ev.Passage()
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.NotEmpty(t, ev.ID)

	_, ok = core.NewEvent("tick").Passage()
	assert.False(t, ok)
}
