package arbiter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anggasct/mavmon/pkg/arbiter"
	"github.com/anggasct/mavmon/pkg/core"
)

const (
	n = core.North
	e = core.East
	s = core.South
	w = core.West
)

func TestDecideTable(t *testing.T) {
	tests := []struct {
		name   string
		demand core.DemandVector
		want   core.Direction
		rule   core.GrantRule
	}{
		{"North only", core.NewDemand(n), n, core.RuleSingle},
		{"East only", core.NewDemand(e), e, core.RuleSingle},
		{"South only", core.NewDemand(s), s, core.RuleSingle},
		{"West only", core.NewDemand(w), w, core.RuleSingle},
		{"North and West", core.NewDemand(n, w), w, core.RuleRightAngle},
		{"South and West", core.NewDemand(s, w), s, core.RuleRightAngle},
		{"East and South", core.NewDemand(e, s), e, core.RuleRightAngle},
		{"North and East", core.NewDemand(n, e), n, core.RuleRightAngle},
		{"North and South", core.NewDemand(n, s), n, core.RuleOpposite},
		{"East and West", core.NewDemand(e, w), e, core.RuleOpposite},
		{"North East South", core.NewDemand(n, e, s), n, core.RuleThreeWay},
		{"North East West", core.NewDemand(n, e, w), w, core.RuleThreeWay},
		{"North South West", core.NewDemand(n, s, w), s, core.RuleThreeWay},
		{"East South West", core.NewDemand(e, s, w), e, core.RuleThreeWay},
		{"All four", core.NewDemand(n, e, s, w), n, core.RuleAllFour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := arbiter.Decide(tt.demand, [core.NumDirections]int{}, arbiter.DefaultStarvationThreshold)
			assert.True(t, ok)
			assert.Equal(t, tt.want, d.Direction)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}

	t.Run("No demand", func(t *testing.T) {
		_, ok := arbiter.Decide(0, [core.NumDirections]int{}, arbiter.DefaultStarvationThreshold)
		assert.False(t, ok)
	})
}

func TestDecideIsPure(t *testing.T) {
	starvation := [core.NumDirections]int{0, 2, 0, 1}
	for mask := core.DemandVector(0); mask < 16; mask++ {
		first, ok1 := arbiter.Decide(mask, starvation, arbiter.DefaultStarvationThreshold)
		second, ok2 := arbiter.Decide(mask, starvation, arbiter.DefaultStarvationThreshold)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, first, second)
		if ok1 {
			assert.True(t, mask.Has(first.Direction), "granted %s without demand %s", first.Direction, mask)
		}
	}
}

func TestDecideStarvationOverride(t *testing.T) {
	t.Run("Starved rotation skips to next direction with demand", func(t *testing.T) {
		starvation := [core.NumDirections]int{4, 0, 0, 0}
		d, ok := arbiter.Decide(core.NewDemand(n, s), starvation, 4)
		assert.True(t, ok)
		assert.Equal(t, s, d.Direction)
		assert.Equal(t, core.RuleStarvation, d.Rule)
	})

	t.Run("Wraps around the cycle", func(t *testing.T) {
		starvation := [core.NumDirections]int{0, 0, 0, 5}
		d, _ := arbiter.Decide(core.NewDemand(w, e), starvation, 4)
		assert.Equal(t, e, d.Direction)
		assert.Equal(t, core.RuleStarvation, d.Rule)
	})

	t.Run("Override needs a competing direction", func(t *testing.T) {
		starvation := [core.NumDirections]int{4, 0, 0, 0}
		d, ok := arbiter.Decide(core.NewDemand(n), starvation, 4)
		assert.True(t, ok)
		assert.Equal(t, n, d.Direction)
		assert.Equal(t, core.RuleSingle, d.Rule)
	})

	t.Run("Below threshold the table decides", func(t *testing.T) {
		starvation := [core.NumDirections]int{3, 0, 0, 0}
		d, _ := arbiter.Decide(core.NewDemand(n, e), starvation, 4)
		assert.Equal(t, n, d.Direction)
		assert.Equal(t, core.RuleRightAngle, d.Rule)
	})

	t.Run("Counter of a direction without demand still rotates", func(t *testing.T) {
		starvation := [core.NumDirections]int{0, 4, 0, 0}
		d, _ := arbiter.Decide(core.NewDemand(n, s), starvation, 4)
		assert.Equal(t, s, d.Direction)
		assert.Equal(t, core.RuleStarvation, d.Rule)
	})
}
