// Package arbiter owns the shared intersection state and decides which
// direction may cross next.
package arbiter

import (
	"github.com/anggasct/mavmon/pkg/core"
)

// DefaultStarvationThreshold is the run length that triggers the starvation
// override
const DefaultStarvationThreshold = 4

// Decision is the outcome of one mediator evaluation
type Decision struct {
	Direction core.Direction
	Rule      core.GrantRule
}

type tableEntry struct {
	grant core.Direction
	rule  core.GrantRule
}

// decisionTable is indexed by demand mask (N=1, E=2, S=4, W=8). The three-
// and four-direction winners are fixed policy, not derived from a fairness
// principle.
var decisionTable = [16]tableEntry{
	0x0: {rule: core.RuleNone},
	0x1: {core.North, core.RuleSingle},
	0x2: {core.East, core.RuleSingle},
	0x4: {core.South, core.RuleSingle},
	0x8: {core.West, core.RuleSingle},
	0x9: {core.West, core.RuleRightAngle},  // North+West
	0xC: {core.South, core.RuleRightAngle}, // South+West
	0x6: {core.East, core.RuleRightAngle},  // East+South
	0x3: {core.North, core.RuleRightAngle}, // North+East
	0x5: {core.North, core.RuleOpposite},   // North+South
	0xA: {core.East, core.RuleOpposite},    // East+West
	0x7: {core.North, core.RuleThreeWay},   // North+East+South
	0xB: {core.West, core.RuleThreeWay},    // North+East+West
	0xD: {core.South, core.RuleThreeWay},   // North+South+West
	0xE: {core.East, core.RuleThreeWay},    // East+South+West
	0xF: {core.North, core.RuleAllFour},
}

// Decide picks the direction to admit for a demand vector and starvation
// counters. It is a pure function; ok is false when nothing is waiting.
//
// The starvation override applies only under contention: a direction whose
// counter has reached threshold yields to the next direction in
// North, East, South, West order that has demand.
func Decide(demand core.DemandVector, starvation [core.NumDirections]int, threshold int) (Decision, bool) {
	demand &= 0xF
	if demand == 0 {
		return Decision{Rule: core.RuleNone}, false
	}

	for _, d := range core.Directions {
		if starvation[d] < threshold {
			continue
		}
		others := demand.Without(d)
		if others == 0 {
			continue
		}
		for next := d.Next(); next != d; next = next.Next() {
			if others.Has(next) {
				return Decision{Direction: next, Rule: core.RuleStarvation}, true
			}
		}
	}

	entry := decisionTable[demand]
	return Decision{Direction: entry.grant, Rule: entry.rule}, true
}
