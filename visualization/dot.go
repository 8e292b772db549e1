// Package visualization renders lifecycle state machines as Graphviz graphs
package visualization

import (
	"fmt"
	"os"
	"strings"

	"github.com/anggasct/mavmon/pkg/core"
)

// DOTGenerator generates Graphviz DOT format representations of state machines
type DOTGenerator struct {
	machine *core.StateMachine
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	TransitionStyle     string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		RankDirection:       "LR",
		NodeShape:           "box",
		TransitionStyle:     "solid",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine
func NewDOTGenerator(machine *core.StateMachine, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		machine: machine,
		options: opts,
	}
}

// Generate creates a DOT representation of the state machine. States are
// emitted in name order and transitions in declaration order so the output
// is stable.
func (g *DOTGenerator) Generate() (string, error) {
	if g.machine == nil {
		return "", fmt.Errorf("no state machine to render")
	}

	var dot strings.Builder

	dot.WriteString(fmt.Sprintf("digraph %q {\n", g.machine.Name()))
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	dot.WriteString("\n")
	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

func (g *DOTGenerator) generateStates(dot *strings.Builder) {
	var initial string
	if s := g.machine.GetInitialState(); s != nil {
		initial = s.Name()
	}

	dot.WriteString("  // States\n")
	for _, name := range g.machine.StateNames() {
		g.generateStateNode(dot, g.machine.GetState(name), name == initial)
	}
}

func (g *DOTGenerator) generateStateNode(dot *strings.Builder, state core.State, isInitial bool) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := state.Name()

	if isInitial {
		fillColor = "lightgreen"
		label += "\\n(initial)"
	}

	if state.IsFinal() {
		shape = "doublecircle"
		fillColor = "lightcoral"
	}

	dot.WriteString(fmt.Sprintf("  %q [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		state.Name(), shape, fillColor, label))
}

func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Transitions\n")

	for _, t := range g.machine.GetTransitions() {
		label := t.Event
		if g.options.ShowGuardConditions && t.Guard != nil {
			label += " [guard]"
		}
		if g.options.ShowActions && t.Action != nil {
			label += " / action"
		}
		dot.WriteString(fmt.Sprintf("  %q -> %q [label=%q style=%s];\n",
			t.From.Name(), t.To.Name(), label, g.options.TransitionStyle))
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}
