package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is one of the four approaches to the intersection
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// NumDirections is the number of approaches
const NumDirections = 4

// IntersectionEmpty marks an unoccupied intersection
const IntersectionEmpty uint32 = 0

var directionNames = [NumDirections]string{"North", "East", "South", "West"}

// Directions lists every direction in index order
var Directions = [NumDirections]Direction{North, East, South, West}

// String returns the name used in console output
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Valid reports whether d is one of the four approaches
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Next returns the cyclic successor: North, East, South, West, North
func (d Direction) Next() Direction {
	return (d + 1) % NumDirections
}

// Bit returns the demand mask bit for d
func (d Direction) Bit() DemandVector {
	return DemandVector(1) << uint(d)
}

// ParseDirection accepts N/E/S/W, full names in any case, or an index 0..3
func ParseDirection(s string) (Direction, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "n", "north":
		return North, nil
	case "e", "east":
		return East, nil
	case "s", "south":
		return South, nil
	case "w", "west":
		return West, nil
	}

	if i, err := strconv.Atoi(v); err == nil {
		d := Direction(i)
		if d.Valid() {
			return d, nil
		}
	}

	return 0, fmt.Errorf("unknown direction %q", s)
}

// UnmarshalYAML lets schedule files name directions the same way text files do
func (d *Direction) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseDirection(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DemandVector is a four-bit snapshot of which directions have waiting trains
type DemandVector uint8

// DemandFromCounts builds a demand vector from per-direction wait counts
func DemandFromCounts(counts [NumDirections]int) DemandVector {
	var v DemandVector
	for _, d := range Directions {
		if counts[d] > 0 {
			v |= d.Bit()
		}
	}
	return v
}

// NewDemand builds a demand vector from a list of directions
func NewDemand(dirs ...Direction) DemandVector {
	var v DemandVector
	for _, d := range dirs {
		v |= d.Bit()
	}
	return v
}

// Has reports whether d has demand
func (v DemandVector) Has(d Direction) bool {
	return v&d.Bit() != 0
}

// Count returns the number of directions with demand
func (v DemandVector) Count() int {
	n := 0
	for _, d := range Directions {
		if v.Has(d) {
			n++
		}
	}
	return n
}

// Without returns v with d cleared
func (v DemandVector) Without(d Direction) DemandVector {
	return v &^ d.Bit()
}

func (v DemandVector) String() string {
	if v == 0 {
		return "none"
	}
	parts := make([]string, 0, NumDirections)
	for _, d := range Directions {
		if v.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return strings.Join(parts, "+")
}
