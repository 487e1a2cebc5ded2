package teleport

import (
	"fmt"
	"math"
)

// Position is a point in world space measured in blocks.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("%.1f %.1f %.1f", p.X, p.Y, p.Z)
}

// Rounded formats the position as whole blocks.
func (p Position) Rounded() string {
	return fmt.Sprintf("X=%d Y=%d Z=%d", int64(math.Round(p.X)), int64(math.Round(p.Y)), int64(math.Round(p.Z)))
}

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Distance is the full 3D euclidean distance between two positions in whole
// blocks. Halves round away from zero (math.Round); every cost is billed off
// this value so the rounding rule must not vary between call sites.
func Distance(from, to Position) int {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dz := to.Z - from.Z
	return int(math.Round(math.Sqrt(dx*dx + dy*dy + dz*dz)))
}
