package plan

import (
	"fmt"
	"math"
)

// DefaultGridSize is the grid pitch in centimeters.
const DefaultGridSize = 50.0

// Grid quantizes free-form coordinates to a square lattice.
type Grid struct {
	Size        float64
	SnapEnabled bool
}

// DefaultGrid returns a 50cm grid with snapping enabled.
func DefaultGrid() Grid {
	return Grid{Size: DefaultGridSize, SnapEnabled: true}
}

// GridKey identifies a lattice node by its cell indices.
type GridKey struct {
	X, Y int64
}

func (k GridKey) String() string {
	return fmt.Sprintf("%d,%d", k.X, k.Y)
}

func (g Grid) step() float64 {
	if g.Size <= 0 {
		return 1
	}
	return g.Size
}

// roundHalfUp rounds half-way values towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Snap rounds p to the nearest lattice node. It is the identity when
// snapping is disabled.
func (g Grid) Snap(p Point) Point {
	if !g.SnapEnabled {
		return p
	}
	s := g.step()
	return Point{X: roundHalfUp(p.X/s) * s, Y: roundHalfUp(p.Y/s) * s}
}

// Key returns the lattice node nearest to p. Keys are used by room
// inference and ignore SnapEnabled.
func (g Grid) Key(p Point) GridKey {
	s := g.step()
	return GridKey{X: int64(roundHalfUp(p.X / s)), Y: int64(roundHalfUp(p.Y / s))}
}

// Point returns the plane coordinate of a lattice node.
func (g Grid) Point(k GridKey) Point {
	s := g.step()
	return Point{X: float64(k.X) * s, Y: float64(k.Y) * s}
}

// Quantize is Point(Key(p)).
func (g Grid) Quantize(p Point) Point {
	return g.Point(g.Key(p))
}
