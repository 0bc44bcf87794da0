package plan

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// GroundFloorName is the name of the floor every new document starts with.
const GroundFloorName = "Ground Floor"

// Document is the project: an ordered sequence of floors and the index of
// the active one.
type Document struct {
	Floors            []Floor `json:"floors"`
	CurrentFloorIndex int     `json:"currentFloorIndex"`
}

// NewDocument returns a document holding a single empty ground floor.
func NewDocument(groundFloorID string) Document {
	return Document{
		Floors: []Floor{NewFloor(groundFloorID, GroundFloorName, 0)},
	}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	c := Document{CurrentFloorIndex: d.CurrentFloorIndex}
	c.Floors = make([]Floor, len(d.Floors))
	for i, f := range d.Floors {
		c.Floors[i] = f.Clone()
	}
	return c
}

// Validate checks the structural invariants of a loaded document.
func (d Document) Validate() error {
	if len(d.Floors) == 0 {
		return fmt.Errorf("document has no floors: %w", ErrInvalidOperation)
	}
	if d.CurrentFloorIndex < 0 || d.CurrentFloorIndex >= len(d.Floors) {
		return fmt.Errorf("current floor index %d of %d: %w", d.CurrentFloorIndex, len(d.Floors), ErrNotFound)
	}
	for _, f := range d.Floors {
		for _, p := range f.points() {
			if !validCoordinate(p.X) || !validCoordinate(p.Y) {
				return fmt.Errorf("floor %s: coordinate (%g, %g) out of range: %w", f.ID, p.X, p.Y, ErrInvalidOperation)
			}
		}
	}
	return nil
}

// maxCoordinate bounds plan coordinates (cm) so grid keys fit an int64.
const maxCoordinate = 1e9

func validCoordinate(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxCoordinate
}

// points lists every stored coordinate of f.
func (f Floor) points() []Point {
	pts := make([]Point, 0, 2*len(f.Walls))
	for _, w := range f.Walls {
		pts = append(pts, w.Start, w.End)
	}
	for _, r := range f.Rooms {
		pts = append(pts, r.Points...)
		pts = append(pts, r.Center)
	}
	pts = append(pts, lo.Map(f.Doors, func(d Door, _ int) Point { return d.Position })...)
	pts = append(pts, lo.Map(f.Windows, func(w Window, _ int) Point { return w.Position })...)
	pts = append(pts, lo.Map(f.Columns, func(c Column, _ int) Point { return c.Position })...)
	pts = append(pts, lo.Map(f.Staircases, func(s Staircase, _ int) Point { return s.Position })...)
	pts = append(pts, lo.Map(f.Components, func(c PlacedComponent, _ int) Point { return c.Position })...)
	return pts
}

// Current returns the active floor.
func (d Document) Current() Floor {
	return d.Floors[d.CurrentFloorIndex]
}

// Floor returns the floor at index.
func (d Document) Floor(index int) (Floor, error) {
	if index < 0 || index >= len(d.Floors) {
		return Floor{}, fmt.Errorf("floor %d: %w", index, ErrNotFound)
	}
	return d.Floors[index], nil
}

// FloorIndex returns the position of the floor with the given id.
func (d Document) FloorIndex(id string) (int, error) {
	if _, i, ok := lo.FindIndexOf(d.Floors, func(f Floor) bool { return f.ID == id }); ok {
		return i, nil
	}
	return -1, fmt.Errorf("floor %s: %w", id, ErrNotFound)
}

// Update replaces the floor at index with fn's result. The floor is left
// untouched when fn fails.
func (d *Document) Update(index int, fn func(Floor) (Floor, error)) error {
	f, err := d.Floor(index)
	if err != nil {
		return err
	}
	next, err := fn(f)
	if err != nil {
		return err
	}
	d.Floors[index] = next
	return nil
}

// UpdateCurrent applies fn to the active floor.
func (d *Document) UpdateCurrent(fn func(Floor) (Floor, error)) error {
	return d.Update(d.CurrentFloorIndex, fn)
}

// AddFloor appends an empty floor named after its position, makes it active
// and returns its index.
func (d *Document) AddFloor(id string) int {
	n := len(d.Floors)
	d.Floors = append(d.Floors, NewFloor(id, fmt.Sprintf("Floor %d", n+1), n))
	d.CurrentFloorIndex = n
	return n
}

// SwitchFloor makes the floor at index active.
func (d *Document) SwitchFloor(index int) error {
	if _, err := d.Floor(index); err != nil {
		return err
	}
	d.CurrentFloorIndex = index
	return nil
}

// DeleteFloor removes the floor at index, re-numbers the remaining floors
// and re-clamps the active index. The last floor cannot be deleted.
func (d *Document) DeleteFloor(index int) error {
	if len(d.Floors) <= 1 {
		return fmt.Errorf("cannot delete the last floor: %w", ErrInvalidOperation)
	}
	if _, err := d.Floor(index); err != nil {
		return err
	}

	switch {
	case d.CurrentFloorIndex == index:
		if index > 0 {
			d.CurrentFloorIndex = index - 1
		}
	case d.CurrentFloorIndex > index:
		d.CurrentFloorIndex--
	}

	floors := make([]Floor, 0, len(d.Floors)-1)
	for i, f := range d.Floors {
		if i == index {
			continue
		}
		f.Index = len(floors)
		floors = append(floors, f)
	}
	d.Floors = floors
	return nil
}
