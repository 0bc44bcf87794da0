package plan

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// WallHitTolerance is the distance (cm) within which a point selects a wall.
const WallHitTolerance = 20.0

var readOnlyProps = map[EntityKind]map[string]bool{
	KindWall: {"length": true},
	KindRoom: {"area": true},
}

func layerOf(kind EntityKind) string {
	switch kind {
	case KindWall:
		return LayerWalls
	case KindRoom:
		return LayerRooms
	}
	return LayerFeatures
}

func withinBox(p, center Point, width, depth float64) bool {
	return math.Abs(p.X-center.X) < width/2 && math.Abs(p.Y-center.Y) < depth/2
}

// HitTest returns the entity under p. Features are tried first (doors,
// windows, columns, staircases, components), then walls, then rooms; the
// first match in sequence order wins.
func HitTest(f Floor, p Point) (EntityKind, string, bool) {
	if d, ok := lo.Find(f.Doors, func(d Door) bool { return Distance(p, d.Position) < d.Width/2 }); ok {
		return KindDoor, d.ID, true
	}
	if w, ok := lo.Find(f.Windows, func(w Window) bool { return withinBox(p, w.Position, w.Width, w.Height) }); ok {
		return KindWindow, w.ID, true
	}
	if c, ok := lo.Find(f.Columns, func(c Column) bool { return Distance(p, c.Position) < c.Diameter/2 }); ok {
		return KindColumn, c.ID, true
	}
	if s, ok := lo.Find(f.Staircases, func(s Staircase) bool { return withinBox(p, s.Position, s.Width, s.Length) }); ok {
		return KindStaircase, s.ID, true
	}
	if c, ok := lo.Find(f.Components, func(c PlacedComponent) bool { return withinBox(p, c.Position, c.Width, c.Height) }); ok {
		return KindComponent, c.ID, true
	}
	if w, ok := lo.Find(f.Walls, func(w Wall) bool { return DistanceToSegment(p, w.Start, w.End) < WallHitTolerance }); ok {
		return KindWall, w.ID, true
	}
	if r, ok := lo.Find(f.Rooms, func(r Room) bool { return PointInPolygon(p, r.Points) }); ok {
		return KindRoom, r.ID, true
	}
	return "", "", false
}

func indexByID[T any](s []T, id string, idOf func(T) string) int {
	_, i, ok := lo.FindIndexOf(s, func(v T) bool { return idOf(v) == id })
	if !ok {
		return -1
	}
	return i
}

// fieldsOf returns pointers to the numeric properties of an entity inside f.
func fieldsOf(f *Floor, kind EntityKind, id string) (map[string]*float64, error) {
	switch kind {
	case KindWall:
		if i := indexByID(f.Walls, id, func(w Wall) string { return w.ID }); i >= 0 {
			w := &f.Walls[i]
			return map[string]*float64{"length": &w.Length, "thickness": &w.Thickness}, nil
		}
	case KindRoom:
		if i := indexByID(f.Rooms, id, func(r Room) string { return r.ID }); i >= 0 {
			return map[string]*float64{"area": &f.Rooms[i].Area}, nil
		}
	case KindDoor:
		if i := indexByID(f.Doors, id, func(d Door) string { return d.ID }); i >= 0 {
			d := &f.Doors[i]
			return map[string]*float64{"width": &d.Width, "height": &d.Height, "rotation": &d.Rotation}, nil
		}
	case KindWindow:
		if i := indexByID(f.Windows, id, func(w Window) string { return w.ID }); i >= 0 {
			w := &f.Windows[i]
			return map[string]*float64{"width": &w.Width, "height": &w.Height, "rotation": &w.Rotation}, nil
		}
	case KindColumn:
		if i := indexByID(f.Columns, id, func(c Column) string { return c.ID }); i >= 0 {
			c := &f.Columns[i]
			return map[string]*float64{"diameter": &c.Diameter, "height": &c.Height, "rotation": &c.Rotation}, nil
		}
	case KindStaircase:
		if i := indexByID(f.Staircases, id, func(s Staircase) string { return s.ID }); i >= 0 {
			s := &f.Staircases[i]
			return map[string]*float64{"width": &s.Width, "length": &s.Length, "rotation": &s.Rotation}, nil
		}
	case KindComponent:
		if i := indexByID(f.Components, id, func(c PlacedComponent) string { return c.ID }); i >= 0 {
			c := &f.Components[i]
			return map[string]*float64{
				"width": &c.Width, "height": &c.Height, "depth": &c.Depth, "rotation": &c.Rotation,
			}, nil
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q: %w", kind, ErrInvalidOperation)
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// Describe builds the selection record for an entity of f.
func Describe(f Floor, kind EntityKind, id string) (*Selection, error) {
	fields, err := fieldsOf(&f, kind, id)
	if err != nil {
		return nil, err
	}
	sel := &Selection{
		Kind:  kind,
		ID:    id,
		Layer: layerOf(kind),
		Props: make(map[string]float64, len(fields)),
	}
	for name, v := range fields {
		sel.Props[name] = *v
	}
	if kind == KindRoom {
		sel.RoomType = f.Rooms[indexByID(f.Rooms, id, func(r Room) string { return r.ID })].RoomType
	}
	return sel, nil
}

// SetProperty returns a copy of f with one numeric property of an entity
// replaced. Derived properties such as a wall's length are read-only.
func (f Floor) SetProperty(kind EntityKind, id, prop string, value float64) (Floor, error) {
	if readOnlyProps[kind][prop] {
		return f, fmt.Errorf("%s.%s is read-only: %w", kind, prop, ErrInvalidOperation)
	}
	next := f.Clone()
	fields, err := fieldsOf(&next, kind, id)
	if err != nil {
		return f, err
	}
	field, ok := fields[prop]
	if !ok {
		return f, fmt.Errorf("%s has no property %q: %w", kind, prop, ErrInvalidOperation)
	}
	*field = value
	return next, nil
}
