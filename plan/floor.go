package plan

import (
	"fmt"

	"github.com/samber/lo"
)

// Feature defaults (cm).
const (
	DoorWidth        = 90.0
	DoorHeight       = 210.0
	WindowWidth      = 120.0
	WindowHeight     = 120.0
	ColumnDiameter   = 30.0
	ColumnHeight     = 300.0
	StaircaseWidth   = 100.0
	StaircaseLength  = 300.0
	ComponentSize    = 60.0
	DefaultComponent = "furniture"
	StaircaseUp      = "up"
	StaircaseDown    = "down"
)

// NewFloor returns an empty floor.
func NewFloor(id, name string, index int) Floor {
	return Floor{
		ID:         id,
		Name:       name,
		Index:      index,
		Walls:      []Wall{},
		Rooms:      []Room{},
		Doors:      []Door{},
		Windows:    []Window{},
		Columns:    []Column{},
		Staircases: []Staircase{},
		Components: []PlacedComponent{},
	}
}

// NewWall returns a wall between start and end with its length computed.
func NewWall(id string, start, end Point) Wall {
	return Wall{
		ID:        id,
		Start:     start,
		End:       end,
		Length:    Distance(start, end),
		Thickness: DefaultWallThickness,
	}
}

func cloneSlice[T any](s []T) []T {
	return append(make([]T, 0, len(s)), s...)
}

// Clone returns a deep copy of f. Nil sequences come back empty.
func (f Floor) Clone() Floor {
	c := f
	c.Walls = cloneSlice(f.Walls)
	c.Rooms = make([]Room, len(f.Rooms))
	for i, r := range f.Rooms {
		r.Points = cloneSlice(r.Points)
		c.Rooms[i] = r
	}
	c.Doors = cloneSlice(f.Doors)
	c.Windows = cloneSlice(f.Windows)
	c.Columns = cloneSlice(f.Columns)
	c.Staircases = cloneSlice(f.Staircases)
	c.Components = cloneSlice(f.Components)
	if f.Thumbnail != nil {
		c.Thumbnail = cloneSlice(f.Thumbnail)
	}
	return c
}

// WithWall returns a copy of f with w appended.
func (f Floor) WithWall(w Wall) Floor {
	f.Walls = append(cloneSlice(f.Walls), w)
	return f
}

// WithRooms returns a copy of f whose room sequence is replaced by rooms.
func (f Floor) WithRooms(rooms []Room) Floor {
	f.Rooms = cloneSlice(rooms)
	return f
}

// TotalArea is the summed area of the floor's rooms (cm²).
func (f Floor) TotalArea() float64 {
	return lo.SumBy(f.Rooms, func(r Room) float64 { return r.Area })
}

// Place returns a copy of f with a new feature of the given kind at p,
// built from the feature defaults. item only applies to components.
func (f Floor) Place(kind EntityKind, id string, p Point, item *CatalogItem) (Floor, error) {
	switch kind {
	case KindDoor:
		f.Doors = append(cloneSlice(f.Doors), Door{ID: id, Position: p, Width: DoorWidth, Height: DoorHeight})
	case KindWindow:
		f.Windows = append(cloneSlice(f.Windows), Window{ID: id, Position: p, Width: WindowWidth, Height: WindowHeight})
	case KindColumn:
		f.Columns = append(cloneSlice(f.Columns), Column{ID: id, Position: p, Diameter: ColumnDiameter, Height: ColumnHeight})
	case KindStaircase:
		f.Staircases = append(cloneSlice(f.Staircases), Staircase{
			ID: id, Position: p, Width: StaircaseWidth, Length: StaircaseLength, Direction: StaircaseUp,
		})
	case KindComponent:
		f.Components = append(cloneSlice(f.Components), newComponent(id, p, item))
	default:
		return f, fmt.Errorf("place %q: %w", kind, ErrInvalidOperation)
	}
	return f, nil
}

func newComponent(id string, p Point, item *CatalogItem) PlacedComponent {
	c := PlacedComponent{
		ID:       id,
		Type:     DefaultComponent,
		Position: p,
		Width:    ComponentSize,
		Height:   ComponentSize,
		Depth:    ComponentSize,
	}
	if item == nil {
		return c
	}
	c.CatalogItemID = item.ID
	if item.Category != "" {
		c.Type = item.Category
	}
	if item.Width > 0 {
		c.Width = item.Width
	}
	if item.Height > 0 {
		c.Height = item.Height
	}
	if item.Depth > 0 {
		c.Depth = item.Depth
	}
	return c
}

// removeByID filters out the element whose id matches. ok is false when no
// element matched.
func removeByID[T any](s []T, id string, idOf func(T) string) ([]T, bool) {
	if !lo.ContainsBy(s, func(v T) bool { return idOf(v) == id }) {
		return s, false
	}
	return lo.Filter(s, func(v T, _ int) bool { return idOf(v) != id }), true
}

// Remove returns a copy of f without the entity kind/id. Removing a wall
// does not touch rooms; callers re-run inference.
func (f Floor) Remove(kind EntityKind, id string) (Floor, error) {
	var ok bool
	switch kind {
	case KindWall:
		f.Walls, ok = removeByID(f.Walls, id, func(w Wall) string { return w.ID })
	case KindRoom:
		f.Rooms, ok = removeByID(f.Rooms, id, func(r Room) string { return r.ID })
	case KindDoor:
		f.Doors, ok = removeByID(f.Doors, id, func(d Door) string { return d.ID })
	case KindWindow:
		f.Windows, ok = removeByID(f.Windows, id, func(w Window) string { return w.ID })
	case KindColumn:
		f.Columns, ok = removeByID(f.Columns, id, func(c Column) string { return c.ID })
	case KindStaircase:
		f.Staircases, ok = removeByID(f.Staircases, id, func(s Staircase) string { return s.ID })
	case KindComponent:
		f.Components, ok = removeByID(f.Components, id, func(c PlacedComponent) string { return c.ID })
	default:
		return f, fmt.Errorf("remove %q: %w", kind, ErrInvalidOperation)
	}
	if !ok {
		return f, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return f, nil
}

// SetRoomType returns a copy of f with the room's type tag replaced.
func (f Floor) SetRoomType(roomID, roomType string) (Floor, error) {
	_, idx, ok := lo.FindIndexOf(f.Rooms, func(r Room) bool { return r.ID == roomID })
	if !ok {
		return f, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}
	f = f.WithRooms(f.Rooms)
	f.Rooms[idx].RoomType = roomType
	f.Thumbnail = nil // rooms are filled in their type colour
	return f, nil
}
