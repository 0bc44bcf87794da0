package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a recorded editing session replayed through the Editor API.
//
//	steps:
//	  - grid: 50
//	  - wall: [[0, 0], [1000, 0], [1000, 800], [0, 800], [0, 0]]
//	  - roomType: {at: [500, 400], type: kitchen}
//	  - tool: door
//	  - down: [500, 0]
//	  - undo: 1
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Coord is an [x, y] pair in centimeters.
type Coord []float64

func (c Coord) point() (Point, error) {
	if len(c) != 2 {
		return Point{}, fmt.Errorf("coordinate needs 2 values, got %d", len(c))
	}
	return Point{X: c[0], Y: c[1]}, nil
}

// Step is one scripted action. Exactly one field is expected to be set.
type Step struct {
	Tool        string        `yaml:"tool,omitempty"`
	Wall        []Coord       `yaml:"wall,omitempty"` // polyline drawn segment by segment
	Down        Coord         `yaml:"down,omitempty"`
	Move        Coord         `yaml:"move,omitempty"`
	Up          bool          `yaml:"up,omitempty"`
	Leave       bool          `yaml:"leave,omitempty"`
	Place       *PlaceStep    `yaml:"place,omitempty"`
	Select      Coord         `yaml:"select,omitempty"`
	Delete      bool          `yaml:"delete,omitempty"`
	RoomType    *RoomTypeStep `yaml:"roomType,omitempty"`
	Set         *SetStep      `yaml:"set,omitempty"`
	Undo        int           `yaml:"undo,omitempty"`
	Redo        int           `yaml:"redo,omitempty"`
	AddFloor    bool          `yaml:"addFloor,omitempty"`
	SwitchFloor *int          `yaml:"switchFloor,omitempty"`
	DeleteFloor *int          `yaml:"deleteFloor,omitempty"`
	Grid        float64       `yaml:"grid,omitempty"`
	Snap        *bool         `yaml:"snap,omitempty"`
	Unit        string        `yaml:"unit,omitempty"`
	Zoom        string        `yaml:"zoom,omitempty"` // in | out | reset
	Recompute   bool          `yaml:"recompute,omitempty"`
}

type PlaceStep struct {
	Kind    EntityKind `yaml:"kind"`
	At      Coord      `yaml:"at"`
	Catalog string     `yaml:"catalog,omitempty"`
}

// RoomTypeStep tags the room with the given id, or the room containing At.
type RoomTypeStep struct {
	ID   string `yaml:"id,omitempty"`
	At   Coord  `yaml:"at,omitempty"`
	Type string `yaml:"type"`
}

type SetStep struct {
	Prop  string  `yaml:"prop"`
	Value float64 `yaml:"value"`
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing script YAML: %w", err)
	}
	return &s, nil
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// Run replays every step against e and stops at the first failing step.
// catalog resolves catalogue ids for component placement; it may be nil.
func (s *Script) Run(e *Editor, catalog func(id string) (*CatalogItem, bool)) error {
	for i, step := range s.Steps {
		if err := step.apply(e, catalog); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) apply(e *Editor, catalog func(id string) (*CatalogItem, bool)) error {
	switch {
	case st.Tool != "":
		t, err := ParseTool(st.Tool)
		if err != nil {
			return err
		}
		return e.SetTool(t)

	case len(st.Wall) > 0:
		return drawPolyline(e, st.Wall)

	case st.Down != nil:
		p, err := st.Down.point()
		if err != nil {
			return err
		}
		return e.PointerDown(p)

	case st.Move != nil:
		p, err := st.Move.point()
		if err != nil {
			return err
		}
		e.PointerMove(p)

	case st.Up:
		e.PointerUp()

	case st.Leave:
		e.PointerLeave()

	case st.Place != nil:
		p, err := st.Place.At.point()
		if err != nil {
			return err
		}
		var item *CatalogItem
		if st.Place.Catalog != "" {
			var found *CatalogItem
			ok := false
			if catalog != nil {
				found, ok = catalog(st.Place.Catalog)
			}
			if !ok {
				return fmt.Errorf("catalog item %s: %w", st.Place.Catalog, ErrNotFound)
			}
			item = found
		}
		_, err = e.PlaceFeature(st.Place.Kind, p, item)
		return err

	case st.Select != nil:
		p, err := st.Select.point()
		if err != nil {
			return err
		}
		e.Select(p)

	case st.Delete:
		return e.DeleteSelected()

	case st.RoomType != nil:
		id := st.RoomType.ID
		if id == "" {
			p, err := st.RoomType.At.point()
			if err != nil {
				return err
			}
			id, err = roomAt(e, p)
			if err != nil {
				return err
			}
		}
		return e.SetRoomType(id, st.RoomType.Type)

	case st.Set != nil:
		return e.UpdateSelected(st.Set.Prop, st.Set.Value)

	case st.Undo > 0:
		for n := 0; n < st.Undo; n++ {
			e.Undo()
		}

	case st.Redo > 0:
		for n := 0; n < st.Redo; n++ {
			e.Redo()
		}

	case st.AddFloor:
		e.AddFloor()

	case st.SwitchFloor != nil:
		return e.SwitchFloor(*st.SwitchFloor)

	case st.DeleteFloor != nil:
		return e.DeleteFloor(*st.DeleteFloor)

	case st.Grid != 0:
		return e.SetGridSize(st.Grid)

	case st.Snap != nil:
		e.SetSnapEnabled(*st.Snap)

	case st.Unit != "":
		return e.SetMeasurementUnit(MeasurementUnit(st.Unit))

	case st.Zoom != "":
		switch st.Zoom {
		case "in":
			e.ZoomIn()
		case "out":
			e.ZoomOut()
		case "reset":
			e.ResetZoom()
		default:
			return fmt.Errorf("zoom %q: %w", st.Zoom, ErrInvalidOperation)
		}

	case st.Recompute:
		e.RecomputeRooms()

	default:
		return fmt.Errorf("empty step: %w", ErrInvalidOperation)
	}
	return nil
}

// drawPolyline draws one wall per consecutive pair of coordinates.
func drawPolyline(e *Editor, coords []Coord) error {
	if len(coords) < 2 {
		return fmt.Errorf("wall needs at least 2 points: %w", ErrInvalidOperation)
	}
	pts := make([]Point, len(coords))
	for i, c := range coords {
		p, err := c.point()
		if err != nil {
			return err
		}
		pts[i] = p
	}
	e.CancelWall()
	for i := 0; i+1 < len(pts); i++ {
		e.BeginWall(pts[i])
		e.UpdateWallPreview(pts[i+1])
		e.CommitWall()
	}
	return nil
}

func roomAt(e *Editor, p Point) (string, error) {
	for _, r := range e.Rooms() {
		if PointInPolygon(p, r.Points) {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("no room at (%g, %g): %w", p.X, p.Y, ErrNotFound)
}
