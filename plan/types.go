package plan

// Point is a plane coordinate in centimeters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultWallThickness is the thickness given to newly drawn walls (cm).
const DefaultWallThickness = 10.0

// Wall is a straight partition between two points.
// Length is fixed at creation time and never recomputed afterwards.
type Wall struct {
	ID        string  `json:"id"`
	Start     Point   `json:"start"`
	End       Point   `json:"end"`
	Length    float64 `json:"length"`
	Thickness float64 `json:"thickness"`
}

// Room is a polygon inferred from a closed loop of walls.
// Points form a closed ring: the first point is repeated at the end.
type Room struct {
	ID       string  `json:"id"`
	Points   []Point `json:"points"`
	Area     float64 `json:"area"` // cm²
	RoomType string  `json:"roomType,omitempty"`
	Center   Point   `json:"center"`
}

// Door is a door opening. WallID is advisory only and never checked.
type Door struct {
	ID       string  `json:"id"`
	Position Point   `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"` // degrees
	WallID   string  `json:"wallId,omitempty"`
}

// Window is a window opening. WallID is advisory only and never checked.
type Window struct {
	ID       string  `json:"id"`
	Position Point   `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	WallID   string  `json:"wallId,omitempty"`
}

// Column is a round structural column.
type Column struct {
	ID       string  `json:"id"`
	Position Point   `json:"position"`
	Diameter float64 `json:"diameter"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Staircase is a straight flight of stairs. Direction is "up" or "down".
type Staircase struct {
	ID        string  `json:"id"`
	Position  Point   `json:"position"`
	Width     float64 `json:"width"`
	Length    float64 `json:"length"`
	Rotation  float64 `json:"rotation"`
	Direction string  `json:"direction"`
}

// PlacedComponent is a generic furnishing, usually placed from the catalogue.
type PlacedComponent struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Position      Point   `json:"position"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Depth         float64 `json:"depth"`
	Rotation      float64 `json:"rotation"`
	CatalogItemID string  `json:"catalogItemId,omitempty"`
}

// CatalogItem describes a placeable product. Zero dimensions fall back to
// the component defaults.
type CatalogItem struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Vendor   string  `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Width    float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Depth    float64 `json:"depth,omitempty" yaml:"depth,omitempty"`
}

// Floor owns every wall, room and feature drawn on one storey.
type Floor struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Index      int               `json:"index"`
	Walls      []Wall            `json:"walls"`
	Rooms      []Room            `json:"rooms"`
	Doors      []Door            `json:"doors"`
	Windows    []Window          `json:"windows"`
	Columns    []Column          `json:"columns"`
	Staircases []Staircase       `json:"staircases"`
	Components []PlacedComponent `json:"components"`
	Thumbnail  []byte            `json:"thumbnail,omitempty"` // PNG
}

// EntityKind tags the kind of a selectable entity.
type EntityKind string

const (
	KindWall      EntityKind = "wall"
	KindRoom      EntityKind = "room"
	KindDoor      EntityKind = "door"
	KindWindow    EntityKind = "window"
	KindColumn    EntityKind = "column"
	KindStaircase EntityKind = "staircase"
	KindComponent EntityKind = "component"
)

// IsFeature reports whether k is a placeable feature kind.
func (k EntityKind) IsFeature() bool {
	switch k {
	case KindDoor, KindWindow, KindColumn, KindStaircase, KindComponent:
		return true
	}
	return false
}

// Layer names carried by selections.
const (
	LayerWalls    = "walls"
	LayerRooms    = "rooms"
	LayerFeatures = "features"
)

// Selection is the current selection record: the entity's identity plus a
// copy of its editable numeric properties.
type Selection struct {
	Kind     EntityKind         `json:"type"`
	ID       string             `json:"id"`
	Layer    string             `json:"layer,omitempty"`
	RoomType string             `json:"roomType,omitempty"`
	Props    map[string]float64 `json:"props,omitempty"`
}

func (s *Selection) clone() *Selection {
	if s == nil {
		return nil
	}
	c := *s
	if s.Props != nil {
		c.Props = make(map[string]float64, len(s.Props))
		for k, v := range s.Props {
			c.Props[k] = v
		}
	}
	return &c
}

// MeasurementUnit selects the display unit system.
type MeasurementUnit string

const (
	Metric   MeasurementUnit = "metric"
	Imperial MeasurementUnit = "imperial"
)

// RoomTypeInfo is an entry of the room-type catalogue.
type RoomTypeInfo struct {
	Tag   string
	Label string
	Color string // hex
}

// RoomTypes lists the known room-type tags in display order.
var RoomTypes = []RoomTypeInfo{
	{"bedroom", "Bedroom", "#8B5CF6"},
	{"kitchen", "Kitchen", "#F59E0B"},
	{"living", "Living Room", "#10B981"},
	{"bathroom", "Bathroom", "#06B6D4"},
	{"office", "Office", "#6366F1"},
	{"meeting", "Meeting Room", "#EC4899"},
	{"server", "Server Room", "#EF4444"},
	{"mandir", "Mandir", "#F97316"},
	{"dining", "Dining Room", "#14B8A6"},
	{"hallway", "Hallway", "#94A3B8"},
	{"storage", "Storage", "#64748B"},
	{"other", "Other", "#A855F7"},
}

// LookupRoomType returns the catalogue entry for tag. Unknown or empty tags
// resolve to "other".
func LookupRoomType(tag string) RoomTypeInfo {
	for _, rt := range RoomTypes {
		if rt.Tag == tag {
			return rt
		}
	}
	return RoomTypes[len(RoomTypes)-1]
}
