package plan

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Tool is the active pointer tool.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolWall      Tool = "wall"
	ToolDoor      Tool = "door"
	ToolWindow    Tool = "window"
	ToolColumn    Tool = "column"
	ToolStaircase Tool = "staircase"
	ToolComponent Tool = "component"
)

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolSelect, ToolWall, ToolDoor, ToolWindow, ToolColumn, ToolStaircase, ToolComponent:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q: %w", s, ErrInvalidOperation)
}

// Zoom limits.
const (
	MinZoom  = 0.1
	MaxZoom  = 5.0
	zoomStep = 1.2
)

// ChangeKind says what part of the document a change touched.
type ChangeKind string

const (
	ChangeWalls     ChangeKind = "walls"
	ChangeRooms     ChangeKind = "rooms"
	ChangeFeatures  ChangeKind = "features"
	ChangeFloors    ChangeKind = "floors"
	ChangeHistory   ChangeKind = "history"
	ChangeThumbnail ChangeKind = "thumbnail"
	ChangeDocument  ChangeKind = "document"
)

// ChangeEvent is delivered to listeners after every mutation. Floor is a
// private copy of the affected floor.
type ChangeEvent struct {
	Kind       ChangeKind
	FloorIndex int
	Floor      Floor
}

// Listener observes editor changes. Listeners run synchronously on the
// editing goroutine and must not block.
type Listener func(ChangeEvent)

// Options configure a new Editor.
type Options struct {
	Grid         Grid
	Unit         MeasurementUnit
	HistoryLimit int
	// NewID mints entity ids from a prefix such as "wall". Defaults to
	// prefix-uuid.
	NewID func(prefix string) string
}

func defaultNewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Editor is the host-facing editing session over one document. It is not
// safe for concurrent use.
type Editor struct {
	doc       Document
	grid      Grid
	unit      MeasurementUnit
	tool      Tool
	draft     WallDraft
	catalog   *CatalogItem
	selection *Selection
	zoom      float64
	history   *History
	listeners []Listener
	newID     func(prefix string) string
}

// NewEditor returns an editor over a new single-floor document.
func NewEditor(opts Options) *Editor {
	if opts.Grid.Size <= 0 {
		opts.Grid = DefaultGrid()
	}
	if opts.Unit == "" {
		opts.Unit = Metric
	}
	if opts.NewID == nil {
		opts.NewID = defaultNewID
	}
	return &Editor{
		doc:     NewDocument(opts.NewID("floor")),
		grid:    opts.Grid,
		unit:    opts.Unit,
		tool:    ToolSelect,
		zoom:    1,
		history: NewHistory(opts.HistoryLimit),
		newID:   opts.NewID,
	}
}

// Subscribe registers l for change events.
func (e *Editor) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *Editor) notify(kind ChangeKind, index int) {
	if len(e.listeners) == 0 || index < 0 || index >= len(e.doc.Floors) {
		return
	}
	ev := ChangeEvent{Kind: kind, FloorIndex: index, Floor: e.doc.Floors[index].Clone()}
	for _, l := range e.listeners {
		l(ev)
	}
}

func (e *Editor) notifyCurrent(kind ChangeKind) {
	e.notify(kind, e.doc.CurrentFloorIndex)
}

func (e *Editor) snapshot() Snapshot {
	return Snapshot{Document: e.doc.Clone(), Selection: e.selection.clone(), Zoom: e.zoom}
}

func (e *Editor) restore(s Snapshot) {
	e.doc = s.Document
	e.selection = s.Selection
	e.zoom = s.Zoom
	e.draft.Cancel()
}

// record pushes the pre-mutation state onto the undo stack.
func (e *Editor) record() {
	e.history.Record(e.snapshot())
}

func (e *Editor) mintID(prefix string) string {
	return e.newID(prefix)
}

func (e *Editor) roomID() string {
	return e.mintID("room")
}

// LoadDocument replaces the edited document and resets history, selection
// and any draw in progress.
func (e *Editor) LoadDocument(doc Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	e.doc = doc.Clone()
	e.selection = nil
	e.draft.Cancel()
	e.history.Clear()
	e.notifyCurrent(ChangeDocument)
	return nil
}

// ---------------------------------------------------------------------------
// Read projections
// ---------------------------------------------------------------------------

// Document returns a copy of the edited document.
func (e *Editor) Document() Document { return e.doc.Clone() }

// CurrentFloorIndex returns the index of the active floor.
func (e *Editor) CurrentFloorIndex() int { return e.doc.CurrentFloorIndex }

// CurrentFloor returns a copy of the active floor.
func (e *Editor) CurrentFloor() Floor { return e.doc.Current().Clone() }

// Walls returns the walls of the active floor.
func (e *Editor) Walls() []Wall { return cloneSlice(e.doc.Current().Walls) }

// Rooms returns the rooms of the active floor.
func (e *Editor) Rooms() []Room { return e.doc.Current().Clone().Rooms }

// TotalArea returns the summed room area of the active floor (cm²).
func (e *Editor) TotalArea() float64 { return e.doc.Current().TotalArea() }

// Selection returns a copy of the current selection, or nil.
func (e *Editor) Selection() *Selection { return e.selection.clone() }

func (e *Editor) Zoom() float64                  { return e.zoom }
func (e *Editor) Grid() Grid                     { return e.grid }
func (e *Editor) Unit() MeasurementUnit          { return e.unit }
func (e *Editor) Tool() Tool                     { return e.tool }
func (e *Editor) CanUndo() bool                  { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool                  { return e.history.CanRedo() }
func (e *Editor) FormatLength(cm float64) string { return FormatLength(cm, e.unit) }
func (e *Editor) FormatArea(sqCm float64) string { return FormatArea(sqCm, e.unit) }

// ---------------------------------------------------------------------------
// Tools and pointer input
// ---------------------------------------------------------------------------

// SetTool switches the active tool. Any draw in progress is aborted and
// leaving the select tool clears the selection.
func (e *Editor) SetTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}
	e.draft.Cancel()
	if t != ToolSelect {
		e.selection = nil
	}
	e.tool = t
	return nil
}

// SetCatalogItem sets the item placed by the component tool.
func (e *Editor) SetCatalogItem(item *CatalogItem) {
	if item == nil {
		e.catalog = nil
		return
	}
	c := *item
	e.catalog = &c
}

// PointerDown dispatches a press at p to the active tool.
func (e *Editor) PointerDown(p Point) error {
	switch e.tool {
	case ToolWall:
		e.BeginWall(p)
	case ToolDoor:
		_, err := e.PlaceFeature(KindDoor, p, nil)
		return err
	case ToolWindow:
		_, err := e.PlaceFeature(KindWindow, p, nil)
		return err
	case ToolColumn:
		_, err := e.PlaceFeature(KindColumn, p, nil)
		return err
	case ToolStaircase:
		_, err := e.PlaceFeature(KindStaircase, p, nil)
		return err
	case ToolComponent:
		_, err := e.PlaceFeature(KindComponent, p, e.catalog)
		return err
	case ToolSelect:
		e.Select(p)
	}
	return nil
}

// PointerMove updates the wall preview while drawing.
func (e *Editor) PointerMove(p Point) {
	if e.tool == ToolWall {
		e.UpdateWallPreview(p)
	}
}

// PointerUp completes a wall draw.
func (e *Editor) PointerUp() {
	if e.tool == ToolWall {
		e.CommitWall()
	}
}

// PointerLeave aborts a wall draw.
func (e *Editor) PointerLeave() {
	e.CancelWall()
}

// ---------------------------------------------------------------------------
// Wall authoring
// ---------------------------------------------------------------------------

// BeginWall starts drawing a wall at snap(p). It returns false when a draw
// is already in progress.
func (e *Editor) BeginWall(p Point) bool {
	return e.draft.Begin(e.grid.Snap(p))
}

// UpdateWallPreview moves the free end of the wall being drawn to snap(p).
func (e *Editor) UpdateWallPreview(p Point) {
	e.draft.Update(e.grid.Snap(p))
}

// WallPreview returns the uncommitted wall, if drawing.
func (e *Editor) WallPreview() (Wall, bool) {
	return e.draft.Preview()
}

// CancelWall aborts the draw in progress.
func (e *Editor) CancelWall() {
	e.draft.Cancel()
}

// CommitWall ends the draw. A wall whose snapped endpoints differ is added
// to the active floor and rooms are re-inferred; a zero-length draw is
// discarded without touching history.
func (e *Editor) CommitWall() (Wall, bool) {
	start, end, ok := e.draft.Finish()
	if !ok {
		return Wall{}, false
	}
	w := NewWall(e.mintID("wall"), start, end)
	e.record()
	_ = e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		return f.WithWall(w), nil
	})
	e.recomputeRooms()
	e.notifyCurrent(ChangeWalls)
	return w, true
}

// recomputeRooms re-runs inference on the active floor and drops its
// cached thumbnail.
func (e *Editor) recomputeRooms() {
	_ = e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		f = f.InferRooms(e.grid, e.roomID)
		f.Thumbnail = nil
		return f, nil
	})
}

// RecomputeRooms re-infers the rooms of the active floor. Running it on an
// unchanged wall set leaves ids and room types as they were.
func (e *Editor) RecomputeRooms() {
	e.recomputeRooms()
	e.notifyCurrent(ChangeRooms)
}

// ---------------------------------------------------------------------------
// Features, selection and mutation
// ---------------------------------------------------------------------------

// PlaceFeature adds a feature of kind at snap(p) and returns its id.
// item is only used for components.
func (e *Editor) PlaceFeature(kind EntityKind, p Point, item *CatalogItem) (string, error) {
	if !kind.IsFeature() {
		return "", fmt.Errorf("place %q: %w", kind, ErrInvalidOperation)
	}
	id := e.mintID(string(kind))
	at := e.grid.Snap(p)
	before := e.snapshot()
	if err := e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		return f.Place(kind, id, at, item)
	}); err != nil {
		return "", err
	}
	e.history.Record(before)
	e.notifyCurrent(ChangeFeatures)
	return id, nil
}

// Select hit-tests snap(p) on the active floor and makes the first match
// the current selection. A miss clears the selection.
func (e *Editor) Select(p Point) *Selection {
	f := e.doc.Current()
	kind, id, ok := HitTest(f, e.grid.Snap(p))
	if !ok {
		e.selection = nil
		return nil
	}
	sel, err := Describe(f, kind, id)
	if err != nil {
		e.selection = nil
		return nil
	}
	e.selection = sel
	return sel.clone()
}

// SelectEntity selects an entity of the active floor by id.
func (e *Editor) SelectEntity(kind EntityKind, id string) error {
	sel, err := Describe(e.doc.Current(), kind, id)
	if err != nil {
		return err
	}
	e.selection = sel
	return nil
}

// ClearSelection drops the current selection.
func (e *Editor) ClearSelection() {
	e.selection = nil
}

// DeleteSelected removes the selected entity. Deleting a wall re-runs room
// inference; deleting a room leaves the walls alone.
func (e *Editor) DeleteSelected() error {
	if e.selection == nil {
		return fmt.Errorf("delete: nothing selected: %w", ErrNotFound)
	}
	sel := e.selection
	before := e.snapshot()
	if err := e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		return f.Remove(sel.Kind, sel.ID)
	}); err != nil {
		e.selection = nil
		return fmt.Errorf("delete: %w", err)
	}
	e.history.Record(before)
	e.selection = nil

	switch sel.Kind {
	case KindWall:
		e.recomputeRooms()
		e.notifyCurrent(ChangeWalls)
	case KindRoom:
		_ = e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
			f.Thumbnail = nil
			return f, nil
		})
		e.notifyCurrent(ChangeRooms)
	default:
		e.notifyCurrent(ChangeFeatures)
	}
	return nil
}

// SetRoomType tags a room of the active floor.
func (e *Editor) SetRoomType(roomID, roomType string) error {
	before := e.snapshot()
	if err := e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		return f.SetRoomType(roomID, roomType)
	}); err != nil {
		return err
	}
	e.history.Record(before)
	if e.selection != nil && e.selection.Kind == KindRoom && e.selection.ID == roomID {
		e.selection.RoomType = roomType
	}
	e.notifyCurrent(ChangeRooms)
	return nil
}

// UpdateSelected writes a numeric property through to the selected entity.
// Geometry is unchanged, so rooms are not re-inferred.
func (e *Editor) UpdateSelected(prop string, value float64) error {
	if e.selection == nil {
		return fmt.Errorf("update %s: nothing selected: %w", prop, ErrNotFound)
	}
	sel := e.selection
	before := e.snapshot()
	if err := e.doc.UpdateCurrent(func(f Floor) (Floor, error) {
		return f.SetProperty(sel.Kind, sel.ID, prop, value)
	}); err != nil {
		return fmt.Errorf("update %s: %w", prop, err)
	}
	e.history.Record(before)
	e.selection.Props[prop] = value

	kind := ChangeFeatures
	if sel.Kind == KindWall {
		kind = ChangeWalls
	}
	e.notifyCurrent(kind)
	return nil
}

// ---------------------------------------------------------------------------
// Floors
// ---------------------------------------------------------------------------

// SwitchFloor activates the floor at index and clears the selection.
func (e *Editor) SwitchFloor(index int) error {
	if err := e.doc.SwitchFloor(index); err != nil {
		return err
	}
	e.draft.Cancel()
	e.selection = nil
	e.notifyCurrent(ChangeFloors)
	return nil
}

// AddFloor appends a floor, activates it and returns its index.
func (e *Editor) AddFloor() int {
	e.record()
	e.draft.Cancel()
	e.selection = nil
	i := e.doc.AddFloor(e.mintID("floor"))
	e.notifyCurrent(ChangeFloors)
	return i
}

// DeleteFloor removes the floor at index. The last remaining floor cannot
// be deleted.
func (e *Editor) DeleteFloor(index int) error {
	before := e.snapshot()
	wasCurrent := index == e.doc.CurrentFloorIndex
	if err := e.doc.DeleteFloor(index); err != nil {
		log.Printf("Warning: delete floor %d rejected: %v", index, err)
		return err
	}
	e.history.Record(before)
	if wasCurrent {
		e.draft.Cancel()
		e.selection = nil
	}
	e.notifyCurrent(ChangeFloors)
	return nil
}

// AttachThumbnail stores a rendered preview on the floor with the given id.
// It bypasses history.
func (e *Editor) AttachThumbnail(floorID string, png []byte) error {
	i, err := e.doc.FloorIndex(floorID)
	if err != nil {
		return err
	}
	e.doc.Floors[i].Thumbnail = png
	e.notify(ChangeThumbnail, i)
	return nil
}

// ---------------------------------------------------------------------------
// History and view
// ---------------------------------------------------------------------------

// Undo restores the state before the latest mutation.
func (e *Editor) Undo() bool {
	prev, ok := e.history.Undo(e.snapshot())
	if !ok {
		return false
	}
	e.restore(prev)
	e.notifyCurrent(ChangeHistory)
	return true
}

// Redo re-applies the latest undone mutation.
func (e *Editor) Redo() bool {
	next, ok := e.history.Redo(e.snapshot())
	if !ok {
		return false
	}
	e.restore(next)
	e.notifyCurrent(ChangeHistory)
	return true
}

func (e *Editor) ZoomIn() float64 {
	e.zoom = min(e.zoom*zoomStep, MaxZoom)
	return e.zoom
}

func (e *Editor) ZoomOut() float64 {
	e.zoom = max(e.zoom/zoomStep, MinZoom)
	return e.zoom
}

func (e *Editor) ResetZoom() {
	e.zoom = 1
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// SetGridSize changes the grid pitch. Existing geometry is left in place.
func (e *Editor) SetGridSize(size float64) error {
	if size <= 0 {
		return fmt.Errorf("grid size %g: %w", size, ErrInvalidOperation)
	}
	e.grid.Size = size
	return nil
}

func (e *Editor) SetSnapEnabled(enabled bool) {
	e.grid.SnapEnabled = enabled
}

func (e *Editor) SetMeasurementUnit(u MeasurementUnit) error {
	parsed, err := ParseMeasurementUnit(string(u))
	if err != nil {
		return err
	}
	e.unit = parsed
	return nil
}
