package plan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEditor returns an editor on the default grid with ids prefix-N.
func newTestEditor() *Editor {
	n := 0
	return NewEditor(Options{
		Grid: DefaultGrid(),
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		},
	})
}

func drawWall(e *Editor, from, to Point) (Wall, bool) {
	e.BeginWall(from)
	e.UpdateWallPreview(to)
	return e.CommitWall()
}

func drawRectangle(e *Editor) {
	corners := []Point{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 800}, {X: 0, Y: 800}}
	for i := range corners {
		drawWall(e, corners[i], corners[(i+1)%len(corners)])
	}
}

// recorder collects change events.
type recorder struct {
	events []ChangeEvent
}

func (r *recorder) listen(ev ChangeEvent) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []ChangeKind {
	out := make([]ChangeKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// ---------------------------------------------------------------------------
// Wall authoring
// ---------------------------------------------------------------------------

func TestEditor_CommitWallSnaps(t *testing.T) {
	e := newTestEditor()
	w, ok := drawWall(e, Point{X: 12, Y: -8}, Point{X: 988, Y: 30})
	require.True(t, ok)
	assert.Equal(t, Point{X: 0, Y: 0}, w.Start)
	assert.Equal(t, Point{X: 1000, Y: 50}, w.End)
	assert.Len(t, e.Walls(), 1)
	assert.True(t, e.CanUndo())
}

func TestEditor_ZeroLengthWallDiscarded(t *testing.T) {
	e := newTestEditor()
	_, ok := drawWall(e, Point{X: 100, Y: 100}, Point{X: 110, Y: 90})
	assert.False(t, ok)
	assert.Empty(t, e.Walls())
	assert.False(t, e.CanUndo(), "a discarded draw is not an undo step")
}

func TestEditor_PointerWallFlow(t *testing.T) {
	e := newTestEditor()
	require.NoError(t, e.SetTool(ToolWall))

	require.NoError(t, e.PointerDown(Point{X: 0, Y: 0}))
	e.PointerMove(Point{X: 500, Y: 0})
	preview, ok := e.WallPreview()
	require.True(t, ok)
	assert.Equal(t, 500.0, preview.Length)
	e.PointerUp()
	assert.Len(t, e.Walls(), 1)

	// Leaving the canvas aborts the draw.
	require.NoError(t, e.PointerDown(Point{X: 0, Y: 0}))
	e.PointerMove(Point{X: 0, Y: 500})
	e.PointerLeave()
	e.PointerUp()
	assert.Len(t, e.Walls(), 1)
}

func TestEditor_RoomsFollowWalls(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)

	rooms := e.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 800000.0, rooms[0].Area)
	assert.Equal(t, Point{X: 500, Y: 400}, rooms[0].Center)
	assert.Equal(t, 800000.0, e.TotalArea())

	// Removing a wall opens the loop.
	require.NotNil(t, e.Select(Point{X: 500, Y: 800}))
	require.NoError(t, e.DeleteSelected())
	assert.Len(t, e.Walls(), 3)
	assert.Empty(t, e.Rooms())
}

func TestEditor_RoomIdentitySurvivesNewWall(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	room := e.Rooms()[0]
	require.NoError(t, e.SetRoomType(room.ID, "kitchen"))

	drawWall(e, Point{X: 1000, Y: 0}, Point{X: 1500, Y: 0})
	rooms := e.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
	assert.Equal(t, "kitchen", rooms[0].RoomType)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestEditor_UndoRedo(t *testing.T) {
	e := newTestEditor()
	drawWall(e, Point{X: 0, Y: 0}, Point{X: 500, Y: 0})
	drawWall(e, Point{X: 500, Y: 0}, Point{X: 500, Y: 500})

	require.True(t, e.Undo())
	assert.Len(t, e.Walls(), 1)
	require.True(t, e.Redo())
	assert.Len(t, e.Walls(), 2)

	require.True(t, e.Undo())
	require.True(t, e.Undo())
	assert.Empty(t, e.Walls())
	assert.False(t, e.Undo())

	// Undo after a wall-add restores the prior room set, redo the post-add one.
	drawRectangle(e)
	rooms := e.Rooms()
	require.Len(t, rooms, 1)
	require.True(t, e.Undo())
	assert.Empty(t, e.Rooms())
	require.True(t, e.Redo())
	require.Len(t, e.Rooms(), 1)
	assert.Equal(t, rooms[0].ID, e.Rooms()[0].ID)
	assert.Equal(t, rooms[0].Area, e.Rooms()[0].Area)
	for i := 0; i < 4; i++ {
		require.True(t, e.Undo())
	}
	assert.Empty(t, e.Walls())

	// A new mutation after undo clears redo.
	require.True(t, e.Redo())
	drawWall(e, Point{X: 0, Y: 0}, Point{X: 0, Y: 300})
	assert.False(t, e.CanRedo())
	assert.False(t, e.Redo())
	assert.Len(t, e.Walls(), 2)
}

func TestEditor_UndoRestoresRoomsAndSelection(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	sel := e.Select(Point{X: 500, Y: 400})
	require.NotNil(t, sel)
	require.Equal(t, KindRoom, sel.Kind)

	require.NoError(t, e.DeleteSelected())
	assert.Empty(t, e.Rooms())
	assert.Nil(t, e.Selection())

	require.True(t, e.Undo())
	assert.Len(t, e.Rooms(), 1)
	restored := e.Selection()
	require.NotNil(t, restored)
	assert.Equal(t, sel.ID, restored.ID)
}

func TestEditor_HistoryLimit(t *testing.T) {
	e := NewEditor(Options{HistoryLimit: 2})
	for i := 0; i < 4; i++ {
		drawWall(e, Point{X: 0, Y: float64(i) * 100}, Point{X: 500, Y: float64(i) * 100})
	}
	assert.True(t, e.Undo())
	assert.True(t, e.Undo())
	assert.False(t, e.Undo())
	assert.Len(t, e.Walls(), 2)
}

// ---------------------------------------------------------------------------
// Features and selection
// ---------------------------------------------------------------------------

func TestEditor_PlaceFeatureTools(t *testing.T) {
	e := newTestEditor()
	for _, tool := range []Tool{ToolDoor, ToolWindow, ToolColumn, ToolStaircase, ToolComponent} {
		require.NoError(t, e.SetTool(tool))
		require.NoError(t, e.PointerDown(Point{X: 260, Y: 140}))
	}

	f := e.CurrentFloor()
	require.Len(t, f.Doors, 1)
	assert.Equal(t, Point{X: 250, Y: 150}, f.Doors[0].Position, "placement snaps")
	assert.Len(t, f.Windows, 1)
	assert.Len(t, f.Columns, 1)
	assert.Len(t, f.Staircases, 1)
	assert.Len(t, f.Components, 1)

	undo, _ := e.history.Depth()
	assert.Equal(t, 5, undo, "every placement is an undo step")
}

func TestEditor_ComponentUsesCatalogItem(t *testing.T) {
	e := newTestEditor()
	item := &CatalogItem{ID: "bed", Category: "bedroom", Width: 160, Height: 200}
	e.SetCatalogItem(item)
	item.Width = 1 // the editor holds its own copy

	require.NoError(t, e.SetTool(ToolComponent))
	require.NoError(t, e.PointerDown(Point{X: 400, Y: 400}))

	c := e.CurrentFloor().Components[0]
	assert.Equal(t, "bed", c.CatalogItemID)
	assert.Equal(t, 160.0, c.Width)
}

func TestEditor_PlaceFeatureRejectsNonFeature(t *testing.T) {
	e := newTestEditor()
	_, err := e.PlaceFeature(KindRoom, Point{}, nil)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.False(t, e.CanUndo())
}

func TestEditor_SelectAndUpdate(t *testing.T) {
	e := newTestEditor()
	id, err := e.PlaceFeature(KindDoor, Point{X: 500, Y: 0}, nil)
	require.NoError(t, err)

	sel := e.Select(Point{X: 510, Y: 10})
	require.NotNil(t, sel)
	assert.Equal(t, KindDoor, sel.Kind)
	assert.Equal(t, id, sel.ID)
	assert.Equal(t, LayerFeatures, sel.Layer)
	assert.Equal(t, DoorWidth, sel.Props["width"])

	require.NoError(t, e.UpdateSelected("width", 110))
	assert.Equal(t, 110.0, e.CurrentFloor().Doors[0].Width)
	assert.Equal(t, 110.0, e.Selection().Props["width"])

	err = e.UpdateSelected("colour", 3)
	assert.True(t, errors.Is(err, ErrInvalidOperation))

	// A miss clears the selection.
	assert.Nil(t, e.Select(Point{X: 3000, Y: 3000}))
	assert.Nil(t, e.Selection())
	assert.True(t, errors.Is(e.UpdateSelected("width", 1), ErrNotFound))
	assert.True(t, errors.Is(e.DeleteSelected(), ErrNotFound))
}

func TestEditor_WallLengthReadOnly(t *testing.T) {
	e := newTestEditor()
	w, _ := drawWall(e, Point{X: 0, Y: 0}, Point{X: 500, Y: 0})
	require.NoError(t, e.SelectEntity(KindWall, w.ID))

	err := e.UpdateSelected("length", 900)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	require.NoError(t, e.UpdateSelected("thickness", 20))
	assert.Equal(t, 20.0, e.Walls()[0].Thickness)
}

func TestEditor_SetToolClearsSelection(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	require.NotNil(t, e.Select(Point{X: 500, Y: 400}))

	require.NoError(t, e.SetTool(ToolSelect))
	assert.NotNil(t, e.Selection(), "staying on select keeps the selection")

	require.NoError(t, e.SetTool(ToolWall))
	assert.Nil(t, e.Selection())

	assert.Error(t, e.SetTool(Tool("lasso")))
	assert.Equal(t, ToolWall, e.Tool())
}

func TestEditor_SelectionIsACopy(t *testing.T) {
	e := newTestEditor()
	_, err := e.PlaceFeature(KindColumn, Point{X: 100, Y: 100}, nil)
	require.NoError(t, err)
	sel := e.Select(Point{X: 100, Y: 100})
	require.NotNil(t, sel)
	sel.Props["diameter"] = 999
	assert.Equal(t, ColumnDiameter, e.Selection().Props["diameter"])
}

func TestEditor_SetRoomTypeUpdatesSelection(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	sel := e.Select(Point{X: 500, Y: 400})
	require.NotNil(t, sel)

	require.NoError(t, e.SetRoomType(sel.ID, "living"))
	assert.Equal(t, "living", e.Selection().RoomType)
	assert.Equal(t, "living", e.Rooms()[0].RoomType)

	assert.True(t, errors.Is(e.SetRoomType("room-404", "living"), ErrNotFound))
}

// ---------------------------------------------------------------------------
// Floors
// ---------------------------------------------------------------------------

func TestEditor_Floors(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)

	i := e.AddFloor()
	assert.Equal(t, 1, i)
	assert.Equal(t, 1, e.CurrentFloorIndex())
	assert.Empty(t, e.Walls(), "new floor starts empty")
	drawWall(e, Point{X: 0, Y: 0}, Point{X: 300, Y: 0})

	require.NoError(t, e.SwitchFloor(0))
	assert.Len(t, e.Walls(), 4)
	assert.Len(t, e.Rooms(), 1)

	require.NoError(t, e.DeleteFloor(1))
	assert.Len(t, e.Document().Floors, 1)

	err := e.DeleteFloor(0)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.True(t, errors.Is(e.SwitchFloor(4), ErrNotFound))

	// Deleting the floor is undoable.
	require.True(t, e.Undo())
	assert.Len(t, e.Document().Floors, 2)
}

func TestEditor_SwitchFloorKeepsHistory(t *testing.T) {
	e := newTestEditor()
	e.AddFloor()
	undo, _ := e.history.Depth()
	require.NoError(t, e.SwitchFloor(0))
	after, _ := e.history.Depth()
	assert.Equal(t, undo, after, "switching floors is not an undo step")
}

func TestEditor_AttachThumbnail(t *testing.T) {
	e := newTestEditor()
	rec := &recorder{}
	e.Subscribe(rec.listen)

	floorID := e.CurrentFloor().ID
	require.NoError(t, e.AttachThumbnail(floorID, []byte("png")))
	assert.Equal(t, []byte("png"), e.CurrentFloor().Thumbnail)
	assert.False(t, e.CanUndo())
	assert.Equal(t, []ChangeKind{ChangeThumbnail}, rec.kinds())

	assert.True(t, errors.Is(e.AttachThumbnail("nope", nil), ErrNotFound))

	// Editing the floor invalidates the thumbnail.
	drawWall(e, Point{X: 0, Y: 0}, Point{X: 100, Y: 0})
	assert.Nil(t, e.CurrentFloor().Thumbnail)
}

func TestEditor_SetRoomTypeRequestsThumbnail(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	rooms := e.Rooms()
	require.Len(t, rooms, 1)

	floorID := e.CurrentFloor().ID
	require.NoError(t, e.AttachThumbnail(floorID, []byte("png")))

	thumbs := NewThumbnailer(NewThumbnailRenderer(64))
	e.Subscribe(thumbs.Listener())

	require.NoError(t, e.SetRoomType(rooms[0].ID, "kitchen"))
	assert.Nil(t, e.CurrentFloor().Thumbnail)
	assert.Equal(t, 1, thumbs.Pending())

	// Undo restores the earlier thumbnail along with the untagged room.
	require.True(t, e.Undo())
	assert.Equal(t, "", e.Rooms()[0].RoomType)
}

// ---------------------------------------------------------------------------
// Notifications, view and settings
// ---------------------------------------------------------------------------

func TestEditor_Notifications(t *testing.T) {
	e := newTestEditor()
	rec := &recorder{}
	e.Subscribe(rec.listen)

	drawWall(e, Point{X: 0, Y: 0}, Point{X: 100, Y: 0})
	_, _ = e.PlaceFeature(KindDoor, Point{X: 50, Y: 0}, nil)
	e.Undo()
	e.AddFloor()

	want := []ChangeKind{ChangeWalls, ChangeFeatures, ChangeHistory, ChangeFloors}
	assert.Equal(t, want, rec.kinds())

	// Events carry private copies.
	rec.events[0].Floor.Walls[0].Thickness = 500
	require.NoError(t, e.SwitchFloor(0))
	assert.Equal(t, DefaultWallThickness, e.Walls()[0].Thickness)
}

func TestEditor_Zoom(t *testing.T) {
	e := newTestEditor()
	assert.InDelta(t, 1.2, e.ZoomIn(), 1e-9)
	for i := 0; i < 50; i++ {
		e.ZoomIn()
	}
	assert.Equal(t, MaxZoom, e.Zoom())
	for i := 0; i < 100; i++ {
		e.ZoomOut()
	}
	assert.Equal(t, MinZoom, e.Zoom())
	e.ResetZoom()
	assert.Equal(t, 1.0, e.Zoom())
}

func TestEditor_Settings(t *testing.T) {
	e := newTestEditor()

	assert.True(t, errors.Is(e.SetGridSize(0), ErrInvalidOperation))
	require.NoError(t, e.SetGridSize(10))
	w, _ := drawWall(e, Point{X: 12, Y: 0}, Point{X: 117, Y: 0})
	assert.Equal(t, Point{X: 10, Y: 0}, w.Start)

	e.SetSnapEnabled(false)
	w, _ = drawWall(e, Point{X: 12, Y: 0}, Point{X: 117, Y: 3})
	assert.Equal(t, Point{X: 12, Y: 0}, w.Start)

	require.NoError(t, e.SetMeasurementUnit("Imperial"))
	assert.Equal(t, Imperial, e.Unit())
	assert.Error(t, e.SetMeasurementUnit("cubits"))
	assert.Equal(t, `3'3"`, e.FormatLength(100))
}

func TestEditor_LoadDocument(t *testing.T) {
	e := newTestEditor()
	drawRectangle(e)
	doc := e.Document()

	other := newTestEditor()
	rec := &recorder{}
	other.Subscribe(rec.listen)
	require.NoError(t, other.LoadDocument(doc))
	assert.Len(t, other.Rooms(), 1)
	assert.False(t, other.CanUndo())
	assert.Equal(t, []ChangeKind{ChangeDocument}, rec.kinds())

	assert.Error(t, other.LoadDocument(Document{}))
}
