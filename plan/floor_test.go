package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloor(t *testing.T) {
	f := NewFloor("f1", "Attic", 2)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, "Attic", f.Name)
	assert.Equal(t, 2, f.Index)
	assert.NotNil(t, f.Walls)
	assert.NotNil(t, f.Components)
	assert.Zero(t, f.TotalArea())
}

func TestFloor_CloneIsDeep(t *testing.T) {
	f := furnishedFloor(t)
	f.Thumbnail = []byte{1, 2, 3}

	c := f.Clone()
	c.Walls[0].Thickness = 99
	c.Rooms[0].Points[0].X = -1
	c.Doors[0].Width = 1
	c.Thumbnail[0] = 9

	assert.Equal(t, DefaultWallThickness, f.Walls[0].Thickness)
	assert.Equal(t, 0.0, f.Rooms[0].Points[0].X)
	assert.Equal(t, DoorWidth, f.Doors[0].Width)
	assert.Equal(t, byte(1), f.Thumbnail[0])
}

func TestFloor_Place(t *testing.T) {
	f := NewFloor("f", "F", 0)

	f, err := f.Place(KindStaircase, "s1", Point{X: 10, Y: 20}, nil)
	require.NoError(t, err)
	require.Len(t, f.Staircases, 1)
	assert.Equal(t, StaircaseUp, f.Staircases[0].Direction)
	assert.Equal(t, StaircaseLength, f.Staircases[0].Length)

	f, err = f.Place(KindComponent, "c1", Point{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultComponent, f.Components[0].Type)
	assert.Equal(t, ComponentSize, f.Components[0].Width)

	item := &CatalogItem{ID: "desk", Category: "office", Width: 160, Depth: 80}
	f, err = f.Place(KindComponent, "c2", Point{}, item)
	require.NoError(t, err)
	c := f.Components[1]
	assert.Equal(t, "desk", c.CatalogItemID)
	assert.Equal(t, "office", c.Type)
	assert.Equal(t, 160.0, c.Width)
	assert.Equal(t, ComponentSize, c.Height, "missing catalogue dimensions keep the default")
	assert.Equal(t, 80.0, c.Depth)

	_, err = f.Place(KindWall, "w", Point{}, nil)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestFloor_Remove(t *testing.T) {
	f := furnishedFloor(t)

	next, err := f.Remove(KindColumn, "column-1")
	require.NoError(t, err)
	assert.Empty(t, next.Columns)
	assert.Len(t, f.Columns, 1, "receiver must not change")

	next, err = f.Remove(KindWall, "w1")
	require.NoError(t, err)
	assert.Len(t, next.Walls, 3)
	assert.Len(t, next.Rooms, 1, "rooms are only re-derived by inference")

	_, err = f.Remove(KindDoor, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.Remove(EntityKind("roof"), "x")
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestFloor_SetRoomType(t *testing.T) {
	f := furnishedFloor(t)

	next, err := f.SetRoomType("room-1", "bathroom")
	require.NoError(t, err)
	assert.Equal(t, "bathroom", next.Rooms[0].RoomType)
	assert.Equal(t, "", f.Rooms[0].RoomType, "receiver must not change")

	f.Thumbnail = []byte("png")
	next, err = f.SetRoomType("room-1", "kitchen")
	require.NoError(t, err)
	assert.Nil(t, next.Thumbnail, "room colours changed, thumbnail is stale")
	assert.Equal(t, []byte("png"), f.Thumbnail)

	_, err = f.SetRoomType("room-9", "bathroom")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFloor_TotalArea(t *testing.T) {
	f := NewFloor("f", "F", 0)
	f.Walls = append(rectangleWalls(), loopWalls(Point{X: 2000, Y: 0}, Point{X: 2500, Y: 0}, Point{X: 2500, Y: 500}, Point{X: 2000, Y: 500})...)
	f = f.InferRooms(DefaultGrid(), sequentialIDs())
	assert.Equal(t, 1050000.0, f.TotalArea())
}

func TestLookupRoomType(t *testing.T) {
	assert.Equal(t, "Kitchen", LookupRoomType("kitchen").Label)
	assert.Equal(t, "other", LookupRoomType("").Tag)
	assert.Equal(t, "other", LookupRoomType("ballroom").Tag)
}
