package plan

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FloorFeatureCollection projects a floor into GeoJSON in plan
// coordinates (cm). Walls become LineStrings, rooms Polygons and placed
// features Points; every feature carries "kind" and "layer" properties.
func FloorFeatureCollection(f Floor) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, w := range f.Walls {
		feat := newGeoFeature(orb.LineString{w.Start.orb(), w.End.orb()}, KindWall, w.ID)
		feat.Properties["length"] = w.Length
		feat.Properties["thickness"] = w.Thickness
		fc.Append(feat)
	}

	for _, r := range f.Rooms {
		ring := make(orb.Ring, len(r.Points))
		for i, p := range r.Points {
			ring[i] = p.orb()
		}
		info := LookupRoomType(r.RoomType)
		feat := newGeoFeature(orb.Polygon{ring}, KindRoom, r.ID)
		feat.Properties["area"] = r.Area
		feat.Properties["center"] = []float64{r.Center.X, r.Center.Y}
		feat.Properties["color"] = info.Color
		if r.RoomType != "" {
			feat.Properties["roomType"] = r.RoomType
			feat.Properties["label"] = info.Label
		}
		fc.Append(feat)
	}

	for _, d := range f.Doors {
		feat := newGeoFeature(d.Position.orb(), KindDoor, d.ID)
		setDims(feat, d.Width, d.Height, d.Rotation)
		if d.WallID != "" {
			feat.Properties["wallId"] = d.WallID
		}
		fc.Append(feat)
	}
	for _, w := range f.Windows {
		feat := newGeoFeature(w.Position.orb(), KindWindow, w.ID)
		setDims(feat, w.Width, w.Height, w.Rotation)
		if w.WallID != "" {
			feat.Properties["wallId"] = w.WallID
		}
		fc.Append(feat)
	}
	for _, c := range f.Columns {
		feat := newGeoFeature(c.Position.orb(), KindColumn, c.ID)
		feat.Properties["diameter"] = c.Diameter
		feat.Properties["height"] = c.Height
		fc.Append(feat)
	}
	for _, s := range f.Staircases {
		feat := newGeoFeature(s.Position.orb(), KindStaircase, s.ID)
		setDims(feat, s.Width, 0, s.Rotation)
		feat.Properties["length"] = s.Length
		feat.Properties["direction"] = s.Direction
		fc.Append(feat)
	}
	for _, c := range f.Components {
		feat := newGeoFeature(c.Position.orb(), KindComponent, c.ID)
		setDims(feat, c.Width, c.Height, c.Rotation)
		feat.Properties["depth"] = c.Depth
		feat.Properties["type"] = c.Type
		if c.CatalogItemID != "" {
			feat.Properties["catalogItemId"] = c.CatalogItemID
		}
		fc.Append(feat)
	}

	return fc
}

func newGeoFeature(g orb.Geometry, kind EntityKind, id string) *geojson.Feature {
	feat := geojson.NewFeature(g)
	feat.ID = id
	feat.Properties["kind"] = string(kind)
	feat.Properties["layer"] = layerOf(kind)
	return feat
}

func setDims(feat *geojson.Feature, width, height, rotation float64) {
	feat.Properties["width"] = width
	if height > 0 {
		feat.Properties["height"] = height
	}
	feat.Properties["rotation"] = rotation
}
