package plan

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func (p Point) orb() orb.Point { return orb.Point{p.X, p.Y} }

func fromOrb(p orb.Point) Point { return Point{X: p[0], Y: p[1]} }

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return planar.Distance(a.orb(), b.orb())
}

// PolygonArea returns the unsigned shoelace area of points, treating the
// sequence as a closed ring whether or not the first point is repeated.
// Fewer than three points have no area.
func PolygonArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}

// PolygonCenter returns the arithmetic mean of points. This is not the area
// centroid. Callers that hold a closed ring should pass the open ring.
func PolygonCenter(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(points))
	return Point{X: c.X / n, Y: c.Y / n}
}

// DistanceToSegment returns the distance from p to the segment a-b,
// clamped to the segment ends.
func DistanceToSegment(p, a, b Point) float64 {
	if a == b {
		return Distance(p, a)
	}
	return planar.DistanceFrom(orb.LineString{a.orb(), b.orb()}, p.orb())
}

// PointInPolygon reports whether p lies inside polygon using the even-odd
// rule. A repeated closing point is harmless.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	if !Bounds(polygon).Contains(p.orb()) {
		return false
	}
	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Bounds returns the bounding box of points.
func Bounds(points []Point) orb.Bound {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.orb()
	}
	return ls.Bound()
}

// openRing drops the closing duplicate of a closed ring.
func openRing(points []Point) []Point {
	if len(points) > 1 && points[0] == points[len(points)-1] {
		return points[:len(points)-1]
	}
	return points
}

// FloorBounds returns the bounding box of every wall endpoint and room
// vertex on f. ok is false when the floor has no geometry.
func FloorBounds(f Floor) (b orb.Bound, ok bool) {
	var pts []Point
	for _, w := range f.Walls {
		pts = append(pts, w.Start, w.End)
	}
	for _, r := range f.Rooms {
		pts = append(pts, r.Points...)
	}
	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	return Bounds(pts), true
}
