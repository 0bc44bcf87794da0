package plan

// WallDraft is the two-point wall drawing state machine.
// The zero value is idle. Points handed to it are expected to be snapped.
type WallDraft struct {
	drawing    bool
	start, end Point
}

// Drawing reports whether a wall is being drawn.
func (d *WallDraft) Drawing() bool { return d.drawing }

// Begin starts a draw at p. It returns false and changes nothing when a
// draw is already in progress.
func (d *WallDraft) Begin(p Point) bool {
	if d.drawing {
		return false
	}
	d.drawing = true
	d.start, d.end = p, p
	return true
}

// Update moves the free end of the draw to p.
func (d *WallDraft) Update(p Point) {
	if d.drawing {
		d.end = p
	}
}

// Preview returns the uncommitted wall for rendering feedback.
func (d *WallDraft) Preview() (Wall, bool) {
	if !d.drawing {
		return Wall{}, false
	}
	return NewWall("", d.start, d.end), true
}

// Finish ends the draw and returns its endpoints. ok is false when nothing
// was being drawn or the endpoints coincide.
func (d *WallDraft) Finish() (start, end Point, ok bool) {
	if !d.drawing {
		return Point{}, Point{}, false
	}
	start, end = d.start, d.end
	d.Cancel()
	return start, end, start != end
}

// Cancel aborts the draw without committing.
func (d *WallDraft) Cancel() {
	*d = WallDraft{}
}
