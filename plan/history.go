package plan

// DefaultHistoryLimit caps the undo stack when no limit is configured.
const DefaultHistoryLimit = 100

// Snapshot is a full copy of the editable state.
type Snapshot struct {
	Document  Document
	Selection *Selection
	Zoom      float64
}

// History holds bounded undo and redo stacks of snapshots. When the undo
// stack is full the oldest snapshot is dropped.
type History struct {
	undo  []Snapshot
	redo  []Snapshot
	limit int
}

// NewHistory returns an empty history. A limit <= 0 selects
// DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func (h *History) pushUndo(s Snapshot) {
	h.undo = append(h.undo, s)
	if over := len(h.undo) - h.limit; over > 0 {
		h.undo = append([]Snapshot(nil), h.undo[over:]...)
	}
}

// Record stores the state taken before a mutation and clears the redo stack.
func (h *History) Record(before Snapshot) {
	h.pushUndo(before)
	h.redo = nil
}

// Undo pops the latest snapshot, pushing current onto the redo stack.
// ok is false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.pushUndo(current)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}
