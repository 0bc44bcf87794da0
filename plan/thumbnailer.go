package plan

import (
	"context"
	"errors"
	"sync"
)

// ThumbnailResult is a rendered preview for one floor. PNG is nil when the
// floor had nothing to draw.
type ThumbnailResult struct {
	FloorID string
	PNG     []byte
	Err     error
}

// Thumbnailer renders floor previews off the editing goroutine. Requests
// for the same floor coalesce so only its latest state is rendered.
// Results are attached with Editor.AttachThumbnail by the goroutine that
// owns the editor.
type Thumbnailer struct {
	renderer *ThumbnailRenderer
	results  chan ThumbnailResult
	wake     chan struct{}

	mu      sync.Mutex
	pending map[string]Floor
	order   []string
	closed  bool
}

// NewThumbnailer returns a worker using renderer.
func NewThumbnailer(renderer *ThumbnailRenderer) *Thumbnailer {
	return &Thumbnailer{
		renderer: renderer,
		results:  make(chan ThumbnailResult),
		wake:     make(chan struct{}, 1),
		pending:  make(map[string]Floor),
	}
}

// Results delivers rendered thumbnails. It is closed when Run returns.
func (t *Thumbnailer) Results() <-chan ThumbnailResult {
	return t.results
}

// Request queues f for rendering, replacing any queued state of the same
// floor. Requests after Close are ignored.
func (t *Thumbnailer) Request(f Floor) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if _, ok := t.pending[f.ID]; !ok {
		t.order = append(t.order, f.ID)
	}
	t.pending[f.ID] = f
	t.mu.Unlock()
	t.signal()
}

// Close stops accepting requests. Run renders what is queued and returns.
func (t *Thumbnailer) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.signal()
}

func (t *Thumbnailer) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of floors waiting to be rendered.
func (t *Thumbnailer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Thumbnailer) next() (f Floor, ok, closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.order) == 0 {
		return Floor{}, false, t.closed
	}
	id := t.order[0]
	t.order = t.order[1:]
	f = t.pending[id]
	delete(t.pending, id)
	return f, true, t.closed
}

// Listener returns an editor listener that requests a thumbnail whenever a
// floor's cached thumbnail has been invalidated.
func (t *Thumbnailer) Listener() Listener {
	return func(ev ChangeEvent) {
		if ev.Floor.Thumbnail != nil {
			return
		}
		switch ev.Kind {
		case ChangeWalls, ChangeRooms, ChangeHistory, ChangeDocument:
			t.Request(ev.Floor)
		}
	}
}

// Run renders queued floors until Close has been called and the queue is
// empty, or ctx is done.
func (t *Thumbnailer) Run(ctx context.Context) {
	defer close(t.results)
	for {
		f, ok, closed := t.next()
		if ok {
			res := ThumbnailResult{FloorID: f.ID}
			res.PNG, res.Err = t.renderer.RenderPNG(f)
			if errors.Is(res.Err, ErrEmptyFloor) {
				res.Err = nil
			}
			select {
			case t.results <- res:
			case <-ctx.Done():
				return
			}
			continue
		}
		if closed {
			return
		}
		select {
		case <-t.wake:
		case <-ctx.Done():
			return
		}
	}
}
