package expr

import (
	"sort"
	"sync"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/internal/logging"
)

// Tracker records the axis reads made by a computation.
type Tracker struct {
	axes axis.Reader
	deps map[axis.ID]observed
}

type observed struct {
	state   axis.State
	present bool
}

// NewTracker wraps axes. A nil reader behaves as an empty one.
func NewTracker(axes axis.Reader) *Tracker {
	return &Tracker{axes: axes, deps: make(map[axis.ID]observed)}
}

// State implements axis.Reader and records the read.
func (t *Tracker) State(id axis.ID) (axis.State, bool) {
	var (
		s  axis.State
		ok bool
	)
	if t.axes != nil {
		s, ok = t.axes.State(id)
	}
	t.deps[id] = observed{state: s, present: ok}
	return s, ok
}

// Deps returns the identifiers read so far, sorted.
func (t *Tracker) Deps() []axis.ID {
	ids := make([]axis.ID, 0, len(t.deps))
	for id := range t.deps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Class != ids[j].Class {
			return ids[i].Class < ids[j].Class
		}
		return ids[i].Name < ids[j].Name
	})
	return ids
}

// Stale reports whether any recorded read would now observe a different value.
func (t *Tracker) Stale(axes axis.Reader) bool {
	for id, was := range t.deps {
		var (
			s  axis.State
			ok bool
		)
		if axes != nil {
			s, ok = axes.State(id)
		}
		if ok != was.present || (ok && !s.Equal(was.state)) {
			return true
		}
	}
	return false
}

// Slot is a texture binding whose texture may be replaced between frames.
type Slot struct {
	mu  sync.Mutex
	tex *Texture
}

// NewSlot returns a slot holding t.
func NewSlot(t *Texture) *Slot { return &Slot{tex: t} }

// Texture returns the current texture.
func (s *Slot) Texture() *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tex
}

func (s *Slot) swap(t *Texture) *Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.tex
	s.tex = t
	return old
}

// ComputeFunc produces a texture, reading axis state through axes.
type ComputeFunc func(axes axis.Reader) (*Texture, error)

// Refresher keeps a slot up to date with the axis state its computation
// depends on.
type Refresher struct {
	name    string
	ctx     *Context
	slot    *Slot
	compute ComputeFunc

	mu         sync.Mutex
	deps       *Tracker
	recomputes int
}

// NewRefresher runs compute once against axes and returns a refresher
// whose slot holds the result.
func NewRefresher(name string, ctx *Context, axes axis.Reader, compute ComputeFunc) (*Refresher, error) {
	tr := NewTracker(axes)
	t, err := compute(tr)
	if err != nil {
		return nil, err
	}
	return &Refresher{
		name:    name,
		ctx:     ctx,
		slot:    NewSlot(t),
		compute: compute,
		deps:    tr,
	}, nil
}

// Name returns the name of the computation being refreshed.
func (r *Refresher) Name() string { return r.name }

// Slot returns the texture slot.
func (r *Refresher) Slot() *Slot { return r.slot }

// Deps returns the axes the last computation read.
func (r *Refresher) Deps() []axis.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deps.Deps()
}

// Recomputes returns how many times RefreshIfNeeded recomputed.
func (r *Refresher) Recomputes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recomputes
}

// RefreshIfNeeded recomputes the texture when an axis it read has changed.
// On success the slot and the recorded dependencies are replaced together
// and the previous texture is released. On failure nothing changes.
func (r *Refresher) RefreshIfNeeded(axes axis.Reader) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.deps.Stale(axes) {
		return false, nil
	}
	tr := NewTracker(axes)
	t, err := r.compute(tr)
	if err != nil {
		return false, err
	}
	old := r.slot.swap(t)
	r.deps = tr
	r.recomputes++
	if old != t {
		r.ctx.Release(old)
	}
	logging.Logger().Debug("expr: recomputed", "computation", r.name, "deps", len(tr.deps))
	return true, nil
}

// Destroy releases the current texture.
func (r *Refresher) Destroy() {
	r.ctx.Release(r.slot.swap(nil))
}
