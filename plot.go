package gpuplot

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/config"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/pick"
)

// Plot is a configured set of layers sharing axes, rendered to an
// off-screen target of a gpucore.Device.
//
// Public methods are serialized by an internal mutex and may be called
// from any goroutine. The registries returned by Axes are live: read
// them between calls, and edit domains through SetDomain and
// SetFilterBound. Scheduled frames run on whatever goroutine the
// Scheduler calls them from.
type Plot struct {
	mu sync.Mutex

	dev      gpucore.Device
	reg      *Registry
	opts     options
	programs *gpucore.ProgramCache

	width, height int
	resize        *[2]int

	target, pickTarget gpucore.TargetID
	targetW, targetH   int

	cur *state

	dirty   bool
	pending bool
	closed  bool
	frames  int
}

// state is everything one Update produces. It is swapped whole.
type state struct {
	doc        *config.Document
	axes       *axis.Set
	resolver   *expr.Resolver
	commands   []*layer.DrawCommand
	background [4]float64
}

func (s *state) destroy() {
	for _, c := range s.commands {
		c.Destroy()
	}
	s.commands = nil
}

// New creates an empty plot drawing on dev. A nil registry means
// DefaultRegistry. The registry is copied.
func New(dev gpucore.Device, reg *Registry, opts ...Option) (*Plot, error) {
	if dev == nil {
		return nil, errors.New("gpuplot: nil device")
	}
	if reg == nil {
		var err error
		if reg, err = DefaultRegistry(); err != nil {
			return nil, err
		}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("gpuplot: size %dx%d must be positive", o.width, o.height)
	}
	programs, err := gpucore.NewProgramCache(dev, o.programCache)
	if err != nil {
		return nil, fmt.Errorf("gpuplot: %w", err)
	}
	doc := config.DefaultDocument()
	bg, _ := doc.BackgroundColor()
	p := &Plot{
		dev:      dev,
		reg:      reg.Clone(),
		opts:     o,
		programs: programs,
		width:    o.width,
		height:   o.height,
		cur: &state{
			doc:        doc,
			axes:       axis.NewSet(o.width, o.height),
			background: bg,
		},
	}
	Logger().Debug("gpuplot: plot created", "device", dev.Name(), "width", o.width, "height", o.height)
	return p, nil
}

// Update replaces the plot configuration and data. Layers are created,
// axes resolved and draw commands compiled before anything is swapped:
// on error the previous configuration stays in place.
//
// The document's size is ignored; the plot keeps its viewport size.
func (p *Plot) Update(doc *config.Document, src data.Source) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	next, err := p.build(doc, src)
	if err != nil {
		p.mu.Unlock()
		Logger().Debug("gpuplot: update rejected", "err", err)
		return err
	}
	old := p.cur
	p.cur = next
	old.destroy()
	schedule := p.markDirty()
	n := len(next.commands)
	p.mu.Unlock()

	Logger().Debug("gpuplot: update applied", "layers", n)
	p.request(schedule)
	return nil
}

type created struct {
	typ   *layer.Type
	layer *layer.Layer
}

func (p *Plot) build(doc *config.Document, src data.Source) (*state, error) {
	if doc == nil {
		doc = config.DefaultDocument()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	overrides, err := doc.Overrides()
	if err != nil {
		return nil, err
	}
	background, err := doc.BackgroundColor()
	if err != nil {
		return nil, err
	}

	var all []created
	for i, entry := range doc.Layers {
		typ, err := p.reg.types.Lookup(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("gpuplot: layer %d: %w", i, err)
		}
		ls, err := typ.CreateLayer(layer.Params(entry.Params), src, p.reg.exprs)
		if err != nil {
			return nil, fmt.Errorf("gpuplot: layer %d: %w", i, err)
		}
		for _, l := range ls {
			if n := l.Primitives(); n > pick.MaxDataIndex+1 {
				return nil, fmt.Errorf("%w: layer %d draws %d > %d", ErrTooManyPrimitives, i, n, pick.MaxDataIndex+1)
			}
			all = append(all, created{typ: typ, layer: l})
		}
	}
	if len(all) > pick.MaxLayers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(all), pick.MaxLayers)
	}

	axes := axis.NewSet(p.width, p.height)
	for _, c := range all {
		if err := p.ensureAxes(axes, c.layer, overrides, doc.Colorscale); err != nil {
			return nil, err
		}
	}

	s := &state{
		doc:        doc,
		axes:       axes,
		background: background,
		resolver: &expr.Resolver{
			Registry: p.reg.exprs,
			Context:  &expr.Context{Device: p.dev},
			Axes:     axes,
		},
	}
	usages := make([]axis.Usage, len(all))
	for i, c := range all {
		usages[i] = c.layer.Usage(s.resolver)
	}
	if err := axes.ApplyAutoDomains(usages, overrides); err != nil {
		return nil, fmt.Errorf("gpuplot: %w", err)
	}

	for i, c := range all {
		cmd, err := c.typ.CreateDrawCommand(c.layer, layer.Env{
			Device:      p.dev,
			Programs:    p.programs,
			Resolver:    s.resolver,
			Colorscales: p.reg.colorscales,
			Pick:        p.opts.pick,
			Index:       i,
		})
		if err != nil {
			s.destroy()
			return nil, fmt.Errorf("gpuplot: layer %d (%s): %w", i, c.layer.Type, err)
		}
		s.commands = append(s.commands, cmd)
	}
	return s, nil
}

// ensureAxes registers the axes l draws against. The scale of a new
// spatial axis comes from its quantity kind, then the override of the
// quantity kind, then the override of the axis name.
func (p *Plot) ensureAxes(axes *axis.Set, l *layer.Layer, overrides map[string]axis.Override, defaultColorscale string) error {
	for _, slot := range [][2]string{{l.XAxis, l.XQuantityKind}, {l.YAxis, l.YQuantityKind}} {
		name, qk := slot[0], slot[1]
		kind := p.reg.kinds.Lookup(qk)
		st := overrides[name].Scale.Or(overrides[qk].Scale.Or(kind.Scale))
		a, err := axes.Spatial.EnsureAxis(name, qk, st)
		if err != nil {
			return fmt.Errorf("gpuplot: layer %s: %w", l.Type, err)
		}
		switch {
		case overrides[name].Label != "":
			a.Label = overrides[name].Label
		case overrides[qk].Label != "":
			a.Label = overrides[qk].Label
		case a.Label == "":
			a.Label = kind.Label
		}
	}
	for _, qk := range kindsOf(l.ColorAxes) {
		kind := p.reg.kinds.Lookup(qk)
		if kind.Colorscale == "" {
			kind.Colorscale = defaultColorscale
		}
		a := axes.Color.Ensure(kind, overrides[qk])
		if _, err := p.reg.colorscales.Index(a.Colorscale); err != nil {
			return fmt.Errorf("gpuplot: color axis %s: %w", qk, err)
		}
	}
	for _, qk := range kindsOf(l.FilterAxes) {
		axes.Filter.Ensure(p.reg.kinds.Lookup(qk), overrides[qk])
	}
	return nil
}

// Render draws a frame now and clears the dirty flag.
func (p *Plot) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	return p.render()
}

func (p *Plot) render() error {
	if err := p.prepare(); err != nil {
		return err
	}
	calls, err := p.drawCalls(false)
	if err != nil {
		return err
	}
	if err := p.dev.Render(p.target, p.cur.background, calls); err != nil {
		return fmt.Errorf("gpuplot: render: %w", err)
	}
	p.dirty = false
	p.frames++
	return nil
}

// prepare applies a pending resize and makes sure both targets match the
// viewport.
func (p *Plot) prepare() error {
	if p.resize != nil {
		p.width, p.height = p.resize[0], p.resize[1]
		p.resize = nil
		p.cur.axes.Spatial.Resize(p.width, p.height)
	}
	if p.target != 0 && p.targetW == p.width && p.targetH == p.height {
		return nil
	}
	p.destroyTargets()
	target, err := p.dev.CreateTarget(p.width, p.height)
	if err != nil {
		return fmt.Errorf("gpuplot: create target: %w", err)
	}
	pickTarget, err := p.dev.CreateTarget(p.width, p.height)
	if err != nil {
		p.dev.DestroyTarget(target)
		return fmt.Errorf("gpuplot: create pick target: %w", err)
	}
	p.target, p.pickTarget = target, pickTarget
	p.targetW, p.targetH = p.width, p.height
	return nil
}

func (p *Plot) destroyTargets() {
	if p.target != 0 {
		p.dev.DestroyTarget(p.target)
		p.dev.DestroyTarget(p.pickTarget)
	}
	p.target, p.pickTarget = 0, 0
}

func (p *Plot) drawCalls(picking bool) ([]gpucore.DrawCall, error) {
	f := layer.Frame{
		Axes:        p.cur.axes,
		Colorscales: p.reg.colorscales,
		Width:       p.width,
		Height:      p.height,
		Picking:     picking,
	}
	calls := make([]gpucore.DrawCall, 0, len(p.cur.commands))
	for _, c := range p.cur.commands {
		call, err := c.Draw(f)
		if err != nil {
			return nil, fmt.Errorf("gpuplot: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// Pick runs a pick pass and reports the primitive under pixel (x, y),
// measured from the top-left corner. ok is false on background and
// outside the viewport.
func (p *Plot) Pick(x, y int) (r pick.Result, ok bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return pick.Result{}, false, ErrClosed
	}
	if err := p.prepare(); err != nil {
		return pick.Result{}, false, err
	}
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return pick.Result{}, false, nil
	}
	calls, err := p.drawCalls(true)
	if err != nil {
		return pick.Result{}, false, err
	}
	if err := p.dev.Render(p.pickTarget, [4]float64{}, calls); err != nil {
		return pick.Result{}, false, fmt.Errorf("gpuplot: pick pass: %w", err)
	}
	px, err := p.dev.ReadPixels(p.pickTarget, x, y, 1, 1)
	if err != nil {
		return pick.Result{}, false, fmt.Errorf("gpuplot: pick read: %w", err)
	}
	if len(px) < 4 {
		return pick.Result{}, false, fmt.Errorf("gpuplot: pick read returned %d bytes", len(px))
	}
	r, ok = p.opts.pick.Decode([4]uint8{px[0], px[1], px[2], px[3]})
	return r, ok, nil
}

// SetDomain sets the domain of a spatial axis (by name) or the range of
// a color axis (by quantity kind). A domain a log axis cannot show is
// rejected and the axis keeps its previous domain.
func (p *Plot) SetDomain(id string, lo, hi float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	d := axis.Domain{Min: lo, Max: hi}
	var err error
	if _, ok := p.cur.axes.Spatial.Axis(id); ok || axis.IsSpatial(id) {
		err = p.cur.axes.Spatial.SetDomain(id, d)
	} else {
		err = p.cur.axes.Color.SetRange(id, d)
	}
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("gpuplot: %w", err)
	}
	schedule := p.markDirty()
	p.mu.Unlock()

	p.request(schedule)
	return nil
}

// SetFilterBound replaces both bounds of a filter axis. A nil bound is
// open.
func (p *Plot) SetFilterBound(quantityKind string, lo, hi *float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if err := p.cur.axes.Filter.SetBounds(quantityKind, lo, hi); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("gpuplot: %w", err)
	}
	schedule := p.markDirty()
	p.mu.Unlock()

	p.request(schedule)
	return nil
}

// Resize changes the viewport size. The new size takes effect at the
// start of the next frame or pick.
func (p *Plot) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpuplot: size %dx%d must be positive", width, height)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.resize = &[2]int{width, height}
	schedule := p.markDirty()
	p.mu.Unlock()

	p.request(schedule)
	return nil
}

// Size returns the viewport size currently in effect.
func (p *Plot) Size() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Dirty reports whether state changed since the last rendered frame.
func (p *Plot) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Frames returns the number of frames rendered so far.
func (p *Plot) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Axes returns the live axis registries. They must not be modified
// concurrently with frames; use SetDomain and SetFilterBound instead.
func (p *Plot) Axes() *axis.Set {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.axes
}

// Layers returns the layers of the current configuration in draw order.
func (p *Plot) Layers() []*layer.Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*layer.Layer, len(p.cur.commands))
	for i, c := range p.cur.commands {
		out[i] = c.Layer
	}
	return out
}

// Colorbars returns the colorbar widgets declared by the configuration.
// Drawing them is up to the host.
func (p *Plot) Colorbars() []config.Colorbar {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]config.Colorbar(nil), p.cur.doc.Colorbars...)
}

// Image returns the last frame, rendering one first if the plot is dirty
// or has never rendered.
func (p *Plot) Image() (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.dirty || p.frames == 0 || p.resize != nil {
		if err := p.render(); err != nil {
			return nil, err
		}
	}
	px, err := p.dev.ReadPixels(p.target, 0, 0, p.width, p.height)
	if err != nil {
		return nil, fmt.Errorf("gpuplot: read frame: %w", err)
	}
	return &image.RGBA{
		Pix:    px,
		Stride: 4 * p.width,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}, nil
}

// Close releases the plot's draw commands, targets and programs. The
// device is not destroyed. Close is idempotent.
func (p *Plot) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.cur.destroy()
	p.destroyTargets()
	p.programs.Purge()
	Logger().Debug("gpuplot: plot closed", "frames", p.frames)
	return nil
}

// markDirty flags the plot for redraw and reports whether a frame must
// be requested. Called with p.mu held.
func (p *Plot) markDirty() bool {
	p.dirty = true
	if p.opts.scheduler == nil || p.pending {
		return false
	}
	p.pending = true
	return true
}

// request hands a frame to the scheduler. Called without p.mu held.
func (p *Plot) request(schedule bool) {
	if schedule {
		p.opts.scheduler.RequestFrame(p.frame)
	}
}

func (p *Plot) frame() {
	p.mu.Lock()
	p.pending = false
	if p.closed || !p.dirty {
		p.mu.Unlock()
		return
	}
	err := p.render()
	p.mu.Unlock()

	if err != nil {
		Logger().Warn("gpuplot: scheduled frame failed", "err", err)
	}
}

// kindsOf returns the distinct quantity kinds of a suffix map, sorted.
func kindsOf(m map[string]string) []string {
	kinds := make([]string, 0, len(m))
	for _, qk := range m {
		kinds = append(kinds, qk)
	}
	slices.Sort(kinds)
	return slices.Compact(kinds)
}
