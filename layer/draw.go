package layer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/colorscale"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/pick"
	"github.com/gogpu/gpuplot/shader"
)

// ViewportUniform is filled with the viewport size in pixels when a
// template declares it as a vec2.
const ViewportUniform = "viewport"

// Env is the plot state a draw command is assembled against.
type Env struct {
	Device   gpucore.Device
	Programs *gpucore.ProgramCache

	// Resolver evaluates computed attributes. Its Axes must be the
	// registries the plot renders with.
	Resolver *expr.Resolver

	Colorscales *colorscale.Registry
	Pick        pick.Strategy

	// Index is the layer ordinal used by picking.
	Index int
}

type vertexInput struct {
	data []float32
	step gpucore.StepMode
}

// Assembly is a layer's shader before any GPU allocation.
type Assembly struct {
	Source *shader.Source

	// Effects are the merged side effects of computed attributes.
	Effects expr.Effects

	inputs map[string]vertexInput
	host   map[string]hostValue
}

// Release destroys the textures created while resolving attributes.
func (a *Assembly) Release() { a.Effects.Release() }

// Assemble builds and validates the shader of l. Expressions are checked
// before any texture computation runs; WGSL is validated with naga.
// On error nothing stays allocated.
func (t *Type) Assemble(l *Layer, env Env) (*Assembly, error) {
	if env.Resolver == nil || env.Colorscales == nil || env.Pick == nil {
		return nil, errors.New("layer: incomplete draw environment")
	}
	tmpl := t.Shader(l)
	for _, in := range tmpl.Inputs {
		e, ok := l.Attributes[in.Name]
		if !ok {
			return nil, fmt.Errorf("layer %s: missing attribute %q", l.Type, in.Name)
		}
		if err := env.Resolver.Registry.Check(e); err != nil {
			return nil, fmt.Errorf("layer %s: attribute %s: %w", l.Type, in.Name, err)
		}
	}

	a := &Assembly{inputs: make(map[string]vertexInput), host: make(map[string]hostValue)}
	src, err := t.assemble(l, tmpl, env, a)
	if err != nil {
		a.Release()
		return nil, err
	}
	if err := shader.Validate(src.Code); err != nil {
		a.Release()
		return nil, fmt.Errorf("layer %s: %w", l.Type, err)
	}
	a.Source = src
	return a, nil
}

func (t *Type) assemble(l *Layer, tmpl Template, env Env, a *Assembly) (*shader.Source, error) {
	b := shader.NewBuilder()
	for _, d := range tmpl.Directives {
		b.Directive(d)
	}

	axis.DeclareSpatial(b)
	filters := sortedKeys(l.FilterAxes)
	for _, s := range filters {
		axis.DeclareFilter(b, s)
	}
	env.Pick.Declare(b)
	colors := sortedKeys(l.ColorAxes)
	for _, s := range colors {
		axis.DeclareColor(b, s)
	}
	if len(colors) > 0 {
		env.Colorscales.Declare(b)
	}

	for _, u := range tmpl.Uniforms {
		b.Uniform(u.Name, u.Type)
	}
	for _, h := range tmpl.Helpers {
		b.Helper(h.Name, h.Source)
	}

	for _, in := range tmpl.Inputs {
		b.Input(in.Name, in.Type)
	}
	pickIndex := shader.VertexIndex
	if l.Instanced() {
		pickIndex = shader.InstanceIndex
	}
	for _, in := range tmpl.Inputs {
		e := l.Attributes[in.Name]
		step, index, count := gpucore.StepVertex, shader.VertexIndex, l.VertexCount
		if l.divisor(in.Name) == PerInstance {
			step, index, count = gpucore.StepInstance, shader.InstanceIndex, max(l.InstanceCount, 1)
		}

		if buf, ok := e.(expr.Buffer); ok {
			if in.Type != shader.F32 {
				return nil, fmt.Errorf("layer %s: attribute %s: buffers bind as f32, template wants %s", l.Type, in.Name, in.Type)
			}
			if len(buf) < count {
				return nil, fmt.Errorf("layer %s: attribute %s has %d values, need %d", l.Type, in.Name, len(buf), count)
			}
			a.inputs[in.Name] = vertexInput{data: buf, step: step}
			a.host[in.Name] = hostValue{values: buf}
			continue
		}

		res, err := env.Resolver.ResolveShader(e, expr.Env{Prefix: in.Name, Index: index})
		if err != nil {
			return nil, fmt.Errorf("layer %s: attribute %s: %w", l.Type, in.Name, err)
		}
		a.Effects.Merge(res.Effects)
		if res.Type != in.Type {
			return nil, fmt.Errorf("layer %s: attribute %s is %s, template wants %s", l.Type, in.Name, res.Type, in.Type)
		}
		b.RemoveInput(in.Name)
		for _, ein := range res.Inputs {
			if len(ein.Data) < count {
				return nil, fmt.Errorf("layer %s: attribute %s has %d values, need %d", l.Type, in.Name, len(ein.Data), count)
			}
			a.inputs[ein.Name] = vertexInput{data: ein.Data, step: step}
		}
		b.Prelude(fmt.Sprintf("let %s = %s;", in.Name, res.Code))
		a.host[in.Name] = hostValueOf(e, res)
	}
	a.Effects.Declare(b)

	b.Varying(shader.Varying{Name: pick.IDVarying, Type: shader.U32, Flat: true})
	for _, v := range tmpl.Varyings {
		b.Varying(v)
	}
	b.Prelude(fmt.Sprintf("%s.%s = %s;", shader.Out, pick.IDVarying, pickIndex))
	b.VertexBody(tmpl.Vertex...)
	b.FragmentBody(tmpl.Fragment...)

	src, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", l.Type, err)
	}
	return src, nil
}

// DrawCommand is a compiled, uploaded layer ready to draw every frame.
type DrawCommand struct {
	Layer *Layer
	Index int

	assembly *Assembly
	spec     HostSpec
	device   gpucore.Device
	pick     pick.Strategy
	program  gpucore.ProgramID
	// opaque is program without blending, used by pick passes.
	opaque   gpucore.ProgramID
	buffers  []gpucore.BufferID
	slots    []*expr.Slot
}

// CreateDrawCommand assembles l, compiles its program through the
// program cache and uploads its vertex buffers.
func (t *Type) CreateDrawCommand(l *Layer, env Env) (*DrawCommand, error) {
	if env.Device == nil || env.Programs == nil {
		return nil, errors.New("layer: draw environment has no device")
	}
	a, err := t.Assemble(l, env)
	if err != nil {
		return nil, err
	}
	cmd := &DrawCommand{
		Layer:    l,
		Index:    env.Index,
		assembly: a,
		spec:     t.Shader(l).Host,
		device:   env.Device,
		pick:     env.Pick,
	}
	if err := cmd.upload(env); err != nil {
		cmd.Destroy()
		return nil, err
	}
	return cmd, nil
}

func (c *DrawCommand) upload(env Env) error {
	src := c.assembly.Source
	desc := &gpucore.ProgramDesc{
		Label:         c.Layer.Type,
		Source:        src.Code,
		VertexEntry:   shader.VertexEntry,
		FragmentEntry: shader.FragmentEntry,
		UniformSize:   src.Uniforms.Size(),
		TextureCount:  len(src.Textures),
		Topology:      c.Layer.Primitive,
		Blend:         c.Layer.Blend,
	}
	for loc, in := range src.Inputs {
		vi, ok := c.assembly.inputs[in.Name]
		if !ok {
			return fmt.Errorf("layer %s: no data for input %q", c.Layer.Type, in.Name)
		}
		format := gpucore.VertexFormatFloat32
		if in.Type == shader.Vec2 {
			format = gpucore.VertexFormatFloat32x2
		}
		desc.Buffers = append(desc.Buffers, gpucore.VertexBufferLayout{
			Stride:     format.Size(),
			StepMode:   vi.step,
			Attributes: []gpucore.VertexAttribute{{Location: uint32(loc), Format: format}},
		})
		id, err := c.device.CreateBuffer(c.Layer.Type+"."+in.Name, gpucore.Float32Bytes(vi.data))
		if err != nil {
			return fmt.Errorf("layer %s: upload %s: %w", c.Layer.Type, in.Name, err)
		}
		c.buffers = append(c.buffers, id)
	}

	slots := make(map[string]*expr.Slot, len(c.assembly.Effects.Textures))
	for _, tb := range c.assembly.Effects.Textures {
		slots[tb.Name] = tb.Slot
	}
	for _, name := range src.Textures {
		c.slots = append(c.slots, slots[name])
	}

	id, err := env.Programs.Program(desc)
	if err != nil {
		return fmt.Errorf("layer %s: %w", c.Layer.Type, err)
	}
	c.program, c.opaque = id, id
	if desc.Blend {
		opaque := *desc
		opaque.Blend = false
		if c.opaque, err = env.Programs.Program(&opaque); err != nil {
			return fmt.Errorf("layer %s: %w", c.Layer.Type, err)
		}
	}
	return nil
}

// Source returns the assembled WGSL module.
func (c *DrawCommand) Source() *shader.Source { return c.assembly.Source }

// Refreshers returns the computed attributes kept current by the command.
func (c *DrawCommand) Refreshers() []*expr.Refresher { return c.assembly.Effects.Refreshers }

// Refresh recomputes the computed attributes whose axes changed.
func (c *DrawCommand) Refresh(axes axis.Reader) error {
	for _, r := range c.assembly.Effects.Refreshers {
		if _, err := r.RefreshIfNeeded(axes); err != nil {
			return fmt.Errorf("layer %s: refresh %s: %w", c.Layer.Type, r.Name(), err)
		}
	}
	return nil
}

// Frame is the per-frame state a draw reads.
type Frame struct {
	Axes          *axis.Set
	Colorscales   *colorscale.Registry
	Width, Height int
	Picking       bool
}

// Draw refreshes computed attributes and returns the draw call for f.
func (c *DrawCommand) Draw(f Frame) (gpucore.DrawCall, error) {
	if err := c.Refresh(f.Axes); err != nil {
		return gpucore.DrawCall{}, err
	}
	values, err := c.uniforms(f)
	if err != nil {
		return gpucore.DrawCall{}, err
	}
	packed, err := c.assembly.Source.Uniforms.Pack(values)
	if err != nil {
		return gpucore.DrawCall{}, fmt.Errorf("layer %s: %w", c.Layer.Type, err)
	}
	program := c.program
	if f.Picking {
		program = c.opaque
	}
	call := gpucore.DrawCall{
		Program:       program,
		Uniforms:      packed,
		VertexCount:   uint32(c.Layer.VertexCount),
		InstanceCount: uint32(max(c.Layer.InstanceCount, 1)),
	}
	for slot, id := range c.buffers {
		call.Vertex = append(call.Vertex, gpucore.VertexBinding{Slot: uint32(slot), Buffer: id})
	}
	for _, s := range c.slots {
		call.Textures = append(call.Textures, s.Texture().ID)
	}
	call.Host = c.hostView(f, values)
	return call, nil
}

func (c *DrawCommand) uniforms(f Frame) (map[string]shader.Value, error) {
	l := c.Layer
	v := make(map[string]shader.Value)

	x, ok := f.Axes.Spatial.Axis(l.XAxis)
	if !ok {
		return nil, fmt.Errorf("layer %s: %w: %s", l.Type, axis.ErrUnknownAxis, l.XAxis)
	}
	y, ok := f.Axes.Spatial.Axis(l.YAxis)
	if !ok {
		return nil, fmt.Errorf("layer %s: %w: %s", l.Type, axis.ErrUnknownAxis, l.YAxis)
	}
	v[axis.XDomainUniform] = x.Domain().Vec2()
	v[axis.YDomainUniform] = y.Domain().Vec2()
	v[axis.XScaleUniform] = x.Scale.Flag()
	v[axis.YScaleUniform] = y.Scale.Flag()

	for s, qk := range l.ColorAxes {
		a, ok := f.Axes.Color.Axis(qk)
		if !ok {
			return nil, fmt.Errorf("layer %s: no color axis for %q", l.Type, qk)
		}
		idx, err := f.Colorscales.Index(a.Colorscale)
		if err != nil {
			return nil, fmt.Errorf("layer %s: color axis %s: %w", l.Type, qk, err)
		}
		v[axis.ColorscaleUniform(s)] = int32(idx)
		v[axis.ColorRangeUniform(s)] = a.Range().Vec2()
		v[axis.ColorScaleUniform(s)] = a.Scale.Flag()
	}
	for s, qk := range l.FilterAxes {
		a, ok := f.Axes.Filter.Axis(qk)
		if !ok {
			return nil, fmt.Errorf("layer %s: no filter axis for %q", l.Type, qk)
		}
		v[axis.FilterRangeUniform(s)] = a.Bounds().Vec4()
		v[axis.FilterScaleUniform(s)] = a.Scale.Flag()
	}

	picking := int32(0)
	if f.Picking {
		picking = 1
	}
	layout := c.assembly.Source.Uniforms
	optional := map[string]shader.Value{
		pick.PickingUniform:    picking,
		pick.LayerIndexUniform: int32(c.Index),
		ViewportUniform:        [2]float32{float32(f.Width), float32(f.Height)},
	}
	for name, val := range optional {
		if _, ok := layout.Offset(name); ok {
			v[name] = val
		}
	}
	for name, val := range l.Uniforms {
		v[name] = val
	}
	for _, u := range c.assembly.Effects.Uniforms {
		v[u.Name] = u.Value
	}
	return v, nil
}

// Destroy releases the command's buffers and computed textures. The
// program stays in the program cache.
func (c *DrawCommand) Destroy() {
	for _, id := range c.buffers {
		c.device.DestroyBuffer(id)
	}
	c.buffers = nil
	c.assembly.Release()
}
