package expr

import (
	"fmt"
	"strings"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/shader"
)

// Args holds the raw values of a texture computation's arguments:
// Buffer, Scalar or *Texture.
type Args map[string]Expr

// Has reports whether an argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Values returns an argument as interleaved floats and its channel count.
func (a Args) Values(name string) ([]float32, int, error) {
	switch v := a[name].(type) {
	case Buffer:
		return v, 1, nil
	case *Texture:
		return v.Data, v.Channels(), nil
	case Scalar:
		return []float32{float32(v)}, 1, nil
	case nil:
		return nil, 0, fmt.Errorf("expr: missing argument %q", name)
	default:
		return nil, 0, fmt.Errorf("expr: argument %q is %T, not a raw value", name, v)
	}
}

// Scalar returns a scalar argument, or def when it is absent.
func (a Args) Scalar(name string, def float64) (float64, error) {
	switch v := a[name].(type) {
	case nil:
		return def, nil
	case Scalar:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expr: argument %q must be a scalar, got %s", name, String(v))
	}
}

// Input is a literal buffer that must be bound as a vertex input.
type Input struct {
	Name string
	Data []float32
}

// UniformValue is a scalar constant bound as an f32 uniform.
type UniformValue struct {
	Name  string
	Value float32
}

// TextureBinding is a data texture sampled by the resolved code.
type TextureBinding struct {
	Name string
	Slot *Slot
}

// Effects are the declarations resolved shader code depends on.
type Effects struct {
	Inputs     []Input
	Uniforms   []UniformValue
	Textures   []TextureBinding
	Helpers    []shader.Helper
	Refreshers []*Refresher
}

// Merge appends o to e. Helpers are deduplicated by name.
func (e *Effects) Merge(o Effects) {
	e.Inputs = append(e.Inputs, o.Inputs...)
	e.Uniforms = append(e.Uniforms, o.Uniforms...)
	e.Textures = append(e.Textures, o.Textures...)
	for _, h := range o.Helpers {
		dup := false
		for _, x := range e.Helpers {
			if x.Name == h.Name {
				dup = true
				break
			}
		}
		if !dup {
			e.Helpers = append(e.Helpers, h)
		}
	}
	e.Refreshers = append(e.Refreshers, o.Refreshers...)
}

// Declare adds the effects to a shader builder.
func (e *Effects) Declare(b *shader.Builder) {
	for _, in := range e.Inputs {
		b.Input(in.Name, shader.F32)
	}
	for _, u := range e.Uniforms {
		b.Uniform(u.Name, shader.F32)
	}
	for _, t := range e.Textures {
		b.Texture(t.Name)
	}
	for _, h := range e.Helpers {
		b.Helper(h.Name, h.Source)
	}
}

// Release destroys every texture held by the effects' refreshers.
func (e *Effects) Release() {
	for _, r := range e.Refreshers {
		r.Destroy()
	}
}

// Result is an expression lowered to WGSL.
type Result struct {
	// Code is a WGSL expression valid inside the vertex entry function.
	Code string

	// Type is the WGSL type of Code.
	Type shader.Type

	Effects
}

// Env names the generated declarations of one attribute.
type Env struct {
	// Prefix makes generated identifiers unique; usually the attribute name.
	Prefix string

	// Index is the WGSL expression of the element index used to fetch
	// texture-backed values, e.g. shader.InstanceIndex.
	Index string
}

func (env Env) child(arg string) Env {
	return Env{Prefix: env.Prefix + "_" + arg, Index: env.Index}
}

// Resolver evaluates expressions against a registry.
type Resolver struct {
	Registry *Registry
	Context  *Context

	// Axes is the axis state visible to texture computations.
	Axes axis.Reader
}

// ResolveRaw evaluates e into a Buffer, Scalar or *Texture. Texture
// computations run immediately and their intermediate textures are
// released. A shader computation anywhere in the tree is an error.
func (r *Resolver) ResolveRaw(e Expr) (Expr, error) {
	return r.raw(e, r.Axes)
}

func (r *Resolver) raw(e Expr, axes axis.Reader) (Expr, error) {
	switch v := e.(type) {
	case Buffer, Scalar, *Texture:
		return e, nil
	case *Call:
		return r.rawCall(v, axes)
	case nil:
		return nil, fmt.Errorf("expr: nil expression")
	default:
		return nil, fmt.Errorf("expr: unsupported node %T", e)
	}
}

func (r *Resolver) rawCall(c *Call, axes axis.Reader) (Expr, error) {
	if _, ok := r.Registry.shaders[c.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrShaderInRawPosition, c.Name)
	}
	comp, ok := r.Registry.textures[c.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComputation, c.Name)
	}
	if err := comp.Signature().check(c); err != nil {
		return nil, err
	}

	args := make(Args, len(c.Args))
	var owned []*Texture
	defer func() {
		for _, t := range owned {
			r.Context.Release(t)
		}
	}()
	for _, name := range c.argNames() {
		v, err := r.raw(c.Args[name], axes)
		if err != nil {
			return nil, fmt.Errorf("expr: %s.%s: %w", c.Name, name, err)
		}
		if t, ok := v.(*Texture); ok && t.transient {
			owned = append(owned, t)
		}
		args[name] = v
	}

	out, err := comp.Compute(r.Context, args, c.Options, axes)
	if err != nil {
		return nil, fmt.Errorf("expr: %s: %w", c.Name, err)
	}
	for i, t := range owned {
		if t == out {
			owned[i] = nil
		}
	}
	return out, nil
}

// ResolveShader lowers e to WGSL. Literal buffers become vertex inputs,
// scalars become uniforms and texture computations become texture
// bindings fetched by env.Index, each kept current by a Refresher.
// The returned effects must be merged into the caller's shader.
func (r *Resolver) ResolveShader(e Expr, env Env) (Result, error) {
	prefix := Ident(env.Prefix)
	switch v := e.(type) {
	case Buffer:
		name := "in_" + prefix
		return Result{
			Code:    name,
			Type:    shader.F32,
			Effects: Effects{Inputs: []Input{{Name: name, Data: v}}},
		}, nil

	case Scalar:
		name := "k_" + prefix
		return Result{
			Code:    shader.UniformVar + "." + name,
			Type:    shader.F32,
			Effects: Effects{Uniforms: []UniformValue{{Name: name, Value: float32(v)}}},
		}, nil

	case *Texture:
		return r.bindTexture(NewSlot(v), v.Channels(), prefix, env.Index, nil), nil

	case *Call:
		if comp, ok := r.Registry.shaders[v.Name]; ok {
			return r.shaderCall(comp, v, env)
		}
		if _, ok := r.Registry.textures[v.Name]; !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownComputation, v.Name)
		}
		ref, err := NewRefresher(v.Name, r.Context, r.Axes, func(axes axis.Reader) (*Texture, error) {
			out, err := r.raw(v, axes)
			if err != nil {
				return nil, err
			}
			t, ok := out.(*Texture)
			if !ok {
				return nil, fmt.Errorf("expr: %s did not produce a texture", v.Name)
			}
			return t, nil
		})
		if err != nil {
			return Result{}, err
		}
		return r.bindTexture(ref.Slot(), ref.Slot().Texture().Channels(), prefix, env.Index, ref), nil

	case nil:
		return Result{}, fmt.Errorf("expr: nil expression")
	default:
		return Result{}, fmt.Errorf("expr: unsupported node %T", e)
	}
}

func (r *Resolver) shaderCall(comp ShaderComputation, c *Call, env Env) (Result, error) {
	if err := comp.Signature().check(c); err != nil {
		return Result{}, err
	}
	var res Result
	ops := make(map[string]Operand, len(c.Args))
	for _, name := range c.argNames() {
		sub, err := r.ResolveShader(c.Args[name], env.child(name))
		if err != nil {
			res.Release()
			return Result{}, fmt.Errorf("expr: %s.%s: %w", c.Name, name, err)
		}
		res.Merge(sub.Effects)
		ops[name] = Operand{Code: sub.Code, Type: sub.Type}
	}
	op, err := comp.Shader(ops, c.Options)
	if err != nil {
		res.Release()
		return Result{}, fmt.Errorf("expr: %s: %w", c.Name, err)
	}
	res.Code, res.Type = op.Code, op.Type
	return res, nil
}

func (r *Resolver) bindTexture(slot *Slot, channels int, prefix, index string, ref *Refresher) Result {
	tex := "tex_" + prefix
	fn := "fetch_" + prefix
	typ, swizzle := shader.F32, "x"
	if channels == 2 {
		typ, swizzle = shader.Vec2, "xy"
	}
	res := Result{
		Code: fmt.Sprintf("%s(%s)", fn, index),
		Type: typ,
		Effects: Effects{
			Textures: []TextureBinding{{Name: tex, Slot: slot}},
			Helpers:  []shader.Helper{{Name: fn, Source: fetchHelper(fn, tex, typ, swizzle)}},
		},
	}
	if ref != nil {
		res.Refreshers = []*Refresher{ref}
	}
	return res
}

func fetchHelper(fn, tex string, typ shader.Type, swizzle string) string {
	return fmt.Sprintf(`fn %s(i: u32) -> %s {
    let dims = textureDimensions(%s);
    let texel = textureLoad(%s, vec2<u32>(i %% dims.x, i / dims.x), 0);
    return texel.%s;
}`, fn, typ, tex, tex, swizzle)
}

// Ident maps s to a WGSL-safe identifier fragment.
func Ident(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "v"
	}
	return sb.String()
}

// Check validates e against the registry without evaluating it: every
// computation must be registered, its arguments must match its signature,
// and no shader computation may appear below a texture computation.
func (r *Registry) Check(e Expr) error {
	return r.check(e, false)
}

func (r *Registry) check(e Expr, raw bool) error {
	c, ok := e.(*Call)
	if !ok {
		if e == nil {
			return fmt.Errorf("expr: nil expression")
		}
		return nil
	}
	sig, isShader, err := r.Lookup(c.Name)
	if err != nil {
		return err
	}
	if isShader && raw {
		return fmt.Errorf("%w: %s", ErrShaderInRawPosition, c.Name)
	}
	if err := sig.check(c); err != nil {
		return err
	}
	for _, name := range c.argNames() {
		if err := r.check(c.Args[name], raw || !isShader); err != nil {
			return fmt.Errorf("expr: %s.%s: %w", c.Name, name, err)
		}
	}
	return nil
}

// IsRaw reports whether e can be evaluated by ResolveRaw: it is valid and
// contains no shader computation.
func (r *Registry) IsRaw(e Expr) bool {
	return r.check(e, true) == nil
}
