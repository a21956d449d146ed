package shader

import (
	"fmt"
	"slices"
	"strings"
)

// Type is a WGSL value type used by inputs, varyings and uniforms.
type Type string

// Supported value types.
const (
	F32  Type = "f32"
	I32  Type = "i32"
	U32  Type = "u32"
	Vec2 Type = "vec2<f32>"
	Vec4 Type = "vec4<f32>"
)

// Entry point names of every assembled module.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Identifiers available inside the vertex entry function.
const (
	// VertexIndex and InstanceIndex alias the corresponding builtins.
	VertexIndex   = "vertex_index"
	InstanceIndex = "instance_index"

	// UniformVar is the module-scope name of the uniform block.
	UniformVar = "u"

	// Out is the vertex output variable; bodies assign Out.position.
	Out = "vout"
)

// Field is a named, typed declaration.
type Field struct {
	Name string
	Type Type
}

// Varying is a vertex-to-fragment value. Integer varyings must be flat.
type Varying struct {
	Name string
	Type Type
	Flat bool
}

// Helper is a named module-scope declaration (function, const, struct).
type Helper struct {
	Name   string
	Source string
}

// Builder assembles a WGSL module from structured parts.
//
// Parts are collected in call order and serialized once by [Builder.Build].
// Directives always come first, followed by the uniform block, texture
// bindings, helpers, the IO structs and the two entry functions.
type Builder struct {
	directives []string
	uniforms   []Field
	textures   []string
	helpers    []Helper
	inputs     []Field
	varyings   []Varying

	vertexPrelude []string
	vertexBody    []string
	fragmentBody  []string

	err error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("shader: "+format, args...)
	}
}

// Directive adds a global directive such as "enable f16;". Duplicates are ignored.
func (b *Builder) Directive(d string) *Builder {
	d = strings.TrimSpace(d)
	if !slices.Contains(b.directives, d) {
		b.directives = append(b.directives, d)
	}
	return b
}

// Uniform declares a member of the uniform block. Redeclaring a name with
// the same type is a no-op; a different type is an error.
func (b *Builder) Uniform(name string, t Type) *Builder {
	for _, f := range b.uniforms {
		if f.Name == name {
			if f.Type != t {
				b.fail("uniform %q redeclared as %s (was %s)", name, t, f.Type)
			}
			return b
		}
	}
	b.uniforms = append(b.uniforms, Field{Name: name, Type: t})
	return b
}

// Texture declares a 2D float data texture binding.
func (b *Builder) Texture(name string) *Builder {
	if slices.Contains(b.textures, name) {
		b.fail("texture %q declared twice", name)
		return b
	}
	b.textures = append(b.textures, name)
	return b
}

// Helper adds a module-scope declaration. Helpers with the same name are
// emitted once; the first registration wins.
func (b *Builder) Helper(name, source string) *Builder {
	for _, h := range b.helpers {
		if h.Name == name {
			return b
		}
	}
	b.helpers = append(b.helpers, Helper{Name: name, Source: strings.TrimSpace(source)})
	return b
}

// Input declares a vertex input attribute. Locations follow declaration order.
func (b *Builder) Input(name string, t Type) *Builder {
	for _, f := range b.inputs {
		if f.Name == name {
			b.fail("input %q declared twice", name)
			return b
		}
	}
	b.inputs = append(b.inputs, Field{Name: name, Type: t})
	return b
}

// RemoveInput drops a previously declared vertex input.
// It reports whether the input existed.
func (b *Builder) RemoveInput(name string) bool {
	for i, f := range b.inputs {
		if f.Name == name {
			b.inputs = slices.Delete(b.inputs, i, i+1)
			return true
		}
	}
	return false
}

// HasInput reports whether a vertex input is declared.
func (b *Builder) HasInput(name string) bool {
	return slices.ContainsFunc(b.inputs, func(f Field) bool { return f.Name == name })
}

// Varying declares a value passed from the vertex to the fragment stage.
func (b *Builder) Varying(v Varying) *Builder {
	for _, x := range b.varyings {
		if x.Name == v.Name {
			b.fail("varying %q declared twice", v.Name)
			return b
		}
	}
	if (v.Type == U32 || v.Type == I32) && !v.Flat {
		b.fail("integer varying %q must be flat", v.Name)
	}
	b.varyings = append(b.varyings, v)
	return b
}

// Prelude appends a statement placed at the top of the vertex entry
// function, after the input aliases and before the body.
func (b *Builder) Prelude(stmt string) *Builder {
	b.vertexPrelude = append(b.vertexPrelude, stmt)
	return b
}

// VertexBody appends statements to the vertex entry function body.
func (b *Builder) VertexBody(stmts ...string) *Builder {
	b.vertexBody = append(b.vertexBody, stmts...)
	return b
}

// FragmentBody appends statements to the fragment entry function body.
// The body must return the output color.
func (b *Builder) FragmentBody(stmts ...string) *Builder {
	b.fragmentBody = append(b.fragmentBody, stmts...)
	return b
}

// Source is an assembled WGSL module and the metadata needed to bind it.
type Source struct {
	// Code is the complete WGSL module.
	Code string

	// Inputs lists the vertex inputs in location order.
	Inputs []Field

	// Uniforms is the layout of the uniform block.
	Uniforms *Layout

	// Textures lists the texture bindings; texture i is at binding i+1.
	Textures []string
}

// Location returns the @location of a vertex input, or -1.
func (s *Source) Location(name string) int {
	for i, f := range s.Inputs {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Build serializes the module.
func (b *Builder) Build() (*Source, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fragmentBody) == 0 {
		return nil, fmt.Errorf("shader: fragment body is empty")
	}

	uniforms := b.uniforms
	if len(uniforms) == 0 {
		uniforms = []Field{{Name: "pad", Type: F32}}
	}
	layout, err := NewLayout(uniforms)
	if err != nil {
		return nil, err
	}

	var w writer
	for _, d := range b.directives {
		w.line(0, "%s", d)
	}
	if len(b.directives) > 0 {
		w.blank()
	}

	w.line(0, "struct Uniforms {")
	for _, f := range uniforms {
		w.line(1, "%s: %s,", f.Name, f.Type)
	}
	w.line(0, "}")
	w.blank()
	w.line(0, "@group(0) @binding(0) var<uniform> %s: Uniforms;", UniformVar)
	for i, t := range b.textures {
		w.line(0, "@group(0) @binding(%d) var %s: texture_2d<f32>;", i+1, t)
	}
	w.blank()

	for _, h := range b.helpers {
		w.raw(h.Source)
		w.blank()
	}

	w.line(0, "struct VertexInput {")
	w.line(1, "@builtin(vertex_index) %s: u32,", VertexIndex)
	w.line(1, "@builtin(instance_index) %s: u32,", InstanceIndex)
	for i, f := range b.inputs {
		w.line(1, "@location(%d) %s: %s,", i, f.Name, f.Type)
	}
	w.line(0, "}")
	w.blank()

	w.line(0, "struct VertexOutput {")
	w.line(1, "@builtin(position) position: vec4<f32>,")
	for i, v := range b.varyings {
		if v.Flat {
			w.line(1, "@location(%d) @interpolate(flat) %s: %s,", i, v.Name, v.Type)
		} else {
			w.line(1, "@location(%d) %s: %s,", i, v.Name, v.Type)
		}
	}
	w.line(0, "}")
	w.blank()

	w.line(0, "@vertex")
	w.line(0, "fn %s(vin: VertexInput) -> VertexOutput {", VertexEntry)
	w.line(1, "var %s: VertexOutput;", Out)
	w.line(1, "let %s = vin.%s;", VertexIndex, VertexIndex)
	w.line(1, "let %s = vin.%s;", InstanceIndex, InstanceIndex)
	for _, f := range b.inputs {
		w.line(1, "let %s = vin.%s;", f.Name, f.Name)
	}
	for _, s := range b.vertexPrelude {
		w.line(1, "%s", s)
	}
	for _, s := range b.vertexBody {
		w.line(1, "%s", s)
	}
	w.line(1, "return %s;", Out)
	w.line(0, "}")
	w.blank()

	w.line(0, "@fragment")
	w.line(0, "fn %s(frag: VertexOutput) -> @location(0) vec4<f32> {", FragmentEntry)
	for _, v := range b.varyings {
		w.line(1, "let %s = frag.%s;", v.Name, v.Name)
	}
	for _, s := range b.fragmentBody {
		w.line(1, "%s", s)
	}
	w.line(0, "}")

	return &Source{
		Code:     w.String(),
		Inputs:   slices.Clone(b.inputs),
		Uniforms: layout,
		Textures: slices.Clone(b.textures),
	}, nil
}

type writer struct {
	sb strings.Builder
}

func (w *writer) line(indent int, format string, args ...any) {
	w.sb.WriteString(strings.Repeat("    ", indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) raw(s string) {
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *writer) blank() { w.sb.WriteByte('\n') }

func (w *writer) String() string { return w.sb.String() }
