package layer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/shader"
)

// ErrUnknownLayerType is returned when a configuration names a layer type
// that is not registered.
var ErrUnknownLayerType = errors.New("layer: unknown layer type")

// Template is the structured shader of a layer type. Vertex statements
// see every input by name; fragment statements see every varying by name
// and must return apply_color(color, pick_id).
type Template struct {
	Directives []string
	Inputs     []shader.Field
	Varyings   []shader.Varying
	Uniforms   []shader.Field
	Helpers    []shader.Helper
	Vertex     []string
	Fragment   []string

	// Host describes the draw to devices without a shader compiler.
	Host HostSpec
}

// HostSpec names the attributes a CPU rasterizer draws from. Every
// primitive becomes a square of HalfSize pixels centered on (X, Y).
type HostSpec struct {
	X, Y string

	// Color is an attribute mapped through the color axis ColorSuffix.
	// Without it primitives use the vec4 uniform ColorUniform.
	Color        string
	ColorSuffix  string
	ColorUniform string

	// Filters maps a filter suffix to the attribute it tests.
	Filters map[string]string

	// HalfSize is the square half extent; SizeUniform, when set, names an
	// f32 uniform holding the full size in pixels instead.
	HalfSize    float64
	SizeUniform string
}

// Factory builds the layers of one configuration entry.
type Factory func(p Params, src data.Source, reg *expr.Registry, axes Axes) ([]*Layer, error)

// Type describes a family of layers. Types are immutable once registered.
type Type struct {
	Name string

	// Axes are the static axis bindings; Dynamic overrides them field by
	// field with parameter-dependent values.
	Axes    AxisConfig
	Dynamic AxisConfig

	Schema Schema

	// Shader returns the template for a layer. It may vary with the
	// layer's color and filter axes.
	Shader func(l *Layer) Template

	Factory Factory
}

// CreateLayer validates p and runs the factory. Layers that leave axis
// fields empty inherit the resolved configuration.
func (t *Type) CreateLayer(p Params, src data.Source, reg *expr.Registry) ([]*Layer, error) {
	if t.Factory == nil || t.Shader == nil {
		return nil, fmt.Errorf("layer %s: type has no factory or shader", t.Name)
	}
	params, err := t.Schema.Apply(p)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", t.Name, err)
	}
	axes := ResolveAxisConfig(t.Axes, t.Dynamic, params, src)
	layers, err := t.Factory(params, src, reg, axes)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", t.Name, err)
	}
	for _, l := range layers {
		l.Type = t.Name
		inherit(l, axes)
		if err := t.check(l); err != nil {
			return nil, err
		}
	}
	return layers, nil
}

func inherit(l *Layer, a Axes) {
	if l.XAxis == "" {
		l.XAxis = a.XAxis
	}
	if l.YAxis == "" {
		l.YAxis = a.YAxis
	}
	if l.XQuantityKind == "" {
		l.XQuantityKind = a.XQuantityKind
	}
	if l.YQuantityKind == "" {
		l.YQuantityKind = a.YQuantityKind
	}
	if l.ColorAxes == nil {
		l.ColorAxes = a.ColorAxes
	}
	if l.FilterAxes == nil {
		l.FilterAxes = a.FilterAxes
	}
}

func (t *Type) check(l *Layer) error {
	if !axis.IsX(l.XAxis) {
		return fmt.Errorf("layer %s: %q is not an x axis", t.Name, l.XAxis)
	}
	if !axis.IsSpatial(l.YAxis) || axis.IsX(l.YAxis) {
		return fmt.Errorf("layer %s: %q is not a y axis", t.Name, l.YAxis)
	}
	tmpl := t.Shader(l)
	for _, in := range tmpl.Inputs {
		if _, ok := l.Attributes[in.Name]; !ok {
			return fmt.Errorf("layer %s: missing attribute %q", t.Name, in.Name)
		}
	}
	if l.VertexCount <= 0 {
		return fmt.Errorf("layer %s: vertex count must be positive", t.Name)
	}
	return nil
}

// Types is a registry of layer types.
type Types struct {
	types map[string]*Type
}

// NewTypes returns an empty registry.
func NewTypes() *Types {
	return &Types{types: make(map[string]*Type)}
}

// Register adds a layer type. Names are unique.
func (r *Types) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("layer: type has no name")
	}
	if _, ok := r.types[t.Name]; ok {
		return fmt.Errorf("layer: type %q already registered", t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// Lookup returns a registered type.
func (r *Types) Lookup(name string) (*Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayerType, name)
	}
	return t, nil
}

// Names returns the registered type names, sorted.
func (r *Types) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Types) Clone() *Types {
	c := NewTypes()
	for k, v := range r.types {
		c.types[k] = v
	}
	return c
}
