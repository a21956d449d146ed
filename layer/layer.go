// Package layer turns declarative layer descriptions into draw commands.
//
// A [Type] describes a family of layers: how its axes are bound, which
// parameters it accepts, the shader template it draws with and a factory
// producing [Layer] values from parameters and data. [CreateDrawCommand]
// assembles the final shader for one layer (axis helpers, filters, the
// picking wrapper, the colorscale library and computed attributes),
// compiles it and uploads its buffers.
package layer

import (
	"fmt"
	"sort"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/shader"
)

// Divisor values of an attribute.
const (
	PerVertex   = 0
	PerInstance = 1
)

// Layer is one drawable instance of a layer type. Layers are rebuilt on
// every configuration update.
type Layer struct {
	// Type is the name of the layer type that produced the layer.
	Type string

	// Attributes are the per-primitive inputs, by template input name.
	Attributes map[string]expr.Expr

	// Uniforms are layer-specific uniform values, by template uniform name.
	Uniforms map[string]shader.Value

	Axes

	// Domains are declared domains by quantity kind. They replace a scan
	// of the layer's data in auto-domain derivation.
	Domains map[string]axis.Domain

	// Sources map a quantity kind to the expression scanned for its extent.
	Sources map[string]expr.Expr

	// Anchors are values always included in the extent of a quantity kind,
	// such as the zero baseline of bars.
	Anchors map[string]float64

	// Primitive is the primitive topology.
	Primitive gpucore.Topology

	// VertexCount and InstanceCount are the draw counts. InstanceCount 0
	// draws one instance.
	VertexCount   int
	InstanceCount int

	// Divisors give the step of each attribute: PerVertex or PerInstance.
	// Missing attributes step per vertex.
	Divisors map[string]int

	// Blend enables alpha blending.
	Blend bool
}

// Instanced reports whether the layer draws instances.
func (l *Layer) Instanced() bool { return l.InstanceCount > 0 }

// Primitives returns the number of pickable primitives.
func (l *Layer) Primitives() int {
	if l.Instanced() {
		return l.InstanceCount
	}
	return l.VertexCount
}

func (l *Layer) divisor(name string) int {
	return l.Divisors[name]
}

// QuantityKinds returns every quantity kind the layer uses, sorted.
func (l *Layer) QuantityKinds() []string {
	set := map[string]bool{l.XQuantityKind: true, l.YQuantityKind: true}
	for _, qk := range l.ColorAxes {
		set[qk] = true
	}
	for _, qk := range l.FilterAxes {
		set[qk] = true
	}
	out := make([]string, 0, len(set))
	for qk := range set {
		if qk != "" {
			out = append(out, qk)
		}
	}
	sort.Strings(out)
	return out
}

// Usage describes how the layer uses axes for auto-domain derivation.
// Computed sources are evaluated with r.
func (l *Layer) Usage(r *expr.Resolver) axis.Usage {
	u := axis.Usage{
		Spatial: map[string]string{l.XAxis: l.XQuantityKind, l.YAxis: l.YQuantityKind},
	}
	for _, s := range sortedKeys(l.ColorAxes) {
		u.Color = append(u.Color, l.ColorAxes[s])
	}
	for _, s := range sortedKeys(l.FilterAxes) {
		u.Filter = append(u.Filter, l.FilterAxes[s])
	}
	u.Extent = func(qk string) (axis.Domain, bool, error) {
		if d, ok := l.Domains[qk]; ok {
			return d, true, nil
		}
		src, ok := l.Sources[qk]
		if !ok {
			return axis.Domain{}, false, nil
		}
		d, ok, err := extent(r, src)
		if err != nil {
			return axis.Domain{}, false, fmt.Errorf("layer %s: extent of %s: %w", l.Type, qk, err)
		}
		if a, anchored := l.Anchors[qk]; anchored {
			if !ok {
				d, ok = axis.Domain{Min: a, Max: a}, true
			} else {
				d = d.Union(axis.Domain{Min: a, Max: a})
			}
		}
		return d, ok, nil
	}
	return u
}

func extent(r *expr.Resolver, e expr.Expr) (axis.Domain, bool, error) {
	if expr.IsComputed(e) {
		if r == nil || !r.Registry.IsRaw(e) {
			return axis.Domain{}, false, nil
		}
		v, err := r.ResolveRaw(e)
		if err != nil {
			return axis.Domain{}, false, err
		}
		if t, ok := v.(*expr.Texture); ok {
			defer r.Context.Release(t)
		}
		e = v
	}
	switch v := e.(type) {
	case expr.Buffer:
		d, ok := axis.Extent(v)
		return d, ok, nil
	case expr.Scalar:
		return axis.Domain{Min: float64(v), Max: float64(v)}, true, nil
	case *expr.Texture:
		if v.Channels() != 1 {
			return axis.Domain{}, false, nil
		}
		d, ok := axis.Extent(v.Data)
		return d, ok, nil
	}
	return axis.Domain{}, false, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
