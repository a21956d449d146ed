package layer

import (
	"maps"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/data"
)

// BindingKind tags the state of a Binding.
type BindingKind uint8

// Binding kinds.
const (
	// Unset leaves the field to the next source.
	Unset BindingKind = iota
	// Fixed holds a constant value.
	Fixed
	// Resolved computes the value from the layer parameters and data.
	Resolved
)

// Binding is one field of a layer type's axis configuration.
// The zero value is Unset.
type Binding[T any] struct {
	kind  BindingKind
	value T
	fn    func(Params, data.Source) (T, bool)
}

// FixedValue returns a binding holding v.
func FixedValue[T any](v T) Binding[T] {
	return Binding[T]{kind: Fixed, value: v}
}

// ResolvedBy returns a binding computed by fn. When fn reports false the
// binding behaves as Unset.
func ResolvedBy[T any](fn func(Params, data.Source) (T, bool)) Binding[T] {
	return Binding[T]{kind: Resolved, fn: fn}
}

// Kind returns the binding kind.
func (b Binding[T]) Kind() BindingKind { return b.kind }

// Value evaluates the binding.
func (b Binding[T]) Value(p Params, src data.Source) (T, bool) {
	switch b.kind {
	case Fixed:
		return b.value, true
	case Resolved:
		if b.fn != nil {
			return b.fn(p, src)
		}
	}
	var zero T
	return zero, false
}

// merge returns the first defined value of dynamic, then static, then def.
func merge[T any](static, dynamic Binding[T], p Params, src data.Source, def T) T {
	if v, ok := dynamic.Value(p, src); ok {
		return v
	}
	if v, ok := static.Value(p, src); ok {
		return v
	}
	return def
}

// AxisConfig binds a layer type to axes. Color and filter axes map a
// uniform suffix to a quantity kind.
type AxisConfig struct {
	XAxis         Binding[string]
	YAxis         Binding[string]
	XQuantityKind Binding[string]
	YQuantityKind Binding[string]
	ColorAxes     Binding[map[string]string]
	FilterAxes    Binding[map[string]string]
}

// Axes is a resolved axis configuration.
type Axes struct {
	XAxis, YAxis                 string
	XQuantityKind, YQuantityKind string
	ColorAxes                    map[string]string
	FilterAxes                   map[string]string
}

// ResolveAxisConfig merges a static and a dynamic configuration field by
// field; defined dynamic values win. Spatial axes default to the bottom
// and left slots, quantity kinds to the axis names.
func ResolveAxisConfig(static, dynamic AxisConfig, p Params, src data.Source) Axes {
	a := Axes{
		XAxis:      merge(static.XAxis, dynamic.XAxis, p, src, axis.XBottom),
		YAxis:      merge(static.YAxis, dynamic.YAxis, p, src, axis.YLeft),
		ColorAxes:  maps.Clone(merge(static.ColorAxes, dynamic.ColorAxes, p, src, nil)),
		FilterAxes: maps.Clone(merge(static.FilterAxes, dynamic.FilterAxes, p, src, nil)),
	}
	a.XQuantityKind = merge(static.XQuantityKind, dynamic.XQuantityKind, p, src, a.XAxis)
	a.YQuantityKind = merge(static.YQuantityKind, dynamic.YQuantityKind, p, src, a.YAxis)
	if a.ColorAxes == nil {
		a.ColorAxes = map[string]string{}
	}
	if a.FilterAxes == nil {
		a.FilterAxes = map[string]string{}
	}
	return a
}

// ColumnQuantityKind returns a resolver reporting the quantity kind of the
// column named by parameter param. It is undefined when the parameter is
// not a column name.
func ColumnQuantityKind(param string) Binding[string] {
	return ResolvedBy(func(p Params, src data.Source) (string, bool) {
		col := p.Text(param)
		if col == "" || src == nil {
			return "", false
		}
		qk := src.QuantityKind(col)
		return qk, qk != ""
	})
}
