// Package layers provides the built-in layer types: points, lines and
// histogram.
package layers

import (
	"fmt"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/colorscale"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/shader"
)

// Attribute, uniform and varying names shared by the built-in templates.
const (
	attrX      = "x"
	attrY      = "y"
	attrValue  = "value"
	attrFilter = "filter_value"

	uniformBaseColor = "base_color"
	uniformSize      = "point_size"

	varyingShade = "shade"
	varyingKeep  = "keep"
)

// DefaultColor is the base color of layers without a color axis.
const DefaultColor = "steelblue"

// RegisterBuiltins registers points, lines and histogram.
func RegisterBuiltins(r *layer.Types) error {
	for _, t := range []*layer.Type{Points(), Lines(), Histogram()} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// axisParams are the axis parameters shared by every built-in type.
var axisParams = layer.Schema{
	{Name: "xaxis", Kind: layer.KindString},
	{Name: "yaxis", Kind: layer.KindString},
	{Name: "x_kind", Kind: layer.KindString},
	{Name: "y_kind", Kind: layer.KindString},
}

func schema(params ...layer.Param) layer.Schema {
	return append(append(layer.Schema{}, axisParams...), params...)
}

// textParam is defined when parameter name is a non-empty string.
func textParam(name string) layer.Binding[string] {
	return layer.ResolvedBy(func(p layer.Params, _ data.Source) (string, bool) {
		s := p.Text(name)
		return s, s != ""
	})
}

// kindOf resolves a quantity kind from an explicit kind parameter, then
// from the quantity kind of the column named by col.
func kindOf(kind, col string) layer.Binding[string] {
	fromColumn := layer.ColumnQuantityKind(col)
	return layer.ResolvedBy(func(p layer.Params, src data.Source) (string, bool) {
		if k := p.Text(kind); k != "" {
			return k, true
		}
		return fromColumn.Value(p, src)
	})
}

// valueAxis binds the unsuffixed color or filter axis when parameter col
// is set. The quantity kind comes from parameter kind, the column's
// quantity kind, the column name or fallback, in that order.
func valueAxis(col, kind, fallback string) layer.Binding[map[string]string] {
	return layer.ResolvedBy(func(p layer.Params, src data.Source) (map[string]string, bool) {
		if _, ok := p[col]; !ok {
			return nil, false
		}
		qk := p.Text(kind)
		if name := p.Text(col); qk == "" && name != "" {
			if src != nil {
				qk = src.QuantityKind(name)
			}
			if qk == "" {
				qk = name
			}
		}
		if qk == "" {
			qk = fallback
		}
		return map[string]string{"": qk}, true
	})
}

// dynamicAxes is the dynamic axis configuration of the point-like types.
func dynamicAxes() layer.AxisConfig {
	return layer.AxisConfig{
		XAxis:         textParam("xaxis"),
		YAxis:         textParam("yaxis"),
		XQuantityKind: kindOf("x_kind", "x"),
		YQuantityKind: kindOf("y_kind", "y"),
		ColorAxes:     valueAxis("color", "color_kind", "color"),
		FilterAxes:    valueAxis("filter", "filter_kind", "filter"),
	}
}

// attributes parses the expression parameters that are present.
func attributes(p layer.Params, src data.Source, reg *expr.Registry, names map[string]string) (map[string]expr.Expr, error) {
	out := make(map[string]expr.Expr, len(names))
	for param, attr := range names {
		v, ok := p[param]
		if !ok {
			continue
		}
		e, err := expr.Parse(v, src, reg)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", param, err)
		}
		out[attr] = e
	}
	return out, nil
}

// count returns the primitive count: the count parameter, or the length
// of the first literal buffer among the attributes.
func count(p layer.Params, attrs map[string]expr.Expr, order ...string) (int, error) {
	if n, ok := p.Float("count"); ok {
		if n < 1 || n != float64(int(n)) {
			return 0, fmt.Errorf("count must be a positive integer, got %g", n)
		}
		return int(n), nil
	}
	for _, name := range order {
		if n, ok := expr.Len(attrs[name]); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("cannot infer the primitive count; set count")
}

// sources records the expression scanned for each bound quantity kind
// and the declared domains of plain column parameters. Later bindings of
// a shared quantity kind replace earlier ones.
func sources(l *layer.Layer, p layer.Params, src data.Source) {
	l.Sources = make(map[string]expr.Expr)
	l.Domains = make(map[string]axis.Domain)
	bound := []struct{ qk, attr, param string }{
		{l.XQuantityKind, attrX, "x"},
		{l.YQuantityKind, attrY, "y"},
		{l.ColorAxes[""], attrValue, "color"},
		{l.FilterAxes[""], attrFilter, "filter"},
	}
	for _, b := range bound {
		e, ok := l.Attributes[b.attr]
		if !ok || b.qk == "" {
			continue
		}
		l.Sources[b.qk] = e
		if col := p.Text(b.param); col != "" && src != nil {
			if d, ok := src.Domain(col); ok {
				l.Domains[b.qk] = d
			}
		}
	}
}

func baseColor(p layer.Params) ([4]float32, error) {
	c, err := colorscale.ParseColor(p.Text("base_color"))
	if err != nil {
		return [4]float32{}, fmt.Errorf("base_color: %w", err)
	}
	return colorscale.Vec4(c), nil
}

// shading returns the vertex statements setting the shade and keep
// varyings, and the matching fragment body.
func shading(l *layer.Layer) (vertex, fragment []string) {
	if _, ok := l.ColorAxes[""]; ok {
		vertex = append(vertex, fmt.Sprintf("%s.%s = %s(u.colorscale, %s, u.color_range, u.color_scale);",
			shader.Out, varyingShade, colorscale.MapColor, attrValue))
	} else {
		vertex = append(vertex, fmt.Sprintf("%s.%s = u.%s;", shader.Out, varyingShade, uniformBaseColor))
	}
	if _, ok := l.FilterAxes[""]; ok {
		vertex = append(vertex, fmt.Sprintf("%s.%s = select(0.0, 1.0, filter_in(%s, u.filter_range, u.filter_scale));",
			shader.Out, varyingKeep, attrFilter))
	} else {
		vertex = append(vertex, fmt.Sprintf("%s.%s = 1.0;", shader.Out, varyingKeep))
	}
	fragment = []string{
		"if (" + varyingKeep + " < 0.5) {",
		"    discard;",
		"}",
		"return apply_color(" + varyingShade + ", pick_id);",
	}
	return vertex, fragment
}

// valueInputs returns the optional color and filter inputs of l.
func valueInputs(l *layer.Layer) []shader.Field {
	var in []shader.Field
	if _, ok := l.ColorAxes[""]; ok {
		in = append(in, shader.Field{Name: attrValue, Type: shader.F32})
	}
	if _, ok := l.FilterAxes[""]; ok {
		in = append(in, shader.Field{Name: attrFilter, Type: shader.F32})
	}
	return in
}

func hostSpec(l *layer.Layer) layer.HostSpec {
	h := layer.HostSpec{X: attrX, Y: attrY, ColorUniform: uniformBaseColor}
	if _, ok := l.ColorAxes[""]; ok {
		h.Color = attrValue
	}
	if _, ok := l.FilterAxes[""]; ok {
		h.Filters = map[string]string{"": attrFilter}
	}
	return h
}

var shadeVaryings = []shader.Varying{
	{Name: varyingShade, Type: shader.Vec4},
	{Name: varyingKeep, Type: shader.F32},
}
