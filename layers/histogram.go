package layers

import (
	"fmt"

	"github.com/aclements/go-moremath/vec"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/shader"
)

// CountKind is the default quantity kind of histogram bar heights.
const CountKind = "count"

const uniformBarWidth = "bar_width"

// Histogram draws one bar per bin of a column. Bar heights come from the
// histogram computation and follow the filter axis of filter_by: moving
// that filter recomputes the counts on the next draw.
func Histogram() *layer.Type {
	return &layer.Type{
		Name: "histogram",
		Axes: layer.AxisConfig{
			YQuantityKind: layer.FixedValue(CountKind),
		},
		Dynamic: layer.AxisConfig{
			XAxis:         textParam("xaxis"),
			YAxis:         textParam("yaxis"),
			XQuantityKind: kindOf("x_kind", "input"),
			YQuantityKind: textParam("y_kind"),
			FilterAxes:    valueAxis("filter_by", "filter_kind", "filter"),
		},
		Schema: schema(
			layer.Param{Name: "input", Kind: layer.KindColumn, Required: true},
			layer.Param{Name: "bins", Kind: layer.KindNumber, Default: expr.DefaultBins},
			layer.Param{Name: "filter_by", Kind: layer.KindColumn},
			layer.Param{Name: "filter_kind", Kind: layer.KindString},
			layer.Param{Name: "base_color", Kind: layer.KindString, Default: DefaultColor},
		),
		Shader:  histogramShader,
		Factory: histogramFactory,
	}
}

func histogramShader(*layer.Layer) layer.Template {
	return layer.Template{
		Inputs: []shader.Field{
			{Name: attrX, Type: shader.F32},
			{Name: attrY, Type: shader.F32},
		},
		Uniforms: []shader.Field{
			{Name: uniformBarWidth, Type: shader.F32},
			{Name: uniformBaseColor, Type: shader.Vec4},
		},
		Helpers: []shader.Helper{{Name: "quad_corner", Source: quadCorner}},
		Vertex: []string{
			"let corner = quad_corner(vertex_index);",
			"let bx = x + corner.x * 0.5 * u.bar_width;",
			"let by = select(0.0, y, corner.y > 0.0);",
			"vout.position = plot_position(bx, by);",
		},
		Fragment: []string{"return apply_color(u.base_color, pick_id);"},
		Host:     layer.HostSpec{X: attrX, Y: attrY, ColorUniform: uniformBaseColor},
	}
}

func histogramFactory(p layer.Params, src data.Source, reg *expr.Registry, axes layer.Axes) ([]*layer.Layer, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: %q", data.ErrMissingColumn, p.Text("input"))
	}
	input := p.Text("input")
	values, err := src.Data(input)
	if err != nil {
		return nil, err
	}
	nb, _ := p.Float("bins")
	bins := int(nb)
	if bins < 1 || float64(bins) != nb {
		return nil, fmt.Errorf("bins must be a positive integer, got %g", nb)
	}
	col, err := baseColor(p)
	if err != nil {
		return nil, err
	}

	centers, width := binCenters(values, bins)
	call := expr.NewCall("histogram", map[string]expr.Expr{
		"input": expr.Buffer(values),
		"bins":  expr.Scalar(bins),
	})
	l := &layer.Layer{
		Attributes: map[string]expr.Expr{attrX: centers, attrY: call},
		Uniforms: map[string]shader.Value{
			uniformBarWidth:  float32(width),
			uniformBaseColor: col,
		},
		Axes:          axes,
		Domains:       map[string]axis.Domain{},
		Sources:       map[string]expr.Expr{axes.XQuantityKind: expr.Buffer(values)},
		Anchors:       map[string]float64{axes.YQuantityKind: 0},
		Primitive:     gpucore.TopologyTriangleList,
		VertexCount:   6,
		InstanceCount: bins,
		Divisors:      map[string]int{attrX: layer.PerInstance, attrY: layer.PerInstance},
		Blend:         col[3] < 1,
	}
	if d, ok := src.Domain(input); ok {
		l.Domains[axes.XQuantityKind] = d
	}

	if fqk, ok := axes.FilterAxes[""]; ok {
		by := p.Text("filter_by")
		fv, err := src.Data(by)
		if err != nil {
			return nil, err
		}
		if len(fv) != len(values) {
			return nil, fmt.Errorf("filter_by column %q has %d rows, input has %d", by, len(fv), len(values))
		}
		call.Args["filter_values"] = expr.Buffer(fv)
		call.WithOption("filter", fqk)
		l.Sources[fqk] = expr.Buffer(fv)
		if d, ok := src.Domain(by); ok {
			l.Domains[fqk] = d
		}
	}
	l.Sources[axes.YQuantityKind] = call
	if reg != nil {
		if _, _, err := reg.Lookup(call.Name); err != nil {
			return nil, err
		}
	}
	return []*layer.Layer{l}, nil
}

// binCenters returns the centers of bins equal-width bins spanning the
// extent of values, and the bin width. A constant column gets unit-wide
// bins around its value.
func binCenters(values []float32, bins int) (expr.Buffer, float64) {
	d, ok := axis.Extent(values)
	if !ok {
		d = axis.Domain{Min: 0, Max: 1}
	}
	if d.Max == d.Min {
		d = axis.Domain{Min: d.Min - 0.5, Max: d.Max + 0.5}
	}
	w := (d.Max - d.Min) / float64(bins)
	centers := vec.Linspace(d.Min+w/2, d.Max-w/2, bins)
	out := make(expr.Buffer, bins)
	for i, c := range centers {
		out[i] = float32(c)
	}
	return out, w
}
