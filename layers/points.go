package layers

import (
	"fmt"

	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/shader"
)

// DefaultPointSize is the point diameter in pixels.
const DefaultPointSize = 4.0

// quadCorner expands vertex_index 0..5 into the two triangles of a unit
// square centered on the origin.
const quadCorner = `fn quad_corner(i: u32) -> vec2<f32> {
    let right = i == 1u || i == 2u || i == 4u;
    let top = i == 2u || i >= 4u;
    return vec2<f32>(select(-1.0, 1.0, right), select(-1.0, 1.0, top));
}`

// Points is a scatter layer: one screen-aligned square per row, colored by
// an optional color axis and hidden by an optional filter axis.
func Points() *layer.Type {
	return &layer.Type{
		Name:    "points",
		Dynamic: dynamicAxes(),
		Schema: schema(
			layer.Param{Name: "x", Kind: layer.KindExpr, Required: true},
			layer.Param{Name: "y", Kind: layer.KindExpr, Required: true},
			layer.Param{Name: "color", Kind: layer.KindExpr},
			layer.Param{Name: "color_kind", Kind: layer.KindString},
			layer.Param{Name: "filter", Kind: layer.KindExpr},
			layer.Param{Name: "filter_kind", Kind: layer.KindString},
			layer.Param{Name: "size", Kind: layer.KindNumber, Default: DefaultPointSize},
			layer.Param{Name: "base_color", Kind: layer.KindString, Default: DefaultColor},
			layer.Param{Name: "count", Kind: layer.KindNumber},
		),
		Shader:  pointsShader,
		Factory: pointsFactory,
	}
}

func pointsShader(l *layer.Layer) layer.Template {
	vertex := []string{
		"let center = plot_position(x, y);",
		"let offset = quad_corner(vertex_index) * u.point_size / u.viewport;",
		"vout.position = vec4<f32>(center.xy + offset, 0.0, 1.0);",
	}
	shade, fragment := shading(l)
	host := hostSpec(l)
	host.SizeUniform = uniformSize
	return layer.Template{
		Inputs: append([]shader.Field{
			{Name: attrX, Type: shader.F32},
			{Name: attrY, Type: shader.F32},
		}, valueInputs(l)...),
		Varyings: shadeVaryings,
		Uniforms: []shader.Field{
			{Name: uniformSize, Type: shader.F32},
			{Name: uniformBaseColor, Type: shader.Vec4},
			{Name: layer.ViewportUniform, Type: shader.Vec2},
		},
		Helpers:  []shader.Helper{{Name: "quad_corner", Source: quadCorner}},
		Vertex:   append(vertex, shade...),
		Fragment: fragment,
		Host:     host,
	}
}

func pointsFactory(p layer.Params, src data.Source, reg *expr.Registry, axes layer.Axes) ([]*layer.Layer, error) {
	l, err := pointLike(p, src, reg, axes)
	if err != nil {
		return nil, err
	}
	size, _ := p.Float("size")
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %g", size)
	}
	n, err := count(p, l.Attributes, attrX, attrY, attrValue, attrFilter)
	if err != nil {
		return nil, err
	}
	l.Uniforms[uniformSize] = float32(size)
	l.Primitive = gpucore.TopologyTriangleList
	l.VertexCount = 6
	l.InstanceCount = n
	l.Divisors = map[string]int{}
	for name := range l.Attributes {
		l.Divisors[name] = layer.PerInstance
	}
	return []*layer.Layer{l}, nil
}

// pointLike builds the attributes, axes and sources shared by points and
// lines.
func pointLike(p layer.Params, src data.Source, reg *expr.Registry, axes layer.Axes) (*layer.Layer, error) {
	attrs, err := attributes(p, src, reg, map[string]string{
		"x":      attrX,
		"y":      attrY,
		"color":  attrValue,
		"filter": attrFilter,
	})
	if err != nil {
		return nil, err
	}
	col, err := baseColor(p)
	if err != nil {
		return nil, err
	}
	l := &layer.Layer{
		Attributes: attrs,
		Uniforms:   map[string]shader.Value{uniformBaseColor: col},
		Axes:       axes,
		Blend:      col[3] < 1,
	}
	sources(l, p, src)
	return l, nil
}
