package layers

import (
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/shader"
)

// Lines is a polyline through the rows in order. Color and filter axes
// work as for points; a filtered vertex hides its adjacent segments.
func Lines() *layer.Type {
	return &layer.Type{
		Name:    "lines",
		Dynamic: dynamicAxes(),
		Schema: schema(
			layer.Param{Name: "x", Kind: layer.KindExpr, Required: true},
			layer.Param{Name: "y", Kind: layer.KindExpr, Required: true},
			layer.Param{Name: "color", Kind: layer.KindExpr},
			layer.Param{Name: "color_kind", Kind: layer.KindString},
			layer.Param{Name: "filter", Kind: layer.KindExpr},
			layer.Param{Name: "filter_kind", Kind: layer.KindString},
			layer.Param{Name: "base_color", Kind: layer.KindString, Default: DefaultColor},
			layer.Param{Name: "count", Kind: layer.KindNumber},
		),
		Shader:  linesShader,
		Factory: linesFactory,
	}
}

func linesShader(l *layer.Layer) layer.Template {
	shade, fragment := shading(l)
	return layer.Template{
		Inputs: append([]shader.Field{
			{Name: attrX, Type: shader.F32},
			{Name: attrY, Type: shader.F32},
		}, valueInputs(l)...),
		Varyings: shadeVaryings,
		Uniforms: []shader.Field{{Name: uniformBaseColor, Type: shader.Vec4}},
		Vertex:   append([]string{"vout.position = plot_position(x, y);"}, shade...),
		Fragment: fragment,
		Host:     hostSpec(l),
	}
}

func linesFactory(p layer.Params, src data.Source, reg *expr.Registry, axes layer.Axes) ([]*layer.Layer, error) {
	l, err := pointLike(p, src, reg, axes)
	if err != nil {
		return nil, err
	}
	n, err := count(p, l.Attributes, attrX, attrY, attrValue, attrFilter)
	if err != nil {
		return nil, err
	}
	l.Primitive = gpucore.TopologyLineStrip
	l.VertexCount = n
	return []*layer.Layer{l}, nil
}
