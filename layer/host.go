package layer

import (
	"math"
	"strings"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/colorscale"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/shader"
)

// hostValue reads one attribute on the host. Attributes produced by
// shader computations have no host value.
type hostValue struct {
	values   []float32
	scalar   float64
	isScalar bool
	slot     *expr.Slot
}

func hostValueOf(e expr.Expr, res expr.Result) hostValue {
	switch v := e.(type) {
	case expr.Scalar:
		return hostValue{scalar: float64(v), isScalar: true}
	case *expr.Texture, *expr.Call:
		if isFetch(res) {
			return hostValue{slot: res.Textures[0].Slot}
		}
	}
	return hostValue{}
}

// isFetch reports whether res is a bare fetch of its only texture.
func isFetch(res expr.Result) bool {
	if len(res.Textures) != 1 || len(res.Inputs) != 0 || len(res.Uniforms) != 0 || res.Type != shader.F32 {
		return false
	}
	fn := "fetch_" + strings.TrimPrefix(res.Textures[0].Name, "tex_") + "("
	return strings.HasPrefix(res.Code, fn)
}

func (h hostValue) at(i int) (float64, bool) {
	switch {
	case h.isScalar:
		return h.scalar, true
	case h.values != nil:
		if i < len(h.values) {
			return float64(h.values[i]), true
		}
	case h.slot != nil:
		if t := h.slot.Texture(); t != nil && t.Channels() == 1 && i < len(t.Data) {
			return float64(t.Data[i]), true
		}
	}
	return 0, false
}

// hostView describes the draw in terms of squares for devices that cannot
// run WGSL.
func (c *DrawCommand) hostView(f Frame, uniforms map[string]shader.Value) *gpucore.HostView {
	spec := c.spec
	if spec.X == "" || spec.Y == "" {
		return nil
	}
	xa, _ := f.Axes.Spatial.Axis(c.Layer.XAxis)
	ya, _ := f.Axes.Spatial.Axis(c.Layer.YAxis)
	xs, ys := c.assembly.host[spec.X], c.assembly.host[spec.Y]

	half := spec.HalfSize
	if spec.SizeUniform != "" {
		if s, ok := uniforms[spec.SizeUniform].(float32); ok {
			half = float64(s) / 2
		}
	}
	if half <= 0 {
		half = 0.5
	}

	shade := c.hostShade(f, uniforms)
	return &gpucore.HostView{
		Count:    c.Layer.Primitives(),
		HalfSize: half,
		Project: func(i int) (float64, float64, bool) {
			x, okx := xs.at(i)
			y, oky := ys.at(i)
			if !okx || !oky {
				return 0, 0, false
			}
			px, py := xa.Pixel(x), ya.Pixel(y)
			if math.IsNaN(px) || math.IsNaN(py) {
				return 0, 0, false
			}
			return px, py, true
		},
		Shade: shade,
	}
}

func (c *DrawCommand) hostShade(f Frame, uniforms map[string]shader.Value) func(i int) ([4]uint8, bool) {
	spec := c.spec
	type filterTest struct {
		values hostValue
		bounds axis.FilterRange
		scale  axis.ScaleType
	}
	var filters []filterTest
	for _, s := range sortedKeys(spec.Filters) {
		a, ok := f.Axes.Filter.Axis(c.Layer.FilterAxes[s])
		if !ok {
			continue
		}
		filters = append(filters, filterTest{c.assembly.host[spec.Filters[s]], a.Bounds(), a.Scale})
	}
	keep := func(i int) bool {
		for _, ft := range filters {
			v, ok := ft.values.at(i)
			if ok && !ft.bounds.Contains(v, ft.scale) {
				return false
			}
		}
		return true
	}

	if f.Picking {
		return func(i int) ([4]uint8, bool) {
			if !keep(i) {
				return [4]uint8{}, false
			}
			return c.pick.Encode(c.Index, i), true
		}
	}

	base := [4]float64{1, 1, 1, 1}
	if col, ok := uniforms[spec.ColorUniform].([4]float32); ok {
		base = [4]float64{float64(col[0]), float64(col[1]), float64(col[2]), float64(col[3])}
	}
	colorOf := func(int) [4]float64 { return base }
	if spec.Color != "" {
		if a, ok := f.Axes.Color.Axis(c.Layer.ColorAxes[spec.ColorSuffix]); ok {
			idx, err := f.Colorscales.Index(a.Colorscale)
			values := c.assembly.host[spec.Color]
			rng, logScale := a.Range(), a.Scale == axis.ScaleLog
			if err == nil {
				colorOf = func(i int) [4]float64 {
					v, ok := values.at(i)
					if !ok {
						return base
					}
					rgba, ok := f.Colorscales.Color(idx, colorscale.Normalize(v, rng.Min, rng.Max, logScale))
					if !ok {
						return base
					}
					return rgba
				}
			}
		}
	}
	return func(i int) ([4]uint8, bool) {
		if !keep(i) {
			return [4]uint8{}, false
		}
		return toRGBA8(colorOf(i)), true
	}
}

func toRGBA8(c [4]float64) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return out
}
