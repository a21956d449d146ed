package colorscale

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gpuplot/shader"
)

// Names of the functions emitted by the library block.
const (
	Dispatch1D = "colorscale_1d"
	Dispatch2D = "colorscale_2d"
	MapColor   = "map_color"
	MapColor2D = "map_color_2d"
)

// Scale-type flag values of the color_scale uniforms.
const (
	ScaleLinear int32 = 0
	ScaleLog    int32 = 1
)

const normalizeSource = `fn cs_normalize(v: f32, rng: vec2<f32>, scale_type: i32) -> f32 {
    var lo = rng.x;
    var hi = rng.y;
    var x = v;
    if (scale_type == 1) {
        lo = log(max(lo, 1e-30));
        hi = log(max(hi, 1e-30));
        x = log(max(x, 1e-30));
    }
    if (hi == lo) {
        return 0.5;
    }
    return clamp((x - lo) / (hi - lo), 0.0, 1.0);
}`

const mapColorSource = `fn map_color(index: i32, v: f32, rng: vec2<f32>, scale_type: i32) -> vec4<f32> {
    return colorscale_1d(index, cs_normalize(v, rng, scale_type));
}`

const mapColor2DSource = `fn map_color_2d(index_a: i32, va: f32, rng_a: vec2<f32>, scale_a: i32, index_b: i32, vb: f32, rng_b: vec2<f32>, scale_b: i32) -> vec4<f32> {
    let ta = cs_normalize(va, rng_a, scale_a);
    let tb = cs_normalize(vb, rng_b, scale_b);
    if (index_a < 0 && index_a == index_b) {
        return colorscale_2d(index_a, vec2<f32>(ta, tb));
    }
    return (colorscale_1d(index_a, ta) + colorscale_1d(index_b, tb)) * 0.5;
}`

// Declare emits the colorscale library into b: every registered
// colorscale function, one dispatch function per family, the
// scale-aware map_color wrapper and the two-axis map_color_2d.
func (r *Registry) Declare(b *shader.Builder) {
	for _, cs := range r.oneD {
		b.Helper(FuncName(cs.Name), cs.Source)
	}
	for _, cs := range r.twoD {
		b.Helper(FuncName(cs.Name), cs.Source)
	}
	b.Helper(Dispatch1D, r.dispatch1D())
	b.Helper(Dispatch2D, r.dispatch2D())
	b.Helper("cs_normalize", normalizeSource)
	b.Helper(MapColor, mapColorSource)
	b.Helper(MapColor2D, mapColor2DSource)
}

func (r *Registry) dispatch1D() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(index: i32, t: f32) -> vec4<f32> {\n", Dispatch1D)
	for i, cs := range r.oneD {
		fmt.Fprintf(&sb, "    if (index == %d) {\n        return %s(t);\n    }\n", i, FuncName(cs.Name))
	}
	sb.WriteString("    return vec4<f32>(0.0, 0.0, 0.0, 1.0);\n}")
	return sb.String()
}

func (r *Registry) dispatch2D() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(index: i32, t: vec2<f32>) -> vec4<f32> {\n", Dispatch2D)
	for j, cs := range r.twoD {
		fmt.Fprintf(&sb, "    if (index == %d) {\n        return %s(t);\n    }\n", -(j + 1), FuncName(cs.Name))
	}
	sb.WriteString("    return vec4<f32>(0.0, 0.0, 0.0, 1.0);\n}")
	return sb.String()
}

// Normalize maps v into [0,1] over [lo,hi] exactly as the emitted
// cs_normalize does, applying a log pre-transform when logScale is set.
func Normalize(v, lo, hi float64, logScale bool) float64 {
	if logScale {
		lo = math.Log(math.Max(lo, 1e-30))
		hi = math.Log(math.Max(hi, 1e-30))
		v = math.Log(math.Max(v, 1e-30))
	}
	if hi == lo {
		return 0.5
	}
	return clamp01((v - lo) / (hi - lo))
}
