package axis

import "github.com/gogpu/gpuplot/shader"

// Spatial uniform names.
const (
	XDomainUniform = "x_domain"
	YDomainUniform = "y_domain"
	XScaleUniform  = "x_scale"
	YScaleUniform  = "y_scale"
)

// Helper function names.
const (
	NormalizeFunc = "normalize_axis"
	PositionFunc  = "plot_position"
	FilterFunc    = "filter_in"
)

func suffixed(base, suffix string) string {
	if suffix == "" {
		return base
	}
	return base + "_" + suffix
}

// Per-suffix color uniform names.
func ColorscaleUniform(suffix string) string { return suffixed("colorscale", suffix) }
func ColorRangeUniform(suffix string) string { return suffixed("color_range", suffix) }
func ColorScaleUniform(suffix string) string { return suffixed("color_scale", suffix) }

// Per-suffix filter uniform names.
func FilterRangeUniform(suffix string) string { return suffixed("filter_range", suffix) }
func FilterScaleUniform(suffix string) string { return suffixed("filter_scale", suffix) }

const normalizeSource = `fn normalize_axis(v: f32, domain: vec2<f32>, scale_type: i32) -> f32 {
    if (domain.y == domain.x) {
        return 0.5;
    }
    if (scale_type == 1) {
        return (log(v) - log(domain.x)) / (log(domain.y) - log(domain.x));
    }
    return (v - domain.x) / (domain.y - domain.x);
}`

const positionSource = `fn plot_position(x: f32, y: f32) -> vec4<f32> {
    let nx = normalize_axis(x, u.x_domain, u.x_scale);
    let ny = normalize_axis(y, u.y_domain, u.y_scale);
    return vec4<f32>(nx * 2.0 - 1.0, ny * 2.0 - 1.0, 0.0, 1.0);
}`

// DeclareSpatial adds the spatial uniforms and the normalization helpers.
func DeclareSpatial(b *shader.Builder) {
	b.Uniform(XDomainUniform, shader.Vec2)
	b.Uniform(YDomainUniform, shader.Vec2)
	b.Uniform(XScaleUniform, shader.I32)
	b.Uniform(YScaleUniform, shader.I32)
	b.Helper(NormalizeFunc, normalizeSource)
	b.Helper(PositionFunc, positionSource)
}

const filterSource = `fn filter_in(v: f32, bounds: vec4<f32>, scale_type: i32) -> bool {
    if (scale_type == 1 && v <= 0.0) {
        return false;
    }
    if (bounds.z > 0.5 && v < bounds.x) {
        return false;
    }
    if (bounds.w > 0.5 && v > bounds.y) {
        return false;
    }
    return true;
}`

// DeclareFilter adds the shared range-test helper and the uniforms of one
// filter suffix.
func DeclareFilter(b *shader.Builder, suffix string) {
	b.Uniform(FilterRangeUniform(suffix), shader.Vec4)
	b.Uniform(FilterScaleUniform(suffix), shader.I32)
	b.Helper(FilterFunc, filterSource)
}

// DeclareColor adds the uniforms of one color suffix. The colorscale
// library itself is declared by the colorscale registry.
func DeclareColor(b *shader.Builder, suffix string) {
	b.Uniform(ColorscaleUniform(suffix), shader.I32)
	b.Uniform(ColorRangeUniform(suffix), shader.Vec2)
	b.Uniform(ColorScaleUniform(suffix), shader.I32)
}
