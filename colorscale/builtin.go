package colorscale

import (
	"fmt"
	"image/color"
	"strings"
)

// Stops is a piecewise-linear colorscale through evenly spaced colors.
type Stops []color.RGBA

// At interpolates the stops at t in [0,1].
func (s Stops) At(t float64) [4]float64 {
	t = clamp01(t)
	x := t * float64(len(s)-1)
	i := int(x)
	if i >= len(s)-1 {
		i = len(s) - 2
	}
	f := x - float64(i)
	a, b := s[i], s[i+1]
	lerp := func(p, q uint8) float64 {
		return (float64(p) + f*(float64(q)-float64(p))) / 255
	}
	return [4]float64{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 1}
}

// Colorscale returns a 1D colorscale with WGSL and host forms of the stops.
func (s Stops) Colorscale(name string) (Colorscale, error) {
	if len(s) < 2 {
		return Colorscale{}, fmt.Errorf("colorscale: %q needs at least 2 stops", name)
	}
	n := len(s)
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(t: f32) -> vec4<f32> {\n", FuncName(name))
	fmt.Fprintf(&sb, "    var stops = array<vec3<f32>, %d>(\n", n)
	for i, c := range s {
		sep := ","
		if i == n-1 {
			sep = ""
		}
		fmt.Fprintf(&sb, "        vec3<f32>(%s, %s, %s)%s\n", channel(c.R), channel(c.G), channel(c.B), sep)
	}
	sb.WriteString("    );\n")
	fmt.Fprintf(&sb, "    let x = clamp(t, 0.0, 1.0) * %d.0;\n", n-1)
	fmt.Fprintf(&sb, "    let i = min(u32(floor(x)), %du);\n", n-2)
	sb.WriteString("    let f = x - f32(i);\n")
	sb.WriteString("    return vec4<f32>(mix(stops[i], stops[i + 1u], f), 1.0);\n}")
	return Colorscale{Name: name, Source: sb.String(), Host: s.At}, nil
}

func channel(v uint8) string {
	return fmt.Sprintf("%.6f", float64(v)/255)
}

// Corners is a bilinear 2D colorscale between four corner colors:
// (0,0), (1,0), (0,1), (1,1).
type Corners [4]color.RGBA

// At interpolates the corners at (a, b).
func (c Corners) At(a, b float64) [4]float64 {
	a, b = clamp01(a), clamp01(b)
	var out [4]float64
	ch := func(k int, col color.RGBA) float64 {
		return float64([4]uint8{col.R, col.G, col.B, col.A}[k]) / 255
	}
	for k := 0; k < 3; k++ {
		bottom := ch(k, c[0])*(1-a) + ch(k, c[1])*a
		top := ch(k, c[2])*(1-a) + ch(k, c[3])*a
		out[k] = bottom*(1-b) + top*b
	}
	out[3] = 1
	return out
}

// Colorscale returns a 2D colorscale with WGSL and host forms.
func (c Corners) Colorscale(name string) Colorscale {
	v := func(col color.RGBA) string {
		return fmt.Sprintf("vec3<f32>(%s, %s, %s)", channel(col.R), channel(col.G), channel(col.B))
	}
	src := fmt.Sprintf(`fn %s(t: vec2<f32>) -> vec4<f32> {
    let s = clamp(t, vec2<f32>(0.0, 0.0), vec2<f32>(1.0, 1.0));
    let bottom = mix(%s, %s, s.x);
    let top = mix(%s, %s, s.x);
    return vec4<f32>(mix(bottom, top, s.y), 1.0);
}`, FuncName(name), v(c[0]), v(c[1]), v(c[2]), v(c[3]))
	return Colorscale{Name: name, Source: src, Host2D: c.At}
}

// Built-in stop tables.
var (
	Viridis = Stops{
		{68, 1, 84, 255}, {72, 35, 116, 255}, {64, 67, 135, 255},
		{52, 94, 141, 255}, {41, 120, 142, 255}, {32, 144, 140, 255},
		{34, 167, 132, 255}, {68, 190, 112, 255}, {121, 209, 81, 255},
		{189, 222, 38, 255}, {253, 231, 37, 255},
	}
	Magma = Stops{
		{0, 0, 4, 255}, {28, 16, 68, 255}, {79, 18, 123, 255},
		{129, 37, 129, 255}, {181, 54, 122, 255}, {229, 80, 100, 255},
		{251, 135, 97, 255}, {254, 194, 135, 255}, {252, 253, 191, 255},
	}
	Plasma = Stops{
		{13, 8, 135, 255}, {75, 3, 161, 255}, {125, 3, 168, 255},
		{168, 34, 150, 255}, {203, 70, 121, 255}, {229, 107, 93, 255},
		{248, 148, 65, 255}, {253, 195, 40, 255}, {240, 249, 33, 255},
	}
	Greys = Stops{{0, 0, 0, 255}, {255, 255, 255, 255}}
	Coolwarm = Stops{
		{59, 76, 192, 255}, {141, 176, 254, 255}, {221, 221, 221, 255},
		{244, 154, 123, 255}, {180, 4, 38, 255},
	}
	Bilinear = Corners{
		{0, 0, 0, 255}, {230, 0, 0, 255}, {0, 90, 230, 255}, {255, 255, 255, 255},
	}
)

// RegisterBuiltins registers viridis, magma, plasma, greys and coolwarm
// (1D, in that order) and bilinear (2D).
func RegisterBuiltins(r *Registry) error {
	oneD := []struct {
		name  string
		stops Stops
	}{
		{"viridis", Viridis},
		{"magma", Magma},
		{"plasma", Plasma},
		{"greys", Greys},
		{"coolwarm", Coolwarm},
	}
	for _, s := range oneD {
		cs, err := s.stops.Colorscale(s.name)
		if err != nil {
			return err
		}
		if _, err := r.Register(cs); err != nil {
			return err
		}
	}
	_, err := r.Register2D(Bilinear.Colorscale("bilinear"))
	return err
}
