package layers

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/backend/software"
	"github.com/gogpu/gpuplot/colorscale"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/expr"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/layer"
	"github.com/gogpu/gpuplot/pick"
	"github.com/gogpu/gpuplot/shader"
)

func ramp(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func testTable(t *testing.T) *data.Table {
	t.Helper()
	tab, err := data.NewTable(
		data.Column{Name: "t", QuantityKind: "time_s", Values: ramp(10)},
		data.Column{Name: "v", QuantityKind: "voltage_V", Values: ramp(10)},
		data.Column{Name: "temp", QuantityKind: "temperature_K", Values: ramp(10)},
		data.Column{Name: "samples", Values: []float32{0, 1, 1, 2, 2, 2, 3, 3, 3, 3}},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tab
}

func exprRegistry(t *testing.T) *expr.Registry {
	t.Helper()
	reg := expr.NewRegistry()
	if err := expr.RegisterBuiltins(reg); err != nil {
		t.Fatalf("expr builtins: %v", err)
	}
	return reg
}

func create(t *testing.T, typ *layer.Type, p layer.Params) *layer.Layer {
	t.Helper()
	ls, err := typ.CreateLayer(p, testTable(t), exprRegistry(t))
	if err != nil {
		t.Fatalf("CreateLayer: %v", err)
	}
	if len(ls) != 1 {
		t.Fatalf("got %d layers", len(ls))
	}
	return ls[0]
}

type fixture struct {
	dev  *software.Device
	axes *axis.Set
	env  layer.Env
}

func newFixture(t *testing.T, l *layer.Layer) *fixture {
	t.Helper()
	dev := software.New()
	t.Cleanup(dev.Destroy)
	scales := colorscale.NewRegistry()
	if err := colorscale.RegisterBuiltins(scales); err != nil {
		t.Fatalf("colorscale builtins: %v", err)
	}
	axes := axis.NewSet(100, 100)
	for _, a := range [][2]string{{l.XAxis, l.XQuantityKind}, {l.YAxis, l.YQuantityKind}} {
		if _, err := axes.Spatial.EnsureAxis(a[0], a[1], axis.ScaleLinear); err != nil {
			t.Fatalf("EnsureAxis: %v", err)
		}
	}
	for _, qk := range l.ColorAxes {
		axes.Color.Ensure(axis.QuantityKind{Name: qk}, axis.Override{Colorscale: "viridis"})
	}
	for _, qk := range l.FilterAxes {
		axes.Filter.Ensure(axis.QuantityKind{Name: qk}, axis.Override{})
	}
	programs, err := gpucore.NewProgramCache(dev, 8)
	if err != nil {
		t.Fatalf("NewProgramCache: %v", err)
	}
	res := &expr.Resolver{Registry: exprRegistry(t), Context: &expr.Context{Device: dev}, Axes: axes}
	if err := axes.ApplyAutoDomains([]axis.Usage{l.Usage(res)}, nil); err != nil {
		t.Fatalf("ApplyAutoDomains: %v", err)
	}
	return &fixture{dev: dev, axes: axes, env: layer.Env{
		Device:      dev,
		Programs:    programs,
		Resolver:    res,
		Colorscales: scales,
		Pick:        pick.ColorChannels{},
	}}
}

// command compiles l, skipping the test when naga rejects the module.
func (fx *fixture) command(t *testing.T, typ *layer.Type, l *layer.Layer) *layer.DrawCommand {
	t.Helper()
	cmd, err := typ.CreateDrawCommand(l, fx.env)
	if errors.Is(err, shader.ErrInvalid) {
		t.Skipf("Skipping: naga rejects the %s module: %v", typ.Name, err)
	}
	if err != nil {
		t.Fatalf("CreateDrawCommand: %v", err)
	}
	t.Cleanup(cmd.Destroy)
	return cmd
}

func (fx *fixture) frame(picking bool) layer.Frame {
	return layer.Frame{Axes: fx.axes, Colorscales: fx.env.Colorscales, Width: 100, Height: 100, Picking: picking}
}

func TestRegisterBuiltins(t *testing.T) {
	r := layer.NewTypes()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	got := r.Names()
	want := []string{"histogram", "lines", "points"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if err := RegisterBuiltins(r); err == nil {
		t.Error("registering twice succeeded")
	}
}

func TestPointsAxes(t *testing.T) {
	l := create(t, Points(), layer.Params{"x": "t", "y": "v", "color": "temp", "filter": "v", "filter_kind": "gate"})
	if l.XAxis != axis.XBottom || l.YAxis != axis.YLeft {
		t.Errorf("axes = %s, %s", l.XAxis, l.YAxis)
	}
	if l.XQuantityKind != "time_s" || l.YQuantityKind != "voltage_V" {
		t.Errorf("quantity kinds = %s, %s", l.XQuantityKind, l.YQuantityKind)
	}
	if l.ColorAxes[""] != "temperature_K" {
		t.Errorf("color axes = %v", l.ColorAxes)
	}
	if l.FilterAxes[""] != "gate" {
		t.Errorf("filter axes = %v", l.FilterAxes)
	}
	if l.VertexCount != 6 || l.InstanceCount != 10 || l.Primitives() != 10 {
		t.Errorf("counts = %d vertices, %d instances", l.VertexCount, l.InstanceCount)
	}
	for name := range l.Attributes {
		if l.Divisors[name] != layer.PerInstance {
			t.Errorf("attribute %s does not step per instance", name)
		}
	}
	if _, ok := l.Sources["gate"]; !ok {
		t.Error("filter quantity kind has no extent source")
	}
}

func TestPointsAxisParams(t *testing.T) {
	l := create(t, Points(), layer.Params{
		"x": "t", "y": "v",
		"xaxis": axis.XTop, "yaxis": axis.YRight,
		"x_kind": "seconds", "y_kind": "volts",
	})
	if l.XAxis != axis.XTop || l.YAxis != axis.YRight || l.XQuantityKind != "seconds" || l.YQuantityKind != "volts" {
		t.Errorf("axes = %+v", l.Axes)
	}
	if _, err := Points().CreateLayer(layer.Params{"x": "t", "y": "v", "yaxis": axis.XTop}, testTable(t), nil); err == nil {
		t.Error("x slot accepted as y axis")
	}
}

func TestPointsLiteralData(t *testing.T) {
	l := create(t, Points(), layer.Params{"x": []any{1, 2, 3}, "y": 0.5})
	if l.InstanceCount != 3 {
		t.Errorf("InstanceCount = %d, want 3", l.InstanceCount)
	}
	if l.XQuantityKind != axis.XBottom {
		t.Errorf("literal x quantity kind = %q, want axis name", l.XQuantityKind)
	}
}

func TestPointsErrors(t *testing.T) {
	tests := []struct {
		name string
		p    layer.Params
		msg  string
	}{
		{"size", layer.Params{"x": "t", "y": "v", "size": 0}, "size must be positive"},
		{"unknown", layer.Params{"x": "t", "y": "v", "radius": 2}, "unknown parameter"},
		{"base color", layer.Params{"x": "t", "y": "v", "base_color": "not-a-color"}, "base_color"},
		{"count", layer.Params{"x": 1, "y": 2}, "cannot infer"},
		{"bad count", layer.Params{"x": 1, "y": 2, "count": 2.5}, "positive integer"},
		{"missing column", layer.Params{"x": "t", "y": "nope"}, "missing column"},
	}
	for _, tt := range tests {
		_, err := Points().CreateLayer(tt.p, testTable(t), exprRegistry(t))
		if err == nil || !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.msg)
		}
	}
}

func TestPointsTranslucentBlends(t *testing.T) {
	l := create(t, Points(), layer.Params{"x": "t", "y": "v", "base_color": "#ff000080"})
	if !l.Blend {
		t.Error("translucent base color does not blend")
	}
	l = create(t, Points(), layer.Params{"x": "t", "y": "v"})
	if l.Blend {
		t.Error("opaque base color blends")
	}
}

func TestLines(t *testing.T) {
	l := create(t, Lines(), layer.Params{"x": "t", "y": "v", "filter": "temp"})
	if l.Primitive != gpucore.TopologyLineStrip {
		t.Errorf("Primitive = %v", l.Primitive)
	}
	if l.VertexCount != 10 || l.Instanced() {
		t.Errorf("counts = %d, instanced %v", l.VertexCount, l.Instanced())
	}
	if l.FilterAxes[""] != "temperature_K" {
		t.Errorf("filter axes = %v", l.FilterAxes)
	}
}

func TestHistogramFactory(t *testing.T) {
	l := create(t, Histogram(), layer.Params{"input": "samples", "bins": 4, "filter_by": "samples"})
	if l.YQuantityKind != CountKind {
		t.Errorf("y quantity kind = %q", l.YQuantityKind)
	}
	if l.XQuantityKind != "samples" {
		t.Errorf("x quantity kind = %q", l.XQuantityKind)
	}
	if l.InstanceCount != 4 || l.VertexCount != 6 {
		t.Errorf("counts = %d instances, %d vertices", l.InstanceCount, l.VertexCount)
	}
	if a, ok := l.Anchors[CountKind]; !ok || a != 0 {
		t.Errorf("anchors = %v", l.Anchors)
	}
	centers, ok := l.Attributes[attrX].(expr.Buffer)
	if !ok || len(centers) != 4 {
		t.Fatalf("x attribute = %v", l.Attributes[attrX])
	}
	want := []float32{0.375, 1.125, 1.875, 2.625}
	for i := range want {
		if math.Abs(float64(centers[i]-want[i])) > 1e-6 {
			t.Errorf("center %d = %v, want %v", i, centers[i], want[i])
		}
	}
	call, ok := l.Attributes[attrY].(*expr.Call)
	if !ok || call.Name != "histogram" || call.Options["filter"] != "samples" {
		t.Errorf("y attribute = %v", l.Attributes[attrY])
	}
	if w := l.Uniforms[uniformBarWidth]; w != float32(0.75) {
		t.Errorf("bar width = %v", w)
	}
}

func TestHistogramErrors(t *testing.T) {
	for _, p := range []layer.Params{
		{"input": "samples", "bins": 0},
		{"input": "samples", "bins": 2.5},
		{"input": "missing"},
		{"input": 3},
	} {
		if _, err := Histogram().CreateLayer(p, testTable(t), exprRegistry(t)); err == nil {
			t.Errorf("params %v accepted", p)
		}
	}
}

func TestBinCentersConstantColumn(t *testing.T) {
	centers, w := binCenters([]float32{5, 5, 5}, 2)
	if w != 0.5 || centers[0] != 4.75 || centers[1] != 5.25 {
		t.Errorf("centers = %v, width %v", centers, w)
	}
}

func TestHistogramFollowsFilter(t *testing.T) {
	l := create(t, Histogram(), layer.Params{"input": "samples", "bins": 4, "filter_by": "samples"})
	fx := newFixture(t, l)
	if y, _ := fx.axes.Spatial.Axis(axis.YLeft); y.Domain() != (axis.Domain{Min: 0, Max: 4}) {
		t.Errorf("count axis domain = %v, want [0, 4]", y.Domain())
	}
	cmd := fx.command(t, Histogram(), l)
	refs := cmd.Refreshers()
	if len(refs) != 1 {
		t.Fatalf("refreshers = %d, want 1", len(refs))
	}
	counts := func() []float32 {
		if _, err := cmd.Draw(fx.frame(false)); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		return refs[0].Slot().Texture().Data
	}
	if got := counts(); !equal(got, []float32{1, 2, 3, 4}) {
		t.Errorf("counts = %v", got)
	}

	hi := 1.5
	if err := fx.axes.Filter.SetMax("samples", &hi); err != nil {
		t.Fatalf("SetMax: %v", err)
	}
	if got := counts(); !equal(got, []float32{1, 2, 0, 0}) {
		t.Errorf("filtered counts = %v", got)
	}
	n := refs[0].Recomputes()
	counts()
	if refs[0].Recomputes() != n {
		t.Error("unchanged filter triggered a recompute")
	}
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuiltinShadersValidate(t *testing.T) {
	cases := []struct {
		typ *layer.Type
		p   layer.Params
	}{
		{Points(), layer.Params{"x": "t", "y": "v", "color": "temp", "filter": "v"}},
		{Lines(), layer.Params{"x": "t", "y": map[string]any{"scale": map[string]any{"x": "v", "k": 2.0}}}},
		{Histogram(), layer.Params{"input": "samples", "bins": 4}},
	}
	for _, c := range cases {
		t.Run(c.typ.Name, func(t *testing.T) {
			l := create(t, c.typ, c.p)
			fx := newFixture(t, l)
			a, err := c.typ.Assemble(l, fx.env)
			if errors.Is(err, shader.ErrInvalid) {
				t.Skipf("Skipping: naga feature not yet implemented: %v", err)
			}
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			a.Release()
		})
	}
}

func TestPointsPick(t *testing.T) {
	l := create(t, Points(), layer.Params{"x": "t", "y": "v", "filter": "temp"})
	fx := newFixture(t, l)
	cmd := fx.command(t, Points(), l)
	target, err := fx.dev.CreateTarget(100, 100)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	read := func(picking bool, x, y int) [4]uint8 {
		t.Helper()
		call, err := cmd.Draw(fx.frame(picking))
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		clear := [4]float64{1, 1, 1, 1}
		if picking {
			clear = [4]float64{}
		}
		if err := fx.dev.Render(target, clear, []gpucore.DrawCall{call}); err != nil {
			t.Fatalf("Render: %v", err)
		}
		px, err := fx.dev.ReadPixels(target, x, y, 1, 1)
		if err != nil {
			t.Fatalf("ReadPixels: %v", err)
		}
		return [4]uint8(px)
	}

	// Point 7 sits at (77.8, 22.2) on a 100x100 viewport.
	if got := read(false, 77, 22); got != [4]uint8{70, 130, 180, 255} {
		t.Errorf("point color = %v, want steelblue", got)
	}
	res, ok := pick.ColorChannels{}.Decode(read(true, 77, 22))
	if !ok || res != (pick.Result{LayerIndex: 0, DataIndex: 7}) {
		t.Errorf("pick = %v, %v", res, ok)
	}
	if _, ok := (pick.ColorChannels{}).Decode(read(true, 50, 90)); ok {
		t.Error("background picked a point")
	}

	hi := 6.0
	if err := fx.axes.Filter.SetMax("temperature_K", &hi); err != nil {
		t.Fatalf("SetMax: %v", err)
	}
	if _, ok := (pick.ColorChannels{}).Decode(read(true, 77, 22)); ok {
		t.Error("filtered point is still pickable")
	}
}
