package layer

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
	"github.com/gogpu/gpuplot/pick"
	"github.com/gogpu/gpuplot/shader"
)

// dotsType is a minimal point layer: one point per row, optionally
// colored and filtered by the columns named in "color" and "filter".
func dotsType() *Type {
	optional := func(param string) Binding[map[string]string] {
		return ResolvedBy(func(p Params, _ data.Source) (map[string]string, bool) {
			col := p.Text(param)
			if col == "" {
				return nil, false
			}
			return map[string]string{"": col}, true
		})
	}
	return &Type{
		Name: "dots",
		Dynamic: AxisConfig{
			XQuantityKind: ColumnQuantityKind("x"),
			YQuantityKind: ColumnQuantityKind("y"),
			ColorAxes:     optional("color"),
			FilterAxes:    optional("filter"),
		},
		Schema: Schema{
			{Name: "x", Kind: KindExpr, Required: true},
			{Name: "y", Kind: KindExpr, Required: true},
			{Name: "color", Kind: KindColumn},
			{Name: "filter", Kind: KindColumn},
		},
		Shader: func(l *Layer) Template {
			in := []shader.Field{{Name: "x", Type: shader.F32}, {Name: "y", Type: shader.F32}}
			h := HostSpec{X: "x", Y: "y", ColorUniform: "base", HalfSize: 1}
			shade := "vout.shade = u.base;"
			if _, ok := l.ColorAxes[""]; ok {
				in = append(in, shader.Field{Name: "c", Type: shader.F32})
				shade = "vout.shade = map_color(u.colorscale, c, u.color_range, u.color_scale);"
				h.Color = "c"
			}
			keep := "vout.keep = 1.0;"
			if _, ok := l.FilterAxes[""]; ok {
				in = append(in, shader.Field{Name: "f", Type: shader.F32})
				keep = "vout.keep = select(0.0, 1.0, filter_in(f, u.filter_range, u.filter_scale));"
				h.Filters = map[string]string{"": "f"}
			}
			return Template{
				Inputs:   in,
				Varyings: []shader.Varying{{Name: "shade", Type: shader.Vec4}, {Name: "keep", Type: shader.F32}},
				Uniforms: []shader.Field{{Name: "base", Type: shader.Vec4}},
				Vertex:   []string{"vout.position = plot_position(x, y);", shade, keep},
				Fragment: []string{
					"if (keep < 0.5) {",
					"    discard;",
					"}",
					"return apply_color(shade, pick_id);",
				},
				Host: h,
			}
		},
		Factory: func(p Params, src data.Source, reg *expr.Registry, axes Axes) ([]*Layer, error) {
			l := &Layer{
				Attributes: map[string]expr.Expr{},
				Uniforms:   map[string]shader.Value{"base": [4]float32{1, 0, 0, 1}},
				Sources:    map[string]expr.Expr{},
				Primitive:  gpucore.TopologyPointList,
			}
			for param, attr := range map[string]string{"x": "x", "y": "y", "color": "c", "filter": "f"} {
				v, ok := p[param]
				if !ok {
					continue
				}
				e, err := expr.Parse(v, src, reg)
				if err != nil {
					return nil, err
				}
				l.Attributes[attr] = e
			}
			n, _ := expr.Len(l.Attributes["x"])
			l.VertexCount = n
			l.Sources[axes.XQuantityKind] = l.Attributes["x"]
			l.Sources[axes.YQuantityKind] = l.Attributes["y"]
			if qk, ok := axes.ColorAxes[""]; ok {
				l.Sources[qk] = l.Attributes["c"]
			}
			if qk, ok := axes.FilterAxes[""]; ok {
				l.Sources[qk] = l.Attributes["f"]
			}
			return []*Layer{l}, nil
		},
	}
}

func ramp(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func table(t *testing.T, n int) *data.Table {
	t.Helper()
	tab, err := data.NewTable(
		data.Column{Name: "x", QuantityKind: "time_s", Values: ramp(n)},
		data.Column{Name: "y", QuantityKind: "voltage_V", Values: ramp(n)},
		data.Column{Name: "c", Values: ramp(n)},
		data.Column{Name: "f", Values: ramp(n)},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tab
}

type fixture struct {
	dev  *software.Device
	axes *axis.Set
	env  Env
}

// newFixture prepares axes for l the way a plot does: every axis the
// layer names is ensured, then auto domains are applied.
func newFixture(t *testing.T, l *Layer) *fixture {
	t.Helper()
	dev := software.New()
	t.Cleanup(dev.Destroy)
	exprs := expr.NewRegistry()
	if err := expr.RegisterBuiltins(exprs); err != nil {
		t.Fatalf("expr builtins: %v", err)
	}
	scales := colorscale.NewRegistry()
	if err := colorscale.RegisterBuiltins(scales); err != nil {
		t.Fatalf("colorscale builtins: %v", err)
	}
	axes := axis.NewSet(100, 100)
	if _, err := axes.Spatial.EnsureAxis(l.XAxis, l.XQuantityKind, axis.ScaleLinear); err != nil {
		t.Fatalf("EnsureAxis: %v", err)
	}
	if _, err := axes.Spatial.EnsureAxis(l.YAxis, l.YQuantityKind, axis.ScaleLinear); err != nil {
		t.Fatalf("EnsureAxis: %v", err)
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
	res := &expr.Resolver{Registry: exprs, Context: &expr.Context{Device: dev}, Axes: axes}
	if err := axes.ApplyAutoDomains([]axis.Usage{l.Usage(res)}, nil); err != nil {
		t.Fatalf("ApplyAutoDomains: %v", err)
	}
	return &fixture{
		dev:  dev,
		axes: axes,
		env: Env{
			Device:      dev,
			Programs:    programs,
			Resolver:    res,
			Colorscales: scales,
			Pick:        pick.ColorChannels{},
		},
	}
}

// command builds a draw command without running naga, so host rendering
// is covered even where the validator lags behind WGSL.
func (fx *fixture) command(t *testing.T, typ *Type, l *Layer) *DrawCommand {
	t.Helper()
	a := &Assembly{inputs: map[string]vertexInput{}, host: map[string]hostValue{}}
	src, err := typ.assemble(l, typ.Shader(l), fx.env, a)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	a.Source = src
	cmd := &DrawCommand{
		Layer:    l,
		Index:    fx.env.Index,
		assembly: a,
		spec:     typ.Shader(l).Host,
		device:   fx.dev,
		pick:     fx.env.Pick,
	}
	if err := cmd.upload(fx.env); err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(cmd.Destroy)
	return cmd
}

func (fx *fixture) render(t *testing.T, cmd *DrawCommand, picking bool) *gpucore.HostView {
	t.Helper()
	call, err := cmd.Draw(Frame{Axes: fx.axes, Colorscales: fx.env.Colorscales, Width: 100, Height: 100, Picking: picking})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	return call.Host
}

func createOne(t *testing.T, typ *Type, p Params, src data.Source) *Layer {
	t.Helper()
	exprs := expr.NewRegistry()
	if err := expr.RegisterBuiltins(exprs); err != nil {
		t.Fatalf("expr builtins: %v", err)
	}
	ls, err := typ.CreateLayer(p, src, exprs)
	if err != nil {
		t.Fatalf("CreateLayer: %v", err)
	}
	if len(ls) != 1 {
		t.Fatalf("got %d layers, want 1", len(ls))
	}
	return ls[0]
}

func TestResolveAxisConfig(t *testing.T) {
	src := table(t, 3)
	static := AxisConfig{
		YAxis:         FixedValue(axis.YRight),
		YQuantityKind: FixedValue("count"),
	}
	dynamic := AxisConfig{
		XAxis:         ResolvedBy(func(p Params, _ data.Source) (string, bool) { s := p.Text("xaxis"); return s, s != "" }),
		XQuantityKind: ColumnQuantityKind("x"),
		YQuantityKind: ResolvedBy(func(p Params, _ data.Source) (string, bool) { s := p.Text("y_kind"); return s, s != "" }),
	}

	tests := []struct {
		name   string
		params Params
		want   Axes
	}{
		{
			name:   "static and defaults",
			params: Params{},
			want:   Axes{XAxis: axis.XBottom, YAxis: axis.YRight, XQuantityKind: axis.XBottom, YQuantityKind: "count"},
		},
		{
			name:   "dynamic wins",
			params: Params{"xaxis": axis.XTop, "x": "x", "y_kind": "density"},
			want:   Axes{XAxis: axis.XTop, YAxis: axis.YRight, XQuantityKind: "time_s", YQuantityKind: "density"},
		},
		{
			name:   "unresolved dynamic falls through",
			params: Params{"x": 1.5},
			want:   Axes{XAxis: axis.XBottom, YAxis: axis.YRight, XQuantityKind: axis.XBottom, YQuantityKind: "count"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAxisConfig(static, dynamic, tt.params, src)
			if got.XAxis != tt.want.XAxis || got.YAxis != tt.want.YAxis ||
				got.XQuantityKind != tt.want.XQuantityKind || got.YQuantityKind != tt.want.YQuantityKind {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.ColorAxes == nil || got.FilterAxes == nil {
				t.Error("value axis maps must be non-nil")
			}
		})
	}
}

func TestResolveAxisConfigCopiesMaps(t *testing.T) {
	shared := map[string]string{"": "temperature"}
	cfg := AxisConfig{ColorAxes: FixedValue(shared)}
	a := ResolveAxisConfig(cfg, AxisConfig{}, Params{}, nil)
	a.ColorAxes[""] = "changed"
	if shared[""] != "temperature" {
		t.Error("resolved axes alias the type's map")
	}
}

func TestSchemaApply(t *testing.T) {
	s := Schema{
		{Name: "x", Kind: KindExpr, Required: true},
		{Name: "size", Kind: KindNumber, Default: 4.0},
		{Name: "label", Kind: KindString},
	}

	in := Params{"x": "col"}
	out, err := s.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v, _ := out.Float("size"); v != 4 {
		t.Errorf("size = %v, want default 4", v)
	}
	if _, ok := out["label"]; ok {
		t.Error("absent parameter without default was filled")
	}
	if _, ok := in["size"]; ok {
		t.Error("Apply mutated its input")
	}

	bad := []struct {
		name string
		p    Params
		msg  string
	}{
		{"unknown", Params{"x": "col", "colour": "red"}, "unknown parameter"},
		{"kind", Params{"x": "col", "size": "big"}, "must be a number"},
		{"required", Params{"size": 2}, "missing required"},
		{"expr kind", Params{"x": true}, "must be a expression"},
	}
	for _, tt := range bad {
		if _, err := s.Apply(tt.p); err == nil || !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.msg)
		}
	}
}

func TestTypesRegistry(t *testing.T) {
	r := NewTypes()
	if err := r.Register(dotsType()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(dotsType()); err == nil {
		t.Error("duplicate type accepted")
	}
	if err := r.Register(&Type{}); err == nil {
		t.Error("unnamed type accepted")
	}
	if _, err := r.Lookup("bars"); !errors.Is(err, ErrUnknownLayerType) {
		t.Errorf("Lookup unknown: err = %v", err)
	}

	c := r.Clone()
	other := dotsType()
	other.Name = "bars"
	if err := c.Register(other); err != nil {
		t.Fatalf("Register on clone: %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "bars" || got[1] != "dots" {
		t.Errorf("clone names = %v", got)
	}
	if got := r.Names(); len(got) != 1 {
		t.Errorf("original changed: %v", got)
	}
}

func TestCreateLayerInheritsAxes(t *testing.T) {
	l := createOne(t, dotsType(), Params{"x": "x", "y": "y", "color": "c"}, table(t, 5))
	if l.Type != "dots" {
		t.Errorf("Type = %q", l.Type)
	}
	if l.XAxis != axis.XBottom || l.YAxis != axis.YLeft {
		t.Errorf("axes = %s, %s", l.XAxis, l.YAxis)
	}
	if l.XQuantityKind != "time_s" || l.YQuantityKind != "voltage_V" {
		t.Errorf("quantity kinds = %s, %s", l.XQuantityKind, l.YQuantityKind)
	}
	if l.ColorAxes[""] != "c" {
		t.Errorf("color axes = %v", l.ColorAxes)
	}
	want := []string{"c", "time_s", "voltage_V"}
	got := l.QuantityKinds()
	if len(got) != len(want) {
		t.Fatalf("QuantityKinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QuantityKinds = %v, want %v", got, want)
		}
	}
}

func TestCreateLayerErrors(t *testing.T) {
	src := table(t, 3)
	reg := expr.NewRegistry()

	wrongAxis := dotsType()
	wrongAxis.Axes.XAxis = FixedValue(axis.YLeft)
	if _, err := wrongAxis.CreateLayer(Params{"x": "x", "y": "y"}, src, reg); err == nil || !strings.Contains(err.Error(), "not an x axis") {
		t.Errorf("y slot as x axis: err = %v", err)
	}

	if _, err := dotsType().CreateLayer(Params{"x": "x"}, src, reg); err == nil {
		t.Error("missing required y accepted")
	}
	if _, err := dotsType().CreateLayer(Params{"x": "x", "y": "nope"}, src, reg); !errors.Is(err, data.ErrMissingColumn) {
		t.Errorf("missing column: err = %v", err)
	}

	empty := dotsType()
	empty.Factory = func(Params, data.Source, *expr.Registry, Axes) ([]*Layer, error) {
		return []*Layer{{Attributes: map[string]expr.Expr{"x": expr.Buffer{}, "y": expr.Buffer{}}}}, nil
	}
	if _, err := empty.CreateLayer(Params{"x": "x", "y": "y"}, src, reg); err == nil || !strings.Contains(err.Error(), "vertex count") {
		t.Errorf("zero vertices: err = %v", err)
	}
}

func TestUsageExtents(t *testing.T) {
	l := &Layer{
		Type:    "bars",
		Axes:    Axes{XAxis: axis.XBottom, YAxis: axis.YLeft, XQuantityKind: "x", YQuantityKind: "count"},
		Domains: map[string]axis.Domain{"x": {Min: -10, Max: 10}},
		Sources: map[string]expr.Expr{
			"x":     expr.Buffer{1, 2},
			"count": expr.Buffer{3, 4},
		},
		Anchors: map[string]float64{"count": 0},
	}
	u := l.Usage(nil)
	if u.Spatial[axis.XBottom] != "x" || u.Spatial[axis.YLeft] != "count" {
		t.Errorf("spatial usage = %v", u.Spatial)
	}
	d, ok, err := u.Extent("x")
	if err != nil || !ok || d != (axis.Domain{Min: -10, Max: 10}) {
		t.Errorf("declared domain: %v %v %v", d, ok, err)
	}
	d, ok, err = u.Extent("count")
	if err != nil || !ok || d != (axis.Domain{Min: 0, Max: 4}) {
		t.Errorf("anchored extent: %v %v %v", d, ok, err)
	}
	if _, ok, _ := u.Extent("unused"); ok {
		t.Error("extent for unbound quantity kind")
	}
}

func TestAssembleInjectionOrder(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y", "color": "c", "filter": "f"}, table(t, 5))
	fx := newFixture(t, l)
	a := &Assembly{inputs: map[string]vertexInput{}, host: map[string]hostValue{}}
	src, err := typ.assemble(l, typ.Shader(l), fx.env, a)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	order := []string{
		"fn normalize_axis(",
		"fn filter_in(",
		"fn apply_color(",
		"fn " + colorscale.Dispatch1D + "(",
		"fn " + colorscale.MapColor + "(",
		"@vertex",
		"@fragment",
	}
	last := -1
	for _, marker := range order {
		i := strings.Index(src.Code, marker)
		if i < 0 {
			t.Fatalf("missing %q in\n%s", marker, src.Code)
		}
		if i < last {
			t.Errorf("%q out of order in\n%s", marker, src.Code)
		}
		last = i
	}
	for _, u := range []string{axis.XDomainUniform, axis.ColorRangeUniform(""), axis.FilterRangeUniform(""), pick.PickingUniform, "base"} {
		if _, ok := src.Uniforms.Offset(u); !ok {
			t.Errorf("uniform %s not declared", u)
		}
	}
}

func TestAssembleComputedAttribute(t *testing.T) {
	typ := dotsType()
	y := map[string]any{"scale": map[string]any{"x": "y", "k": 2.0}}
	l := createOne(t, typ, Params{"x": "x", "y": y}, table(t, 4))
	fx := newFixture(t, l)
	a := &Assembly{inputs: map[string]vertexInput{}, host: map[string]hostValue{}}
	src, err := typ.assemble(l, typ.Shader(l), fx.env, a)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, in := range src.Inputs {
		if in.Name == "y" {
			t.Error("computed attribute still declared as a vertex input")
		}
	}
	if !strings.Contains(src.Code, "let y = ") {
		t.Errorf("no prelude binding for y in\n%s", src.Code)
	}
	if len(a.inputs) != 2 {
		t.Errorf("vertex inputs = %d, want x and the scaled column", len(a.inputs))
	}
	if len(a.Effects.Uniforms) != 1 || a.Effects.Uniforms[0].Value != float32(2) {
		t.Errorf("effect uniforms = %+v", a.Effects.Uniforms)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	typ := dotsType()
	p := Params{"x": "x", "y": "y", "color": "c", "filter": "f"}
	var codes []string
	for range 3 {
		l := createOne(t, typ, p, table(t, 5))
		fx := newFixture(t, l)
		a := &Assembly{inputs: map[string]vertexInput{}, host: map[string]hostValue{}}
		src, err := typ.assemble(l, typ.Shader(l), fx.env, a)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		codes = append(codes, src.Code)
	}
	if codes[0] != codes[1] || codes[1] != codes[2] {
		t.Error("assembly is not deterministic")
	}
}

func TestAssembleRejectsBadEnv(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y"}, table(t, 3))
	if _, err := typ.Assemble(l, Env{}); err == nil {
		t.Error("incomplete environment accepted")
	}
	if _, err := typ.CreateDrawCommand(l, Env{}); err == nil {
		t.Error("draw command without device accepted")
	}

	l.Attributes["y"] = expr.NewCall("no_such", nil)
	fx := newFixture(t, createOne(t, typ, Params{"x": "x", "y": "y"}, table(t, 3)))
	if _, err := typ.Assemble(l, fx.env); !errors.Is(err, expr.ErrUnknownComputation) {
		t.Errorf("unknown computation: err = %v", err)
	}
	if b, tx, p := fx.dev.Live(); b+tx+p != 0 {
		t.Errorf("failed assembly leaked resources: %d %d %d", b, tx, p)
	}
}

func TestCreateDrawCommandValidates(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y", "color": "c", "filter": "f"}, table(t, 5))
	fx := newFixture(t, l)
	cmd, err := typ.CreateDrawCommand(l, fx.env)
	if errors.Is(err, shader.ErrInvalid) {
		t.Skipf("Skipping: naga rejects the assembled module: %v", err)
	}
	if err != nil {
		t.Fatalf("CreateDrawCommand: %v", err)
	}
	defer cmd.Destroy()
	if cmd.Source() == nil || cmd.Source().Code == "" {
		t.Error("no source")
	}
}

func TestDrawUniforms(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y", "color": "c"}, table(t, 10))
	fx := newFixture(t, l)
	cmd := fx.command(t, typ, l)

	values, err := cmd.uniforms(Frame{Axes: fx.axes, Colorscales: fx.env.Colorscales, Width: 100, Height: 100, Picking: true})
	if err != nil {
		t.Fatalf("uniforms: %v", err)
	}
	if got := values[axis.XDomainUniform]; got != [2]float32{0, 9} {
		t.Errorf("x domain = %v", got)
	}
	if got := values[axis.ColorRangeUniform("")]; got != [2]float32{0, 9} {
		t.Errorf("color range = %v", got)
	}
	if got := values[axis.ColorscaleUniform("")]; got != int32(0) {
		t.Errorf("colorscale index = %v, want viridis (0)", got)
	}
	if got := values[pick.PickingUniform]; got != int32(1) {
		t.Errorf("picking = %v", got)
	}
}

func TestHostViewProjectsAndPicks(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y"}, table(t, 10))
	fx := newFixture(t, l)
	fx.env.Index = 2
	cmd := fx.command(t, typ, l)

	h := fx.render(t, cmd, false)
	if h == nil || h.Count != 10 || h.HalfSize != 1 {
		t.Fatalf("host view = %+v", h)
	}
	px, py, ok := h.Project(9)
	if !ok || math.Abs(px-100) > 1e-9 || math.Abs(py) > 1e-9 {
		t.Errorf("Project(9) = %v, %v, %v; want top right", px, py, ok)
	}
	if c, ok := h.Shade(3); !ok || c != [4]uint8{255, 0, 0, 255} {
		t.Errorf("Shade(3) = %v, %v", c, ok)
	}

	h = fx.render(t, cmd, true)
	c, ok := h.Shade(7)
	if !ok {
		t.Fatal("point 7 not drawn in pick pass")
	}
	got, ok := pick.ColorChannels{}.Decode(c)
	if !ok || got != (pick.Result{LayerIndex: 2, DataIndex: 7}) {
		t.Errorf("decoded %v, want layer 2 point 7", got)
	}
}

func TestHostViewFilterAndColor(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y", "color": "c", "filter": "f"}, table(t, 10))
	fx := newFixture(t, l)
	cmd := fx.command(t, typ, l)

	hi := 4.0
	if err := fx.axes.Filter.SetMax("f", &hi); err != nil {
		t.Fatalf("SetMax: %v", err)
	}
	h := fx.render(t, cmd, false)
	if _, ok := h.Shade(5); ok {
		t.Error("filtered point drawn")
	}
	c, ok := h.Shade(9)
	if ok {
		t.Errorf("filtered point 9 drawn as %v", c)
	}
	c, ok = h.Shade(0)
	if !ok {
		t.Fatal("point 0 filtered")
	}
	want, _ := fx.env.Colorscales.Color(0, 0)
	for i := range 3 {
		if d := math.Abs(float64(c[i]) - want[i]*255); d > 1 {
			t.Errorf("channel %d = %d, want %.0f", i, c[i], want[i]*255)
		}
	}
}

func TestRenderOnSoftwareDevice(t *testing.T) {
	typ := dotsType()
	l := createOne(t, typ, Params{"x": "x", "y": "y"}, table(t, 10))
	fx := newFixture(t, l)
	cmd := fx.command(t, typ, l)

	target, err := fx.dev.CreateTarget(100, 100)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	call, err := cmd.Draw(Frame{Axes: fx.axes, Colorscales: fx.env.Colorscales, Width: 100, Height: 100, Picking: true})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if call.VertexCount != 10 || call.InstanceCount != 1 {
		t.Errorf("counts = %d, %d", call.VertexCount, call.InstanceCount)
	}
	if err := fx.dev.Render(target, [4]float64{}, []gpucore.DrawCall{call}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	// x = y = 7 projects to (77.8, 22.2).
	px, err := fx.dev.ReadPixels(target, 77, 22, 1, 1)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	got, ok := pick.ColorChannels{}.Decode([4]uint8(px))
	if !ok || got != (pick.Result{LayerIndex: 0, DataIndex: 7}) {
		t.Errorf("pixel %v decodes to %v, %v", px, got, ok)
	}
	px, _ = fx.dev.ReadPixels(target, 10, 10, 1, 1)
	if _, ok := (pick.ColorChannels{}).Decode([4]uint8(px)); ok {
		t.Errorf("background pixel %v decodes to a hit", px)
	}
}
