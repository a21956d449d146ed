package gpuplot

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gpuplot/axis"
	"github.com/gogpu/gpuplot/backend/software"
	"github.com/gogpu/gpuplot/layers"
)

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	for _, name := range []string{"points", "lines", "histogram"} {
		if !slices.Contains(reg.LayerTypes(), name) {
			t.Errorf("layer type %q not registered", name)
		}
	}
	for _, name := range []string{"scale", "histogram"} {
		if !slices.Contains(reg.Computations(), name) {
			t.Errorf("computation %q not registered", name)
		}
	}
	oneD, _ := reg.Colorscales()
	if len(oneD) == 0 || oneD[0] != "viridis" {
		t.Errorf("colorscales = %v, want viridis first", oneD)
	}
}

func TestRegistryClone(t *testing.T) {
	reg := NewRegistry()
	c := reg.Clone()
	if err := c.RegisterQuantityKind(axis.QuantityKind{Name: "voltage_V", Label: "Voltage", Scale: axis.ScaleLog}); err != nil {
		t.Fatalf("RegisterQuantityKind: %v", err)
	}
	if got := c.QuantityKind("voltage_V"); got.Scale != axis.ScaleLog || got.Label != "Voltage" {
		t.Errorf("clone kind = %+v", got)
	}
	if got := reg.QuantityKind("voltage_V"); got.Scale != axis.ScaleUnset || got.Label != "Voltage V" {
		t.Errorf("original kind = %+v", got)
	}
	if err := c.RegisterLayerType(layers.Points()); err != nil {
		t.Fatalf("RegisterLayerType: %v", err)
	}
	if len(reg.LayerTypes()) != 0 {
		t.Error("clone registration leaked into the original")
	}
	if err := c.RegisterLayerType(layers.Points()); err == nil {
		t.Error("duplicate layer type accepted")
	}
}

func TestPlotCopiesRegistry(t *testing.T) {
	dev := software.New()
	defer dev.Destroy()

	reg := NewRegistry()
	p, err := New(dev, reg, WithSize(10, 10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	if err := reg.RegisterLayerType(layers.Points()); err != nil {
		t.Fatalf("RegisterLayerType: %v", err)
	}
	err = p.Update(parse(t, "layers:\n  - points: {x: t, y: v}\n"), testData(t))
	if !errors.Is(err, ErrUnknownLayerType) {
		t.Errorf("err = %v, want ErrUnknownLayerType", err)
	}
}

func TestQuantityKindDefaults(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	if err := reg.RegisterQuantityKind(axis.QuantityKind{Name: "time_s", Label: "Time (s)"}); err != nil {
		t.Fatalf("RegisterQuantityKind: %v", err)
	}
	if err := reg.RegisterQuantityKind(axis.QuantityKind{Name: "temperature_K", Colorscale: "plasma"}); err != nil {
		t.Fatalf("RegisterQuantityKind: %v", err)
	}
	dev := software.New()
	defer dev.Destroy()
	p, err := New(dev, reg, WithSize(100, 100))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()
	update(t, p, "layers:\n  - points: {x: t, y: v, color: temp}\n")

	x, _ := p.Axes().Spatial.Axis(axis.XBottom)
	if x.Label != "Time (s)" {
		t.Errorf("x label = %q", x.Label)
	}
	if c, _ := p.Axes().Color.Axis("temperature_K"); c.Colorscale != "plasma" {
		t.Errorf("colorscale = %q, want plasma", c.Colorscale)
	}
}
