package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpuplot/backend"
	"github.com/gogpu/gpuplot/gpucore"
)

func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	d, err := open(noop.API{})
	if err != nil {
		t.Fatalf("open noop: %v", err)
	}
	t.Cleanup(d.Destroy)
	return d
}

const testShader = `
struct Uniforms { color: vec4<f32> }
@group(0) @binding(0) var<uniform> u: Uniforms;
@vertex fn vs_main(@location(0) x: f32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(x, 0.0, 0.0, 1.0);
}
@fragment fn fs_main() -> @location(0) vec4<f32> { return u.color; }
`

func testProgram(t *testing.T, d *Device, textures int) gpucore.ProgramID {
	t.Helper()
	id, err := d.CreateProgram(&gpucore.ProgramDesc{
		Label:         "test",
		Source:        testShader,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Buffers: []gpucore.VertexBufferLayout{{
			Stride:     4,
			Attributes: []gpucore.VertexAttribute{{Location: 0, Format: gpucore.VertexFormatFloat32}},
		}},
		UniformSize:  16,
		TextureCount: textures,
		Topology:     gpucore.TopologyPointList,
		Blend:        true,
	})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	return id
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendWGPU) {
		t.Fatal("wgpu backend not registered")
	}
}

func TestRenderAndReadPixels(t *testing.T) {
	d := newNoopDevice(t)
	if d.Name() != "wgpu" {
		t.Errorf("Name = %q", d.Name())
	}
	target, err := d.CreateTarget(70, 3)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	buf, err := d.CreateBuffer("x", gpucore.Float32Bytes([]float32{0, 0.5}))
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	prog := testProgram(t, d, 0)
	call := gpucore.DrawCall{
		Program:     prog,
		Vertex:      []gpucore.VertexBinding{{Slot: 0, Buffer: buf}},
		Uniforms:    gpucore.Float32Bytes([]float32{1, 0, 0, 1}),
		VertexCount: 2,
	}
	if err := d.Render(target, [4]float64{0, 0, 0, 1}, []gpucore.DrawCall{call}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	px, err := d.ReadPixels(target, 60, 1, 10, 2)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if len(px) != 4*10*2 {
		t.Errorf("len = %d, want 80", len(px))
	}
	if _, err := d.ReadPixels(target, 65, 0, 10, 1); err == nil {
		t.Error("out of bounds read accepted")
	}
}

func TestReadSinglePixel(t *testing.T) {
	d := newNoopDevice(t)
	// Pick targets are read one pixel at a time, at any corner.
	target, err := d.CreateTarget(300, 200)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if err := d.Render(target, [4]float64{}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, at := range [][2]int{{0, 0}, {299, 199}, {150, 7}} {
		px, err := d.ReadPixels(target, at[0], at[1], 1, 1)
		if err != nil {
			t.Fatalf("ReadPixels(%d,%d): %v", at[0], at[1], err)
		}
		if len(px) != 4 {
			t.Errorf("ReadPixels(%d,%d) len = %d, want 4", at[0], at[1], len(px))
		}
	}
	for _, at := range [][2]int{{300, 0}, {0, 200}, {-1, 0}} {
		if _, err := d.ReadPixels(target, at[0], at[1], 1, 1); err == nil {
			t.Errorf("ReadPixels(%d,%d) outside the target accepted", at[0], at[1])
		}
	}
	if _, err := d.ReadPixels(target+10, 0, 0, 1, 1); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("unknown target: err = %v", err)
	}
}

func TestRowPitch(t *testing.T) {
	for _, tt := range []struct {
		w    int
		want uint32
	}{{1, 256}, {64, 256}, {65, 512}, {70, 512}} {
		if got := rowPitch(tt.w); got != tt.want {
			t.Errorf("rowPitch(%d) = %d, want %d", tt.w, got, tt.want)
		}
	}
}

func TestRenderValidatesCalls(t *testing.T) {
	d := newNoopDevice(t)
	target, _ := d.CreateTarget(4, 4)
	prog := testProgram(t, d, 1)

	tests := []struct {
		name string
		call gpucore.DrawCall
	}{
		{"unknown program", gpucore.DrawCall{Program: 999}},
		{"texture count", gpucore.DrawCall{Program: prog}},
		{"unknown texture", gpucore.DrawCall{Program: prog, Textures: []gpucore.TextureID{77}}},
	}
	for _, tt := range tests {
		if err := d.Render(target, [4]float64{}, []gpucore.DrawCall{tt.call}); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if err := d.Render(target+10, [4]float64{}, nil); !errors.Is(err, gpucore.ErrUnknownResource) {
		t.Errorf("unknown target: err = %v", err)
	}
}

func TestTextures(t *testing.T) {
	d := newNoopDevice(t)
	desc := &gpucore.TextureDesc{Label: "fft", Width: 3, Height: 2, Format: gpucore.TextureFormatRG32Float}
	id, err := d.CreateTexture(desc, make([]byte, 3*2*2*4))
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if _, err := d.CreateTexture(desc, make([]byte, 8)); err == nil {
		t.Error("short texture data accepted")
	}
	d.DestroyTexture(id)
	d.DestroyTexture(id)
	if len(d.textures) != 0 {
		t.Errorf("textures = %d after destroy", len(d.textures))
	}
}

func TestConversions(t *testing.T) {
	if textureFormat(gpucore.TextureFormatRG32Float) != gputypes.TextureFormatRG32Float {
		t.Error("RG32Float mapped wrong")
	}
	if topology(gpucore.TopologyLineStrip) != gputypes.PrimitiveTopologyLineStrip {
		t.Error("line strip mapped wrong")
	}
	layouts := vertexLayouts([]gpucore.VertexBufferLayout{{
		Stride:     8,
		StepMode:   gpucore.StepInstance,
		Attributes: []gpucore.VertexAttribute{{Location: 3, Format: gpucore.VertexFormatFloat32x2}},
	}})
	if layouts[0].StepMode != gputypes.VertexStepModeInstance || layouts[0].Attributes[0].ShaderLocation != 3 {
		t.Errorf("layout = %+v", layouts[0])
	}
	if n := len(bindGroupLayout(2)); n != 3 {
		t.Errorf("bind group entries = %d, want 3", n)
	}
	if align(70*4, copyRowAlignment) != 512 {
		t.Error("row alignment")
	}
}

func TestNewFromProviderRejectsNonHAL(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNotHAL) {
		t.Errorf("nil provider: err = %v", err)
	}
}
