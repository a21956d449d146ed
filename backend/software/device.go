// Package software provides a CPU reference device.
//
// The device cannot execute WGSL. It rasterizes the host view attached to
// every draw call: one axis-aligned square per primitive, filled with the
// primitive's color. This is enough to render scatter-like layers headless
// and to run the picking protocol without a GPU.
package software

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/gpuplot/backend"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/internal/logging"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Device, error) {
		return New(), nil
	})
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	mu       sync.Mutex
	next     uint64
	buffers  map[gpucore.BufferID]int
	textures map[gpucore.TextureID]gpucore.TextureDesc
	programs map[gpucore.ProgramID]*gpucore.ProgramDesc
	targets  map[gpucore.TargetID]*image.RGBA

	// skipped counts draw calls without a host view.
	skipped int
}

var _ gpucore.Device = (*Device)(nil)

// New returns an empty device.
func New() *Device {
	return &Device{
		buffers:  make(map[gpucore.BufferID]int),
		textures: make(map[gpucore.TextureID]gpucore.TextureDesc),
		programs: make(map[gpucore.ProgramID]*gpucore.ProgramDesc),
		targets:  make(map[gpucore.TargetID]*image.RGBA),
	}
}

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

// Name returns "software".
func (d *Device) Name() string { return backend.BackendSoftware }

// CreateBuffer records the buffer size. Vertex data is read from host
// views instead.
func (d *Device) CreateBuffer(_ string, data []byte) (gpucore.BufferID, error) {
	if len(data)%4 != 0 {
		return gpucore.InvalidID, fmt.Errorf("software: buffer size %d is not a multiple of 4", len(data))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(d.id())
	d.buffers[id] = len(data)
	return id, nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

// CreateTexture validates and records a data texture.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc, data []byte) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("software: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if want := desc.Width * desc.Height * desc.Format.Channels() * 4; len(data) != want {
		return gpucore.InvalidID, fmt.Errorf("software: texture %q has %d bytes, want %d", desc.Label, len(data), want)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureID(d.id())
	d.textures[id] = *desc
	return id, nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
}

// CreateProgram records a program. The source is not compiled.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.ProgramID(d.id())
	cp := *desc
	d.programs[id] = &cp
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, id)
}

// CreateTarget creates an RGBA8 image.
func (d *Device) CreateTarget(width, height int) (gpucore.TargetID, error) {
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("software: invalid target size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TargetID(d.id())
	d.targets[id] = image.NewRGBA(image.Rect(0, 0, width, height))
	return id, nil
}

// DestroyTarget releases a target.
func (d *Device) DestroyTarget(id gpucore.TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.targets, id)
}

// Render clears the target and rasterizes the host view of every call.
// Calls without a host view are skipped.
func (d *Device) Render(target gpucore.TargetID, clear [4]float64, calls []gpucore.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.targets[target]
	if !ok {
		return fmt.Errorf("software: unknown target %d", target)
	}

	c := rgba8(clear)
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], c[:])
	}

	for _, call := range calls {
		prog, ok := d.programs[call.Program]
		if !ok {
			return fmt.Errorf("software: unknown program %d", call.Program)
		}
		for _, t := range call.Textures {
			if _, ok := d.textures[t]; !ok {
				return fmt.Errorf("software: unknown texture %d", t)
			}
		}
		if call.Host == nil {
			d.skipped++
			logging.Logger().Debug("software: draw without host view skipped", "program", prog.Label)
			continue
		}
		fillSquares(img, call.Host, prog.Blend)
	}
	return nil
}

func fillSquares(img *image.RGBA, v *gpucore.HostView, blend bool) {
	bounds := img.Bounds()
	h := v.HalfSize
	for i := 0; i < v.Count; i++ {
		px, py, ok := v.Project(i)
		if !ok {
			continue
		}
		color, ok := v.Shade(i)
		if !ok {
			continue
		}
		// Pixels whose centers lie inside the square.
		x0 := max(int(math.Ceil(px-h-0.5)), bounds.Min.X)
		x1 := min(int(math.Floor(px+h-0.5)), bounds.Max.X-1)
		y0 := max(int(math.Ceil(py-h-0.5)), bounds.Min.Y)
		y1 := min(int(math.Floor(py+h-0.5)), bounds.Max.Y-1)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				off := img.PixOffset(x, y)
				dst := img.Pix[off : off+4 : off+4]
				if blend && color[3] < 255 {
					over(dst, color)
				} else {
					copy(dst, color[:])
				}
			}
		}
	}
}

// over composites a straight-alpha source over dst.
func over(dst []uint8, src [4]uint8) {
	a := float64(src[3]) / 255
	da := float64(dst[3]) / 255
	outA := a + da*(1-a)
	if outA == 0 {
		copy(dst, []uint8{0, 0, 0, 0})
		return
	}
	for c := 0; c < 3; c++ {
		v := (float64(src[c])*a + float64(dst[c])*da*(1-a)) / outA
		dst[c] = uint8(math.Round(v))
	}
	dst[3] = uint8(math.Round(outA * 255))
}

func rgba8(c [4]float64) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return out
}

// ReadPixels copies a rectangle of the target.
func (d *Device) ReadPixels(target gpucore.TargetID, x, y, w, h int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.targets[target]
	if !ok {
		return nil, fmt.Errorf("software: unknown target %d", target)
	}
	r := image.Rect(x, y, x+w, y+h)
	if w <= 0 || h <= 0 || !r.In(img.Bounds()) {
		return nil, fmt.Errorf("software: read %v outside target %v", r, img.Bounds())
	}
	out := make([]byte, 0, 4*w*h)
	for row := y; row < y+h; row++ {
		off := img.PixOffset(x, row)
		out = append(out, img.Pix[off:off+4*w]...)
	}
	return out, nil
}

// Image returns the target as an image. The image is shared with the
// device and is overwritten by the next Render.
func (d *Device) Image(target gpucore.TargetID) (*image.RGBA, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.targets[target]
	return img, ok
}

// Live returns the number of live buffers, textures and programs.
func (d *Device) Live() (buffers, textures, programs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers), len(d.textures), len(d.programs)
}

// Destroy releases every resource.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.buffers)
	clear(d.textures)
	clear(d.programs)
	clear(d.targets)
}
