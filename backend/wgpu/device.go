package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/gpuplot/backend"
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/internal/logging"
)

// targetFormat is the format of every render target.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

// Errors returned while opening a device.
var (
	ErrNoAdapter   = errors.New("wgpu: no GPU adapter found")
	ErrNotHAL      = errors.New("wgpu: provider does not expose HAL device and queue")
	ErrNoopBackend = errors.New("wgpu: only the noop backend is available")
)

func init() {
	backend.Register(backend.BackendWGPU, func() (gpucore.Device, error) {
		return New()
	})
}

type buffer struct {
	buf  hal.Buffer
	size uint64
}

type texture struct {
	tex  hal.Texture
	view hal.TextureView
}

type program struct {
	shader   hal.ShaderModule
	group    hal.BindGroupLayout
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
	textures int
	uniforms uint64
}

type target struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height int
}

// Device is a gpucore.Device backed by a HAL device and queue.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	// Set when the device opened its own instance.
	instance hal.Instance
	adapter  hal.Adapter

	next     uint64
	buffers  map[gpucore.BufferID]*buffer
	textures map[gpucore.TextureID]*texture
	programs map[gpucore.ProgramID]*program
	targets  map[gpucore.TargetID]*target
}

var _ gpucore.Device = (*Device)(nil)

// New opens the best available HAL backend and its first adapter.
func New() (*Device, error) {
	b, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	if b.Variant() == gputypes.BackendEmpty {
		return nil, ErrNoopBackend
	}
	return open(b)
}

func open(b hal.Backend) (*Device, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", b.Variant(), err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	exposed := adapters[0]
	opened, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open adapter %q: %w", exposed.Info.Name, err)
	}
	logging.Logger().Info("wgpu: adapter opened",
		"backend", b.Variant().String(),
		"name", exposed.Info.Name,
		"driver", exposed.Info.Driver)

	d := NewFromHAL(opened.Device, opened.Queue)
	d.instance = instance
	d.adapter = exposed.Adapter
	return d, nil
}

// NewFromHAL wraps an existing HAL device and queue. The caller keeps
// ownership of both: Destroy releases only the resources created through
// the returned Device.
func NewFromHAL(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		buffers:  make(map[gpucore.BufferID]*buffer),
		textures: make(map[gpucore.TextureID]*texture),
		programs: make(map[gpucore.ProgramID]*program),
		targets:  make(map[gpucore.TargetID]*target),
	}
}

// NewFromProvider shares the HAL device of a gpucontext.DeviceProvider.
// The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNotHAL
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNotHAL
	}
	return NewFromHAL(device, queue), nil
}

func (d *Device) id() uint64 {
	d.next++
	return d.next
}

// Name returns "wgpu".
func (d *Device) Name() string { return backend.BackendWGPU }

// CreateBuffer uploads a vertex buffer.
func (d *Device) CreateBuffer(label string, data []byte) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.upload(label, data, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(d.id())
	d.buffers[id] = &buffer{buf: buf, size: uint64(len(data))}
	return id, nil
}

// upload creates a buffer of at least 4 bytes and writes data into it.
func (d *Device) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := align(uint64(len(data)), 4)
	if size == 0 {
		size = 4
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %s: %w", label, err)
	}
	if len(data) > 0 {
		if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
			d.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("wgpu: write buffer %s: %w", label, err)
		}
	}
	return buf, nil
}

// DestroyBuffer releases a vertex buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[id]; ok {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
}

func textureFormat(f gpucore.TextureFormat) gputypes.TextureFormat {
	if f == gpucore.TextureFormatRG32Float {
		return gputypes.TextureFormatRG32Float
	}
	return gputypes.TextureFormatR32Float
}

// CreateTexture creates and fills a data texture.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc, data []byte) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	rowBytes := desc.Width * desc.Format.Channels() * 4
	if len(data) != rowBytes*desc.Height {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture %q has %d bytes, want %d", desc.Label, len(data), rowBytes*desc.Height)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := uint32(desc.Width), uint32(desc.Height) //nolint:gosec // checked positive above
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	format := textureFormat(desc.Format)
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %s: %w", desc.Label, err)
	}
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{BytesPerRow: uint32(rowBytes), RowsPerImage: h}, //nolint:gosec // bounded by texture limits
		&size,
	)
	if err != nil {
		d.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: write texture %s: %w", desc.Label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture view %s: %w", desc.Label, err)
	}
	id := gpucore.TextureID(d.id())
	d.textures[id] = &texture{tex: tex, view: view}
	return id, nil
}

// DestroyTexture releases a data texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[id]; ok {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
		delete(d.textures, id)
	}
}

// CreateTarget creates an RGBA8 render target.
func (d *Device) CreateTarget(width, height int) (gpucore.TargetID, error) {
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: invalid target size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "plot_target",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}, //nolint:gosec // checked positive above
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create target: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "plot_target_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create target view: %w", err)
	}
	id := gpucore.TargetID(d.id())
	d.targets[id] = &target{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
	}
	return id, nil
}

// DestroyTarget releases a render target.
func (d *Device) DestroyTarget(id gpucore.TargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.targets[id]; ok {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
		delete(d.targets, id)
	}
}

// ReadPixels copies a rectangle of the last frame rendered into target
// back from the GPU. Pick queries read a single pixel.
func (d *Device) ReadPixels(id gpucore.TargetID, x, y, w, h int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", gpucore.ErrUnknownResource, id)
	}
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > t.width || y+h > t.height {
		return nil, fmt.Errorf("wgpu: read %dx%d at (%d,%d) outside %dx%d target", w, h, x, y, t.width, t.height)
	}
	return d.readRegion(t, x, y, w, h)
}

// Destroy releases every resource created through the device, then the
// HAL device itself when it was opened by New.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
	for id, t := range d.textures {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
		delete(d.textures, id)
	}
	for id, p := range d.programs {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
	for id, t := range d.targets {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
		delete(d.targets, id)
	}
	if d.instance != nil {
		d.device.Destroy()
		if d.adapter != nil {
			d.adapter.Destroy()
		}
		d.instance.Destroy()
		d.instance, d.adapter = nil, nil
	}
	d.device = nil
}

func align(n, to uint64) uint64 {
	return (n + to - 1) / to * to
}
