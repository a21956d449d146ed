package wgpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplot/gpucore"
)

// copyRowAlignment is the required BytesPerRow alignment of texture copies.
const copyRowAlignment = 256

// frame holds the transient resources of one Render call.
type frame struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
}

func (d *Device) releaseFrame(f *frame) {
	for _, g := range f.groups {
		d.device.DestroyBindGroup(g)
	}
	for _, b := range f.buffers {
		d.device.DestroyBuffer(b)
	}
}

// bind creates the uniform buffer and bind group of one draw call.
func (d *Device) bind(f *frame, p *program, call *gpucore.DrawCall) (hal.BindGroup, error) {
	if len(call.Textures) != p.textures {
		return nil, fmt.Errorf("wgpu: draw binds %d textures, program wants %d", len(call.Textures), p.textures)
	}
	data := call.Uniforms
	size := max(align(uint64(len(data)), 16), align(p.uniforms, 16), 16)
	if uint64(len(data)) < size {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	ubuf, err := d.upload("plot_uniforms", data, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	f.buffers = append(f.buffers, ubuf)

	entries := []gputypes.BindGroupEntry{{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: ubuf.NativeHandle(), Offset: 0, Size: size},
	}}
	for i, id := range call.Textures {
		t, ok := d.textures[id]
		if !ok {
			return nil, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // texture count is small
			Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
		})
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "plot_bind",
		Layout:  p.group,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	f.groups = append(f.groups, group)
	return group, nil
}

// Render draws calls into target. Nothing is read back; see ReadPixels.
func (d *Device) Render(id gpucore.TargetID, clear [4]float64, calls []gpucore.DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.targets[id]
	if !ok {
		return fmt.Errorf("%w: target %d", gpucore.ErrUnknownResource, id)
	}

	f := &frame{}
	defer d.releaseFrame(f)

	// Resolve every resource before recording so a bad call leaves the
	// encoder untouched.
	type draw struct {
		program  *program
		group    hal.BindGroup
		vertex   []hal.Buffer
		vertices uint32
		inst     uint32
	}
	draws := make([]draw, 0, len(calls))
	for i := range calls {
		call := &calls[i]
		p, ok := d.programs[call.Program]
		if !ok {
			return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, call.Program)
		}
		group, err := d.bind(f, p, call)
		if err != nil {
			return err
		}
		dr := draw{program: p, group: group, vertices: call.VertexCount, inst: max(call.InstanceCount, 1)}
		dr.vertex = make([]hal.Buffer, len(call.Vertex))
		for _, vb := range call.Vertex {
			b, ok := d.buffers[vb.Buffer]
			if !ok {
				return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, vb.Buffer)
			}
			if int(vb.Slot) >= len(dr.vertex) {
				return fmt.Errorf("wgpu: vertex slot %d out of range", vb.Slot)
			}
			dr.vertex[vb.Slot] = b.buf
		}
		draws = append(draws, dr)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "plot_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("plot_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "plot_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: clear[0], G: clear[1], B: clear[2], A: clear[3]},
		}},
	})
	for _, dr := range draws {
		rp.SetPipeline(dr.program.pipeline)
		rp.SetBindGroup(0, dr.group, nil)
		for slot, b := range dr.vertex {
			if b != nil {
				rp.SetVertexBuffer(uint32(slot), b, 0) //nolint:gosec // slot count is small
			}
		}
		rp.Draw(dr.vertices, dr.inst, 0, 0)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	// Frame uniforms and bind groups are released on return.
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	return nil
}

// rowPitch is the aligned BytesPerRow of a w pixels wide RGBA8 copy.
func rowPitch(w int) uint32 {
	return uint32(align(uint64(w)*4, copyRowAlignment)) //nolint:gosec // widths are small
}

// readRegion copies the w*h rectangle at (x, y) of t into a staging
// buffer and returns it tightly packed. Only the requested rectangle
// crosses the bus.
func (d *Device) readRegion(t *target, x, y, w, h int) ([]byte, error) {
	stride := rowPitch(w)
	size := uint64(stride) * uint64(h) //nolint:gosec // checked positive by the caller
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "plot_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "plot_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("plot_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: stride, RowsPerImage: uint32(h)}, //nolint:gosec // checked positive
		TextureBase: hal.ImageCopyTexture{
			Texture: t.tex,
			Origin:  hal.Origin3D{X: uint32(x), Y: uint32(y)}, //nolint:gosec // checked in bounds
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // checked positive
	}})
	// Back to RenderAttachment so the next Render can load into it.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return nil, fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wgpu: wait for GPU: %w", err)
	}

	m, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(m.Ptr), size)
	row := 4 * w
	out := make([]byte, row*h)
	for r := 0; r < h; r++ {
		off := r * int(stride)
		copy(out[r*row:(r+1)*row], src[off:off+row])
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("wgpu: unmap staging buffer: %w", err)
	}
	return out, nil
}
