package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuplot/gpucore"
)

func topology(t gpucore.Topology) gputypes.PrimitiveTopology {
	switch t {
	case gpucore.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case gpucore.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case gpucore.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gpucore.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func vertexFormat(f gpucore.VertexFormat) gputypes.VertexFormat {
	if f == gpucore.VertexFormatFloat32x2 {
		return gputypes.VertexFormatFloat32x2
	}
	return gputypes.VertexFormatFloat32
}

func vertexLayouts(buffers []gpucore.VertexBufferLayout) []gputypes.VertexBufferLayout {
	out := make([]gputypes.VertexBufferLayout, 0, len(buffers))
	for _, b := range buffers {
		step := gputypes.VertexStepModeVertex
		if b.StepMode == gpucore.StepInstance {
			step = gputypes.VertexStepModeInstance
		}
		attrs := make([]gputypes.VertexAttribute, 0, len(b.Attributes))
		for _, a := range b.Attributes {
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         vertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.Location,
			})
		}
		out = append(out, gputypes.VertexBufferLayout{
			ArrayStride: b.Stride,
			StepMode:    step,
			Attributes:  attrs,
		})
	}
	return out
}

// bindGroupLayout declares the uniform block followed by the data textures.
func bindGroupLayout(textures int) []gputypes.BindGroupLayoutEntry {
	visibility := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: visibility,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	for i := 0; i < textures; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1), //nolint:gosec // texture count is small
			Visibility: visibility,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	return entries
}

// CreateProgram compiles desc into a render pipeline.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &program{textures: desc.TextureCount, uniforms: desc.UniformSize}
	if err := d.buildProgram(p, desc); err != nil {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("wgpu: program %s: %w", desc.Label, err)
	}
	id := gpucore.ProgramID(d.id())
	d.programs[id] = p
	return id, nil
}

func (d *Device) buildProgram(p *program, desc *gpucore.ProgramDesc) error {
	var err error
	p.shader, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Source},
	})
	if err != nil {
		return fmt.Errorf("compile shader: %w", err)
	}

	p.group, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: bindGroupLayout(desc.TextureCount),
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	p.layout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.group},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	color := gputypes.ColorTargetState{
		Format:    targetFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if desc.Blend {
		blend := gputypes.BlendStateAlpha()
		color.Blend = &blend
	}
	p.pipeline, err = d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label + "_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexLayouts(desc.Buffers),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: desc.FragmentEntry,
			Targets:    []gputypes.ColorTargetState{color},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology(desc.Topology),
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	return nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[id]; ok {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
}

// destroyProgram releases pipeline objects in reverse creation order.
func (d *Device) destroyProgram(p *program) {
	if p.pipeline != nil {
		d.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		d.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.group != nil {
		d.device.DestroyBindGroupLayout(p.group)
		p.group = nil
	}
	if p.shader != nil {
		d.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
