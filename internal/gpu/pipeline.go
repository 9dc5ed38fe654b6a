package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gridsurface/geometry"
)

// pipelineConfig describes one of the two fixed render pipelines.
type pipelineConfig struct {
	program  Program
	topology gputypes.PrimitiveTopology
	layout   []gputypes.VertexBufferLayout
}

// meshPipelineConfig is the filled surface: triangle list, position only.
func meshPipelineConfig(p Program) pipelineConfig {
	return pipelineConfig{
		program:  p,
		topology: gputypes.PrimitiveTopologyTriangleList,
		layout:   meshVertexLayout(),
	}
}

// gridPipelineConfig is the wireframe overlay: line list, position + uv.
func gridPipelineConfig(p Program) pipelineConfig {
	return pipelineConfig{
		program:  p,
		topology: gputypes.PrimitiveTopologyLineList,
		layout:   gridVertexLayout(),
	}
}

// renderPipeline owns the shader module, layout and pipeline of one
// primitive. It is immutable once built for a given program and format.
type renderPipeline struct {
	name       string
	format     gputypes.TextureFormat
	shader     hal.ShaderModule
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// newRenderPipeline compiles the program and creates the render pipeline
// with MSAA matching the shared target. Partially created objects are
// released on failure.
func newRenderPipeline(device hal.Device, cfg pipelineConfig, format gputypes.TextureFormat) (*renderPipeline, error) {
	rp := &renderPipeline{name: cfg.program.Name, format: format}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  cfg.program.Name + "_shader",
		Source: hal.ShaderSource{WGSL: cfg.program.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", cfg.program.Name, err)
	}
	rp.shader = shader

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: cfg.program.Name + "_pipe_layout",
	})
	if err != nil {
		rp.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", cfg.program.Name, err)
	}
	rp.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  cfg.program.Name + "_pipeline",
		Layout: rp.pipeLayout,
		Vertex: hal.VertexState{
			Module:     rp.shader,
			EntryPoint: cfg.program.VertexEntry,
			Buffers:    cfg.layout,
		},
		Fragment: &hal.FragmentState{
			Module:     rp.shader,
			EntryPoint: cfg.program.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: cfg.topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		rp.destroy(device)
		return nil, fmt.Errorf("create %s pipeline: %w", cfg.program.Name, err)
	}
	rp.pipeline = pipeline

	slogger().Debug("gpu: pipeline created", "name", cfg.program.Name, "format", format)
	return rp, nil
}

// destroy releases all pipeline resources in reverse creation order.
func (rp *renderPipeline) destroy(device hal.Device) {
	if rp == nil || device == nil {
		return
	}
	if rp.pipeline != nil {
		device.DestroyRenderPipeline(rp.pipeline)
		rp.pipeline = nil
	}
	if rp.pipeLayout != nil {
		device.DestroyPipelineLayout(rp.pipeLayout)
		rp.pipeLayout = nil
	}
	if rp.shader != nil {
		device.DestroyShaderModule(rp.shader)
		rp.shader = nil
	}
}

// meshVertexLayout returns the vertex buffer layout for the mesh pipeline.
func meshVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: geometry.MeshVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}, // position
			},
		},
	}
}

// gridVertexLayout returns the vertex buffer layout for the grid pipeline.
func gridVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: geometry.GridVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // uv
			},
		},
	}
}
