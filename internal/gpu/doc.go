// Package gpu renders the gridsurface lattice with gogpu/wgpu.
//
// It leverages WebGPU through the gogpu/wgpu HAL (zero CGO), which supports
// Vulkan, Metal and DX12 depending on the platform, and the noop backend in
// tests.
//
// # Architecture Overview
//
//	Renderer (owning context)
//	  +-- Device: hal.Device + hal.Queue + surface format
//	  +-- meshPipeline: triangle list, position (12 bytes), MSAA 4x
//	  +-- gridPipeline: line list, position+uv (20 bytes), MSAA 4x
//	  +-- mesh, grid: geometryBuffers (vertex + index buffer per role)
//	  +-- target: msaaTarget (4x color, optional 1x resolve for readback)
//
// A parameter change rebuilds geometry and replaces both buffer pairs. A
// resize replaces the MSAA target. Pipelines survive both and are only
// rebuilt when the surface format changes.
//
// # State Machine
//
// Renderer moves between StateIdle, StateRebuilding and StateRendering with
// atomic compare-and-swap transitions. A Rebuild or RenderFrame that finds
// the renderer busy is dropped with ErrBusy rather than queued.
//
// # Ownership
//
// Every GPU object is owned by exactly one component and is destroyed exactly
// once: destroy methods nil each handle after releasing it, so repeated
// calls are no-ops and nothing is read after destruction. Devices shared by
// the host window are never destroyed here.
//
// # Shaders
//
// Shader programs are WGSL text assets (vertex + fragment per program),
// loaded from an fs.FS and validated with gogpu/naga before any pipeline is
// created. Defaults are embedded.
package gpu
