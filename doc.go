// Package gridsurface renders a configurable lattice as a filled surface with
// an optional triangulated wireframe overlay, using gogpu/wgpu.
//
// # Overview
//
// The module is organized into:
//   - geometry: lattice, surface and wireframe vertex/index generation
//   - settings: persisted cell count, cell size and wireframe visibility
//   - internal/gpu: device acquisition, GPU buffers, the 4x MSAA target,
//     the mesh and grid pipelines and single-shot frame rendering
//   - internal/viewer: window and headless bootstrap
//   - cmd/gridsurface: command line entry point
//
// # Frames
//
// Frames are not rendered continuously. One frame is issued after
// initialization, after a settings change and after a resize. Each frame is a
// single render pass into a multisampled color target that resolves into the
// window surface:
//
//	settings change -> geometry rebuild -> GPU buffers replaced -> one frame
//	resize          -> MSAA target reallocated              -> one frame
//
// # Logging
//
// Nothing is logged by default. Use SetLogger to enable output.
package gridsurface

// Version is the current version of gridsurface.
const Version = "0.1.0"
