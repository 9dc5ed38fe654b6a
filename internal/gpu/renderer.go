package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gridsurface/geometry"
)

// Options configures a Renderer.
type Options struct {
	// Offscreen allocates a resolve texture so frames can be rendered
	// without a surface view and read back with ReadPixels.
	Offscreen bool

	// Triangle draws the fixed single triangle instead of the filled
	// surface. The wireframe overlay is unaffected.
	Triangle bool

	// Wireframe is the initial visibility of the grid overlay.
	Wireframe bool

	// MaxMemoryMB bounds the MSAA target size. Values below MinMemoryMB
	// select DefaultMaxMemoryMB.
	MaxMemoryMB int
}

// Renderer owns every GPU object needed to draw the surface and its
// wireframe overlay: both pipelines, both buffer pairs and the MSAA target.
//
// Work is admitted through a compare-and-swap from StateIdle. A rebuild,
// frame or resize that arrives while another one is running is dropped with
// ErrBusy; the caller decides whether to try again on the next event.
//
// Renderer is safe for concurrent use.
type Renderer struct {
	state     atomic.Int32
	wireframe atomic.Bool

	// mu guards everything below. It is held for the duration of one
	// admitted operation and by Destroy.
	mu       sync.Mutex
	closed   bool
	dev      *Device
	shaders  *ShaderSet
	opts     Options
	format   gputypes.TextureFormat
	mesh     *renderPipeline
	grid     *renderPipeline
	meshBufs geometryBuffers
	gridBufs geometryBuffers
	target   msaaTarget
	params   geometry.Params
	extent   [4]float32
	budget   uint64
	timeout  time.Duration
}

// NewRenderer creates both pipelines for the device's color format. No
// geometry or target exists until the first Rebuild and Resize.
func NewRenderer(dev *Device, shaders *ShaderSet, opts Options) (*Renderer, error) {
	if dev == nil || dev.HAL() == nil {
		return nil, ErrDeviceUnavailable
	}
	if shaders == nil {
		return nil, fmt.Errorf("%w: no shader set", ErrShaderSource)
	}
	r := &Renderer{
		dev:      dev,
		shaders:  shaders,
		opts:     opts,
		meshBufs: geometryBuffers{label: "mesh"},
		gridBufs: geometryBuffers{label: "grid"},
		budget:   budgetBytes(opts.MaxMemoryMB),
		timeout:  fenceTimeout,
	}
	r.wireframe.Store(opts.Wireframe)
	if err := r.createPipelines(dev.Format()); err != nil {
		return nil, err
	}
	return r, nil
}

// State returns the current lifecycle state.
func (r *Renderer) State() State {
	return State(r.state.Load())
}

// acquire moves the renderer from Idle to next and locks the resources.
// The returned release function restores Idle unless Destroy ran meanwhile.
func (r *Renderer) acquire(next State) (func(), error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(next)) {
		if r.State() == StateClosed {
			return nil, ErrClosed
		}
		return nil, ErrBusy
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	return func() {
		r.mu.Unlock()
		r.state.CompareAndSwap(int32(next), int32(StateIdle))
	}, nil
}

// Rebuild regenerates the surface and wireframe geometry for p and replaces
// both buffer pairs. Pipelines and the MSAA target are left alone. On failure
// the previous geometry of the failed role stays in place.
func (r *Renderer) Rebuild(p geometry.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	release, err := r.acquire(StateRebuilding)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			slogger().Warn("gpu: rebuild dropped", "params", p.String())
		}
		return err
	}
	defer release()

	wire, err := geometry.BuildWireframe(p.CellCount, p.CellSize)
	if err != nil {
		return err
	}
	var mesh *geometry.Surface
	if r.opts.Triangle {
		mesh = geometry.Triangle()
	} else if mesh, err = geometry.BuildSurface(p.CellCount, p.CellSize); err != nil {
		return err
	}

	device, queue := r.dev.HAL(), r.dev.Queue()
	if err := r.meshBufs.replace(device, queue, mesh.VertexBytes(), mesh.IndexBytes(), mesh.IndexCount()); err != nil {
		return fmt.Errorf("rebuild mesh: %w", err)
	}
	if err := r.gridBufs.replace(device, queue, wire.VertexBytes(), wire.IndexBytes(), wire.IndexCount()); err != nil {
		return fmt.Errorf("rebuild grid: %w", err)
	}
	r.params = p
	r.extent = geometry.Bounds(wire.Positions())
	slogger().Debug("gpu: geometry rebuilt", "params", p.String(),
		"mesh_indices", mesh.IndexCount(), "grid_indices", wire.IndexCount(),
		"extent", r.extent)
	return nil
}

// Params returns the parameters of the last successful Rebuild.
func (r *Renderer) Params() geometry.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Extent returns the XY bounding box (minX, minY, maxX, maxY) of the lattice
// built by the last successful Rebuild.
func (r *Renderer) Extent() [4]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extent
}

// Resize makes the MSAA target match width x height device pixels. Nothing
// is reallocated when the size is unchanged. A size that does not fit the
// memory budget fails with ErrMemoryBudgetExceeded and keeps the old target.
func (r *Renderer) Resize(width, height uint32) error {
	release, err := r.acquire(StateRebuilding)
	if err != nil {
		return err
	}
	defer release()
	if err := checkTargetBudget(width, height, r.opts.Offscreen, r.budget); err != nil {
		return err
	}
	return r.target.ensure(r.dev.HAL(), width, height, r.format, r.opts.Offscreen)
}

// Size returns the MSAA target size, (0, 0) before the first Resize.
func (r *Renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target.size()
}

// SetFormat switches the color format. Both pipelines and the MSAA target
// are rebuilt when the format differs; geometry buffers are kept.
func (r *Renderer) SetFormat(format gputypes.TextureFormat) error {
	release, err := r.acquire(StateRebuilding)
	if err != nil {
		return err
	}
	defer release()
	if format == r.format {
		return nil
	}

	w, h := r.target.size()
	r.target.destroy(r.dev.HAL())
	r.destroyPipelines()
	if err := r.createPipelines(format); err != nil {
		return err
	}
	if w > 0 && h > 0 {
		return r.target.ensure(r.dev.HAL(), w, h, format, r.opts.Offscreen)
	}
	return nil
}

// Format returns the color format the pipelines were built for.
func (r *Renderer) Format() gputypes.TextureFormat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// SetWireframeVisible shows or hides the grid overlay. Only the grid draw is
// affected; no buffers are touched.
func (r *Renderer) SetWireframeVisible(visible bool) {
	r.wireframe.Store(visible)
}

// WireframeVisible reports whether the grid overlay is drawn.
func (r *Renderer) WireframeVisible() bool {
	return r.wireframe.Load()
}

// MemoryStats reports the GPU memory held by the renderer.
func (r *Renderer) MemoryStats() MemoryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	tb, tn := r.target.memory()
	return MemoryStats{
		BudgetBytes: r.budget,
		BufferBytes: r.meshBufs.bytes + r.gridBufs.bytes,
		TargetBytes: tb,
		Buffers:     r.meshBufs.count() + r.gridBufs.count(),
		Textures:    tn,
	}
}

// TargetAllocations returns how many times the MSAA target has been
// allocated since the renderer was created.
func (r *Renderer) TargetAllocations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target.allocations
}

// Destroy releases every GPU object exactly once. The device itself belongs
// to the caller. Calling Destroy again is a no-op.
func (r *Renderer) Destroy() {
	if State(r.state.Swap(int32(StateClosed))) == StateClosed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true

	device := r.dev.HAL()
	if device == nil {
		slogger().Warn("gpu: device released before renderer")
		return
	}
	r.target.destroy(device)
	r.gridBufs.destroy(device)
	r.meshBufs.destroy(device)
	r.destroyPipelines()
	slogger().Debug("gpu: renderer destroyed")
}

func (r *Renderer) createPipelines(format gputypes.TextureFormat) error {
	device := r.dev.HAL()
	mesh, err := newRenderPipeline(device, meshPipelineConfig(r.shaders.Mesh), format)
	if err != nil {
		return err
	}
	grid, err := newRenderPipeline(device, gridPipelineConfig(r.shaders.Grid), format)
	if err != nil {
		mesh.destroy(device)
		return err
	}
	r.mesh, r.grid, r.format = mesh, grid, format
	return nil
}

func (r *Renderer) destroyPipelines() {
	device := r.dev.HAL()
	r.grid.destroy(device)
	r.mesh.destroy(device)
	r.grid, r.mesh = nil, nil
}
