package viewer

import (
	"errors"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gridsurface/geometry"
	"github.com/gogpu/gridsurface/internal/gpu"
	"github.com/gogpu/gridsurface/settings"
)

// sceneRenderer is the part of *gpu.Renderer driven by the viewer.
type sceneRenderer interface {
	Rebuild(p geometry.Params) error
	SetWireframeVisible(visible bool)
	Resize(width, height uint32) error
	RenderFrame(view hal.TextureView) error
}

// frameSync carries settings from the store to the renderer. The store
// pushes from any goroutine; the draw loop applies the latest value once
// per frame, so a burst of changes costs a single rebuild.
type frameSync struct {
	mu      sync.Mutex
	pending settings.Settings
	dirty   bool

	built    bool
	geometry geometry.Params
}

func newFrameSync(initial settings.Settings) *frameSync {
	return &frameSync{pending: initial, dirty: true}
}

// push records s as the value to apply on the next frame.
func (f *frameSync) push(s settings.Settings) {
	f.mu.Lock()
	f.pending = s
	f.dirty = true
	f.mu.Unlock()
}

// apply brings r up to date with the latest pushed settings. A geometry
// change rebuilds the buffers; a wireframe change only flips visibility. A
// rebuild dropped because the renderer was busy is retried next frame.
func (f *frameSync) apply(r sceneRenderer) error {
	f.mu.Lock()
	if !f.dirty {
		f.mu.Unlock()
		return nil
	}
	s := f.pending
	f.dirty = false
	f.mu.Unlock()

	r.SetWireframeVisible(s.ShowWireframe)

	p := s.Geometry()
	if f.built && p == f.geometry {
		return nil
	}
	if err := r.Rebuild(p); err != nil {
		if errors.Is(err, gpu.ErrBusy) {
			f.mu.Lock()
			f.dirty = true
			f.mu.Unlock()
		}
		return err
	}
	f.built = true
	f.geometry = p
	return nil
}

// needsRedraw reports whether pushed settings have not been applied yet.
func (f *frameSync) needsRedraw() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}
