// Package viewer wires the settings store, the GPU renderer and the host
// surface together. It runs either a gogpu window or a headless snapshot.
package viewer

import (
	"github.com/gogpu/gridsurface/internal/gpu"
	"github.com/gogpu/gridsurface/internal/notice"
	"github.com/gogpu/gridsurface/settings"
)

// Config is shared by the window and snapshot modes.
type Config struct {
	// Title is the window title.
	Title string

	// Width and Height are the logical surface size.
	Width, Height int

	// Scale is the device pixel ratio used for snapshots. Windows take
	// their device pixel size from the surface.
	Scale float64

	// Triangle draws the fixed triangle instead of the filled lattice.
	Triangle bool

	// Shaders are the validated shader programs.
	Shaders *gpu.ShaderSet

	// Store is the source of truth for the viewer settings.
	Store *settings.Store

	// Notes receives user-visible notices.
	Notes *notice.Notifier
}

func (c Config) options(offscreen bool) gpu.Options {
	return gpu.Options{
		Offscreen: offscreen,
		Triangle:  c.Triangle,
		Wireframe: c.Store.Get().ShowWireframe,
	}
}
