package viewer

import (
	"context"
	"errors"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gridsurface"
	"github.com/gogpu/gridsurface/internal/gpu"
	"github.com/gogpu/gridsurface/internal/notice"
	"github.com/gogpu/gridsurface/settings"
)

// window is the event glue of the interactive viewer. Its fields are
// touched only from the draw loop.
type window struct {
	cfg  Config
	app  *gogpu.App
	sync *frameSync

	dev      *gpu.Device
	renderer *gpu.Renderer
	failed   bool
}

// Run opens the window and blocks until it is closed or ctx is done. It must
// be called from the main goroutine. Frames are drawn on demand: settings
// changes from the console or the settings file request a redraw, and Space
// toggles the wireframe.
func Run(ctx context.Context, cfg Config) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(cfg.Title).
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(false))

	w := &window{
		cfg:  cfg,
		app:  app,
		sync: newFrameSync(cfg.Store.Get()),
	}

	unsubscribe := cfg.Store.Subscribe(func(s settings.Settings) {
		w.sync.push(s)
		app.RequestRedraw()
	})
	defer unsubscribe()

	app.OnDraw(w.draw)
	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key != gpucontext.KeySpace {
			return
		}
		_, err := cfg.Store.Update(func(s *settings.Settings) { s.ShowWireframe = !s.ShowWireframe })
		if err != nil {
			gridsurface.Logger().Warn("viewer: settings not saved", "err", err)
		}
	})
	app.OnClose(w.close)

	stop := context.AfterFunc(ctx, func() {
		app.Quit()
		app.RequestRedraw()
	})
	defer stop()

	return app.Run()
}

// draw renders one frame into the window surface.
func (w *window) draw(dc *gogpu.Context) {
	if w.failed {
		return
	}
	if w.renderer == nil && !w.init() {
		return
	}
	w.syncFormat()

	width, height := dc.SurfaceSize()
	if width == 0 || height == 0 {
		width, height = gpu.DevicePixelSize(dc.Width(), dc.Height(), 1)
	}
	if err := drawFrame(w.renderer, w.sync, width, height, dc.SurfaceView()); err != nil {
		w.reportFrameError(err)
	}
}

// errNoSurfaceView means the host had no frame in progress.
var errNoSurfaceView = errors.New("viewer: no surface view")

// drawFrame sizes the target to the surface, applies pending settings and
// renders into view.
func drawFrame(r sceneRenderer, fs *frameSync, width, height uint32, view *wgpu.TextureView) error {
	if err := r.Resize(width, height); err != nil {
		return err
	}
	if err := fs.apply(r); err != nil {
		return err
	}
	target := surfaceTarget(view)
	if target == nil {
		return errNoSurfaceView
	}
	return r.RenderFrame(target)
}

// surfaceTarget returns the HAL view behind a host surface view, or nil.
func surfaceTarget(view *wgpu.TextureView) hal.TextureView {
	if view == nil {
		return nil
	}
	return view.HalTextureView()
}

// init acquires the window's GPU device and builds the renderer. Failure is
// reported once and stops rendering.
func (w *window) init() bool {
	provider := w.app.GPUContextProvider()
	if provider == nil {
		return false
	}
	dev, err := gpu.DeviceFromProvider(provider)
	if err != nil {
		w.fail(notice.Unsupported, err)
		return false
	}
	r, err := gpu.NewRenderer(dev, w.cfg.Shaders, w.cfg.options(false))
	if err != nil {
		dev.Close()
		w.fail(notice.DeviceFailure, err)
		return false
	}
	w.dev, w.renderer = dev, r
	gridsurface.Logger().Info("viewer: renderer ready", "format", dev.Format())
	return true
}

// syncFormat follows surface format changes reported by the host.
func (w *window) syncFormat() {
	provider := w.app.GPUContextProvider()
	if provider == nil {
		return
	}
	format := provider.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined || format == w.renderer.Format() {
		return
	}
	if err := w.renderer.SetFormat(format); err != nil {
		w.reportFrameError(err)
	}
}

func (w *window) fail(key string, err error) {
	w.failed = true
	w.cfg.Notes.Notify(key, err)
	gridsurface.Logger().Error("viewer: rendering disabled", "err", err)
}

// reportFrameError logs a failed frame step. Busy frames are retried on the
// next draw.
func (w *window) reportFrameError(err error) {
	switch {
	case errors.Is(err, gpu.ErrBusy):
		w.app.RequestRedraw()
	case errors.Is(err, gpu.ErrClosed), errors.Is(err, errNoSurfaceView):
	default:
		gridsurface.Logger().Warn("viewer: frame failed", "err", err)
	}
}

// close releases the renderer while the host device is still alive.
func (w *window) close() {
	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.dev != nil {
		w.dev.Close()
	}
}
