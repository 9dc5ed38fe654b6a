package viewer

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gridsurface"
	"github.com/gogpu/gridsurface/internal/gpu"
	"github.com/gogpu/gridsurface/internal/notice"
)

// Snapshot renders one offscreen frame at Width*Scale x Height*Scale device
// pixels with the current settings and writes it to path. The image format
// follows the extension of path.
func Snapshot(cfg Config, path string) error {
	dev, err := gpu.OpenDevice()
	if err != nil {
		if errors.Is(err, gpu.ErrNoGPU) {
			cfg.Notes.Notify(notice.Unsupported, err)
		} else {
			cfg.Notes.Notify(notice.DeviceFailure, err)
		}
		return err
	}
	defer dev.Close()

	img, err := renderSnapshot(dev, cfg)
	if err != nil {
		cfg.Notes.Notify(notice.RenderFailure, err)
		return err
	}
	if err := writeImage(path, img); err != nil {
		return err
	}
	b := img.Bounds()
	cfg.Notes.Notify(notice.SnapshotWritten, path, b.Dx(), b.Dy())
	return nil
}

// renderSnapshot draws one frame on dev and reads it back.
func renderSnapshot(dev *gpu.Device, cfg Config) (*image.RGBA, error) {
	r, err := gpu.NewRenderer(dev, cfg.Shaders, cfg.options(true))
	if err != nil {
		return nil, err
	}
	defer r.Destroy()

	w, h := gpu.DevicePixelSize(cfg.Width, cfg.Height, cfg.Scale)
	if err := r.Resize(w, h); err != nil {
		return nil, err
	}
	if err := newFrameSync(cfg.Store.Get()).apply(r); err != nil {
		return nil, fmt.Errorf("build geometry: %w", err)
	}
	if err := r.RenderFrame(nil); err != nil {
		return nil, err
	}
	gridsurface.Logger().Info("viewer: snapshot rendered", "width", w, "height", h,
		"settings", cfg.Store.Get().String(), "extent", r.Extent(), "memory", r.MemoryStats().String())
	return r.ReadPixels()
}
