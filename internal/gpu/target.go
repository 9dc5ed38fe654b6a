package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// sampleCount is the MSAA sample count shared by the target and both
// pipelines.
const sampleCount = 4

// msaaTarget owns the multisampled color attachment, sized in device
// pixels. In offscreen mode it also owns a single-sample resolve texture
// with CopySrc usage for readback; in surface mode the window surface is the
// resolve target and is owned by the host.
type msaaTarget struct {
	msaaTex  hal.Texture
	msaaView hal.TextureView

	resolveTex  hal.Texture
	resolveView hal.TextureView

	width, height uint32
	format        gputypes.TextureFormat
	offscreen     bool

	// allocations counts how many times the textures have been (re)created.
	allocations int
}

// ensure creates or recreates the textures if the requested size, format or
// mode differ from the current ones. If they match, this is a no-op.
//
// On change, existing textures are destroyed before new ones are created.
// If creation fails, partially created resources are cleaned up.
func (t *msaaTarget) ensure(device hal.Device, width, height uint32, format gputypes.TextureFormat, offscreen bool) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if t.msaaTex != nil && t.width == width && t.height == height &&
		t.format == format && t.offscreen == offscreen {
		return nil
	}

	t.destroy(device)

	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "msaa_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA color texture: %w", err)
	}
	t.msaaTex = msaaTex

	msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
		Label: "msaa_color_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create MSAA color texture view: %w", err)
	}
	t.msaaView = msaaView

	if offscreen {
		resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "offscreen_resolve",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create resolve texture: %w", err)
		}
		t.resolveTex = resolveTex

		resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
			Label: "offscreen_resolve_view",
		})
		if err != nil {
			t.destroy(device)
			return fmt.Errorf("create resolve texture view: %w", err)
		}
		t.resolveView = resolveView
	}

	t.width = width
	t.height = height
	t.format = format
	t.offscreen = offscreen
	t.allocations++
	slogger().Info("gpu: MSAA target allocated", "width", width, "height", height, "offscreen", offscreen)
	return nil
}

// ready reports whether the color attachment exists.
func (t *msaaTarget) ready() bool {
	return t.msaaView != nil
}

// memory returns the bytes and texture count held by the target.
func (t *msaaTarget) memory() (uint64, int) {
	if t.msaaTex == nil {
		return 0, 0
	}
	n := 1
	if t.resolveTex != nil {
		n++
	}
	return targetBytes(t.width, t.height, t.resolveTex != nil), n
}

// size returns the current dimensions, (0, 0) when unallocated.
func (t *msaaTarget) size() (uint32, uint32) {
	return t.width, t.height
}

// destroy releases all views and textures and resets the dimensions.
// Each resource is nil-checked before destruction to support partial cleanup.
func (t *msaaTarget) destroy(device hal.Device) {
	if t.resolveView != nil {
		device.DestroyTextureView(t.resolveView)
		t.resolveView = nil
	}
	if t.resolveTex != nil {
		device.DestroyTexture(t.resolveTex)
		t.resolveTex = nil
	}
	if t.msaaView != nil {
		device.DestroyTextureView(t.msaaView)
		t.msaaView = nil
	}
	if t.msaaTex != nil {
		device.DestroyTexture(t.msaaTex)
		t.msaaTex = nil
	}
	t.width = 0
	t.height = 0
}

// DevicePixelSize converts a logical size to device pixels by flooring
// size*scale. A non-positive scale is treated as 1; the result is at least
// 1x1.
func DevicePixelSize(width, height int, scale float64) (uint32, uint32) {
	if !(scale > 0) {
		scale = 1
	}
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)
	return uint32(max(w, 1)), uint32(max(h, 1)) //nolint:gosec // clamped positive
}
