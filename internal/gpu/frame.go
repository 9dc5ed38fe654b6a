package gpu

import (
	"errors"
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// clearColor is the background every frame starts from.
var clearColor = gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// fenceTimeout is the default bound on how long a frame waits for the GPU.
const fenceTimeout = 5 * time.Second

// pollInterval is the sleep between submission completion checks.
const pollInterval = 200 * time.Microsecond

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// drawRecorder is the subset of hal.RenderPassEncoder used to record the
// mesh and grid draws.
type drawRecorder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// RenderFrame draws one frame: clear, filled mesh, then the grid overlay
// when it is visible. The MSAA samples resolve into view, or into the
// offscreen resolve texture when view is nil. The call returns after the
// GPU has finished the frame.
func (r *Renderer) RenderFrame(view hal.TextureView) error {
	release, err := r.acquire(StateRendering)
	if err != nil {
		return err
	}
	defer release()

	if !r.meshBufs.ready() || !r.gridBufs.ready() {
		return ErrNoGeometry
	}
	if r.mesh == nil || r.grid == nil {
		return fmt.Errorf("%w: pipelines missing", ErrNoTarget)
	}
	if !r.target.ready() {
		return ErrNoTarget
	}
	resolve := view
	if resolve == nil {
		if !r.target.offscreen {
			return ErrNoTarget
		}
		resolve = r.target.resolveView
	}
	return r.encodeSubmit(resolve)
}

// recordDraws records the mesh draw and, when the overlay is visible, the
// grid draw. Both use 16-bit indices.
func (r *Renderer) recordDraws(rp drawRecorder) {
	rp.SetPipeline(r.mesh.pipeline)
	rp.SetVertexBuffer(0, r.meshBufs.vertBuf, 0)
	rp.SetIndexBuffer(r.meshBufs.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(r.meshBufs.indexCount, 1, 0, 0, 0)

	if !r.wireframe.Load() {
		return
	}
	rp.SetPipeline(r.grid.pipeline)
	rp.SetVertexBuffer(0, r.gridBufs.vertBuf, 0)
	rp.SetIndexBuffer(r.gridBufs.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(r.gridBufs.indexCount, 1, 0, 0, 0)
}

// encodeSubmit encodes a single render pass resolving into resolve, submits
// it and waits on a fence.
func (r *Renderer) encodeSubmit(resolve hal.TextureView) error {
	device := r.dev.HAL()
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          r.target.msaaView,
			ResolveTarget: resolve,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpDiscard,
			ClearValue:    clearColor,
		}},
	})
	r.recordDraws(rp)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	if err := r.submitAndWait(cmdBuf); err != nil {
		if r.drainAfter(err) {
			device.FreeCommandBuffer(cmdBuf)
		}
		return err
	}
	device.FreeCommandBuffer(cmdBuf)
	return nil
}

// submitAndWait submits one command buffer and blocks until the queue has
// completed it or fenceTimeout elapses.
func (r *Renderer) submitAndWait(cmdBuf hal.CommandBuffer) error {
	queue := r.dev.Queue()
	index, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	deadline := time.Now().Add(r.timeout)
	for queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrTimeout, index, r.timeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// drainAfter reports whether objects used by a failed submission may be
// freed. After a timeout the GPU may still be using them, so the device is
// drained first; if that fails too they are leaked.
func (r *Renderer) drainAfter(err error) bool {
	if !errors.Is(err, ErrTimeout) {
		return true
	}
	if werr := r.dev.HAL().WaitIdle(); werr != nil {
		slogger().Warn("gpu: device not idle after timeout, leaking in-flight objects", "err", werr)
		return false
	}
	return true
}

// ReadPixels copies the last offscreen frame back to the CPU as RGBA.
func (r *Renderer) ReadPixels() (*image.RGBA, error) {
	release, err := r.acquire(StateRendering)
	if err != nil {
		return nil, err
	}
	defer release()

	if !r.target.offscreen || r.target.resolveTex == nil {
		return nil, ErrNotOffscreen
	}
	w, h := r.target.size()
	device := r.dev.HAL()

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	inFlight := false
	defer func() {
		if !inFlight {
			device.DestroyBuffer(staging)
		}
	}()

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	tex := r.target.resolveTex
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	if err := r.submitAndWait(cmdBuf); err != nil {
		inFlight = !r.drainAfter(err)
		if !inFlight {
			device.FreeCommandBuffer(cmdBuf)
		}
		return nil, err
	}
	device.FreeCommandBuffer(cmdBuf)

	mapping, err := device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	raw := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	unpackRows(img.Pix, raw, int(w), int(h), int(alignedBytesPerRow), r.target.format)
	if err := device.UnmapBuffer(staging); err != nil {
		slogger().Warn("gpu: unmap staging buffer", "err", err)
	}
	return img, nil
}

// unpackRows strips row padding from src and writes tightly packed RGBA
// rows into dst. BGRA sources have their red and blue channels swapped.
func unpackRows(dst, src []byte, width, height, srcPitch int, format gputypes.TextureFormat) {
	swap := format == gputypes.TextureFormatBGRA8Unorm || format == gputypes.TextureFormatBGRA8UnormSrgb
	rowBytes := width * 4
	for y := range height {
		row := src[y*srcPitch : y*srcPitch+rowBytes]
		out := dst[y*rowBytes : (y+1)*rowBytes]
		copy(out, row)
		if !swap {
			continue
		}
		for i := 0; i < rowBytes; i += 4 {
			out[i], out[i+2] = out[i+2], out[i]
		}
	}
}
