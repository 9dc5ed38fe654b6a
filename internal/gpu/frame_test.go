package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

func TestRecordDrawsWireframeVisible(t *testing.T) {
	r, _ := newTestRenderer(t, Options{Wireframe: true})
	if err := r.Rebuild(testParams); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	var pass recordingPass
	r.recordDraws(&pass)

	if len(pass.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(pass.draws))
	}
	mesh, grid := pass.draws[0], pass.draws[1]
	if mesh.vertexBuf != r.meshBufs.vertBuf || mesh.indexBuf != r.meshBufs.indexBuf || mesh.indexCount != 96 {
		t.Errorf("first draw is not the mesh: %+v", mesh)
	}
	if grid.vertexBuf != r.gridBufs.vertBuf || grid.indexBuf != r.gridBufs.indexBuf || grid.indexCount != 192 {
		t.Errorf("second draw is not the grid: %+v", grid)
	}
	for i, d := range pass.draws {
		if !d.pipelineSet {
			t.Errorf("draw %d recorded without a pipeline", i)
		}
		if d.indexFormat != gputypes.IndexFormatUint16 {
			t.Errorf("draw %d index format = %v, want Uint16", i, d.indexFormat)
		}
	}
}

func TestRecordDrawsWireframeHidden(t *testing.T) {
	r, _ := newTestRenderer(t, Options{Wireframe: true})
	if err := r.Rebuild(testParams); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	r.SetWireframeVisible(false)
	var hidden recordingPass
	r.recordDraws(&hidden)
	if len(hidden.draws) != 1 {
		t.Fatalf("draws = %d, want only the mesh", len(hidden.draws))
	}
	if hidden.draws[0].indexBuf != r.meshBufs.indexBuf || hidden.draws[0].indexCount != 96 {
		t.Errorf("mesh draw changed when hiding the grid: %+v", hidden.draws[0])
	}

	r.SetWireframeVisible(true)
	var shown recordingPass
	r.recordDraws(&shown)
	if len(shown.draws) != 2 {
		t.Errorf("draws after re-enabling = %d, want 2", len(shown.draws))
	}
}

func TestRenderFramePreconditions(t *testing.T) {
	t.Run("no geometry", func(t *testing.T) {
		r, _ := newTestRenderer(t, Options{Offscreen: true})
		if err := r.Resize(16, 16); err != nil {
			t.Fatalf("Resize: %v", err)
		}
		if err := r.RenderFrame(nil); !errors.Is(err, ErrNoGeometry) {
			t.Errorf("err = %v, want ErrNoGeometry", err)
		}
	})
	t.Run("no target", func(t *testing.T) {
		r, _ := newTestRenderer(t, Options{Offscreen: true})
		if err := r.Rebuild(testParams); err != nil {
			t.Fatalf("Rebuild: %v", err)
		}
		if err := r.RenderFrame(nil); !errors.Is(err, ErrNoTarget) {
			t.Errorf("err = %v, want ErrNoTarget", err)
		}
	})
	t.Run("surface mode without view", func(t *testing.T) {
		r, _ := newTestRenderer(t, Options{})
		if err := r.Rebuild(testParams); err != nil {
			t.Fatalf("Rebuild: %v", err)
		}
		if err := r.Resize(16, 16); err != nil {
			t.Fatalf("Resize: %v", err)
		}
		if err := r.RenderFrame(nil); !errors.Is(err, ErrNoTarget) {
			t.Errorf("err = %v, want ErrNoTarget", err)
		}
	})
}

func TestRenderFrameOffscreen(t *testing.T) {
	r, _ := newTestRenderer(t, Options{Offscreen: true, Wireframe: true})
	if err := r.Rebuild(testParams); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := r.Resize(70, 30); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := r.RenderFrame(nil); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if r.State() != StateIdle {
		t.Errorf("state after frame = %v, want Idle", r.State())
	}

	img, err := r.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 70 || b.Dy() != 30 {
		t.Errorf("image bounds = %v, want 70x30", b)
	}
}

func TestReadPixelsRequiresOffscreen(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	if err := r.Resize(16, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if _, err := r.ReadPixels(); !errors.Is(err, ErrNotOffscreen) {
		t.Errorf("err = %v, want ErrNotOffscreen", err)
	}
}

func TestUnpackRows(t *testing.T) {
	// 2x2 image with a 12-byte pitch: 8 bytes of pixels plus 4 bytes of padding.
	src := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 0xEE, 0xEE, 0xEE, 0xEE,
		9, 10, 11, 12, 13, 14, 15, 16, 0xEE, 0xEE, 0xEE, 0xEE,
	}
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		want   []byte
	}{
		{"bgra swaps", gputypes.TextureFormatBGRA8Unorm, []byte{
			3, 2, 1, 4, 7, 6, 5, 8,
			11, 10, 9, 12, 15, 14, 13, 16,
		}},
		{"rgba copies", gputypes.TextureFormatRGBA8Unorm, []byte{
			1, 2, 3, 4, 5, 6, 7, 8,
			9, 10, 11, 12, 13, 14, 15, 16,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, 16)
			unpackRows(dst, src, 2, 2, 12, tt.format)
			for i := range dst {
				if dst[i] != tt.want[i] {
					t.Fatalf("dst = %v, want %v", dst, tt.want)
				}
			}
		})
	}
}

func TestClearColor(t *testing.T) {
	want := gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}
	if clearColor != want {
		t.Errorf("clearColor = %+v, want %+v", clearColor, want)
	}
}

func TestBeginEncodingFailureDiscardsEncoder(t *testing.T) {
	r, cd := newTestRenderer(t, Options{Offscreen: true, Wireframe: true})
	if err := r.Rebuild(testParams); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := r.Resize(16, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	cd.failBeginEncoding = true

	if err := r.RenderFrame(nil); !errors.Is(err, errInjected) {
		t.Fatalf("RenderFrame err = %v, want injected failure", err)
	}
	if _, err := r.ReadPixels(); !errors.Is(err, errInjected) {
		t.Fatalf("ReadPixels err = %v, want injected failure", err)
	}
	if cd.discards != 2 {
		t.Errorf("discards = %d, want 2", cd.discards)
	}
	if cd.live() != 4 {
		t.Errorf("live buffers = %d, want 4 (staging released)", cd.live())
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want Idle", r.State())
	}
}

// newStalledRenderer builds an offscreen renderer whose queue never
// completes a submission.
func newStalledRenderer(t *testing.T) (*Renderer, *countingDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	shaders, err := DefaultShaders()
	if err != nil {
		t.Fatalf("DefaultShaders: %v", err)
	}
	cd := newCountingDevice(device)
	dev := NewDevice(cd, stalledQueue{Queue: queue}, gputypes.TextureFormatBGRA8Unorm)
	r, err := NewRenderer(dev, shaders, Options{Offscreen: true, Wireframe: true})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Destroy)
	r.timeout = 5 * time.Millisecond

	if err := r.Rebuild(testParams); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := r.Resize(16, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	return r, cd
}

func TestTimeoutDrainsDeviceBeforeFree(t *testing.T) {
	r, cd := newStalledRenderer(t)

	if err := r.RenderFrame(nil); !errors.Is(err, ErrTimeout) {
		t.Fatalf("RenderFrame err = %v, want ErrTimeout", err)
	}
	if cd.waitIdles != 1 || cd.cmdBufsFreed != 1 {
		t.Errorf("after frame: waitIdles = %d, freed = %d, want 1, 1", cd.waitIdles, cd.cmdBufsFreed)
	}

	if _, err := r.ReadPixels(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadPixels err = %v, want ErrTimeout", err)
	}
	if cd.waitIdles != 2 || cd.cmdBufsFreed != 2 {
		t.Errorf("after readback: waitIdles = %d, freed = %d, want 2, 2", cd.waitIdles, cd.cmdBufsFreed)
	}
	if cd.live() != 4 {
		t.Errorf("live buffers = %d, want 4 (staging released after drain)", cd.live())
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want Idle", r.State())
	}
}

func TestTimeoutLeaksWhenDeviceCannotDrain(t *testing.T) {
	r, cd := newStalledRenderer(t)
	cd.waitIdleErr = errInjected

	if _, err := r.ReadPixels(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadPixels err = %v, want ErrTimeout", err)
	}
	if cd.live() != 5 {
		t.Errorf("live buffers = %d, want 5 (staging kept while in flight)", cd.live())
	}
	if cd.cmdBufsFreed != 0 {
		t.Errorf("in-flight command buffer freed %d times", cd.cmdBufsFreed)
	}
	if cd.doubleDestroys != 0 {
		t.Errorf("double destroys = %d", cd.doubleDestroys)
	}
}
