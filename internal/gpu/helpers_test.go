package gpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

var errInjected = errors.New("injected failure")

// countingDevice wraps a hal.Device and counts object lifecycles. Buffers
// are tracked by identity so a double destroy is caught; the noop backend
// hands out zero-sized texture and pipeline handles, so those are counted.
type countingDevice struct {
	hal.Device

	mu                 sync.Mutex
	liveBuffers        map[hal.Buffer]string
	buffersCreated     int
	buffersDestroyed   int
	doubleDestroys     int
	texturesCreated    int
	texturesDestroyed  int
	pipelinesCreated   int
	pipelinesDestroyed int
	shadersCreated     int
	shadersDestroyed   int

	// failBufferAt makes the n-th CreateBuffer call (1-based) fail. Zero
	// disables injection.
	failBufferAt int

	// onCreateBuffer runs before every CreateBuffer.
	onCreateBuffer func()

	// failBeginEncoding makes every encoder fail BeginEncoding.
	failBeginEncoding bool
	discards          int
	cmdBufsFreed      int

	waitIdles   int
	waitIdleErr error
}

func newCountingDevice(inner hal.Device) *countingDevice {
	return &countingDevice{Device: inner, liveBuffers: make(map[hal.Buffer]string)}
}

func (d *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.onCreateBuffer != nil {
		d.onCreateBuffer()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffersCreated++
	if d.failBufferAt > 0 && d.buffersCreated == d.failBufferAt {
		return nil, errInjected
	}
	buf, err := d.Device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	d.liveBuffers[buf] = desc.Label
	return buf, nil
}

func (d *countingDevice) DestroyBuffer(buf hal.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.liveBuffers[buf]; !ok {
		d.doubleDestroys++
		return
	}
	delete(d.liveBuffers, buf)
	d.buffersDestroyed++
	d.Device.DestroyBuffer(buf)
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.mu.Lock()
	d.texturesCreated++
	d.mu.Unlock()
	return d.Device.CreateTexture(desc)
}

func (d *countingDevice) DestroyTexture(tex hal.Texture) {
	d.mu.Lock()
	d.texturesDestroyed++
	d.mu.Unlock()
	d.Device.DestroyTexture(tex)
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.mu.Lock()
	d.pipelinesCreated++
	d.mu.Unlock()
	return d.Device.CreateRenderPipeline(desc)
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.mu.Lock()
	d.pipelinesDestroyed++
	d.mu.Unlock()
	d.Device.DestroyRenderPipeline(p)
}

func (d *countingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.mu.Lock()
	d.shadersCreated++
	d.mu.Unlock()
	return d.Device.CreateShaderModule(desc)
}

func (d *countingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.mu.Lock()
	d.shadersDestroyed++
	d.mu.Unlock()
	d.Device.DestroyShaderModule(m)
}

func (d *countingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &countingEncoder{CommandEncoder: enc, dev: d}, nil
}

func (d *countingDevice) FreeCommandBuffer(cb hal.CommandBuffer) {
	d.mu.Lock()
	d.cmdBufsFreed++
	d.mu.Unlock()
	d.Device.FreeCommandBuffer(cb)
}

func (d *countingDevice) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitIdles++
	return d.waitIdleErr
}

func (d *countingDevice) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.liveBuffers)
}

// countingEncoder reports discards to its device and can fail to begin.
type countingEncoder struct {
	hal.CommandEncoder
	dev *countingDevice
}

func (e *countingEncoder) BeginEncoding(label string) error {
	if e.dev.failBeginEncoding {
		return errInjected
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *countingEncoder) DiscardEncoding() {
	e.dev.mu.Lock()
	e.dev.discards++
	e.dev.mu.Unlock()
	e.CommandEncoder.DiscardEncoding()
}

// stalledQueue never reports a submission as completed.
type stalledQueue struct {
	hal.Queue
}

func (stalledQueue) PollCompleted() uint64 { return 0 }

// recordedDraw is one indexed draw captured by recordingPass.
type recordedDraw struct {
	vertexBuf   hal.Buffer
	indexBuf    hal.Buffer
	indexFormat gputypes.IndexFormat
	indexCount  uint32
	pipelineSet bool
}

// recordingPass captures draw calls instead of encoding them.
type recordingPass struct {
	pending recordedDraw
	draws   []recordedDraw
}

func (p *recordingPass) SetPipeline(hal.RenderPipeline) { p.pending.pipelineSet = true }

func (p *recordingPass) SetVertexBuffer(_ uint32, buf hal.Buffer, _ uint64) {
	p.pending.vertexBuf = buf
}

func (p *recordingPass) SetIndexBuffer(buf hal.Buffer, format gputypes.IndexFormat, _ uint64) {
	p.pending.indexBuf = buf
	p.pending.indexFormat = format
}

func (p *recordingPass) DrawIndexed(indexCount, _, _ uint32, _ int32, _ uint32) {
	p.pending.indexCount = indexCount
	p.draws = append(p.draws, p.pending)
	p.pending = recordedDraw{}
}

// newTestRenderer builds a renderer on a counting noop device.
func newTestRenderer(t *testing.T, opts Options) (*Renderer, *countingDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)

	shaders, err := DefaultShaders()
	if err != nil {
		t.Fatalf("DefaultShaders: %v", err)
	}
	cd := newCountingDevice(device)
	r, err := NewRenderer(NewDevice(cd, queue, gputypes.TextureFormatBGRA8Unorm), shaders, opts)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Destroy)
	return r, cd
}
