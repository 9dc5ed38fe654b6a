package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// offscreenFormat is the color format used when there is no window surface.
const offscreenFormat = gputypes.TextureFormatBGRA8Unorm

// Device bundles the HAL device, its queue and the color format frames are
// rendered in. A Device opened by OpenDevice owns its instance and device; a
// Device obtained from a host provider shares them and never destroys them.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	format   gputypes.TextureFormat
	name     string
	external bool
}

// OpenDevice acquires a GPU for headless rendering: Vulkan instance, adapter
// (discrete or integrated preferred), device and queue. There is no retry.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters", ErrNoGPU)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open %s: %w", ErrDeviceUnavailable, selected.Info.Name, err)
	}
	slogger().Info("gpu: adapter selected", "name", selected.Info.Name)

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		format:   offscreenFormat,
		name:     selected.Info.Name,
	}, nil
}

// DeviceFromProvider shares the GPU device of a host application such as a
// gogpu window. The provider's Device must be a *wgpu.Device; its HAL device
// and queue are used directly. The surface format comes from the provider
// and falls back to BGRA8Unorm when the host reports none.
func DeviceFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNoHALProvider
	}
	wd, ok := provider.Device().(*wgpu.Device)
	if !ok || wd == nil {
		return nil, fmt.Errorf("%w: device is %T, not *wgpu.Device", ErrNoHALProvider, provider.Device())
	}
	device, queue := wd.HalDevice(), wd.HalQueue()
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: host device has no HAL device or queue", ErrDeviceUnavailable)
	}

	format := provider.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = offscreenFormat
	}
	slogger().Info("gpu: using shared device", "format", format)
	return NewDevice(device, queue, format), nil
}

// NewDevice wraps an existing device and queue. The caller keeps ownership.
func NewDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		format:   format,
		external: true,
	}
}

// HAL returns the underlying device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the device queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Format returns the color format frames are rendered in.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// Name returns the adapter name, or "" for shared devices.
func (d *Device) Name() string { return d.name }

// Close releases the device and instance if this Device owns them. Safe to
// call multiple times.
func (d *Device) Close() {
	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
