package gpu

import "errors"

// Common errors returned by this package.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("gpu: no compatible GPU found")

	// ErrDeviceUnavailable is returned when the adapter cannot open a device.
	ErrDeviceUnavailable = errors.New("gpu: device unavailable")

	// ErrNoHALProvider is returned when a host provider does not expose HAL types.
	ErrNoHALProvider = errors.New("gpu: provider does not expose HAL device and queue")

	// ErrBusy is returned when a rebuild or frame is requested while another
	// one is in progress. The request is dropped.
	ErrBusy = errors.New("gpu: renderer busy")

	// ErrClosed is returned when the renderer has been destroyed.
	ErrClosed = errors.New("gpu: renderer closed")

	// ErrNoGeometry is returned when a frame is requested before the first rebuild.
	ErrNoGeometry = errors.New("gpu: no geometry uploaded")

	// ErrNoTarget is returned when a frame is requested before the first resize.
	ErrNoTarget = errors.New("gpu: no render target")

	// ErrInvalidSize is returned for zero-sized render targets.
	ErrInvalidSize = errors.New("gpu: invalid target size")

	// ErrNotOffscreen is returned by ReadPixels when frames resolve to a surface.
	ErrNotOffscreen = errors.New("gpu: renderer has no offscreen resolve target")

	// ErrTimeout is returned when a submission does not complete in time.
	ErrTimeout = errors.New("gpu: timed out waiting for the GPU")

	// ErrMemoryBudgetExceeded is returned when a render target would not fit
	// in the memory budget.
	ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

	// ErrShaderSource is returned when a shader asset is missing or fails to compile.
	ErrShaderSource = errors.New("gpu: invalid shader source")
)
