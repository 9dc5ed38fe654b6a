package gpu

// State is the renderer lifecycle state. Work only starts from StateIdle.
type State int32

const (
	// StateIdle accepts a rebuild, a frame, a resize or a format change.
	StateIdle State = iota

	// StateRebuilding means geometry buffers are being replaced.
	StateRebuilding

	// StateRendering means a frame is being encoded and submitted.
	StateRendering

	// StateClosed is terminal. Every operation returns ErrClosed.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRebuilding:
		return "Rebuilding"
	case StateRendering:
		return "Rendering"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
