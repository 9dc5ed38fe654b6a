package gpu

import (
	"fmt"
)

// Default memory limits.
const (
	// DefaultMaxMemoryMB is the default GPU memory budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the minimum allowed memory budget (16 MB).
	MinMemoryMB = 16
)

// bytesPerPixel is the size of one texel in every color format the
// renderer accepts (RGBA8 and BGRA8 variants).
const bytesPerPixel = 4

// MemoryStats contains the renderer's GPU memory usage.
type MemoryStats struct {
	// BudgetBytes is the total memory budget in bytes.
	BudgetBytes uint64

	// BufferBytes is the size of the vertex and index buffers.
	BufferBytes uint64

	// TargetBytes is the size of the MSAA target and its resolve texture.
	TargetBytes uint64

	// Buffers is the number of live geometry buffers.
	Buffers int

	// Textures is the number of live target textures.
	Textures int
}

// UsedBytes returns BufferBytes + TargetBytes.
func (s MemoryStats) UsedBytes() uint64 {
	return s.BufferBytes + s.TargetBytes
}

// Utilization is the fraction of the budget in use.
func (s MemoryStats) Utilization() float64 {
	if s.BudgetBytes == 0 {
		return 0
	}
	return float64(s.UsedBytes()) / float64(s.BudgetBytes)
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d KB, %d buffers, %d textures]",
		s.Utilization()*100,
		s.UsedBytes()/1024,
		s.BudgetBytes/1024,
		s.Buffers,
		s.Textures)
}

// budgetBytes converts a budget in megabytes, falling back to the default
// when it is below MinMemoryMB.
func budgetBytes(maxMB int) uint64 {
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	return uint64(maxMB) * 1024 * 1024 //nolint:gosec // bounded below by MinMemoryMB
}

// targetBytes is the memory taken by an MSAA target of the given size.
func targetBytes(width, height uint32, offscreen bool) uint64 {
	texel := uint64(width) * uint64(height) * bytesPerPixel
	n := texel * sampleCount
	if offscreen {
		n += texel
	}
	return n
}

// checkTargetBudget rejects target sizes that alone would exceed budget.
func checkTargetBudget(width, height uint32, offscreen bool, budget uint64) error {
	if need := targetBytes(width, height, offscreen); need > budget {
		return fmt.Errorf("%w: %dx%d target needs %d MB of %d MB",
			ErrMemoryBudgetExceeded, width, height, need/(1024*1024), budget/(1024*1024))
	}
	return nil
}
