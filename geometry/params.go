package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors returned by the builders.
var (
	// ErrInvalidCellCount is returned when the cell count is less than one.
	ErrInvalidCellCount = errors.New("geometry: cell count must be at least 1")

	// ErrInvalidCellSize is returned when the cell size is not a positive finite number.
	ErrInvalidCellSize = errors.New("geometry: cell size must be positive and finite")

	// ErrTooManyVertices is returned when the lattice does not fit uint16 indices.
	ErrTooManyVertices = errors.New("geometry: lattice exceeds uint16 index range")
)

// MaxCellCount is the largest cell count whose lattice is addressable with
// uint16 indices: (255+1)^2 = 65536 points.
const MaxCellCount = 255

// Params describes the lattice footprint.
type Params struct {
	// CellCount is the number of cells along each axis.
	CellCount int

	// CellSize is the edge length of one cell in world units.
	CellSize float64
}

// Validate reports whether p describes a lattice that can be built.
func (p Params) Validate() error {
	if p.CellCount < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCellCount, p.CellCount)
	}
	if p.CellCount > MaxCellCount {
		return fmt.Errorf("%w: cell count %d > %d", ErrTooManyVertices, p.CellCount, MaxCellCount)
	}
	if !(p.CellSize > 0) || math.IsInf(p.CellSize, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidCellSize, p.CellSize)
	}
	return nil
}

// PointCount returns the number of lattice points, (n+1)^2.
func (p Params) PointCount() int {
	side := p.CellCount + 1
	return side * side
}

// Extent returns the half-width of the lattice, n*cellSize/2.
func (p Params) Extent() float64 {
	return float64(p.CellCount) * p.CellSize / 2
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("%dx%d@%g", p.CellCount, p.CellCount, p.CellSize)
}
