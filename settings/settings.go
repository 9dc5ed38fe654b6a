// Package settings holds the persisted viewer settings and the store that is
// their single source of truth.
//
// Changes flow one way: callers mutate the Store, the Store persists the new
// value and notifies subscribers. Subscribers never write back.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gridsurface/geometry"
)

// Control ranges and defaults.
const (
	MinCellCount = 2
	MaxCellCount = 100

	MinCellSize = 0.02
	MaxCellSize = 1.0

	DefaultCellCount     = 7
	DefaultCellSize      = 0.2
	DefaultShowWireframe = true
)

// ErrInvalidInput is returned by the Parse functions for input that is not a
// number (or boolean). Callers keep the previous value.
var ErrInvalidInput = errors.New("settings: invalid input")

// Settings are the user-controlled viewer parameters.
type Settings struct {
	// CellCount is the number of cells along each axis.
	CellCount int `yaml:"countCell"`

	// CellSize is the edge length of one cell.
	CellSize float64 `yaml:"sizeCell"`

	// ShowWireframe toggles the wireframe overlay.
	ShowWireframe bool `yaml:"showGrid"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{
		CellCount:     DefaultCellCount,
		CellSize:      DefaultCellSize,
		ShowWireframe: DefaultShowWireframe,
	}
}

// Normalize clamps the numeric fields into their control ranges.
// A NaN cell size falls back to the default.
func (s Settings) Normalize() Settings {
	s.CellCount = min(max(s.CellCount, MinCellCount), MaxCellCount)
	if math.IsNaN(s.CellSize) {
		s.CellSize = DefaultCellSize
	}
	s.CellSize = min(max(s.CellSize, MinCellSize), MaxCellSize)
	return s
}

// Geometry returns the lattice parameters derived from s.
func (s Settings) Geometry() geometry.Params {
	return geometry.Params{CellCount: s.CellCount, CellSize: s.CellSize}
}

// String implements fmt.Stringer.
func (s Settings) String() string {
	return fmt.Sprintf("count=%d size=%.2f wireframe=%t", s.CellCount, s.CellSize, s.ShowWireframe)
}

// ParseCellCount parses an integer cell count and clamps it into range.
func ParseCellCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: cell count %q", ErrInvalidInput, text)
	}
	return min(max(n, MinCellCount), MaxCellCount), nil
}

// ParseCellSize parses a real cell size and clamps it into range.
func ParseCellSize(text string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: cell size %q", ErrInvalidInput, text)
	}
	return min(max(f, MinCellSize), MaxCellSize), nil
}

// ParseBool accepts on/off, yes/no, true/false and 1/0.
func ParseBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: boolean %q", ErrInvalidInput, text)
}
