package geometry

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// copyAlignment is the WebGPU buffer copy alignment in bytes.
const copyAlignment = 4

func encodeMeshVertices(vertices []MeshVertex) []byte {
	buf := make([]byte, len(vertices)*MeshVertexStride)
	for i, v := range vertices {
		putFloats(buf[i*MeshVertexStride:], v.Position[:]...)
	}
	return buf
}

func encodeGridVertices(vertices []GridVertex) []byte {
	buf := make([]byte, len(vertices)*GridVertexStride)
	for i, v := range vertices {
		off := i * GridVertexStride
		putFloats(buf[off:], v.Position[:]...)
		putFloats(buf[off+12:], v.UV[:]...)
	}
	return buf
}

func putFloats(dst []byte, values ...float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// encodeIndices writes uint16 indices little-endian and pads the result
// with zero bytes to a multiple of copyAlignment.
func encodeIndices(indices []uint16) []byte {
	size := len(indices) * 2
	size = (size + copyAlignment - 1) &^ (copyAlignment - 1)
	buf := make([]byte, size)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// Bounds returns the XY bounding box of positions as (minX, minY, maxX, maxY).
// An empty slice yields an inverted box (+Inf, +Inf, -Inf, -Inf).
func Bounds(positions [][3]float32) [4]float32 {
	b := [4]float32{math32.Inf(1), math32.Inf(1), math32.Inf(-1), math32.Inf(-1)}
	for _, p := range positions {
		b[0] = math32.Min(b[0], p[0])
		b[1] = math32.Min(b[1], p[1])
		b[2] = math32.Max(b[2], p[0])
		b[3] = math32.Max(b[3], p[1])
	}
	return b
}

// Positions returns the positions of the wireframe vertices.
func (w *Wireframe) Positions() [][3]float32 {
	out := make([][3]float32, len(w.Vertices))
	for i, v := range w.Vertices {
		out[i] = v.Position
	}
	return out
}

// Positions returns the positions of the surface vertices.
func (s *Surface) Positions() [][3]float32 {
	out := make([][3]float32, len(s.Vertices))
	for i, v := range s.Vertices {
		out[i] = v.Position
	}
	return out
}
