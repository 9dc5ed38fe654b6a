// Package geometry builds the vertex and index data for the lattice rendered
// by gridsurface.
//
// # Overview
//
// Everything is derived from one regular lattice of (n+1)x(n+1) points,
// where n is the cell count. The lattice is centered at the origin and lies
// in the z=0 plane:
//
//	position = (x*cellSize - offset, y*cellSize - offset, 0)
//	offset   = n*cellSize / 2
//	uv       = (x/n, y/n)
//
// Points are stored row-major, so the point at (x, y) has index y*(n+1)+x.
//
// Two primitives are built from the lattice:
//
//   - Surface: position-only vertices (12 bytes) with a triangle list,
//     two triangles per cell.
//   - Wireframe: position+UV vertices (20 bytes) with a line list,
//     six segments (12 indices) per cell tracing both triangles of the cell.
//
// # Usage
//
//	w, err := geometry.BuildWireframe(7, 0.2)
//	if err != nil {
//	    return err
//	}
//	vb, ib := w.VertexBytes(), w.IndexBytes()
//
// All builders are pure and deterministic. Indices are uint16, which bounds
// the lattice to 65536 points (cell count 255).
package geometry
