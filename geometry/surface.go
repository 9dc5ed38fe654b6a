package geometry

// SurfaceIndicesPerCell is the number of triangle-list indices emitted per cell.
const SurfaceIndicesPerCell = 6

// Surface is a filled triangle-list mesh.
type Surface struct {
	Params   Params
	Vertices []MeshVertex
	Indices  []uint16
}

// BuildSurface triangulates the n x n lattice into a filled surface.
// Each cell is split along the same diagonal as the wireframe:
// (topLeft, bottomLeft, topRight) and (topRight, bottomLeft, bottomRight).
func BuildSurface(cellCount int, cellSize float64) (*Surface, error) {
	p := Params{CellCount: cellCount, CellSize: cellSize}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lattice := buildLattice(p)
	vertices := make([]MeshVertex, len(lattice))
	for i, v := range lattice {
		vertices[i] = MeshVertex{Position: v.Position}
	}

	return &Surface{
		Params:   p,
		Vertices: vertices,
		Indices:  SurfaceIndices(cellCount),
	}, nil
}

// SurfaceIndices returns the triangle-list indices for an n x n lattice.
// It returns nil when cellCount is out of range.
func SurfaceIndices(cellCount int) []uint16 {
	if cellCount < 1 || cellCount > MaxCellCount {
		return nil
	}
	n := cellCount
	indices := make([]uint16, 0, n*n*SurfaceIndicesPerCell)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			tl, tr, bl, br := cellCorners(n, x, y)
			indices = append(indices,
				tl, bl, tr,
				tr, bl, br,
			)
		}
	}
	return indices
}

// Triangle returns the fixed single triangle used when no lattice surface
// is wanted.
func Triangle() *Surface {
	return &Surface{
		Vertices: []MeshVertex{
			{Position: [3]float32{0.0, 0.5, 0.0}},
			{Position: [3]float32{-0.5, -0.5, 0.0}},
			{Position: [3]float32{0.5, -0.5, 0.0}},
		},
		Indices: []uint16{0, 1, 2},
	}
}

// VertexBytes encodes the vertices with MeshVertexStride.
func (s *Surface) VertexBytes() []byte {
	return encodeMeshVertices(s.Vertices)
}

// IndexBytes encodes the indices as uint16, padded to a 4-byte multiple.
func (s *Surface) IndexBytes() []byte {
	return encodeIndices(s.Indices)
}

// IndexCount returns the number of indices to draw.
func (s *Surface) IndexCount() uint32 {
	return uint32(len(s.Indices)) //nolint:gosec // bounded by MaxCellCount
}
