package geometry

// WireframeIndicesPerCell is the number of line-list indices emitted per cell.
const WireframeIndicesPerCell = 12

// Wireframe is the line-list overlay: lattice vertices with UV and
// 12 indices per cell.
type Wireframe struct {
	Params   Params
	Vertices []GridVertex
	Indices  []uint16
}

// BuildWireframe builds the triangulated wireframe for an n x n lattice.
//
// Each cell emits six segments in this exact order:
//
//	(topLeft, bottomLeft)
//	(bottomLeft, topRight)
//	(topRight, topLeft)
//	(topRight, bottomLeft)
//	(bottomLeft, bottomRight)
//	(bottomRight, topRight)
//
// The diagonal is drawn twice, once per triangle.
func BuildWireframe(cellCount int, cellSize float64) (*Wireframe, error) {
	p := Params{CellCount: cellCount, CellSize: cellSize}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Wireframe{
		Params:   p,
		Vertices: buildLattice(p),
		Indices:  WireframeIndices(cellCount),
	}, nil
}

// WireframeIndices returns the line-list indices for an n x n lattice.
// It returns nil when cellCount is out of range.
func WireframeIndices(cellCount int) []uint16 {
	if cellCount < 1 || cellCount > MaxCellCount {
		return nil
	}
	n := cellCount
	indices := make([]uint16, 0, n*n*WireframeIndicesPerCell)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			tl, tr, bl, br := cellCorners(n, x, y)
			indices = append(indices,
				tl, bl,
				bl, tr,
				tr, tl,

				tr, bl,
				bl, br,
				br, tr,
			)
		}
	}
	return indices
}

// VertexBytes encodes the vertices with GridVertexStride.
func (w *Wireframe) VertexBytes() []byte {
	return encodeGridVertices(w.Vertices)
}

// IndexBytes encodes the indices as uint16, padded to a 4-byte multiple.
func (w *Wireframe) IndexBytes() []byte {
	return encodeIndices(w.Indices)
}

// IndexCount returns the number of indices to draw.
func (w *Wireframe) IndexCount() uint32 {
	return uint32(len(w.Indices)) //nolint:gosec // bounded by MaxCellCount
}
