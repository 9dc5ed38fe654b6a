package geometry

// Vertex strides in bytes, matching the pipeline vertex layouts.
const (
	// MeshVertexStride is position (vec3<f32>) = 12 bytes.
	MeshVertexStride = 12

	// GridVertexStride is position (vec3<f32>) + uv (vec2<f32>) = 20 bytes.
	GridVertexStride = 20
)

// MeshVertex is a surface vertex: position only.
type MeshVertex struct {
	Position [3]float32
}

// GridVertex is a wireframe vertex: position and lattice UV.
type GridVertex struct {
	Position [3]float32
	UV       [2]float32
}

// BuildLattice returns the (n+1)x(n+1) lattice points centered at the
// origin, in row-major order.
func BuildLattice(cellCount int, cellSize float64) ([]GridVertex, error) {
	p := Params{CellCount: cellCount, CellSize: cellSize}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return buildLattice(p), nil
}

func buildLattice(p Params) []GridVertex {
	n := p.CellCount
	offset := p.Extent()
	vertices := make([]GridVertex, 0, p.PointCount())
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			vertices = append(vertices, GridVertex{
				Position: [3]float32{
					float32(float64(x)*p.CellSize - offset),
					float32(float64(y)*p.CellSize - offset),
					0,
				},
				UV: [2]float32{
					float32(float64(x) / float64(n)),
					float32(float64(y) / float64(n)),
				},
			})
		}
	}
	return vertices
}

// cellCorners returns the lattice indices of the four corners of cell (x, y).
// "top" is row y and "bottom" is row y+1.
func cellCorners(n, x, y int) (topLeft, topRight, bottomLeft, bottomRight uint16) {
	tl := y*(n+1) + x
	bl := (y+1)*(n+1) + x
	return uint16(tl), uint16(tl + 1), uint16(bl), uint16(bl + 1) //nolint:gosec // bounded by MaxCellCount
}
