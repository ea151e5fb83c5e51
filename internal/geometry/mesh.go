package geometry

import "fmt"

// Vec3 is a point or direction in model space. Coordinates are millimetres.
type Vec3 struct {
	X, Y, Z float64
}

// TriMesh is a triangulated mesh: a shared vertex pool plus triangle faces
// indexing into it.
type TriMesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// Meshable is the capability contract for a geometry reference: anything the
// exporter can turn into a triangle mesh. The rest of the pipeline never
// inspects geometry beyond holding a Meshable.
type Meshable interface {
	TriMesh() (*TriMesh, error)
}

// TriMesh returns the mesh itself, making TriMesh its own geometry reference.
func (m *TriMesh) TriMesh() (*TriMesh, error) {
	return m, nil
}

// Empty reports whether the mesh has no renderable content.
func (m *TriMesh) Empty() bool {
	return m == nil || len(m.Vertices) == 0 || len(m.Faces) == 0
}

// CheckFaces verifies every face index points at an existing vertex.
func (m *TriMesh) CheckFaces() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d references vertex %d of %d", i, idx, n)
			}
		}
	}
	return nil
}
