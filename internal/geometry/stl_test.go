package geometry

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestSTLReader_ASCII(t *testing.T) {
	src := `solid panel
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 1 0 0
    vertex 1 1 0
    vertex 0 1 0
  endloop
endfacet
endsolid panel
`
	mesh, err := (&STLReader{}).Read(strings.NewReader(src), "panel.stl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Shared vertices across the two triangles collapse into one pool entry.
	if len(mesh.Vertices) != 4 {
		t.Errorf("expected 4 deduplicated vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Faces) != 2 {
		t.Errorf("expected 2 faces, got %d", len(mesh.Faces))
	}
}

func TestSTLReader_ASCIIBadFacet(t *testing.T) {
	src := `solid bad
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
  endloop
endfacet
endsolid bad
`
	if _, err := (&STLReader{}).Read(strings.NewReader(src), "bad.stl"); err == nil {
		t.Error("expected error for 2-vertex facet")
	}
}

// binarySTL builds a valid binary STL from triangles given as flat vertex
// coordinate triples.
func binarySTL(t *testing.T, tris [][9]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, stlBinaryHeader))
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1}) // normal
		binary.Write(&buf, binary.LittleEndian, tri)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestSTLReader_Binary(t *testing.T) {
	data := binarySTL(t, [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{1, 0, 0, 1, 1, 0, 0, 1, 0},
	})
	mesh, err := (&STLReader{}).Read(bytes.NewReader(data), "panel.stl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mesh.Vertices) != 4 {
		t.Errorf("expected 4 deduplicated vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Faces) != 2 {
		t.Errorf("expected 2 faces, got %d", len(mesh.Faces))
	}
	if mesh.Vertices[0] != (Vec3{0, 0, 0}) || mesh.Vertices[1] != (Vec3{1, 0, 0}) {
		t.Errorf("unexpected vertex order: %v", mesh.Vertices)
	}
}

func TestSTLReader_BinaryDetection(t *testing.T) {
	data := binarySTL(t, [][9]float32{{0, 0, 0, 1, 0, 0, 0, 1, 0}})
	if !isBinarySTL(data) {
		t.Error("expected well-formed binary STL to be detected")
	}
	// A binary header with a triangle count that does not match the file
	// size falls through to the ASCII path.
	if isBinarySTL(data[:len(data)-1]) {
		t.Error("truncated file should not be treated as binary")
	}
	if isBinarySTL([]byte("solid tiny\nendsolid tiny\n")) {
		t.Error("short ASCII file should not be treated as binary")
	}
}

func TestSTLReader_BinaryFloatRoundTrip(t *testing.T) {
	v := float32(123.456)
	data := binarySTL(t, [][9]float32{{v, 0, 0, 0, v, 0, 0, 0, v}})
	mesh, err := (&STLReader{}).Read(bytes.NewReader(data), "rt.stl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mesh.Vertices[0].X; got != float64(v) {
		t.Errorf("expected %v, got %v", float64(v), got)
	}
}
