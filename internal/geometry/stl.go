package geometry

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// STLReader handles STL files, binary and ASCII. STL stores independent
// triangles, so shared vertices are merged back into a vertex pool.
type STLReader struct{}

const stlBinaryHeader = 80

func (p *STLReader) Read(r io.Reader, filename string) (*TriMesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if isBinarySTL(data) {
		return readBinarySTL(data, filename)
	}
	return readASCIISTL(data, filename)
}

// isBinarySTL decides by the declared triangle count matching the file size.
// The "solid" prefix alone is not reliable: some binary writers use it too.
func isBinarySTL(data []byte) bool {
	if len(data) < stlBinaryHeader+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlBinaryHeader : stlBinaryHeader+4])
	return len(data) == stlBinaryHeader+4+int(count)*50
}

func readBinarySTL(data []byte, filename string) (*TriMesh, error) {
	count := binary.LittleEndian.Uint32(data[stlBinaryHeader : stlBinaryHeader+4])
	mesh := &TriMesh{}
	pool := make(map[Vec3]int)
	off := stlBinaryHeader + 4

	for t := uint32(0); t < count; t++ {
		// 12 bytes normal (ignored), 3 vertices, 2-byte attribute count.
		off += 12
		var face [3]int
		for v := 0; v < 3; v++ {
			vec := Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:]))),
			}
			off += 12
			face[v] = internVertex(mesh, pool, vec)
		}
		off += 2
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh, nil
}

func readASCIISTL(data []byte, filename string) (*TriMesh, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	mesh := &TriMesh{}
	pool := make(map[Vec3]int)
	var face []int
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: vertex needs 3 coordinates", filename, lineNo)
			}
			var coords [3]float64
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad coordinate %q: %w", filename, lineNo, fields[i+1], err)
				}
				coords[i] = v
			}
			face = append(face, internVertex(mesh, pool, Vec3{coords[0], coords[1], coords[2]}))
		case "endfacet":
			if len(face) != 3 {
				return nil, fmt.Errorf("%s:%d: facet has %d vertices, want 3", filename, lineNo, len(face))
			}
			mesh.Faces = append(mesh.Faces, [3]int{face[0], face[1], face[2]})
			face = face[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return mesh, nil
}

// internVertex returns the pool index for vec, adding it on first sight.
func internVertex(mesh *TriMesh, pool map[Vec3]int, vec Vec3) int {
	if i, ok := pool[vec]; ok {
		return i
	}
	i := len(mesh.Vertices)
	mesh.Vertices = append(mesh.Vertices, vec)
	pool[vec] = i
	return i
}
