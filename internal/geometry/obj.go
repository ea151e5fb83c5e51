package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJReader handles Wavefront OBJ files. Only vertex and face directives are
// read; normals, texture coordinates, groups and materials are skipped.
type OBJReader struct{}

func (p *OBJReader) Read(r io.Reader, filename string) (*TriMesh, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	mesh := &TriMesh{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: vertex needs 3 coordinates", filename, lineNo)
			}
			var coords [3]float64
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad vertex coordinate %q: %w", filename, lineNo, fields[i+1], err)
				}
				coords[i] = v
			}
			mesh.Vertices = append(mesh.Vertices, Vec3{coords[0], coords[1], coords[2]})

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", filename, lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, f := range fields[1:] {
				i, err := objIndex(f, len(mesh.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
				}
				idx = append(idx, i)
			}
			// Fan-triangulate polygons with more than 3 vertices.
			for i := 1; i < len(idx)-1; i++ {
				mesh.Faces = append(mesh.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	if err := mesh.CheckFaces(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// objIndex resolves one face vertex reference ("7", "7/2/3", "-1") to a
// zero-based vertex index. OBJ indices are 1-based; negative indices count
// back from the most recent vertex.
func objIndex(field string, vertexCount int) (int, error) {
	if i := strings.IndexByte(field, '/'); i >= 0 {
		field = field[:i]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q: %w", field, err)
	}
	switch {
	case n > 0:
		n--
	case n < 0:
		n = vertexCount + n
	default:
		return 0, fmt.Errorf("face index 0 is not valid")
	}
	if n < 0 || n >= vertexCount {
		return 0, fmt.Errorf("face index %q out of range (%d vertices)", field, vertexCount)
	}
	return n, nil
}
