package geometry

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Reader converts raw mesh file bytes into a TriMesh.
type Reader interface {
	Read(r io.Reader, filename string) (*TriMesh, error)
}

// SupportedExtensions lists mesh file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".obj": true,
	".stl": true,
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".obj":
		return &OBJReader{}, nil
	case ".stl":
		return &STLReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// IsSupportedExtension checks if a mesh file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
