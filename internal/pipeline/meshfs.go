package pipeline

import (
	"bytes"
	"io/fs"
	"time"
)

// meshFS serves uploaded mesh files to the manifest resolver as an fs.FS.
// Keys are the filenames as referenced by the manifest.
type meshFS map[string][]byte

func (m meshFS) Open(name string) (fs.File, error) {
	data, ok := m[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &meshFile{
		Reader: bytes.NewReader(data),
		name:   name,
		size:   int64(len(data)),
	}, nil
}

type meshFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *meshFile) Stat() (fs.FileInfo, error) { return meshFileInfo{f.name, f.size}, nil }
func (f *meshFile) Close() error               { return nil }

type meshFileInfo struct {
	name string
	size int64
}

func (fi meshFileInfo) Name() string       { return fi.name }
func (fi meshFileInfo) Size() int64        { return fi.size }
func (fi meshFileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi meshFileInfo) ModTime() time.Time { return time.Time{} }
func (fi meshFileInfo) IsDir() bool        { return false }
func (fi meshFileInfo) Sys() any           { return nil }
