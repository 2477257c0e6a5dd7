package client

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalFile is an upload source backed by a file on disk.
type LocalFile struct {
	path string
	size int64
}

// NewLocalFile stats path and returns an upload source for it.
//
// Parameters:
//   - path: File path.
//
// Returns:
//   - *LocalFile: Upload source.
//   - error: Non-nil if the file cannot be inspected or is a directory.
func NewLocalFile(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errOpenFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errOpenFile, path)
	}

	return &LocalFile{path: path, size: info.Size()}, nil
}

// Name returns the base name sent as the multipart file name.
func (f *LocalFile) Name() string {
	return filepath.Base(f.path)
}

// Path returns the path on disk.
func (f *LocalFile) Path() string {
	return f.path
}

// Open opens the file for reading.
func (f *LocalFile) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errOpenFile, err)
	}

	return file, nil
}

// Size returns the size observed when the file was staged.
func (f *LocalFile) Size() int64 {
	return f.size
}

// BytesFile is an in-memory upload source.
type BytesFile struct {
	name string
	data []byte
}

// NewBytesFile wraps data under the given name.
func NewBytesFile(name string, data []byte) *BytesFile {
	return &BytesFile{name: name, data: data}
}

// Name returns the file name.
func (f *BytesFile) Name() string {
	return f.name
}

// Open returns a reader over the data.
func (f *BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Size returns the data length.
func (f *BytesFile) Size() int64 {
	return int64(len(f.data))
}
