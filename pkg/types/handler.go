package types

import (
	"context"
	"io"
)

// File is a single file selected or dropped for upload.
type File interface {
	Name() string                 // Base file name sent to the server.
	Open() (io.ReadCloser, error) // Content reader; the caller closes it.
	Size() int64                  // Content length in bytes, or -1 if unknown.
}

// GenerateForm carries the fields submitted with a GIF generation request.
type GenerateForm struct {
	DurationMS int               // Frame duration in milliseconds.
	Loop       int               // Loop count, 0 loops forever.
	Resize     string            // Optional "WxH" target size.
	Extra      map[string]string // Additional form fields passed through unchanged.
}

// Handler maps user events to controller operations, independent of any UI toolkit.
type Handler interface {
	OnUpload(ctx context.Context, files []File) error
	OnRemove(ctx context.Context, name string) error
	OnReorder(ctx context.Context, order []string) error
	OnReverse(ctx context.Context) error
	OnGenerate(ctx context.Context, form GenerateForm) error
	OnNewSession(ctx context.Context) error
	OnRefresh(ctx context.Context) error
}
