// Package meta holds build metadata set through -ldflags.
package meta

var (
	// Version is the release version, set with -X github.com/nicholas-fedor/gifdeck/internal/meta.Version=...
	Version = "v0.0.0-unknown"
	// UserAgent is sent with every request to the image service.
	UserAgent = "gifdeck/" + Version
)
