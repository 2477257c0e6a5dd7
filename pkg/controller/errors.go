package controller

import "errors"

var (
	// ErrNoFiles indicates that nothing was left to upload after filtering.
	ErrNoFiles = errors.New("no files to upload")
	// ErrOrderMismatch indicates that a requested order is not a permutation of the rendered list.
	ErrOrderMismatch = errors.New("order does not match the rendered images")
	// ErrRemovalInFlight indicates that the image is already being removed.
	ErrRemovalInFlight = errors.New("removal already in progress")
	// ErrInvalidResize indicates a resize value not of the form WxH.
	ErrInvalidResize = errors.New("invalid resize value, expected WxH")
	// ErrInvalidPosition indicates a move target outside the rendered list.
	ErrInvalidPosition = errors.New("position out of range")

	errUpload   = errors.New("upload failed")
	errReorder  = errors.New("reorder failed")
	errRemove   = errors.New("removal failed")
	errGenerate = errors.New("generation failed")
	errSession  = errors.New("new session failed")
	errRefresh  = errors.New("refresh failed")
)
