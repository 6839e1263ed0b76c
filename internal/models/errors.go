package models

import "errors"

// Pipeline error kinds surfaced to callers. Stage errors wrap these so the
// failing stage stays identifiable through errors.Is.
var (
	// ErrInvalidImageFormat means the input bytes could not be decoded or
	// use an unsupported channel layout or bit depth.
	ErrInvalidImageFormat = errors.New("invalid image format")

	// ErrEmptyImage means a buffer with zero height or width reached a
	// stage that cannot operate on zero observations.
	ErrEmptyImage = errors.New("empty image")
)
