package morph

import "github.com/pkg/errors"

var (
	// ErrOutOfRange is returned when a channel index does not address an existing channel.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNotFound is returned when no keypoint (or frame) exists at the requested position.
	ErrNotFound = errors.New("not found")
	// ErrShapeMismatch is returned for malformed flat point arrays.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
