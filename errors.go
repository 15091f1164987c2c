package spne

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidParent is returned by AddNode when the requested parent
	// cannot take a new child.
	ErrInvalidParent = errors.New("invalid parent")
	// ErrMalformedTree is returned by the solver when the tree cannot be
	// evaluated as given.
	ErrMalformedTree = errors.New("malformed tree")
	// ErrDeserialization is returned when a snapshot fails shape validation.
	ErrDeserialization = errors.New("invalid snapshot")
	// ErrLimitExceeded is returned when a tree is larger or deeper than
	// the configured solver limits.
	ErrLimitExceeded = errors.New("tree exceeds limits")

	ErrInvalidPlayerCount = errors.New("player count must be at least 1")
	ErrNotFound           = errors.New("not found")
)

// IsClientError returns true if err was caused by structurally invalid
// input rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidParent) ||
		errors.Is(err, ErrMalformedTree) ||
		errors.Is(err, ErrDeserialization) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInvalidPlayerCount)
}
