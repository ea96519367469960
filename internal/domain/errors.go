package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced team, project or employee
	// does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrBackendUnavailable marks a vector index that could not be opened.
	ErrBackendUnavailable = errors.New("vector index backend unavailable")

	ErrInvalidInput = errors.New("invalid input")
)

// DimensionMismatchError is returned when a vector of the wrong length is
// submitted to an index or produced by an embedder.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// NotFound wraps ErrNotFound with the kind and id that failed to resolve.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
