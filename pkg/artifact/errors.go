package artifact

import (
	"errors"
	"fmt"
)

// Artifact package errors.
var (
	// ErrInvalidName is returned when an application, version or artifact
	// name cannot be used as a path element.
	ErrInvalidName = errors.New("invalid artifact path element")

	// ErrStoreIO is returned when a filesystem operation on the store fails.
	ErrStoreIO = errors.New("artifact store I/O error")
)

// WrapInvalidName wraps ErrInvalidName with the offending element.
func WrapInvalidName(element string) error {
	return fmt.Errorf("%w: %q", ErrInvalidName, element)
}

// WrapStoreIO wraps ErrStoreIO with the path and underlying error.
func WrapStoreIO(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreIO, path, err)
}
