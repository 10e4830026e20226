package release

import (
	"errors"
	"fmt"
)

// Release package errors.
var (
	// ErrEmptyTag is returned when a release has no version tag.
	ErrEmptyTag = errors.New("release tag cannot be empty")

	// ErrReleaseExists is returned when the platform already has a release
	// for the tag.
	ErrReleaseExists = errors.New("release already exists")

	// ErrRequestFailed is returned for any other non-success platform
	// response.
	ErrRequestFailed = errors.New("release request failed")
)

// WrapReleaseExists wraps ErrReleaseExists with the conflicting tag.
func WrapReleaseExists(tag string) error {
	return fmt.Errorf("%w: tag %q", ErrReleaseExists, tag)
}
