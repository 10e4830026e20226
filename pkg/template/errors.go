package template

import (
	"errors"
	"fmt"
)

// Template package errors.
var (
	// ErrTemplateRead is returned when a candidate or fallback template
	// cannot be read.
	ErrTemplateRead = errors.New("failed to read template")

	// ErrTemplateExtract is returned when an archive inside the artifact
	// tree cannot be extracted.
	ErrTemplateExtract = errors.New("failed to extract archive")
)

// WrapTemplateRead wraps ErrTemplateRead with the path and underlying error.
func WrapTemplateRead(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTemplateRead, path, err)
}

// WrapTemplateExtract wraps ErrTemplateExtract with the archive path and
// underlying error.
func WrapTemplateExtract(archive string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTemplateExtract, archive, err)
}
