package override

import (
	"errors"
	"fmt"
)

// ErrMissingSeparator is the sentinel wrapped by every FormatError.
var ErrMissingSeparator = errors.New("line is missing '=' separator")

// FormatError reports an override line that is neither blank, a comment, nor
// a key=value pair. It carries the 1-based line number only; the line content
// is deliberately omitted because values may be sensitive.
type FormatError struct {
	Line int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("override file line %d: %v", e.Line, ErrMissingSeparator)
}

func (e *FormatError) Unwrap() error {
	return ErrMissingSeparator
}

// IsFormatError checks whether err is a FormatError and returns its line
// number. Returns 0 and false otherwise.
func IsFormatError(err error) (int, bool) {
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return formatErr.Line, true
	}
	return 0, false
}
