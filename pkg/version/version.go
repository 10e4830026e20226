// Package version provides utilities for application version strings as used
// in artifact paths and release tags.
package version

import (
	"fmt"
	"strings"

	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
)

// Normalize extracts the core semantic version from a tag-style version
// string (e.g. "v1.2.0+build.7" -> "1.2.0"). It removes the leading 'v' and
// any build metadata suffix starting with '+'.
func Normalize(versionStr string) string {
	parsed := strings.TrimSpace(versionStr)
	parsed = strings.TrimPrefix(parsed, "v")
	parsed = strings.Split(parsed, "+")[0]
	return parsed
}

// Validate checks that a version string can serve as the version element of
// an artifact path and a release tag. The release tag joins application and
// version with '/', so the version itself must not contain one.
func Validate(versionStr string) error {
	trimmed := strings.TrimSpace(versionStr)
	switch {
	case trimmed == "":
		return &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("version cannot be empty"),
		}
	case strings.ContainsAny(trimmed, "/\\"):
		return &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("version %q must not contain path separators", trimmed),
		}
	}
	return nil
}
