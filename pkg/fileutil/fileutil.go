// Package fileutil provides shared filesystem helpers and permission
// constants used across the tool.
package fileutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Standard permissions for files and directories created by the tool.
const (
	// ReadWriteUserPermission is used for files that may reference secrets
	// or artifact content.
	ReadWriteUserPermission os.FileMode = 0o600
	// ReadWriteUserReadOthers is used for non-sensitive generated files.
	ReadWriteUserReadOthers os.FileMode = 0o644
	// DirPermission is used for directories created under the artifact root.
	DirPermission os.FileMode = 0o755
)

// HasYAMLExtension reports whether path ends in .yaml or .yml.
func HasYAMLExtension(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// ReadFileString reads a whole file through the afero filesystem and returns
// its content as a string.
func ReadFileString(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}

// EnsureDir creates the directory (and parents) if it does not exist.
func EnsureDir(fs afero.Fs, path string) error {
	exists, err := afero.DirExists(fs, path)
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", path, err)
	}
	if exists {
		return nil
	}
	if err := fs.MkdirAll(path, DirPermission); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// IsSafeName reports whether name can be used as a single path element:
// non-empty, no path separators, and not a dot-traversal component.
func IsSafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}
