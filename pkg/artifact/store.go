// Package artifact implements the on-disk layout for exported application
// packages and related files. Artifacts for one run live under
// <root>/<application>/<version>/, one file per artifact name. The CI
// platform's release feature references these paths; nothing here uploads
// anything.
package artifact

import (
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/lowcode-cicd/lcpipe/pkg/fileutil"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
)

// Store reads and writes artifacts under a fixed root directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a store rooted at root. The directory is created lazily
// on first save.
func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Path returns the artifact's location without touching the filesystem.
func (s *Store) Path(app, version, name string) (string, error) {
	if err := validateElements(app, version, name); err != nil {
		return "", err
	}
	return path.Join(s.root, app, version, name), nil
}

// Dir returns the directory holding one application version's artifacts,
// without touching the filesystem.
func (s *Store) Dir(app, version string) (string, error) {
	if err := validateElements(app, version); err != nil {
		return "", err
	}
	return path.Join(s.root, app, version), nil
}

// Save writes one artifact, creating the directory hierarchy as needed.
// Existing artifacts with the same name are overwritten; re-runs of a
// version replace its artifacts rather than accumulating copies.
func (s *Store) Save(app, version, name string, data []byte) (string, error) {
	target, err := s.Path(app, version, name)
	if err != nil {
		return "", err
	}

	if err := fileutil.EnsureDir(s.fs, path.Dir(target)); err != nil {
		return "", WrapStoreIO(target, err)
	}
	if err := afero.WriteFile(s.fs, target, data, fileutil.ReadWriteUserPermission); err != nil {
		return "", WrapStoreIO(target, err)
	}

	log.Debug("Saved artifact", "path", target, "bytes", len(data))
	return target, nil
}

// Read returns one artifact's content.
func (s *Store) Read(app, version, name string) ([]byte, error) {
	target, err := s.Path(app, version, name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, target)
	if err != nil {
		return nil, WrapStoreIO(target, err)
	}
	return data, nil
}

// List returns the artifact names stored for one application version,
// sorted for stable output.
func (s *Store) List(app, version string) ([]string, error) {
	if err := validateElements(app, version); err != nil {
		return nil, err
	}

	dir := path.Join(s.root, app, version)
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, WrapStoreIO(dir, err)
	}
	if !exists {
		return nil, nil
	}

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, WrapStoreIO(dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// validateElements rejects path elements that would escape the store root.
func validateElements(elements ...string) error {
	for _, element := range elements {
		if !fileutil.IsSafeName(element) {
			return WrapInvalidName(element)
		}
	}
	return nil
}
