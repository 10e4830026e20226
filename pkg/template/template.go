// Package template discovers customization-file templates inside exported
// artifacts and derives suggested override sets from them. Exports may carry
// a properties-style template, often nested inside ZIP archives, listing the
// keys an environment is expected to override. Discovery walks the artifact
// tree, extracts archives in place, picks the best candidate file and parses
// its key=value pairs.
package template

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/lowcode-cicd/lcpipe/pkg/debug"
	"github.com/lowcode-cicd/lcpipe/pkg/fileutil"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
)

// Status reports the outcome of a template discovery.
type Status string

const (
	// StatusReady means a template was found and yielded override keys.
	StatusReady Status = "ready"
	// StatusFallback means no template was found in the artifacts and the
	// configured fallback template was used instead.
	StatusFallback Status = "fallback"
	// StatusEmpty means a template was found but contained no key=value
	// pairs.
	StatusEmpty Status = "empty"
	// StatusMissing means no template was found anywhere.
	StatusMissing Status = "missing"
)

// Suggestion is the result of discovering a template under an artifact tree.
type Suggestion struct {
	Status Status
	// SourcePath locates the chosen template file; empty when missing.
	SourcePath string
	// Overrides holds the key=value pairs parsed from the template, as a
	// starting point for an environment's override set. Nil when missing.
	Overrides *override.Set
}

// SourceName returns the chosen template's file name, empty when missing.
func (s *Suggestion) SourceName() string {
	if s.SourcePath == "" {
		return ""
	}
	return path.Base(s.SourcePath)
}

// Finder discovers templates on a filesystem.
type Finder struct {
	fs afero.Fs
}

// NewFinder creates a Finder over fs.
func NewFinder(fs afero.Fs) *Finder {
	return &Finder{fs: fs}
}

// templateSuffixes are the file extensions a template may carry. Anything
// else (archives, binaries, JSON metadata) is never a template.
var templateSuffixes = map[string]bool{
	".properties": true,
	".cfg":        true,
	".conf":       true,
	".ini":        true,
	".env":        true,
	".txt":        true,
}

// Discover walks the tree under root, extracting ZIP archives as it goes,
// and returns the best template candidate together with its parsed override
// suggestions. When nothing is found and fallbackPath names a readable file,
// that file is used instead. A missing template is not an error; the
// returned Status says what happened.
func (f *Finder) Discover(root, fallbackPath string) (*Suggestion, error) {
	candidates, err := f.collectCandidates(root)
	if err != nil {
		return nil, err
	}

	suggestion := &Suggestion{Status: StatusMissing}

	var content []byte
	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			return preferLess(candidates[i], candidates[j])
		})
		chosen := candidates[0]
		content, err = afero.ReadFile(f.fs, chosen)
		if err != nil {
			return nil, WrapTemplateRead(chosen, err)
		}
		suggestion.Status = StatusReady
		suggestion.SourcePath = chosen
		debug.Printf("Template candidate chosen: %s", chosen)
	} else if fallbackPath != "" {
		exists, statErr := afero.Exists(f.fs, fallbackPath)
		if statErr != nil {
			return nil, WrapTemplateRead(fallbackPath, statErr)
		}
		if exists {
			content, err = afero.ReadFile(f.fs, fallbackPath)
			if err != nil {
				return nil, WrapTemplateRead(fallbackPath, err)
			}
			suggestion.Status = StatusFallback
			suggestion.SourcePath = fallbackPath
			debug.Printf("Using fallback template: %s", fallbackPath)
		}
	}

	if content == nil {
		return suggestion, nil
	}

	suggestion.Overrides = parsePairs(string(content))
	if suggestion.Overrides.Len() == 0 && suggestion.Status == StatusReady {
		suggestion.Status = StatusEmpty
	}
	return suggestion, nil
}

// collectCandidates walks the tree breadth-first, extracting every ZIP
// archive next to itself, and returns the plain-text template candidates.
func (f *Finder) collectCandidates(root string) ([]string, error) {
	exists, err := afero.DirExists(f.fs, root)
	if err != nil || !exists {
		return nil, err
	}

	var candidates []string
	queue := []string{root}
	seen := map[string]bool{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true

		entries, err := afero.ReadDir(f.fs, current)
		if err != nil {
			return nil, WrapTemplateRead(current, err)
		}
		for _, entry := range entries {
			entryPath := path.Join(current, entry.Name())
			if entry.IsDir() {
				queue = append(queue, entryPath)
				continue
			}

			data, err := afero.ReadFile(f.fs, entryPath)
			if err != nil {
				return nil, WrapTemplateRead(entryPath, err)
			}

			if reader, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data))); zipErr == nil {
				extracted, extractErr := f.extract(entryPath, reader)
				if extractErr != nil {
					return nil, extractErr
				}
				queue = append(queue, extracted)
				continue
			}

			if templateSuffixes[strings.ToLower(path.Ext(entry.Name()))] && utf8.Valid(data) {
				candidates = append(candidates, entryPath)
			}
		}
	}

	return candidates, nil
}

// extract unpacks an archive into a sibling directory named after it and
// returns that directory. An already-extracted archive is left alone.
func (f *Finder) extract(archivePath string, reader *zip.Reader) (string, error) {
	targetDir := strings.TrimSuffix(archivePath, path.Ext(archivePath))
	if targetDir == archivePath {
		targetDir = archivePath + "_extracted"
	}

	exists, err := afero.DirExists(f.fs, targetDir)
	if err != nil {
		return "", WrapTemplateExtract(archivePath, err)
	}
	if exists {
		return targetDir, nil
	}

	debug.Printf("Extracting archive %s into %s", archivePath, targetDir)
	for _, entry := range reader.File {
		cleaned := path.Clean(entry.Name)
		// Entries must stay inside the target directory.
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
			continue
		}
		destination := path.Join(targetDir, cleaned)
		if entry.FileInfo().IsDir() {
			if err := fileutil.EnsureDir(f.fs, destination); err != nil {
				return "", WrapTemplateExtract(archivePath, err)
			}
			continue
		}

		if err := fileutil.EnsureDir(f.fs, path.Dir(destination)); err != nil {
			return "", WrapTemplateExtract(archivePath, err)
		}
		source, err := entry.Open()
		if err != nil {
			return "", WrapTemplateExtract(archivePath, err)
		}
		data, err := io.ReadAll(source)
		closeErr := source.Close()
		if err != nil {
			return "", WrapTemplateExtract(archivePath, err)
		}
		if closeErr != nil {
			return "", WrapTemplateExtract(archivePath, closeErr)
		}
		if err := afero.WriteFile(f.fs, destination, data, fileutil.ReadWriteUserPermission); err != nil {
			return "", WrapTemplateExtract(archivePath, err)
		}
	}

	return targetDir, nil
}

// preferLess orders candidates: .properties first, then .txt/.cfg, then the
// remaining template suffixes; ties break on shorter then lexicographically
// smaller file names so the choice is deterministic.
func preferLess(a, b string) bool {
	pa, pb := suffixPriority(a), suffixPriority(b)
	if pa != pb {
		return pa < pb
	}
	nameA, nameB := path.Base(a), path.Base(b)
	if len(nameA) != len(nameB) {
		return len(nameA) < len(nameB)
	}
	return nameA < nameB
}

func suffixPriority(p string) int {
	switch strings.ToLower(path.Ext(p)) {
	case ".properties":
		return 0
	case ".txt", ".cfg":
		return 1
	default:
		return 2
	}
}

// parsePairs reads the template's key=value pairs into an override set.
// Template parsing is deliberately more lenient than the override-file
// format: a leading "## ... ----" banner is skipped, "##" lines are
// comments, and a single "#" prefix marks a commented-out pair that still
// counts as a suggestion. Lines without '=' are ignored rather than
// rejected.
func parsePairs(content string) *override.Set {
	lines := strings.Split(content, "\n")

	start := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "##") && strings.Contains(line, "----") {
			start = i + 1
			break
		}
	}

	set := override.NewSet()
	for _, line := range lines[start:] {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "##") {
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			stripped = strings.TrimSpace(strings.TrimLeft(stripped, "#"))
		}
		if stripped == "" {
			continue
		}
		key, value, found := strings.Cut(stripped, "=")
		if !found {
			continue
		}
		set.Put(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return set
}
