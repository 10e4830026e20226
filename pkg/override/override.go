// Package override implements the environment override file format consumed
// by the customization-build step.
//
// The format is plaintext, UTF-8 and line oriented. Each line is either
// blank (ignored), a comment starting with '#' after optional leading
// whitespace (ignored), or a key=value pair where the key is everything
// before the first '=' and the value is everything after it. Values are
// opaque and potentially sensitive: nothing in this package writes a parsed
// value to a log or error message.
package override

import (
	"strings"
)

// Entry is a single override: a fully qualified dotted key
// (e.g. connectedSystem.<uuid>.baseUrl) and its replacement value.
type Entry struct {
	Key   string
	Value string
}

// Set is an ordered collection of override entries with unique keys.
// Ordering follows the first occurrence of each key in the source text.
// When the same key appears more than once, the last value wins; the source
// format leaves duplicate handling undefined and last-wins matches the
// override semantics of every consumer we target.
type Set struct {
	entries []Entry
	index   map[string]int
}

// NewSet returns an empty override set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Parse reads override text into a Set.
//
// A non-blank, non-comment line with no '=' produces a *FormatError carrying
// the 1-based line number of the offending line. The error never contains
// the line text itself.
func Parse(text string) (*Set, error) {
	set := NewSet()

	// Trailing newline produces an empty final element from Split, which the
	// blank-line rule then skips.
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, &FormatError{Line: i + 1}
		}
		set.Put(key, value)
	}

	return set, nil
}

const commentPrefix = "#"

// Put adds an entry, replacing the value of an existing key in place.
func (s *Set) Put(key, value string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if pos, ok := s.index[key]; ok {
		s.entries[pos].Value = value
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, Entry{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (s *Set) Get(key string) (string, bool) {
	if s == nil || s.index == nil {
		return "", false
	}
	pos, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.entries[pos].Value, true
}

// Len returns the number of entries in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the entries in source order. The returned slice is a copy.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns the keys in source order. Keys are safe to log; values are not.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

// Render reconstructs the key=value text form of the set, one entry per line
// with a trailing newline. Parse(s.Render()) yields a set equal to s.
func (s *Set) Render() string {
	if s == nil || len(s.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e.Key)
		b.WriteString("=")
		b.WriteString(e.Value)
		b.WriteString("\n")
	}
	return b.String()
}
