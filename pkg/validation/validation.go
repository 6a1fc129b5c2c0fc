// Package validation checks user-supplied names and paths before goax touches
// the filesystem.
//
// Stored fixtures are addressed by name and resolved inside the fixtures
// directory; a name can never reach a file outside it, whether through "..",
// an absolute path, or a symbolic link.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxNameLength bounds stored names.
const MaxNameLength = 64

// Error is a rejected name or path.
type Error struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s (input: %q)", e.Reason, e.Input)
}

// IsValidIdentifierChar reports whether ch may appear in a stored name:
// ASCII letters, digits, hyphen, or underscore.
func IsValidIdentifierChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_'
}

// Name validates a stored name such as a fixture name.
func Name(name string) error {
	if name == "" {
		return &Error{Input: name, Reason: "name cannot be empty"}
	}
	if len(name) > MaxNameLength {
		return &Error{Input: name, Reason: fmt.Sprintf("name exceeds %d characters", MaxNameLength)}
	}
	for _, ch := range name {
		if !IsValidIdentifierChar(ch) {
			return &Error{Input: name, Reason: fmt.Sprintf("invalid character %q", ch)}
		}
	}
	return nil
}

// Contain resolves rel inside base and returns the absolute result. It rejects
// empty, absolute and escaping paths, and paths whose existing prefix resolves
// through a symbolic link to somewhere outside base. rel need not exist.
func Contain(base, rel string) (string, error) {
	if rel == "" {
		return "", &Error{Input: rel, Reason: "path cannot be empty"}
	}
	if !filepath.IsLocal(rel) {
		return "", &Error{Input: rel, Reason: "path escapes allowed directory"}
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	realBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolved, err := resolveExisting(filepath.Join(realBase, filepath.Clean(rel)))
	if err != nil {
		return "", &Error{Input: rel, Reason: "cannot resolve path"}
	}

	inside, err := filepath.Rel(realBase, resolved)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", &Error{Input: rel, Reason: "resolved path escapes base directory"}
	}
	return resolved, nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of path and
// re-appends the missing tail.
func resolveExisting(path string) (string, error) {
	var tail []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
