// Package refs extracts image references from a web page's source.
package refs

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrSourceNotFound indicates the source document does not exist.
// Callers treat it as a clean early exit, not a failure.
var ErrSourceNotFound = errors.New("source document not found")

// Reference is an image asset declared by the document.
type Reference struct {
	Name string // empty when extracted without a name
	Path string // as written in the document, e.g. "./images/France/Paris/x.jpg"
}

var (
	imgPattern = regexp.MustCompile(`img:\s*["']([^"']+)["']`)

	// A name field followed, possibly across lines, by the nearest img field
	// of the same object literal.
	namedPattern = regexp.MustCompile(`(?s)\{\s*name:\s*["']([^"']+)["'].*?img:\s*["']([^"']+)["']`)
)

// ReadDocument returns the document text, or ErrSourceNotFound.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

// ExtractPaths returns the distinct img: paths that contain marker.
// The result is sorted; callers should not rely on document order.
func ExtractPaths(text, marker string) []string {
	seen := make(map[string]struct{})
	for _, m := range imgPattern.FindAllStringSubmatch(text, -1) {
		if marker != "" && !strings.Contains(m[1], marker) {
			continue
		}
		seen[m[1]] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ExtractNamed returns every {name: ..., img: ...} pair in document order.
// Duplicates are kept: each occurrence is a separate task.
//
// Matching is lossy: an object whose first field is not name is skipped, and
// an object without an img field pairs its name with the next object's img,
// hiding that next object.
func ExtractNamed(text string) []Reference {
	matches := namedPattern.FindAllStringSubmatch(text, -1)
	out := make([]Reference, 0, len(matches))
	for _, m := range matches {
		out = append(out, Reference{Name: m[1], Path: m[2]})
	}
	return out
}
