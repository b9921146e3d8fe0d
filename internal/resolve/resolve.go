// Package resolve turns document-relative image references into filesystem
// targets and search queries.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/imgfill/internal/refs"
)

// Target is a reference resolved against the base directory.
type Target struct {
	refs.Reference
	RelativePath string // cleaned, host separators
	AbsolutePath string
	Directory    string
	SearchQuery  string // undecorated
}

// Exists reports whether the destination file is already present.
func (t Target) Exists() bool {
	_, err := os.Stat(t.AbsolutePath)
	return err == nil
}

// ErrOutsideBase indicates a reference that does not name a file inside the
// base directory.
var ErrOutsideBase = errors.New("path outside base directory")

// Resolver resolves references relative to BaseDir.
type Resolver struct {
	BaseDir string
}

// Resolve builds the target and creates its directory. The directory is
// created even when the file already exists.
func (r Resolver) Resolve(ref refs.Reference) (Target, error) {
	t := r.Target(ref)
	if !r.contains(t.AbsolutePath) {
		return Target{}, fmt.Errorf("%w: %q", ErrOutsideBase, ref.Path)
	}
	if err := os.MkdirAll(t.Directory, 0o755); err != nil {
		return Target{}, fmt.Errorf("create directory %s: %w", t.Directory, err)
	}
	return t, nil
}

// Target builds the target without touching the filesystem.
func (r Resolver) Target(ref refs.Reference) Target {
	rel := Clean(ref.Path)
	abs := filepath.Join(r.BaseDir, rel)

	return Target{
		Reference:    ref,
		RelativePath: rel,
		AbsolutePath: abs,
		Directory:    filepath.Dir(abs),
		SearchQuery:  Query(rel),
	}
}

// contains reports whether abs names a file strictly below BaseDir.
func (r Resolver) contains(abs string) bool {
	rel, err := filepath.Rel(filepath.Clean(r.BaseDir), abs)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Clean strips the leading run of "." and "/" characters, drops ".."
// segments and converts to host separators. The result never leaves the
// base directory.
func Clean(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimLeft(p, "./")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return filepath.FromSlash(p)
}

// Query derives a search query from a cleaned path. Paths shaped like
// .../<country>/<city>/<file> get the country and city as context.
func Query(cleanPath string) string {
	parts := strings.Split(filepath.ToSlash(cleanPath), "/")
	file := parts[len(parts)-1]
	stem := spaced(strings.TrimSuffix(file, filepath.Ext(file)))

	raw := stem
	if len(parts) >= 3 {
		raw = spaced(parts[len(parts)-3]) + " " + spaced(parts[len(parts)-2]) + " " + stem
	}
	return CleanQuery(raw)
}

// CleanQuery collapses immediately repeated words, ignoring case, and
// normalises whitespace: "Sydney Sydney Opera" becomes "Sydney Opera".
func CleanQuery(q string) string {
	words := strings.Fields(q)
	if len(words) == 0 {
		return ""
	}

	out := make([]string, 1, len(words))
	out[0] = words[0]
	for _, w := range words[1:] {
		if !strings.EqualFold(w, out[len(out)-1]) {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// Decorate appends suffix to a base query.
func Decorate(query, suffix string) string {
	if suffix == "" {
		return query
	}
	return query + " " + suffix
}

func spaced(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
