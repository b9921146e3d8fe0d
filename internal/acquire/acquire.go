// Package acquire downloads candidate images into disposable scratch
// directories and places chosen files at their destination.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/raphaelgruber/imgfill/internal/search"
)

// ErrNoCandidates indicates an engine produced no files for a query.
var ErrNoCandidates = errors.New("no candidates downloaded")

// Crawler populates dir with up to max images matching keyword.
// *search.Engine satisfies it.
type Crawler interface {
	Name() string
	Crawl(ctx context.Context, keyword string, max int, dir string) (int, error)
}

// Acquirer owns the scratch area under Root.
type Acquirer struct {
	Root string
	Out  io.Writer // progress lines; nil for none
}

// New creates an Acquirer rooted at root.
func New(root string, out io.Writer) *Acquirer {
	if out == nil {
		out = io.Discard
	}
	return &Acquirer{Root: root, Out: out}
}

// CandidateSet is the ordered set of files one crawl produced.
// Close removes the scratch directory.
type CandidateSet struct {
	Dir    string
	Files  []string
	Engine string
	Query  string
}

// Close deletes the scratch directory. Failures are logged, not returned:
// they must not hide the outcome of the attempt and the directory is
// disposable anyway.
func (s *CandidateSet) Close() {
	removeScratch(s.Dir)
}

// Acquire fetches a single image for query and moves it to dest.
// It reports false on zero results or any error; the scratch directory is
// removed in every case.
func (a *Acquirer) Acquire(ctx context.Context, c Crawler, query, dest string) bool {
	fmt.Fprintf(a.Out, "Searching (%s) for: %s...\n", c.Name(), query)

	set, err := a.Candidates(ctx, c, query, 1)
	if err != nil {
		if errors.Is(err, ErrNoCandidates) {
			fmt.Fprintf(a.Out, "  [!] No results found on %s for '%s'\n", c.Name(), query)
		} else {
			fmt.Fprintf(a.Out, "  [x] Error with %s: %v\n", c.Name(), err)
		}
		slog.Warn("acquire failed", "engine", c.Name(), "query", query, "error", err)
		return false
	}
	defer set.Close()

	if err := Place(set.Files[0], dest); err != nil {
		fmt.Fprintf(a.Out, "  [x] Error with %s: %v\n", c.Name(), err)
		slog.Warn("place file failed", "engine", c.Name(), "dest", dest, "error", err)
		return false
	}

	fmt.Fprintf(a.Out, "  [v] Saved to %s\n", dest)
	return true
}

// Candidates downloads up to max files for query into a fresh scratch
// directory. On error the directory has already been removed; otherwise
// the caller must Close the set.
func (a *Acquirer) Candidates(ctx context.Context, c Crawler, query string, max int) (*CandidateSet, error) {
	dir := filepath.Join(a.Root, fmt.Sprintf("%s-%s", c.Name(), uuid.New().String()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	set := &CandidateSet{Dir: dir, Engine: c.Name(), Query: query}

	_, crawlErr := c.Crawl(ctx, query, max, dir)

	files, err := listFiles(dir)
	if err == nil && len(files) == 0 {
		switch {
		case crawlErr == nil, errors.Is(crawlErr, search.ErrNoResults):
			err = ErrNoCandidates
		default:
			err = crawlErr
		}
	}
	if err != nil {
		set.Close()
		return nil, err
	}
	if crawlErr != nil {
		// A crawl can fail part way after writing usable files; keep them.
		slog.Debug("crawl ended with error", "engine", c.Name(), "files", len(files), "error", crawlErr)
	}

	set.Files = files
	return set, nil
}

// Place moves src to dest, copying when a rename crosses filesystems.
func Place(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}

	if err := copyFile(src, dest); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// listFiles returns the visible regular files of dir in name order.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scratch directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func removeScratch(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Debug("scratch cleanup failed", "dir", dir, "error", err)
	}
}
