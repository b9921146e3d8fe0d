package acquire_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/imgfill/internal/acquire"
	"github.com/raphaelgruber/imgfill/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCrawler writes n files, then returns err.
type fakeCrawler struct {
	name string
	n    int
	err  error

	calls   int
	lastDir string
}

func (f *fakeCrawler) Name() string { return f.name }

func (f *fakeCrawler) Crawl(ctx context.Context, keyword string, max int, dir string) (int, error) {
	f.calls++
	f.lastDir = dir
	n := min(f.n, max)
	for i := 1; i <= n; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%06d.jpg", i)), []byte(keyword), 0o644); err != nil {
			return i - 1, err
		}
	}
	return n, f.err
}

func TestAcquireMovesFirstFile(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(t.TempDir(), "images", "France", "Paris", "louvre.jpg")
	var out bytes.Buffer

	c := &fakeCrawler{name: "bing", n: 3}
	ok := acquire.New(root, &out).Acquire(context.Background(), c, "France Paris louvre", dest)
	require.True(t, ok)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "France Paris louvre", string(data))
	assert.NoDirExists(t, c.lastDir, "scratch directory removed after success")
	assert.Contains(t, out.String(), "Searching (bing) for: France Paris louvre...")
	assert.Contains(t, out.String(), "Saved to")
}

func TestAcquireNoResults(t *testing.T) {
	var out bytes.Buffer
	c := &fakeCrawler{name: "google", err: fmt.Errorf("google search: %w", search.ErrNoResults)}
	dest := filepath.Join(t.TempDir(), "x.jpg")

	ok := acquire.New(t.TempDir(), &out).Acquire(context.Background(), c, "q", dest)
	assert.False(t, ok)
	assert.NoFileExists(t, dest)
	assert.NoDirExists(t, c.lastDir)
	assert.Contains(t, out.String(), "No results found on google")
}

func TestAcquireBackendError(t *testing.T) {
	var out bytes.Buffer
	c := &fakeCrawler{name: "bing", err: errors.New("connection reset")}

	ok := acquire.New(t.TempDir(), &out).Acquire(context.Background(), c, "q", filepath.Join(t.TempDir(), "x.jpg"))
	assert.False(t, ok)
	assert.NoDirExists(t, c.lastDir, "scratch removed after backend error")
	assert.Contains(t, out.String(), "Error with bing: connection reset")
}

func TestCandidates(t *testing.T) {
	a := acquire.New(t.TempDir(), nil)
	c := &fakeCrawler{name: "bing", n: 4}

	set, err := a.Candidates(context.Background(), c, "q", 4)
	require.NoError(t, err)
	require.Len(t, set.Files, 4)
	assert.Equal(t, "000001.jpg", filepath.Base(set.Files[0]))
	assert.Equal(t, "bing", set.Engine)
	assert.DirExists(t, set.Dir)

	set.Close()
	assert.NoDirExists(t, set.Dir)
	set.Close() // idempotent
}

func TestCandidatesPartialCrawlKeepsFiles(t *testing.T) {
	a := acquire.New(t.TempDir(), nil)
	c := &fakeCrawler{name: "bing", n: 2, err: errors.New("timeout on third url")}

	set, err := a.Candidates(context.Background(), c, "q", 4)
	require.NoError(t, err)
	defer set.Close()
	assert.Len(t, set.Files, 2)
}

func TestCandidatesEmpty(t *testing.T) {
	a := acquire.New(t.TempDir(), nil)
	c := &fakeCrawler{name: "bing"}

	_, err := a.Candidates(context.Background(), c, "q", 4)
	assert.True(t, errors.Is(err, acquire.ErrNoCandidates))
	assert.NoDirExists(t, c.lastDir)
}

func TestScratchDirsAreUnique(t *testing.T) {
	a := acquire.New(t.TempDir(), nil)
	c := &fakeCrawler{name: "bing", n: 1}

	s1, err := a.Candidates(context.Background(), c, "q", 1)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := a.Candidates(context.Background(), c, "q", 1)
	require.NoError(t, err)
	defer s2.Close()

	assert.NotEqual(t, s1.Dir, s2.Dir)
}

func TestPlace(t *testing.T) {
	src := filepath.Join(t.TempDir(), "000001.jpg")
	require.NoError(t, os.WriteFile(src, []byte("img"), 0o644))
	dest := filepath.Join(t.TempDir(), "a", "b", "c.jpg")

	require.NoError(t, acquire.Place(src, dest))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dest)
}

func TestPlaceMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "c.jpg")

	err := acquire.Place(filepath.Join(t.TempDir(), "gone.jpg"), dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "move gone.jpg")
	assert.NoFileExists(t, dest)
}
