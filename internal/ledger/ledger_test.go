package ledger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/imgfill/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped_list.txt")
	l := ledger.Open(path)

	assert.NoFileExists(t, path, "file is created lazily")

	require.NoError(t, l.Record("Eiffel Tower", filepath.FromSlash("images/France/Paris/eiffel_tower.jpg")))
	require.NoError(t, l.Record("Eiffel Tower", filepath.FromSlash("images/France/Paris/eiffel_tower.jpg")))
	require.NoError(t, l.Record("Louvre", "images/France/Paris/louvre.jpg"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Eiffel Tower | images/France/Paris/eiffel_tower.jpg\n"+
			"Eiffel Tower | images/France/Paris/eiffel_tower.jpg\n"+
			"Louvre | images/France/Paris/louvre.jpg\n",
		string(data), "append-only, no dedup")
}

func TestRecordKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped_list.txt")
	require.NoError(t, os.WriteFile(path, []byte("Old | images/a/b/c.jpg\n"), 0o644))

	require.NoError(t, ledger.Open(path).Record("New", "images/a/b/d.jpg"))

	records, err := ledger.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{
		{Name: "Old", Path: "images/a/b/c.jpg"},
		{Name: "New", Path: "images/a/b/d.jpg"},
	}, records)
}

func TestReadMissing(t *testing.T) {
	records, err := ledger.Read(filepath.Join(t.TempDir(), "none.txt"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadOddLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped_list.txt")
	require.NoError(t, os.WriteFile(path, []byte("A | B | images/x.jpg\n\nimages/y.jpg\n"), 0o644))

	records, err := ledger.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{
		{Name: "A | B", Path: "images/x.jpg"},
		{Path: "images/y.jpg"},
	}, records)
}
