package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/imgfill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "index.html", cfg.Document)
	assert.Equal(t, "images/", cfg.Marker)
	assert.Equal(t, []string{"google", "bing"}, cfg.Engines)
	assert.Equal(t, "bing", cfg.InteractiveEngine)
	assert.Equal(t, 4, cfg.Candidates)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, config.DefaultAutoSuffix, cfg.AutoSuffix)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMGFILL_CANDIDATES", "8")
	t.Setenv("IMGFILL_ENGINES", "bing, google")
	t.Setenv("IMGFILL_LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Candidates)
	assert.Equal(t, []string{"bing", "google"}, cfg.Engines)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgfill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: site/index.html\nthreads: 2\ntimeout: 5s\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site/index.html", cfg.Document)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "site", cfg.ResolveBaseDir())
	assert.Equal(t, filepath.Join("site", "skipped_list.txt"), cfg.LedgerPath())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Config{Document: "index.html", Engines: []string{"bing"}, Candidates: 4, Threads: 1}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.Engines = nil
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Candidates = 0
	assert.Error(t, bad.Validate())
}

func TestBaseDirOverride(t *testing.T) {
	cfg := config.Config{Document: "a/index.html", BaseDir: "/srv/site", LedgerFile: "/var/skipped.txt"}
	assert.Equal(t, "/srv/site", cfg.ResolveBaseDir())
	assert.Equal(t, "/var/skipped.txt", cfg.LedgerPath())
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var console, file bytes.Buffer
	logger := config.SetupLoggerWithWriters(&console, &file, slog.LevelInfo)

	logger.Debug("detail only in file")
	logger.Info("visible", "target", "images/France/Paris/x.jpg")

	assert.NotContains(t, console.String(), "detail only in file")
	assert.Contains(t, console.String(), "visible")
	assert.Contains(t, file.String(), `"msg":"detail only in file"`)
	assert.Contains(t, file.String(), `"target":"images/France/Paris/x.jpg"`)
}
