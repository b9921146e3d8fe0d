package cli

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/imgfill/internal/config"
	"github.com/raphaelgruber/imgfill/internal/ledger"
	"github.com/raphaelgruber/imgfill/internal/metrics"
	"github.com/raphaelgruber/imgfill/internal/preview"
	"github.com/raphaelgruber/imgfill/internal/selection"
	"github.com/raphaelgruber/imgfill/internal/workflow"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidates(n int) []preview.Candidate {
	out := make([]preview.Candidate, n)
	for i := range out {
		out[i] = preview.Candidate{
			Path:   filepath.Join("scratch", string(rune('a'+i))+".png"),
			Format: "png",
			Width:  4,
			Height: 4,
			Image:  image.NewRGBA(image.Rect(0, 0, 4, 4)),
		}
	}
	return out
}

func TestPickerKeys(t *testing.T) {
	cands := testCandidates(3)

	tests := []struct {
		name    string
		keys    []string
		want    selection.Outcome
		aborted bool
	}{
		{"digit selects", []string{"2"}, selection.Choose(cands[1].Path), false},
		{"enter selects cursor", []string{"enter"}, selection.Choose(cands[0].Path), false},
		{"move then enter", []string{"right", "right", "enter"}, selection.Choose(cands[2].Path), false},
		{"left wraps", []string{"left", "enter"}, selection.Choose(cands[2].Path), false},
		{"vim keys", []string{"l", "h", "j", "enter"}, selection.Choose(cands[1].Path), false},
		{"skip", []string{"s"}, selection.Outcome{Kind: selection.Skip}, false},
		{"esc skips", []string{"esc"}, selection.Outcome{Kind: selection.Skip}, false},
		{"retry", []string{"r"}, selection.Outcome{Kind: selection.Retry}, false},
		{"out of range ignored", []string{"9", "r"}, selection.Outcome{Kind: selection.Retry}, false},
		{"ctrl+c aborts", []string{"ctrl+c"}, selection.Outcome{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newPickerModel("Target", cands, 0, 1)
			for _, k := range tt.keys {
				require.False(t, m.done, "picker finished before key %q", k)
				m = m.handleKey(k)
			}
			assert.True(t, m.done)
			assert.Equal(t, tt.aborted, m.aborted)
			assert.Equal(t, tt.want, m.outcome)
		})
	}
}

func click(t *testing.T, m pickerModel, x, y int, button tea.MouseButton) pickerModel {
	t.Helper()
	next, _ := m.Update(tea.MouseClickMsg{X: x, Y: y, Button: button})
	pm, ok := next.(pickerModel)
	require.True(t, ok)
	return pm
}

func TestPickerClicks(t *testing.T) {
	cands := testCandidates(3)
	m := newPickerModel("Target", cands, 0, 1)
	assert.Equal(t, tea.MouseModeCellMotion, m.View().MouseMode)

	cardW, cardH, perRow := m.layout()
	require.Equal(t, 3, perRow)

	got := click(t, m, 3, gridTop+2, tea.MouseLeft)
	assert.True(t, got.done)
	assert.Equal(t, selection.Choose(cands[0].Path), got.outcome)

	got = click(t, m, cardW+2, gridTop+2, tea.MouseLeft)
	assert.Equal(t, selection.Choose(cands[1].Path), got.outcome)

	got = click(t, m, 3, 0, tea.MouseLeft)
	assert.False(t, got.done, "header clicks are ignored")

	got = click(t, m, 3, gridTop+2, tea.MouseRight)
	assert.False(t, got.done, "only the left button selects")

	got = click(t, m, 3, gridTop+cardH+1, tea.MouseLeft)
	assert.False(t, got.done, "below the last row")

	m.width = cardW + 1
	got = click(t, m, 3, gridTop+cardH+1, tea.MouseLeft)
	assert.Equal(t, selection.Choose(cands[1].Path), got.outcome, "wrapped grid maps rows")
}

func TestPickerRender(t *testing.T) {
	m := newPickerModel("Target: [Louvre] -> images/France/Paris/louvre.jpg", testCandidates(2), 1, 3)

	out := m.renderContent()
	assert.Contains(t, out, "Louvre")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "[1] png 4x4")
	assert.Contains(t, out, "[2] png 4x4")

	m = m.handleKey("s")
	assert.Empty(t, m.renderContent())
}

func TestPickerGridWraps(t *testing.T) {
	m := newPickerModel("t", testCandidates(4), 0, 1)
	m.width = 40

	wide := newPickerModel("t", testCandidates(4), 0, 1)
	assert.Greater(t, bytes.Count([]byte(m.renderGrid()), []byte("\n")),
		bytes.Count([]byte(wide.renderGrid()), []byte("\n")))
}

func TestRenderSummary(t *testing.T) {
	stats := metrics.NewCollector()
	stats.RecordAttempt("bing", true, 20*time.Millisecond)

	out := defaultTheme.renderSummary(workflow.Summary{Total: 3, Present: 2, Resolved: 1}, stats)
	assert.Contains(t, out, "All images present")
	assert.Contains(t, out, "bing")
	assert.Contains(t, out, "1/1 ok")

	out = defaultTheme.renderSummary(workflow.Summary{Total: 3, Present: 1, Skipped: 1, Unresolved: 1}, nil)
	assert.Contains(t, out, "2 image(s) still missing")
	assert.Contains(t, out, "Skipped:      1")
	assert.NotContains(t, out, "Engines")
}

func TestWriteSkipped(t *testing.T) {
	records := []ledger.Record{
		{Name: "Louvre", Path: "images/France/Paris/louvre.jpg"},
		{Path: "images/x.jpg"},
	}

	var text bytes.Buffer
	require.NoError(t, writeSkipped(&text, records, "text"))
	assert.Contains(t, text.String(), "Skipped places (2)")
	assert.Contains(t, text.String(), "(unnamed)")

	var y bytes.Buffer
	require.NoError(t, writeSkipped(&y, records, "yaml"))
	assert.Contains(t, y.String(), "- name: Louvre\n  path: images/France/Paris/louvre.jpg")

	var empty bytes.Buffer
	require.NoError(t, writeSkipped(&empty, nil, "text"))
	assert.Equal(t, "No skipped places.\n", empty.String())

	assert.Error(t, writeSkipped(&empty, records, "csv"))
}

func TestChoosePicker(t *testing.T) {
	p, hook, err := choosePicker("prompt")
	require.NoError(t, err)
	assert.IsType(t, &selection.PromptPicker{}, p)
	assert.Nil(t, hook)

	p, hook, err = choosePicker("grid")
	require.NoError(t, err)
	require.NotNil(t, hook)
	hook(2, 5)
	assert.Equal(t, 2, p.(*gridPicker).index)

	_, _, err = choosePicker("mouse")
	assert.Error(t, err)
}

func setTestConfig(t *testing.T, doc string) {
	t.Helper()
	old := cfg
	t.Cleanup(func() { cfg = old })
	cfg = config.Config{
		Document:          doc,
		Marker:            "images/",
		ScratchDir:        filepath.Join(t.TempDir(), "scratch"),
		LedgerFile:        "skipped_list.txt",
		AutoSuffix:        config.DefaultAutoSuffix,
		InteractiveSuffix: config.DefaultInteractiveSuffix,
		Engines:           []string{"bing"},
		InteractiveEngine: "bing",
		Candidates:        4,
		Threads:           1,
		Timeout:           time.Second,
		BingURL:           "http://127.0.0.1:1/images/async",
	}
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRepairCommand(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(doc, []byte("a $\n  {b}\n\n\n\nc"), 0o600))
	setTestConfig(t, doc)

	repairDryRun = true
	t.Cleanup(func() { repairDryRun = false })
	cmd, out := testCommand()
	require.NoError(t, runRepair(cmd, nil))
	assert.Contains(t, out.String(), "Interpolations fixed: 1")
	data, _ := os.ReadFile(doc)
	assert.Equal(t, "a $\n  {b}\n\n\n\nc", string(data))

	repairDryRun = false
	cmd, _ = testCommand()
	require.NoError(t, runRepair(cmd, nil))
	data, _ = os.ReadFile(doc)
	assert.Equal(t, "a ${b}\n\nc", string(data))
	info, _ := os.Stat(doc)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cmd, out = testCommand()
	require.NoError(t, runRepair(cmd, nil))
	assert.Contains(t, out.String(), "is clean")
}

func TestRepairMissingDocument(t *testing.T) {
	setTestConfig(t, filepath.Join(t.TempDir(), "missing.html"))
	cmd, out := testCommand()
	require.NoError(t, runRepair(cmd, nil))
	assert.Contains(t, out.String(), "Could not find")
}

func TestFetchDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "index.html")
	page := `{ name: "Louvre", img: "./images/France/Paris/louvre.jpg" }`
	require.NoError(t, os.WriteFile(doc, []byte(page), 0o644))
	setTestConfig(t, doc)

	fetchDryRun = true
	t.Cleanup(func() { fetchDryRun = false })
	cmd, out := testCommand()
	require.NoError(t, runFetch(cmd, nil))

	assert.Contains(t, out.String(), "Target: "+doc)
	assert.Contains(t, out.String(), "Found 1 image references.")
	assert.Contains(t, out.String(), "Missing: images/France/Paris/louvre.jpg")
	assert.Contains(t, out.String(), "France Paris louvre travel landmark")
	assert.NoDirExists(t, filepath.Join(dir, "images"))
}

func TestSkippedCommandReadsLedger(t *testing.T) {
	dir := t.TempDir()
	setTestConfig(t, filepath.Join(dir, "index.html"))
	require.NoError(t, ledger.Open(cfg.LedgerPath()).Record("Louvre", "images/France/Paris/louvre.jpg"))

	cmd, out := testCommand()
	require.NoError(t, runSkipped(cmd, nil))
	assert.Contains(t, out.String(), "Louvre")
	assert.Contains(t, out.String(), "images/France/Paris/louvre.jpg")
}

func TestPickDryRunTranscript(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "index.html")
	page := `{ name: "Louvre", img: "./images/France/Paris/louvre.jpg" }`
	require.NoError(t, os.WriteFile(doc, []byte(page), 0o644))
	setTestConfig(t, doc)

	pickDryRun, pickMode = true, "prompt"
	t.Cleanup(func() { pickDryRun, pickMode = false, "auto" })
	cmd, out := testCommand()
	require.NoError(t, runPick(cmd, nil))

	assert.Contains(t, out.String(), "Found 1 named places.")
	assert.Contains(t, out.String(), "Target: [Louvre] -> images/France/Paris/louvre.jpg")
	assert.Contains(t, out.String(), "Louvre travel landmark")
	assert.NoDirExists(t, filepath.Join(dir, "images"))
}
