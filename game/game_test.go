package game

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/telemetry"
)

// writeMap writes a small Tiled descriptor and returns its path.
func writeMap(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "room.json")
	// 6x4 tiles: one wall tile in the middle of the top row
	data := `{"layers":[{"width":6,"height":4,"data":[0,0,1,0,0,0, 0,0,0,0,0,0, 0,0,0,0,0,0, 0,0,0,0,0,0]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func initConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// Coarse voxels keep the run small: spacing = 343/(2*171.5) = 1
	cfg := "physics:\n  max_frequency: 171.5\ntelemetry:\n  stats_window: 0.01\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	require.NoError(t, config.Init(path))
}

func TestHeadlessRunWritesOutput(t *testing.T) {
	initConfig(t)
	out := t.TempDir()
	heatmap := filepath.Join(out, "field.png")

	g, err := NewGame(Options{
		MapPath:        writeMap(t),
		Headless:       true,
		OutputDir:      out,
		Heatmap:        heatmap,
		StepsPerUpdate: 10,
	})
	require.NoError(t, err)

	require.True(t, g.Engine().Touch(1.5, 1.5))
	for range 10 {
		require.NoError(t, g.UpdateHeadless())
	}
	assert.EqualValues(t, 100, g.StepCount())
	assert.NotZero(t, g.LastStats().WindowEndStep, "a stats window should have flushed")

	g.Finish()
	g.Unload()

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "final.png"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.FileExists(t, heatmap)

	data, err := os.ReadFile(filepath.Join(out, "telemetry.csv"))
	require.NoError(t, err)
	var rows []telemetry.WindowStats
	require.NoError(t, gocsv.UnmarshalBytes(data, &rows))
	require.NotEmpty(t, rows)
	assert.Greater(t, rows[0].MaxAbs, 0.0)

	snaps, err := filepath.Glob(filepath.Join(out, "snapshots", "*.json"))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	s, err := telemetry.LoadSnapshot(snaps[0])
	require.NoError(t, err)
	assert.EqualValues(t, 100, s.Step)
}

func TestNewGameRejectsMissingMap(t *testing.T) {
	initConfig(t)

	_, err := NewGame(Options{MapPath: filepath.Join(t.TempDir(), "missing.json"), Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestTouchRecordsMisses(t *testing.T) {
	initConfig(t)
	g, err := NewGame(Options{MapPath: writeMap(t), Headless: true, StepsPerUpdate: 1})
	require.NoError(t, err)
	defer g.Unload()

	g.touch(2.5, 3.5) // wall tile
	g.touch(0.5, 0.5)

	step := int64(g.collector.WindowDurationSteps())
	stats := g.collector.Flush(step, nil, 1, 0)
	assert.Equal(t, 1, stats.Triggers)
	assert.Equal(t, 1, stats.TouchesMissed)
}

func TestLogLayout(t *testing.T) {
	initConfig(t)
	g, err := NewGame(Options{MapPath: writeMap(t), Headless: true})
	require.NoError(t, err)
	defer g.Unload()

	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)

	g.logLayout()
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "=== Layout:"))
	assert.Contains(t, out, "partitions")
}

func TestLogPerfStatsFrameStages(t *testing.T) {
	initConfig(t)
	g, err := NewGame(Options{MapPath: writeMap(t), Headless: true})
	require.NoError(t, err)
	defer g.Unload()

	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)

	g.logPerfStats()
	assert.NotContains(t, buf.String(), "--- Frame", "headless runs have no frame stages")

	buf.Reset()
	g.perfCollector.RecordStage("step", 3*time.Millisecond)
	g.perfCollector.RecordStage("draw", time.Millisecond)
	g.logPerfStats()

	out := buf.String()
	assert.Contains(t, out, "--- Frame (4ms) ---")
	stepAt := strings.Index(out, "    step ")
	drawAt := strings.Index(out, "    draw ")
	require.NotEqual(t, -1, stepAt)
	require.NotEqual(t, -1, drawAt)
	assert.Less(t, stepAt, drawAt, "slowest stage first")
}
