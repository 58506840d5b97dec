package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/sim"
	"github.com/pthm-cable/ardsim/tilemap"
)

func newTestEngine(t *testing.T) *sim.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Physics.MaxFrequency = cfg.Physics.SoundSpeed // half-unit voxels
	cfg.Derived = config.Derive(cfg.Physics)

	opts, err := sim.OptionsFromConfig(cfg)
	require.NoError(t, err)
	e, err := sim.New(opts)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	require.NoError(t, e.Load(tilemap.MustASCII(
		"...#",
		"....",
	)))
	return e
}

func TestCaptureSnapshot(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Trigger(0, 0, 1, sim.SourceImpulse))
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Step())
	}

	s := CaptureSnapshot(e)
	require.NotNil(t, s)
	assert.Equal(t, SnapshotVersion, s.Version)
	assert.Equal(t, int64(3), s.Step)
	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 8, s.Cols)
	require.Len(t, s.Partitions, 2)

	require.NotNil(t, s.Partitions[0].Source)
	assert.Equal(t, "impulse", s.Partitions[0].Source.Kind)
	assert.Nil(t, s.Partitions[1].Source)

	// Snapshot data is a copy
	s.Partitions[0].Pressure[0] = 42
	assert.NotEqual(t, 42.0, e.Partition(0).Pressure()[0])
}

func TestCaptureSnapshotUnloaded(t *testing.T) {
	e, err := sim.New(sim.Options{SoundSpeed: 1, Spacing: 1, DT: 0.1})
	require.NoError(t, err)
	defer e.Close()
	assert.Nil(t, CaptureSnapshot(e))
}

func TestSnapshotFieldMatchesEngine(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Trigger(1, 2, 1, sim.SourceImpulse))
	for i := 0; i < 4; i++ {
		require.NoError(t, e.Step())
	}

	f, err := CaptureSnapshot(e).Field()
	require.NoError(t, err)
	want := e.PressureGrid(nil)
	require.Len(t, f.Values, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(f.Values[i]), "cell %d", i)
			continue
		}
		assert.Equal(t, want[i], f.Values[i], "cell %d", i)
	}
}

func TestSnapshotFieldRejectsBadExtent(t *testing.T) {
	s := &Snapshot{Rows: 2, Cols: 2, Partitions: []PartitionState{{ID: 0, Row: 1, Col: 0, W: 2, H: 2, Pressure: make([]float64, 4)}}}
	_, err := s.Field()
	assert.Error(t, err)

	s.Partitions[0] = PartitionState{ID: 0, W: 2, H: 2, Pressure: make([]float64, 3)}
	_, err = s.Field()
	assert.Error(t, err)
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	e := newTestEngine(t)
	require.NoError(t, e.Trigger(0, 5, 1, sim.SourceGaussian))
	require.NoError(t, e.Step())

	snapshot := CaptureSnapshot(e)
	snapshot.Bookmark = &Bookmark{Type: BookmarkLoudest, Step: 1, Description: "test"}

	path, err := SaveSnapshot(snapshot, tmpDir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "snapshot_1_loudest.json"), path)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))
	_, err := LoadSnapshot(path)
	assert.Error(t, err)
}
