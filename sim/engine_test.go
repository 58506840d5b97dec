package sim

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/tilemap"
	"github.com/pthm-cable/ardsim/voxel"
)

// testOptions uses a half-unit voxel so each tile becomes 2x2 voxels.
func testOptions() Options {
	d := config.Derive(config.PhysicsConfig{SoundSpeed: 343, MaxFrequency: 343})
	return Options{
		SoundSpeed:        343,
		Spacing:           d.VoxelSpacing,
		DT:                d.DT,
		StencilScale:      d.StencilScale,
		SourceKind:        SourceImpulse,
		SourceDuration:    3 * d.DT,
		SourceAmplitude:   1,
		ParallelThreshold: 1,
		Workers:           2,
	}
}

func newEngine(t *testing.T, opts Options, rows ...string) *Engine {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	if len(rows) > 0 {
		require.NoError(t, e.Load(tilemap.MustASCII(rows...)))
	}
	return e
}

// notchRows decomposes into a 6x4 voxel partition and a 2x2 one sharing a
// two-cell interface.
var notchRows = []string{
	"...#",
	"....",
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero sound speed", func(o *Options) { o.SoundSpeed = 0 }},
		{"negative spacing", func(o *Options) { o.Spacing = -1 }},
		{"NaN dt", func(o *Options) { o.DT = math.NaN() }},
		{"infinite dt", func(o *Options) { o.DT = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			_, err := New(opts)
			assert.Error(t, err)
		})
	}
}

func TestLoadBuildsPartitions(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)

	require.True(t, e.Loaded())
	assert.Equal(t, 4, e.Grid().Rows)
	assert.Equal(t, 8, e.Grid().Cols)

	want := []voxel.Rect{
		{Row: 0, Col: 0, W: 6, H: 4},
		{Row: 2, Col: 6, W: 2, H: 2},
	}
	require.Len(t, e.Partitions(), len(want))
	for i, p := range e.Partitions() {
		assert.Equal(t, i, p.ID)
		assert.Equal(t, want[i], p.Rect)
		assert.Len(t, p.Pressure(), want[i].Area())
	}
	assert.Same(t, e.Partitions()[1], e.Partition(1))
	assert.Nil(t, e.Partition(2))

	ifs := e.Interfaces()
	require.Len(t, ifs, 2)
	assert.Equal(t, voxel.DirRight, ifs[0].Dir)
	assert.Equal(t, voxel.DirLeft, ifs[1].Dir)
}

func TestStepBeforeLoad(t *testing.T) {
	e := newEngine(t, testOptions())
	assert.ErrorIs(t, e.Step(), ErrNotLoaded)
	assert.ErrorIs(t, e.Trigger(0, 0, 1, SourceImpulse), ErrNotLoaded)
	assert.False(t, e.Touch(0.5, 0.5))
	_, ok := e.PressureAt(0, 0)
	assert.False(t, ok)
}

func TestLoadFailureLeavesNoState(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	require.NoError(t, e.Step())

	err := e.Load(nil)
	assert.ErrorIs(t, err, voxel.ErrGeometry)
	assert.False(t, e.Loaded())
	assert.Nil(t, e.Grid())
	assert.Empty(t, e.Partitions())
	assert.Zero(t, e.StepCount())
	assert.ErrorIs(t, e.Step(), ErrNotLoaded)
}

func TestLoadFile(t *testing.T) {
	e := newEngine(t, testOptions())

	require.NoError(t, e.LoadFile(filepath.Join("..", "maps", "demo.json")))
	assert.True(t, e.Loaded())
	assert.NotEmpty(t, e.Partitions())

	err := e.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.False(t, e.Loaded())
}

func TestZeroForcingStaysZero(t *testing.T) {
	e := newEngine(t, testOptions())
	require.NoError(t, e.LoadFile(filepath.Join("..", "maps", "demo.json")))

	for i := 0; i < 50; i++ {
		require.NoError(t, e.Step())
	}
	for i, v := range e.AppendPressures(nil) {
		require.Zero(t, v, "sample %d", i)
	}
	assert.Equal(t, uint64(50), e.StepCount())
	assert.InDelta(t, 50*e.DT(), e.Time(), 1e-15)
}

func TestPointSourceLocality(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)

	const idx = 9
	require.NoError(t, e.Trigger(0, idx, 1, SourceImpulse))
	require.NoError(t, e.Step())

	for _, p := range e.Partitions() {
		for i, f := range p.Forcing() {
			if p.ID == 0 && i == idx {
				assert.Equal(t, 1.0, f)
				continue
			}
			assert.Zero(t, f, "partition %d voxel %d", p.ID, i)
		}
	}
}

func TestCouplingCarriesPressureAcrossInterface(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)

	// Far corner of the large partition, away from the interface.
	require.NoError(t, e.Trigger(0, 3*6, e.DT()*3, SourceImpulse))

	for i := 0; i < 40; i++ {
		require.NoError(t, e.Step())
	}

	var peak float64
	for _, v := range e.Partition(1).Pressure() {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.Greater(t, peak, 0.0)
	assert.Zero(t, e.ActiveSources())
}

func TestTouch(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)

	tests := []struct {
		name      string
		x, y      float64
		want      bool
		partition int
		index     int
	}{
		{"top left", 0.25, 1.75, true, 0, 0},
		{"small partition", 3.75, 0.25, true, 1, 3},
		{"solid", 3.5, 1.5, false, 0, 0},
		{"outside", -1, 1, false, 0, 0},
		{"above map", 1, 2.5, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Reset()
			got := e.Touch(tt.x, tt.y)
			require.Equal(t, tt.want, got)
			if !tt.want {
				assert.Zero(t, e.ActiveSources())
				return
			}
			src := e.Partition(tt.partition).Source
			require.NotNil(t, src)
			assert.Equal(t, tt.index, src.Index)
			assert.Equal(t, SourceImpulse, src.Kind)
			assert.Equal(t, e.Options().SourceDuration, src.Total)
		})
	}
}

func TestSetSourceKindAffectsTouch(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	e.SetSourceKind(SourceRicker)

	require.True(t, e.Touch(0.25, 1.75))
	assert.Equal(t, SourceRicker, e.Partition(0).Source.Kind)
	assert.Equal(t, SourceRicker, e.Options().SourceKind)
}

func TestTriggerReplacesSource(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	require.NoError(t, e.Trigger(0, 1, 1, SourceImpulse))
	require.NoError(t, e.Trigger(0, 5, 2, SourceRicker))

	src := e.Partition(0).Source
	assert.Equal(t, 5, src.Index)
	assert.Equal(t, SourceRicker, src.Kind)
	assert.Equal(t, 1, e.ActiveSources())
}

func TestTriggerValidation(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)

	tests := []struct {
		name      string
		partition int
		index     int
		duration  float64
		kind      SourceKind
	}{
		{"negative partition", -1, 0, 1, SourceImpulse},
		{"partition out of range", 2, 0, 1, SourceImpulse},
		{"negative index", 1, -1, 1, SourceImpulse},
		{"index out of range", 1, 4, 1, SourceImpulse},
		{"zero duration", 0, 0, 0, SourceImpulse},
		{"NaN duration", 0, 0, math.NaN(), SourceImpulse},
		{"unknown kind", 0, 0, 1, SourceKind(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Trigger(tt.partition, tt.index, tt.duration, tt.kind)
			assert.ErrorIs(t, err, ErrInvalidSource)
		})
	}
}

func TestDivergenceHaltsEngine(t *testing.T) {
	opts := testOptions()
	opts.SourceAmplitude = math.Inf(1)
	e := newEngine(t, opts, notchRows...)

	require.NoError(t, e.Trigger(0, 0, 1, SourceImpulse))
	require.NoError(t, e.Step())

	err := e.Step()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiverged)

	var de *DivergedError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0, de.Partition)
	assert.Equal(t, uint64(2), de.Step)
	assert.Equal(t, PhaseModal, de.Phase)
	assert.True(t, e.Diverged())
	assert.Equal(t, uint64(1), e.StepCount())

	// Halted until reloaded
	assert.Same(t, de, e.Step())

	require.NoError(t, e.Load(tilemap.MustASCII(notchRows...)))
	assert.NoError(t, e.Err())
	assert.NoError(t, e.Step())
}

func TestParallelMatchesSerial(t *testing.T) {
	run := func(threshold, workers int) []float64 {
		opts := testOptions()
		opts.ParallelThreshold = threshold
		opts.Workers = workers
		e := newEngine(t, opts)
		require.NoError(t, e.LoadFile(filepath.Join("..", "maps", "demo.json")))
		require.NoError(t, e.Trigger(0, 0, 10*e.DT(), SourceGaussian))
		require.NoError(t, e.Trigger(len(e.Partitions())-1, 0, 10*e.DT(), SourceRicker))
		for i := 0; i < 30; i++ {
			require.NoError(t, e.Step())
		}
		return e.AppendPressures(nil)
	}

	serial := run(1<<20, 1)
	parallel := run(1, 4)
	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("parallel result differs (-serial +parallel):\n%s", diff)
	}
}

type phaseRecorder struct {
	phases []string
}

func (r *phaseRecorder) StartPhase(phase string) {
	r.phases = append(r.phases, phase)
}

func TestObserverSeesPhasesInOrder(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	rec := &phaseRecorder{}
	e.SetObserver(rec)

	require.NoError(t, e.Step())
	require.NoError(t, e.Step())

	want := []string{
		PhaseModal, PhaseCoupling, PhaseProjection,
		PhaseModal, PhaseCoupling, PhaseProjection,
	}
	assert.Equal(t, want, rec.phases)
}

func TestPressureGrid(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	require.NoError(t, e.Trigger(1, 0, 1, SourceImpulse))
	require.NoError(t, e.Step())
	require.NoError(t, e.Step())

	g := e.Grid()
	field := e.PressureGrid(nil)
	require.Len(t, field, g.Rows*g.Cols)

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			v := field[g.Index(r, c)]
			p, ok := e.PressureAt(r, c)
			if !ok {
				assert.True(t, math.IsNaN(v), "cell (%d,%d) should be NaN", r, c)
				continue
			}
			assert.Equal(t, p, v)
		}
	}

	p, ok := e.PressureAt(2, 6)
	require.True(t, ok)
	assert.NotZero(t, p)
}

func TestResetKeepsMap(t *testing.T) {
	e := newEngine(t, testOptions(), notchRows...)
	require.NoError(t, e.Trigger(0, 0, 1, SourceImpulse))
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Step())
	}

	e.Reset()
	assert.True(t, e.Loaded())
	assert.Zero(t, e.StepCount())
	assert.Zero(t, e.ActiveSources())
	for _, v := range e.AppendPressures(nil) {
		assert.Zero(t, v)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = "ricker"
	cfg.Solver.DCForcing = config.DCForcingLimit

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Derived.VoxelSpacing, opts.Spacing)
	assert.Equal(t, cfg.Derived.DT, opts.DT)
	assert.Equal(t, SourceRicker, opts.SourceKind)
	assert.True(t, opts.DCLimit)

	cfg.Source.Kind = "sawtooth"
	_, err = OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, ErrInvalidSource)
}
