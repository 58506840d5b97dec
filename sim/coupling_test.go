package sim

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/ardsim/config"
)

// unitOptions maps one tile to one voxel.
func unitOptions() Options {
	opts := testOptions()
	d := config.Derive(config.PhysicsConfig{SoundSpeed: 343, MaxFrequency: 171.5})
	opts.Spacing = d.VoxelSpacing
	opts.DT = d.DT
	opts.StencilScale = d.StencilScale
	return opts
}

// bridgeRows decomposes into two one-voxel columns joined by a single
// voxel at the bottom:
//
//	P0 # P1
//	P0 P2 P1
var bridgeRows = []string{
	".#.",
	"...",
}

// setPressure writes p at grid cell (r, c) of the owning partition.
func setPressure(t *testing.T, e *Engine, r, c int, p float64) {
	t.Helper()
	slot, ok := e.Lookup().At(r, c)
	require.True(t, ok, "cell (%d,%d) is not owned", r, c)
	e.Partition(int(slot.Partition)).Pressure()[slot.Offset] = p
}

func TestCouplingStencil(t *testing.T) {
	e := newEngine(t, unitOptions(), bridgeRows...)
	require.Len(t, e.Partitions(), 3)
	require.Equal(t, 1.0, e.Spacing())

	const a, b, c = 1.5, -0.25, 4.0
	setPressure(t, e, 1, 0, a)
	setPressure(t, e, 1, 1, b)
	setPressure(t, e, 1, 2, c)
	// Off the interface rows; no stencil reaches them.
	setPressure(t, e, 0, 0, 100)
	setPressure(t, e, 0, 2, -100)

	// Stale forcing must not survive the pass.
	for _, p := range e.Partitions() {
		for i := range p.Forcing() {
			p.Forcing()[i] = 7
		}
	}
	e.runChunk(PhaseCoupling, 0, len(e.Partitions()))

	scale := 343.0 * 343.0 / 180
	tests := []struct {
		name      string
		partition int
		index     int
		want      float64
	}{
		// Right edge of P0: offsets -2 and -1 fall off the grid, 0 is the
		// owner cell, 1 the bridge and 2 the far column; 3 is off the grid.
		{"left column", 0, 1, scale * (-270*a + 270*b - 27*c)},
		{"left column top", 0, 0, 0},
		// Left edge of P1 mirrors the left column.
		{"right column", 1, 1, scale * (-270*c + 270*b - 27*a)},
		{"right column top", 1, 0, 0},
		// The bridge owns a left and a right interface on the same cell;
		// the right edge is written last and replaces the left sum.
		{"bridge", 2, 0, scale * (27*a - 270*b + 270*c)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Partition(tt.partition).Forcing()[tt.index]
			assert.InDelta(t, tt.want, got, 1e-9*math.Max(1, math.Abs(tt.want)))
		})
	}
}

func TestCouplingMatchesLookupStencil(t *testing.T) {
	e := newEngine(t, unitOptions(),
		"..#..",
		".....",
		"#....",
	)
	require.Greater(t, len(e.Interfaces()), 0)

	g := e.Grid()
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if _, ok := e.Lookup().At(r, c); ok {
				setPressure(t, e, r, c, math.Sin(float64(3*r+c+1)))
			}
		}
	}
	e.runChunk(PhaseCoupling, 0, len(e.Partitions()))

	weights := []float64{-2, 27, -270, 270, -27, 2}
	for _, p := range e.Partitions() {
		want := make([]float64, len(p.Forcing()))
		for _, ifc := range p.Interfaces {
			dr, dc := ifc.Dir.Normal()
			for k := 0; k < ifc.Len(); k++ {
				r, c := ifc.Cell(k)
				var sum float64
				for j, w := range weights {
					o := j - 2
					if v, ok := e.PressureAt(r+o*dr, c+o*dc); ok {
						sum += w * v
					}
				}
				want[p.Local(r, c)] = e.Options().StencilScale * sum
			}
		}
		for i := range want {
			assert.InDelta(t, want[i], p.Forcing()[i], 1e-9, "partition %d voxel %d", p.ID, i)
		}
	}
}

func TestSourceAddsOnTopOfCoupling(t *testing.T) {
	e := newEngine(t, unitOptions(), bridgeRows...)

	setPressure(t, e, 1, 0, 1)
	require.NoError(t, e.Trigger(2, 0, 10*e.DT(), SourceImpulse))
	e.runChunk(PhaseCoupling, 0, len(e.Partitions()))

	coupled := e.Options().StencilScale * 27
	assert.InDelta(t, coupled+1, e.Partition(2).Forcing()[0], 1e-9)
}

func TestDemoFieldStaysBounded(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}

	opts, err := OptionsFromConfig(config.Default())
	require.NoError(t, err)
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	require.NoError(t, e.LoadFile(filepath.Join("..", "maps", "demo.json")))

	last := len(e.Partitions()) - 1
	require.NoError(t, e.Trigger(0, 0, opts.SourceDuration, opts.SourceKind))
	require.NoError(t, e.Trigger(last, e.Partition(last).Rect.Area()-1, opts.SourceDuration, opts.SourceKind))

	maxAbs := func() float64 {
		var m float64
		for _, p := range e.Partitions() {
			for _, v := range p.Pressure() {
				m = math.Max(m, math.Abs(v))
			}
		}
		return m
	}

	const steps, window = 12000, 2000
	var early, late float64
	for i := 1; i <= steps; i++ {
		require.NoError(t, e.Step(), "step %d", i)
		switch {
		case i <= window:
			early = math.Max(early, maxAbs())
		case i > steps-window:
			late = math.Max(late, maxAbs())
		}
	}

	require.Greater(t, early, 0.0)
	assert.Less(t, late, 10*early, "field grew from %g to %g", early, late)
}
