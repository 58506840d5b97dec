// Package sim runs the acoustic simulation: it owns the partitions built from
// a map, couples them across interfaces, injects point sources, and advances
// the whole field with a fixed timestep.
//
// An Engine is not safe for concurrent use. Step parallelises internally.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/ardsim/spectral"
	"github.com/pthm-cable/ardsim/tilemap"
	"github.com/pthm-cable/ardsim/voxel"
)

// Phase names reported to a PhaseObserver, in step order.
const (
	PhaseModal      = "modal_update"
	PhaseCoupling   = "coupling"
	PhaseProjection = "projection"
)

// PhaseObserver is notified as each step phase begins.
// telemetry.PerfCollector satisfies it.
type PhaseObserver interface {
	StartPhase(phase string)
}

// Engine is the simulation core.
type Engine struct {
	opts Options

	tmap       *tilemap.Map
	layout     *voxel.Layout
	lookup     *voxel.Lookup
	plans      *spectral.PlanCache
	partitions []*Partition
	errs       []error // Per-partition modal update results

	steps    uint64
	err      error
	observer PhaseObserver
	pool     *workerPool
}

// New creates an engine with no map loaded.
func New(opts Options) (*Engine, error) {
	if !(opts.SoundSpeed > 0) || math.IsInf(opts.SoundSpeed, 0) {
		return nil, fmt.Errorf("sound speed must be positive, got %v", opts.SoundSpeed)
	}
	if !(opts.Spacing > 0) || math.IsInf(opts.Spacing, 0) {
		return nil, fmt.Errorf("voxel spacing must be positive, got %v", opts.Spacing)
	}
	if !(opts.DT > 0) || math.IsInf(opts.DT, 0) {
		return nil, fmt.Errorf("timestep must be positive, got %v", opts.DT)
	}
	if opts.ParallelThreshold < 1 {
		opts.ParallelThreshold = 1
	}
	return &Engine{
		opts: opts,
		pool: newWorkerPool(opts.Workers),
	}, nil
}

// SetObserver installs a phase observer. Pass nil to remove it.
func (e *Engine) SetObserver(o PhaseObserver) {
	e.observer = o
}

// Close stops the worker pool. The engine must not be stepped afterwards.
func (e *Engine) Close() {
	e.pool.stop()
}

// LoadFile reads a map descriptor from disk and loads it.
func (e *Engine) LoadFile(path string) error {
	m, err := tilemap.Load(path)
	if err != nil {
		e.unload()
		return err
	}
	return e.Load(m)
}

// Load rasterizes and decomposes m and allocates every partition's solver.
// On failure the engine is left with no map loaded.
func (e *Engine) Load(m *tilemap.Map) error {
	e.unload()

	g, err := voxel.Rasterize(m, e.opts.Spacing)
	if err != nil {
		return fmt.Errorf("loading map: %w", err)
	}
	layout := voxel.Decompose(g)
	layout.BuildInterfaces()

	plans := spectral.NewPlanCache(e.opts.coefficients())
	parts := make([]*Partition, len(layout.Rects))
	interfaces := 0
	for i, rect := range layout.Rects {
		parts[i] = &Partition{
			ID:         i,
			Rect:       rect,
			Interfaces: layout.Interfaces[i],
			Solver:     spectral.NewSolver(plans.Get(rect.W, rect.H)),
		}
		interfaces += len(layout.Interfaces[i])
	}

	e.tmap = m
	e.layout = layout
	e.lookup = voxel.NewLookup(layout)
	e.plans = plans
	e.partitions = parts
	e.errs = make([]error, len(parts))

	slog.Info("map loaded",
		"tiles", fmt.Sprintf("%dx%d", m.Cols, m.Rows),
		"voxels", fmt.Sprintf("%dx%d", g.Cols, g.Rows),
		"free", g.FreeCount(),
		"partitions", len(parts),
		"interfaces", interfaces,
		"shapes", plans.Len(),
		"spacing", e.opts.Spacing,
		"dt", e.opts.DT,
	)
	return nil
}

func (e *Engine) unload() {
	e.tmap = nil
	e.layout = nil
	e.lookup = nil
	e.plans = nil
	e.partitions = nil
	e.errs = nil
	e.steps = 0
	e.err = nil
}

// Reset zeroes every field and removes all sources, keeping the loaded map.
func (e *Engine) Reset() {
	for _, p := range e.partitions {
		p.Solver.Reset()
		p.Source = nil
	}
	e.steps = 0
	e.err = nil
}

// Step advances the simulation by one timestep. Every partition finishes its
// modal update before any partition reads a neighbor's pressure.
//
// A non-finite result halts the engine: the returned *DivergedError is
// returned again by every later Step until the next Load.
func (e *Engine) Step() error {
	if e.layout == nil {
		return ErrNotLoaded
	}
	if e.err != nil {
		return e.err
	}
	step := e.steps + 1

	clear(e.errs)
	e.runPhase(PhaseModal)
	for i, err := range e.errs {
		if err != nil {
			e.err = &DivergedError{Partition: i, Step: step, Phase: PhaseModal, Err: err}
			slog.Error("simulation halted", "error", e.err)
			return e.err
		}
	}

	e.runPhase(PhaseCoupling)
	e.runPhase(PhaseProjection)

	e.steps = step
	return nil
}

// runChunk executes one phase for partitions [start, end).
func (e *Engine) runChunk(phase string, start, end int) {
	for i := start; i < end; i++ {
		p := e.partitions[i]
		switch phase {
		case PhaseModal:
			e.errs[i] = p.Solver.Update()
		case PhaseCoupling:
			p.Solver.ResetForcing()
			e.couple(p)
			e.inject(p)
		case PhaseProjection:
			p.Solver.ProjectForcing()
		}
	}
}

func (e *Engine) inject(p *Partition) {
	if p.Source.Active() {
		p.Solver.Forcing()[p.Source.Index] += p.Source.Step(e.opts.DT)
	}
}

// Trigger installs a point source in a partition, replacing any existing one.
// The source uses the engine's configured amplitude.
func (e *Engine) Trigger(partition, index int, duration float64, kind SourceKind) error {
	if e.layout == nil {
		return ErrNotLoaded
	}
	if partition < 0 || partition >= len(e.partitions) {
		return fmt.Errorf("%w: partition %d of %d", ErrInvalidSource, partition, len(e.partitions))
	}
	p := e.partitions[partition]
	if index < 0 || index >= p.Rect.Area() {
		return fmt.Errorf("%w: voxel %d outside partition %d (%d voxels)", ErrInvalidSource, index, partition, p.Rect.Area())
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return fmt.Errorf("%w: duration %v", ErrInvalidSource, duration)
	}
	if kind > SourceRicker {
		return fmt.Errorf("%w: kind %v", ErrInvalidSource, kind)
	}

	p.Source = &PointSource{
		Index:     index,
		Remaining: duration,
		Total:     duration,
		Kind:      kind,
		Amplitude: e.opts.SourceAmplitude,
	}
	return nil
}

// Touch installs a configured point source at the voxel under world position
// (x, y). It reports false when the position is outside every partition.
func (e *Engine) Touch(x, y float64) bool {
	if e.layout == nil {
		return false
	}
	r, c, ok := e.layout.Grid.WorldToCell(x, y)
	if !ok {
		return false
	}
	slot, ok := e.lookup.At(r, c)
	if !ok {
		return false
	}
	err := e.Trigger(int(slot.Partition), int(slot.Offset), e.opts.SourceDuration, e.opts.SourceKind)
	if err != nil {
		slog.Warn("touch ignored", "x", x, "y", y, "error", err)
		return false
	}
	slog.Debug("source triggered", "partition", slot.Partition, "row", r, "col", c, "kind", e.opts.SourceKind)
	return true
}

// SetSourceKind changes the waveform used by later Touch calls.
func (e *Engine) SetSourceKind(k SourceKind) {
	e.opts.SourceKind = k
}

// Loaded reports whether a map is loaded.
func (e *Engine) Loaded() bool { return e.layout != nil }

// Err returns the error that halted the engine, if any.
func (e *Engine) Err() error { return e.err }

// Diverged reports whether the engine is halted on a divergence.
func (e *Engine) Diverged() bool { return errors.Is(e.err, ErrDiverged) }

// Options returns the engine's parameters.
func (e *Engine) Options() Options { return e.opts }

// Map returns the loaded coarse map, or nil.
func (e *Engine) Map() *tilemap.Map { return e.tmap }

// Grid returns the fine voxel grid, or nil.
func (e *Engine) Grid() *voxel.Grid {
	if e.layout == nil {
		return nil
	}
	return e.layout.Grid
}

// Layout returns the decomposition, or nil.
func (e *Engine) Layout() *voxel.Layout { return e.layout }

// Lookup returns the cell to pressure-slot index, or nil.
func (e *Engine) Lookup() *voxel.Lookup { return e.lookup }

// Partitions returns every partition in decomposition order.
func (e *Engine) Partitions() []*Partition { return e.partitions }

// Partition returns partition i, or nil when out of range.
func (e *Engine) Partition(i int) *Partition {
	if i < 0 || i >= len(e.partitions) {
		return nil
	}
	return e.partitions[i]
}

// Interfaces returns every interface, grouped by owning partition.
func (e *Engine) Interfaces() []voxel.Interface {
	if e.layout == nil {
		return nil
	}
	return e.layout.AllInterfaces()
}

// PressureAt returns the pressure at grid cell (r, c). ok is false for cells
// outside every partition.
func (e *Engine) PressureAt(r, c int) (p float64, ok bool) {
	if e.lookup == nil {
		return 0, false
	}
	slot, ok := e.lookup.At(r, c)
	if !ok {
		return 0, false
	}
	return e.partitions[slot.Partition].Solver.Pressure()[slot.Offset], true
}

// PressureGrid writes the full-grid pressure into dst, row-major, reusing its
// storage when large enough. Cells outside every partition are NaN.
func (e *Engine) PressureGrid(dst []float64) []float64 {
	g := e.Grid()
	if g == nil {
		return dst[:0]
	}
	n := g.Rows * g.Cols
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = math.NaN()
	}
	for _, p := range e.partitions {
		pressure := p.Pressure()
		for i, v := range pressure {
			r, c := p.Rect.Cell(i)
			dst[g.Index(r, c)] = v
		}
	}
	return dst
}

// AppendPressures appends the pressure of every partition voxel to dst.
func (e *Engine) AppendPressures(dst []float64) []float64 {
	for _, p := range e.partitions {
		dst = append(dst, p.Pressure()...)
	}
	return dst
}

// ActiveSources counts partitions with a source still emitting.
func (e *Engine) ActiveSources() int {
	n := 0
	for _, p := range e.partitions {
		if p.Source.Active() {
			n++
		}
	}
	return n
}

// DT returns the fixed timestep.
func (e *Engine) DT() float64 { return e.opts.DT }

// Spacing returns the voxel edge length.
func (e *Engine) Spacing() float64 { return e.opts.Spacing }

// StepCount returns the number of completed steps since the last Load or Reset.
func (e *Engine) StepCount() uint64 { return e.steps }

// Time returns the simulated time in seconds.
func (e *Engine) Time() float64 { return float64(e.steps) * e.opts.DT }
