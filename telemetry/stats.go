package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated pressure-field statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartStep int64   `csv:"-"`
	WindowEndStep   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Field samples at window end
	Samples  int     `csv:"samples"`
	Mean     float64 `csv:"mean"`
	StdDev   float64 `csv:"std"`
	RMS      float64 `csv:"rms"`
	MaxAbs   float64 `csv:"max_abs"`
	AbsP50   float64 `csv:"abs_p50"`
	AbsP90   float64 `csv:"abs_p90"`
	AbsP99   float64 `csv:"abs_p99"`
	Energy   float64 `csv:"energy"`    // Σp²·h², a proxy for acoustic potential energy
	PeakGain float64 `csv:"peak_gain"` // MaxAbs relative to the previous window (0 when undefined)

	// Sources
	ActiveSources int `csv:"active_sources"`
	Triggers      int `csv:"triggers"` // Sources installed during the window
	TouchesMissed int `csv:"touches_missed"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// FieldStats summarizes a set of pressure samples.
type FieldStats struct {
	Mean, StdDev, RMS, MaxAbs float64
	AbsP50, AbsP90, AbsP99    float64
	SumSquares                float64
}

// ComputeFieldStats calculates moments and |p| percentiles of values.
// scratch is reused for the sorted magnitudes when large enough.
func ComputeFieldStats(values, scratch []float64) (FieldStats, []float64) {
	n := len(values)
	if n == 0 {
		return FieldStats{}, scratch
	}

	var fs FieldStats
	fs.Mean, fs.StdDev = stat.PopMeanStdDev(values, nil)
	fs.SumSquares = floats.Dot(values, values)
	fs.RMS = math.Sqrt(fs.SumSquares / float64(n))

	if cap(scratch) < n {
		scratch = make([]float64, n)
	}
	abs := scratch[:n]
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)

	fs.MaxAbs = abs[n-1]
	fs.AbsP50 = Percentile(abs, 0.50)
	fs.AbsP90 = Percentile(abs, 0.90)
	fs.AbsP99 = Percentile(abs, 0.99)
	return fs, abs
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartStep),
		slog.Int64("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("samples", s.Samples),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.StdDev),
		slog.Float64("rms", s.RMS),
		slog.Float64("max_abs", s.MaxAbs),
		slog.Float64("abs_p50", s.AbsP50),
		slog.Float64("abs_p90", s.AbsP90),
		slog.Float64("abs_p99", s.AbsP99),
		slog.Float64("energy", s.Energy),
		slog.Float64("peak_gain", s.PeakGain),
		slog.Int("active_sources", s.ActiveSources),
		slog.Int("triggers", s.Triggers),
		slog.Int("touches_missed", s.TouchesMissed),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"sim_time", s.SimTimeSec,
		"rms", s.RMS,
		"max_abs", s.MaxAbs,
		"abs_p90", s.AbsP90,
		"energy", s.Energy,
		"active_sources", s.ActiveSources,
		"triggers", s.Triggers,
	)
}
