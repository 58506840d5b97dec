package telemetry

import "math"

// Collector accumulates events within windows of simulated time and produces
// WindowStats from the pressure field at each window's end.
type Collector struct {
	windowDurationSec   float64
	windowDurationSteps int64
	dt                  float64

	// Current window tracking
	windowStartStep int64
	lastMaxAbs      float64

	// Event counters for current window
	triggers      int
	touchesMissed int

	scratch []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per step (used for step-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	stepsPerWindow := int64(1)
	if dt > 0 {
		stepsPerWindow = max(int64(math.Round(windowDurationSec/dt)), 1)
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationSteps: stepsPerWindow,
		dt:                  dt,
	}
}

// RecordTrigger records a point source being installed.
func (c *Collector) RecordTrigger() {
	c.triggers++
}

// RecordTouchMissed records a touch that landed outside every partition.
func (c *Collector) RecordTouchMissed() {
	c.touchesMissed++
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int64) bool {
	return currentStep-c.windowStartStep >= c.windowDurationSteps
}

// Flush produces a WindowStats and resets counters for the next window.
// pressures holds every partition voxel; spacing converts Σp² to an area
// integral.
func (c *Collector) Flush(currentStep int64, pressures []float64, spacing float64, activeSources int) WindowStats {
	var fs FieldStats
	fs, c.scratch = ComputeFieldStats(pressures, c.scratch)

	var gain float64
	if c.lastMaxAbs > 0 {
		gain = fs.MaxAbs / c.lastMaxAbs
	}

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   currentStep,
		SimTimeSec:      float64(currentStep) * c.dt,

		Samples:  len(pressures),
		Mean:     fs.Mean,
		StdDev:   fs.StdDev,
		RMS:      fs.RMS,
		MaxAbs:   fs.MaxAbs,
		AbsP50:   fs.AbsP50,
		AbsP90:   fs.AbsP90,
		AbsP99:   fs.AbsP99,
		Energy:   fs.SumSquares * spacing * spacing,
		PeakGain: gain,

		ActiveSources: activeSources,
		Triggers:      c.triggers,
		TouchesMissed: c.touchesMissed,
	}

	// Reset for next window
	c.windowStartStep = currentStep
	c.lastMaxAbs = fs.MaxAbs
	c.triggers = 0
	c.touchesMissed = 0

	return stats
}

// Reset restarts windowing at step 0, e.g. after a map reload.
func (c *Collector) Reset() {
	c.windowStartStep = 0
	c.lastMaxAbs = 0
	c.triggers = 0
	c.touchesMissed = 0
}

// WindowDurationSteps returns the number of steps per window.
func (c *Collector) WindowDurationSteps() int64 {
	return c.windowDurationSteps
}
