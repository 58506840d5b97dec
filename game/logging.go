package game

import (
	"fmt"
	"io"
	"time"

	"github.com/pthm-cable/ardsim/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logPerfStats logs per-phase step timing and frame stage timing.
func (g *Game) logPerfStats() {
	stats := g.perfCollector.Stats()
	Logf("=== Perf @ Step %d (%d steps/update) ===", g.engine.StepCount(), g.opts.StepsPerUpdate)
	Logf("Avg step: %s (min %s, max %s, %.0f steps/s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.MinTickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond),
		stats.TicksPerSecond,
	)

	for _, name := range telemetry.PhaseNames() {
		avg, ok := stats.PhaseAvg[name]
		if !ok {
			continue
		}
		Logf("  %-18s %10s  %5.1f%%", name, avg.Round(time.Microsecond), stats.PhasePct[name])
	}

	// Frame stages only exist in windowed mode
	if names := stats.StageNames(); len(names) > 0 {
		total := stats.StageTotal()
		Logf("  --- Frame (%s) ---", total.Round(time.Microsecond))
		for _, name := range names {
			avg := stats.StageAvg[name]
			pct := float64(0)
			if total > 0 {
				pct = float64(avg) / float64(total) * 100
			}
			Logf("    %-16s %10s  %5.1f%%", name, avg.Round(time.Microsecond), pct)
		}
	}
	Logf("")
}

// logLayout logs the decomposition of the loaded map.
func (g *Game) logLayout() {
	grid := g.engine.Grid()
	if grid == nil {
		return
	}
	parts := g.engine.Partitions()
	Logf("=== Layout: %s ===", g.mapPath)
	Logf("Grid %dx%d at %.3f m, %d free voxels, %d partitions, %d interfaces",
		grid.Cols, grid.Rows, grid.Spacing, grid.FreeCount(), len(parts), len(g.engine.Interfaces()))

	// Largest partitions dominate step time
	const maxRows = 10
	for i, p := range parts {
		if i >= maxRows {
			Logf("  ... %d more", len(parts)-maxRows)
			break
		}
		Logf("  #%-4d %4dx%-4d at (%d,%d)  %d interfaces", p.ID, p.Rect.W, p.Rect.H, p.Rect.Row, p.Rect.Col, len(p.Interfaces))
	}
	Logf("")
}
