package game

import (
	"log/slog"

	"github.com/pthm-cable/ardsim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	step := int64(g.engine.StepCount())
	if !g.collector.ShouldFlush(step) {
		return
	}

	// Sample every partition voxel
	g.pressureBuf = g.engine.AppendPressures(g.pressureBuf[:0])

	// Flush the stats window
	stats := g.collector.Flush(step, g.pressureBuf, g.engine.Spacing(), g.engine.ActiveSources())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	bookmarks := g.bookmarkDetector.Check(stats)
	for _, bm := range bookmarks {
		if g.opts.LogStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		// Save snapshot on bookmark
		if g.opts.Snapshots {
			g.saveSnapshot(&bm)
		}
	}
}

// snapshotDir is used for bookmark snapshots when no output directory is set.
const snapshotDir = "snapshots"

// saveSnapshot captures the field and saves it to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := g.createSnapshot(bookmark)
	if snapshot == nil {
		return
	}

	var (
		path string
		err  error
	)
	if g.outputManager != nil {
		path, err = g.outputManager.WriteSnapshot(snapshot)
	} else {
		path, err = telemetry.SaveSnapshot(snapshot, snapshotDir)
	}
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "step", snapshot.Step)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := telemetry.CaptureSnapshot(g.engine)
	if snapshot == nil {
		return nil
	}
	snapshot.MapPath = g.mapPath
	snapshot.Bookmark = bookmark
	return snapshot
}
