package telemetry

import (
	"context"
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkLoudest      BookmarkType = "loudest"       // New field-wide pressure peak
	BookmarkSettled      BookmarkType = "settled"       // Field decayed after activity
	BookmarkEnergyGrowth BookmarkType = "energy_growth" // Energy rising with nothing driving it
	BookmarkDiverged     BookmarkType = "diverged"      // Engine halted on a non-finite field
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Step        int64        `csv:"step"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog. Energy growth logs at warn
// level and divergence at error level.
func (b Bookmark) LogBookmark() {
	level := slog.LevelInfo
	switch b.Type {
	case BookmarkEnergyGrowth:
		level = slog.LevelWarn
	case BookmarkDiverged:
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// Thresholds for the detector.
const (
	loudestFactor      = 1.5  // MaxAbs must beat the previous peak by this factor
	settledFraction    = 0.01 // RMS below this fraction of the recent peak RMS
	growthWindows      = 5    // Consecutive unforced windows of rising energy
	growthMinIncrement = 1.01 // Per-window energy ratio counted as rising
)

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	peakMaxAbs    float64 // loudest MaxAbs seen so far
	active        bool    // field has been excited since the last settle
	growthStreak  int     // consecutive unforced windows with rising energy
	growthEmitted bool    // suppress repeats until the streak breaks
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkLoudest(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkEnergyGrowth(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// last returns the most recently added window.
func (bd *BookmarkDetector) last() (WindowStats, bool) {
	if !bd.historyFull && bd.historyIdx == 0 {
		return WindowStats{}, false
	}
	i := (bd.historyIdx - 1 + bd.historySize) % bd.historySize
	return bd.history[i], true
}

func (bd *BookmarkDetector) checkLoudest(stats WindowStats) *Bookmark {
	if stats.MaxAbs <= 0 {
		return nil
	}
	if bd.peakMaxAbs > 0 && stats.MaxAbs < bd.peakMaxAbs*loudestFactor {
		return nil
	}

	old := bd.peakMaxAbs
	bd.peakMaxAbs = stats.MaxAbs
	bd.active = true

	desc := fmt.Sprintf("Peak |p| %.3g", stats.MaxAbs)
	if old > 0 {
		desc = fmt.Sprintf("Peak |p| %.3g is %.1fx previous peak %.3g", stats.MaxAbs, stats.MaxAbs/old, old)
	}
	return &Bookmark{
		Type:        BookmarkLoudest,
		Step:        stats.WindowEndStep,
		Description: desc,
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if !bd.active || stats.ActiveSources > 0 {
		return nil
	}

	var peakRMS float64
	for _, h := range bd.getHistory() {
		peakRMS = max(peakRMS, h.RMS)
	}
	if peakRMS == 0 || stats.RMS >= peakRMS*settledFraction {
		return nil
	}

	bd.active = false
	bd.peakMaxAbs = 0
	return &Bookmark{
		Type:        BookmarkSettled,
		Step:        stats.WindowEndStep,
		Description: fmt.Sprintf("RMS %.3g fell below %.0f%% of recent peak %.3g", stats.RMS, settledFraction*100, peakRMS),
	}
}

func (bd *BookmarkDetector) checkEnergyGrowth(stats WindowStats) *Bookmark {
	prev, ok := bd.last()
	unforced := stats.ActiveSources == 0 && stats.Triggers == 0 && prev.ActiveSources == 0
	rising := ok && prev.Energy > 0 && stats.Energy > prev.Energy*growthMinIncrement

	if !unforced || !rising {
		bd.growthStreak = 0
		bd.growthEmitted = false
		return nil
	}

	bd.growthStreak++
	if bd.growthStreak < growthWindows || bd.growthEmitted {
		return nil
	}

	bd.growthEmitted = true
	return &Bookmark{
		Type:        BookmarkEnergyGrowth,
		Step:        stats.WindowEndStep,
		Description: fmt.Sprintf("Energy rose for %d unforced windows to %.3g", bd.growthStreak, stats.Energy),
	}
}
