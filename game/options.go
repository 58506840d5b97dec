package game

// Screen dimensions used when no config is loaded.
const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// DefaultMapPath is loaded when no map is given on the command line.
const DefaultMapPath = "maps/demo.json"

// Options holds configuration for game initialization.
type Options struct {
	MapPath        string
	Headless       bool
	LogStats       bool   // Log window stats and bookmarks via slog
	PerfLog        bool   // Periodically log per-phase step timing
	OutputDir      string // CSV logs, config, snapshots and heatmaps (empty = disabled)
	Heatmap        string // Final pressure heatmap PNG for headless runs (empty = disabled)
	Snapshots      bool   // Save a field snapshot for every bookmark
	StepsPerUpdate int    // Steps per Update call; 0 uses the render config
}

// DefaultOptions returns the default game options.
func DefaultOptions() Options {
	return Options{
		MapPath: DefaultMapPath,
	}
}
