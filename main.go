package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapPath := flag.String("map", game.DefaultMapPath, "Path to a Tiled JSON map")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	perfLog := flag.Bool("perf", false, "Log layout and per-phase step timing")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulated seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config, snapshots and heatmaps")
	heatmap := flag.String("heatmap", "", "Write the final pressure field to this PNG (headless)")
	snapshots := flag.Bool("snapshots", false, "Save a field snapshot for every bookmark")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 0, "Simulation steps per update call (0 = use config)")
	touchX := flag.Float64("touch-x", -1, "Headless: world x of an initial source (negative = none)")
	touchY := flag.Float64("touch-y", -1, "Headless: world y of an initial source")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Use config stats window if not overridden by CLI
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	opts := game.Options{
		MapPath:        *mapPath,
		Headless:       *headless,
		LogStats:       *logStats,
		PerfLog:        *perfLog,
		OutputDir:      *outputDir,
		Heatmap:        *heatmap,
		Snapshots:      *snapshots,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGame(opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		if *touchX >= 0 && *touchY >= 0 {
			if !g.Engine().Touch(*touchX, *touchY) {
				slog.Warn("initial touch outside every partition", "x", *touchX, "y", *touchY)
			}
		}

		slog.Info("starting headless simulation",
			"map", *mapPath,
			"max_steps", *maxSteps,
			"stats_window", cfg.Telemetry.StatsWindow,
		)

		for {
			if err := g.UpdateHeadless(); err != nil {
				break
			}
			if *maxSteps > 0 && g.StepCount() >= uint64(*maxSteps) {
				slog.Info("max steps reached", "step", g.StepCount())
				break
			}
		}
		g.Finish()
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Acoustic Decomposition")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	// Escape closes the window (raylib's default exit key)
	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxSteps > 0 && g.StepCount() >= uint64(*maxSteps) {
			break
		}
	}
	g.Finish()
}
