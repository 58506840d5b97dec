// Package game runs the simulation loop for both the windowed viewer and
// headless batch runs, wiring the engine to telemetry, input and rendering.
package game

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pthm-cable/ardsim/camera"
	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/renderer"
	"github.com/pthm-cable/ardsim/sim"
	"github.com/pthm-cable/ardsim/telemetry"
	"github.com/pthm-cable/ardsim/ui"
)

// Telemetry tuning.
const (
	bookmarkHistory  = 20
	perfLogInterval  = 600 // Steps between perf log lines
	minPressureScale = 1e-9
)

// Game holds the complete application state.
type Game struct {
	opts Options

	engine  *sim.Engine
	mapPath string
	halted  bool // Engine error already reported

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	lastStats        telemetry.WindowStats
	pressureBuf      []float64

	// Viewer (nil in headless mode)
	camera        *camera.Camera
	tiles         *renderer.TileRenderer
	field         *renderer.FieldRenderer
	scale         *renderer.ScaleTracker
	fieldBuf      []float64
	uiOverlays    *ui.OverlayRegistry
	hud           *ui.HUD
	controls      *ui.ControlsPanel
	controlsState ui.ControlsState
	inspector     *ui.Inspector
	perfPanel     *ui.PerfPanel
	statsPanel    *ui.FieldStatsPanel
	showPerf      bool

	// Mouse drag state
	pressed   bool // Left button went down outside the panel
	dragging  bool
	dragStart [2]float32

	screenWidth, screenHeight float32
}

// config returns the global configuration.
func (g *Game) config() *config.Config {
	return config.Cfg()
}

// NewGame creates the engine, loads the map and sets up telemetry. The viewer
// is only created when opts.Headless is false; config.Init must have been
// called first.
func NewGame(opts Options) (*Game, error) {
	cfg := config.Cfg()
	if opts.MapPath == "" {
		opts.MapPath = DefaultMapPath
	}
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = max(cfg.Render.StepsPerFrame, 1)
	}

	engineOpts, err := sim.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := sim.New(engineOpts)
	if err != nil {
		return nil, err
	}

	g := &Game{
		opts:             opts,
		engine:           engine,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, engineOpts.DT),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory),
		screenWidth:      float32(cfg.Screen.Width),
		screenHeight:     float32(cfg.Screen.Height),
	}
	engine.SetObserver(g.perfCollector)

	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		engine.Close()
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if err := g.loadMap(opts.MapPath); err != nil {
		g.Unload()
		return nil, err
	}

	if !opts.Headless {
		g.initViewer()
	}

	slog.Info("simulation ready",
		"run_id", g.outputManager.RunID(),
		"map", g.mapPath,
		"spacing", engineOpts.Spacing,
		"dt", engineOpts.DT,
		"steps_per_update", opts.StepsPerUpdate,
		"headless", opts.Headless,
	)
	return g, nil
}

// loadMap replaces the engine's map and restarts telemetry windows.
func (g *Game) loadMap(path string) error {
	if err := g.engine.LoadFile(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	g.mapPath = path
	g.halted = false
	g.collector.Reset()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(bookmarkHistory)
	g.lastStats = telemetry.WindowStats{}

	if g.opts.PerfLog {
		g.logLayout()
	}
	if g.tiles != nil {
		g.tiles.Init(g.engine.Map())
	}
	return nil
}

// initViewer builds the camera, renderers and UI panels.
func (g *Game) initViewer() {
	cfg := g.config()
	m := g.engine.Map()

	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(m.Width()), float32(m.Height()), float32(cfg.Render.TilePixels))
	g.tiles = renderer.NewTileRenderer()
	g.tiles.Init(m)
	g.field = renderer.NewFieldRenderer()
	g.scale = renderer.NewScaleTracker(max(cfg.Render.PressureScale, minPressureScale))

	g.uiOverlays = ui.NewOverlayRegistry()
	g.applyOverlayDefaults()

	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(10, 100, 220)
	g.controlsState = ui.ControlsState{
		SourceKind:    int(g.engine.Options().SourceKind),
		StepsPerFrame: g.opts.StepsPerUpdate,
	}
	g.controls.MaxStepsPerFrame = max(g.controls.MaxStepsPerFrame, g.opts.StepsPerUpdate)
	g.inspector = ui.NewInspector(int32(g.screenWidth)-230, 100, 220)
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-260, int32(g.screenHeight)-140)
	g.statsPanel = ui.NewFieldStatsPanel(int32(g.screenWidth)-230, 10, 220)
}

// Update handles input and advances the simulation by the configured number
// of steps. Stepping stops once the engine has halted.
func (g *Game) Update() {
	g.handleInput()
	g.syncControls()

	if g.controlsState.Paused {
		return
	}

	start := time.Now()
	for i := 0; i < g.controlsState.StepsPerFrame; i++ {
		if err := g.step(); err != nil {
			break
		}
	}
	g.perfCollector.RecordStage("step", time.Since(start))
}

// UpdateHeadless advances the simulation without any graphics.
// It returns the engine error once the simulation has halted.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// step runs one engine tick with timing and telemetry.
func (g *Game) step() error {
	if err := g.engine.Err(); err != nil {
		return err
	}

	g.perfCollector.StartTick()
	err := g.engine.Step()
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.perfCollector.EndTick()

	if err != nil {
		g.reportHalt(err)
		return err
	}

	if g.opts.PerfLog && g.engine.StepCount()%perfLogInterval == 0 {
		g.logPerfStats()
	}
	return nil
}

// reportHalt logs the engine error once and renders the diverged field for
// inspection.
func (g *Game) reportHalt(err error) {
	if g.halted {
		return
	}
	g.halted = true
	slog.Error("simulation halted", "step", g.engine.StepCount(), "error", err)

	var bm *telemetry.Bookmark
	if g.engine.Diverged() {
		bm = &telemetry.Bookmark{
			Type:        telemetry.BookmarkDiverged,
			Step:        int64(g.engine.StepCount()),
			Description: err.Error(),
		}
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(*bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
	if g.outputManager == nil {
		return
	}
	// JSON cannot hold the non-finite samples, so the halted field goes to a
	// heatmap instead of a snapshot.
	s := g.createSnapshot(bm)
	if s == nil {
		return
	}
	f, ferr := s.Field()
	if ferr != nil {
		slog.Error("failed to build field", "error", ferr)
		return
	}
	title := fmt.Sprintf("%s  diverged at step %d", filepath.Base(g.mapPath), s.Step)
	if path, err := g.outputManager.WriteHeatmap("diverged.png", f, title); err != nil {
		slog.Error("failed to write heatmap", "error", err)
	} else {
		slog.Info("heatmap saved", "path", path)
	}
}

// touch installs a source at a world position and records the outcome.
func (g *Game) touch(x, y float64) {
	if g.engine.Touch(x, y) {
		g.collector.RecordTrigger()
		return
	}
	g.collector.RecordTouchMissed()
}

// reload re-reads the current map from disk.
func (g *Game) reload() {
	if err := g.loadMap(g.mapPath); err != nil {
		slog.Error("reload failed", "map", g.mapPath, "error", err)
	}
}

// reset zeroes the field and clears every source.
func (g *Game) reset() {
	g.engine.Reset()
	g.halted = false
	g.collector.Reset()
	if g.scale != nil {
		g.scale.Value = g.scale.Floor
	}
}

// Finish writes end-of-run output: the final snapshot and heatmap.
func (g *Game) Finish() {
	if g.opts.Heatmap == "" && g.outputManager == nil {
		return
	}

	s := g.createSnapshot(nil)
	if s == nil {
		return
	}

	f, err := s.Field()
	if err != nil {
		slog.Error("failed to build field", "error", err)
		return
	}
	title := fmt.Sprintf("%s  t = %.2f ms", filepath.Base(g.mapPath), s.Time*1000)

	if g.opts.Heatmap != "" {
		if err := telemetry.WriteHeatmap(g.opts.Heatmap, f, title); err != nil {
			slog.Error("failed to write heatmap", "path", g.opts.Heatmap, "error", err)
		} else {
			slog.Info("heatmap saved", "path", g.opts.Heatmap)
		}
	}
	if g.outputManager != nil {
		if path, err := g.outputManager.WriteHeatmap("final.png", f, title); err != nil {
			slog.Error("failed to write heatmap", "error", err)
		} else {
			slog.Info("heatmap saved", "path", path)
		}
		if g.engine.Err() != nil {
			return
		}
		if path, err := g.outputManager.WriteSnapshot(s); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "step", s.Step)
		}
	}
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.tiles != nil {
		g.tiles.Unload()
	}
	if g.field != nil {
		g.field.Unload()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
	g.engine.Close()
}

// Engine returns the simulation engine.
func (g *Game) Engine() *sim.Engine {
	return g.engine
}

// StepCount returns the number of completed simulation steps.
func (g *Game) StepCount() uint64 {
	return g.engine.StepCount()
}

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats {
	return g.lastStats
}
