package game

import (
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/telemetry"
	"github.com/pthm-cable/ardsim/ui"
)

// backgroundColor fills solid space outside the map.
var backgroundColor = rl.Color{R: 12, G: 14, B: 18, A: 255}

// Draw renders the game state.
func (g *Game) Draw() {
	start := time.Now()
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	if g.engine.Loaded() {
		// Field first so tiles and overlays sit on top
		g.drawFieldLayer()
		g.tiles.Draw(g.camera, g.engine.Map())
		g.drawActiveOverlays()
	}

	g.drawUI()

	rl.EndDrawing()
	g.perfCollector.RecordStage("draw", time.Since(start))
	g.perfCollector.RecordFrame()
}

// drawUI renders the HUD and panels.
func (g *Game) drawUI() {
	hudData := ui.HUDData{
		Title:         "Acoustic Decomposition",
		MapName:       filepath.Base(g.mapPath),
		StepsPerFrame: g.controlsState.StepsPerFrame,
		FPS:           rl.GetFPS(),
		Paused:        g.controlsState.Paused,
		SourceKind:    ui.SourceKinds[g.controlsState.SourceKind],
		Step:          g.engine.StepCount(),
		SimTime:       g.engine.Time(),
	}
	if grid := g.engine.Grid(); grid != nil {
		hudData.Partitions = len(g.engine.Partitions())
		hudData.Interfaces = len(g.engine.Interfaces())
		hudData.Voxels = grid.FreeCount()
	}
	if err := g.engine.Err(); err != nil {
		hudData.Error = err.Error()
	}
	g.hud.Draw(hudData)

	// Panel edits are applied on the next Update via syncControls
	action := g.controls.Draw(g.uiOverlays, &g.controlsState)
	if action.Reset {
		g.reset()
	}
	if action.Reload {
		g.reload()
	}
	if action.Step {
		g.step()
	}

	stats := g.lastStats
	g.statsPanel.Draw(ui.FieldStatsData{
		RMS:       stats.RMS,
		MaxAbs:    stats.MaxAbs,
		Energy:    stats.Energy,
		PeakGain:  stats.PeakGain,
		Sources:   g.engine.ActiveSources(),
		WindowEnd: stats.WindowEndStep,
	})

	if probe, ok := g.probeAtMouse(); ok {
		g.inspector.Draw(probe)
	}

	if g.showPerf {
		ps := g.perfCollector.Stats()
		names := make([]string, 0, len(ps.PhaseAvg))
		for _, name := range telemetry.PhaseNames() {
			if _, ok := ps.PhaseAvg[name]; ok {
				names = append(names, name)
			}
		}
		g.perfPanel.Draw(ui.PerfPanelData{
			PhaseTimes:  ps.PhaseAvg,
			Total:       ps.AvgTickDuration,
			TicksPerSec: ps.TicksPerSecond,
		}, names)
	}

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)
}
