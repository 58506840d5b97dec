package game

import (
	"github.com/pthm-cable/ardsim/renderer"
	"github.com/pthm-cable/ardsim/ui"
)

// applyOverlayDefaults enables the overlays selected in the render config.
func (g *Game) applyOverlayDefaults() {
	r := g.config().Render
	g.uiOverlays.SetEnabled(ui.OverlayPressure, r.ShowPressure)
	g.uiOverlays.SetEnabled(ui.OverlayGrid, r.ShowGrid)
	g.uiOverlays.SetEnabled(ui.OverlayPartitions, r.ShowPartitions)
	g.uiOverlays.SetEnabled(ui.OverlayInterfaces, r.ShowInterfaces)
	g.uiOverlays.SetEnabled(ui.OverlaySources, true)
}

// drawFieldLayer draws the pressure texture when a field overlay is enabled.
func (g *Game) drawFieldLayer() {
	signed := g.uiOverlays.IsEnabled(ui.OverlayPressure)
	if !signed && !g.uiOverlays.IsEnabled(ui.OverlayMagnitude) {
		return
	}

	grid := g.engine.Grid()
	g.fieldBuf = g.engine.PressureGrid(g.fieldBuf)
	g.field.Update(g.fieldBuf, grid.Rows, grid.Cols, g.pressureScale(), signed)
	g.field.Draw(g.camera, grid)
}

// pressureScale returns the pressure mapped to full colour intensity.
func (g *Game) pressureScale() float64 {
	r := g.config().Render
	if !r.AutoScale {
		g.scale.Value = r.PressureScale
		return r.PressureScale
	}
	var peak float64
	for _, v := range g.fieldBuf {
		// NaN marks solid voxels and fails both comparisons
		if v > peak {
			peak = v
		} else if -v > peak {
			peak = -v
		}
	}
	return g.scale.Update(peak)
}

// drawActiveOverlays renders all currently enabled layout overlays.
func (g *Game) drawActiveOverlays() {
	for _, id := range g.uiOverlays.EnabledOverlays() {
		switch id {
		case ui.OverlayGrid:
			renderer.DrawGrid(g.camera, g.engine.Grid())
		case ui.OverlayInterfaces:
			renderer.DrawInterfaces(g.camera, g.engine.Layout())
		case ui.OverlayPartitions:
			renderer.DrawPartitions(g.camera, g.engine.Layout())
		case ui.OverlayOrigin:
			renderer.DrawOrigin(g.camera)
		case ui.OverlaySources:
			renderer.DrawSources(g.camera, g.engine)
		// Pressure and magnitude are drawn by drawFieldLayer
		}
	}
}
