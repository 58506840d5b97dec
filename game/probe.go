package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/ui"
)

// probeAtMouse describes the voxel under the cursor, or returns false when
// the cursor is outside the grid.
func (g *Game) probeAtMouse() (*ui.ProbeData, bool) {
	grid := g.engine.Grid()
	if grid == nil {
		return nil, false
	}

	mouse := rl.GetMousePosition()
	wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
	row, col, ok := grid.WorldToCell(float64(wx), float64(wy))
	if !ok {
		return nil, false
	}

	x, y := grid.CellCenter(row, col)
	probe := &ui.ProbeData{Row: row, Col: col, X: x, Y: y}

	slot, ok := g.engine.Lookup().At(row, col)
	if !ok {
		return probe, true
	}
	p := g.engine.Partition(int(slot.Partition))

	probe.Owned = true
	probe.Partition = p.ID
	probe.LocalIndex = int(slot.Offset)
	probe.Rect = [4]int{p.Rect.Row, p.Rect.Col, p.Rect.W, p.Rect.H}
	probe.Interfaces = len(p.Interfaces)
	probe.Pressure = p.Pressure()[slot.Offset]
	probe.Scale = g.scale.Value
	probe.Color = g.field.ColorFor(probe.Pressure, probe.Scale, !g.uiOverlays.IsEnabled(ui.OverlayMagnitude))

	if p.Source.Active() {
		probe.SourceKind = p.Source.Kind.String()
		probe.SourceProgress = 1 - p.Source.Remaining/p.Source.Total
		probe.SourceHere = p.Source.Index == int(slot.Offset)
	}
	return probe, true
}
