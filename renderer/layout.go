package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/camera"
	"github.com/pthm-cable/ardsim/sim"
	"github.com/pthm-cable/ardsim/voxel"
)

// Overlay colours.
var (
	gridColor      = rl.Color{R: 255, G: 255, B: 255, A: 28}
	partitionColor = rl.Color{R: 120, G: 220, B: 255, A: 200}
	originColor    = rl.Color{R: 255, G: 220, B: 60, A: 255}
	sourceColor    = rl.Color{R: 255, G: 160, B: 40, A: 255}
)

// interfaceColors tints interfaces by direction: up, down, left, right.
var interfaceColors = [4]rl.Color{
	{R: 120, G: 255, B: 120, A: 150},
	{R: 60, G: 180, B: 60, A: 150},
	{R: 255, G: 120, B: 220, A: 150},
	{R: 180, G: 60, B: 160, A: 150},
}

// minGridPixels hides grid lines once voxels are too small to see them.
const minGridPixels = 4

// DrawGrid draws voxel boundaries over the visible part of the grid.
func DrawGrid(cam *camera.Camera, g *voxel.Grid) {
	if g == nil || float32(g.Spacing)*cam.Zoom < minGridPixels {
		return
	}

	full := gridRect(cam, g, voxel.Rect{W: g.Cols, H: g.Rows})
	step := float32(g.Spacing) * cam.Zoom

	for c := 0; c <= g.Cols; c++ {
		x := full.X + float32(c)*step
		if x < 0 || x > cam.ViewportW {
			continue
		}
		rl.DrawLineV(rl.Vector2{X: x, Y: full.Y}, rl.Vector2{X: x, Y: full.Y + full.Height}, gridColor)
	}
	for r := 0; r <= g.Rows; r++ {
		y := full.Y + float32(r)*step
		if y < 0 || y > cam.ViewportH {
			continue
		}
		rl.DrawLineV(rl.Vector2{X: full.X, Y: y}, rl.Vector2{X: full.X + full.Width, Y: y}, gridColor)
	}
}

// DrawPartitions outlines every partition rectangle.
func DrawPartitions(cam *camera.Camera, l *voxel.Layout) {
	if l == nil {
		return
	}
	for _, rect := range l.Rects {
		rl.DrawRectangleLinesEx(gridRect(cam, l.Grid, rect), 1.5, partitionColor)
	}
}

// DrawInterfaces shades the owner-side cells of every interface.
func DrawInterfaces(cam *camera.Camera, l *voxel.Layout) {
	if l == nil {
		return
	}
	for _, in := range l.AllInterfaces() {
		rl.DrawRectangleRec(gridRect(cam, l.Grid, in.Rect), interfaceColors[in.Dir])
	}
}

// DrawOrigin marks the world origin with unit-length axes.
func DrawOrigin(cam *camera.Camera) {
	ox, oy := cam.WorldToScreen(0, 0)
	xx, xy := cam.WorldToScreen(1, 0)
	yx, yy := cam.WorldToScreen(0, 1)

	rl.DrawLineEx(rl.Vector2{X: ox, Y: oy}, rl.Vector2{X: xx, Y: xy}, 2, rl.Red)
	rl.DrawLineEx(rl.Vector2{X: ox, Y: oy}, rl.Vector2{X: yx, Y: yy}, 2, rl.Green)
	rl.DrawCircleV(rl.Vector2{X: ox, Y: oy}, 4, originColor)
}

// DrawSources rings every voxel with an active point source.
func DrawSources(cam *camera.Camera, e *sim.Engine) {
	g := e.Grid()
	if g == nil {
		return
	}
	radius := max(float32(g.Spacing)*cam.Zoom, 6)
	for _, p := range e.Partitions() {
		if !p.Source.Active() {
			continue
		}
		row, col := p.Rect.Cell(p.Source.Index)
		x, y := g.CellCenter(row, col)
		sx, sy := cam.WorldToScreen(float32(x), float32(y))

		// Ring shrinks as the pulse plays out
		left := float32(1)
		if p.Source.Total > 0 {
			left = float32(p.Source.Remaining / p.Source.Total)
		}
		rl.DrawCircleLines(int32(sx), int32(sy), radius*(0.5+left), sourceColor)
	}
}
