package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/sim"
)

// dragThreshold is how far the mouse must move before a click becomes a pan.
const dragThreshold = 4

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.controlsState.Paused = !g.controlsState.Paused
	}
	if g.controlsState.Paused && rl.IsKeyPressed(rl.KeyN) {
		g.step()
	}

	// Steps-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.controlsState.StepsPerFrame > 1 {
		g.controlsState.StepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.controlsState.StepsPerFrame < g.controls.MaxStepsPerFrame {
		g.controlsState.StepsPerFrame++
	}

	// Source kind: 1 impulse, 2 gaussian, 3 ricker
	for i, key := range []int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree} {
		if rl.IsKeyPressed(key) {
			g.controlsState.SourceKind = i
		}
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyL) {
		g.reload()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}

	g.handleOverlayKeys()

	// Camera controls
	g.handleCameraInput()
	g.handleMouse()
}

// syncControls applies panel state to the engine.
func (g *Game) syncControls() {
	kind := sim.SourceKind(g.controlsState.SourceKind)
	if kind != g.engine.Options().SourceKind {
		g.engine.SetSourceKind(kind)
		slog.Debug("source kind changed", "kind", kind)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.inspector.SetPosition(int32(w)-230, 100)
	g.statsPanel.SetPosition(int32(w)-230, 10)
	g.perfPanel.SetPosition(int32(w)-260, int32(h)-140)
}

// handleCameraInput processes keyboard pan and zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom toward/away from cursor position
	wheelMove := rl.GetMouseWheelMove()
	if wheelMove != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(1+wheelMove*0.1, mouse.X, mouse.Y)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleMouse turns a left click into a touch and a left drag into a pan.
// Clicks on the controls panel are left to the panel.
func (g *Game) handleMouse() {
	mouse := rl.GetMousePosition()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		if g.controls.Contains(mouse.X, mouse.Y, g.uiOverlays) {
			return
		}
		g.dragStart = [2]float32{mouse.X, mouse.Y}
		g.dragging = false
		g.pressed = true
	}
	if !g.pressed {
		return
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		dx := mouse.X - g.dragStart[0]
		dy := mouse.Y - g.dragStart[1]
		if !g.dragging && dx*dx+dy*dy > dragThreshold*dragThreshold {
			g.dragging = true
		}
		if g.dragging {
			delta := rl.GetMouseDelta()
			g.camera.Pan(-delta.X, -delta.Y)
		}
	}

	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		if !g.dragging {
			wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
			g.touch(float64(wx), float64(wy))
		}
		g.dragging = false
		g.pressed = false
	}
}

// handleOverlayKeys checks for overlay toggle key presses.
func (g *Game) handleOverlayKeys() {
	for _, desc := range g.uiOverlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			g.uiOverlays.Toggle(desc.ID)
		}
	}
}

// controlsLegend is drawn along the bottom of the window.
var controlsLegend = "Click: source | Drag: pan | Wheel: zoom | Space: pause | N: step | 1-3: source kind | " +
	"</>: speed | R: reset | L: reload | Tab: panel | F3: perf | Esc: quit"
