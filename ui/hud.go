package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title         string
	MapName       string
	Partitions    int
	Interfaces    int
	Voxels        int
	Step          uint64
	SimTime       float64 // Seconds
	StepsPerFrame int
	FPS           int32
	Paused        bool
	SourceKind    string
	Error         string // Non-empty once the engine has halted
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	// Decomposition summary
	rl.DrawText(
		fmt.Sprintf("%s | Partitions: %d | Interfaces: %d | Voxels: %d", data.MapName, data.Partitions, data.Interfaces, data.Voxels),
		10, 35, 16, rl.LightGray,
	)

	// Simulation info
	rl.DrawText(
		fmt.Sprintf("Step: %d | t = %.2f ms | Speed: %dx | FPS: %d | Source: %s",
			data.Step, data.SimTime*1000, data.StepsPerFrame, data.FPS, data.SourceKind),
		10, 55, 16, rl.LightGray,
	)

	// Status
	switch {
	case data.Error != "":
		rl.DrawText("HALTED: "+data.Error, 10, 75, 16, rl.Red)
	case data.Paused:
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	default:
		rl.DrawText("Running", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseTimes  map[string]time.Duration
	Total       time.Duration
	TicksPerSec float64
}

// PerfPanel renders the per-phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData, sortedNames []string) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s (%.0f steps/s)", data.Total.Round(time.Microsecond), data.TicksPerSec), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range sortedNames {
		avg := data.PhaseTimes[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
