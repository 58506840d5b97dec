package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// SourceKinds lists the source shapes offered by the controls panel, in
// toggle-group order.
var SourceKinds = []string{"impulse", "gaussian", "ricker"}

// ControlsState is the viewer state edited by the controls panel.
type ControlsState struct {
	SourceKind    int // Index into SourceKinds
	StepsPerFrame int
	Paused        bool
}

// ControlsAction reports one-shot requests made through the panel this frame.
type ControlsAction struct {
	Reset  bool // Zero the field and clear sources
	Reload bool // Reload the map from disk
	Step   bool // Advance one step while paused
}

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	MaxStepsPerFrame int
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer:         NewRenderer(),
		x:                x,
		y:                y,
		width:            width,
		visible:          false,
		MaxStepsPerFrame: 32,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies over the visible panel, so
// clicks on widgets are not forwarded to the simulation.
func (c *ControlsPanel) Contains(sx, sy float32, overlays *OverlayRegistry) bool {
	if !c.visible {
		return false
	}
	return sx >= float32(c.x) && sx <= float32(c.x+c.width) &&
		sy >= float32(c.y) && sy <= float32(c.y+c.height(overlays))
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	padding := c.renderer.Theme.Padding
	lineHeight := c.renderer.Theme.LineHeight

	totalItems := int32(0)
	for _, cat := range overlays.Categories() {
		totalItems += int32(len(overlays.ByCategory(cat))) + 1 // +1 for category header
	}
	// Title, overlays, then the simulation widgets
	return padding*3 + lineHeight + 4 + totalItems*(lineHeight+2) + 190
}

// Draw renders the controls panel and applies widget edits to state.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry, state *ControlsState) ControlsAction {
	var action ControlsAction
	if !c.visible {
		return action
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := float32(c.width - padding*2)

	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	y := c.y + padding
	x := float32(c.x + padding)

	// Title
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	// Draw overlays by category
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays)
			y += lineHeight + 2
		}
	}
	y += padding

	// Simulation controls
	rl.DrawText("Simulation", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	rl.DrawText("Source", c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	kind := gui.ToggleGroup(
		rl.Rectangle{X: x, Y: float32(y), Width: (inner - 4) / float32(len(SourceKinds)), Height: 20},
		"Impulse;Gaussian;Ricker",
		int32(state.SourceKind),
	)
	state.SourceKind = int(kind)
	y += 28

	rl.DrawText(fmt.Sprintf("Steps/frame: %d", state.StepsPerFrame), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	steps := gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: inner - 30, Height: 16},
		"", fmt.Sprintf("%d", c.MaxStepsPerFrame),
		float32(state.StepsPerFrame), 1, float32(c.MaxStepsPerFrame),
	)
	state.StepsPerFrame = max(1, int(steps+0.5))
	y += 26

	half := (inner - 6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 24}, "Step") {
		action.Step = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Reset Field") {
		action.Reset = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 24}, "Reload Map") {
		action.Reload = true
	}

	return action
}

// drawToggle draws a single overlay checkbox with its key binding.
func (c *ControlsPanel) drawToggle(x float32, y int32, desc OverlayDescriptor, overlays *OverlayRegistry) {
	r := c.renderer

	enabled := overlays.IsEnabled(desc.ID)
	checked := gui.CheckBox(rl.Rectangle{X: x, Y: float32(y + 2), Width: 10, Height: 10}, desc.Name, enabled)
	if checked != enabled {
		overlays.SetEnabled(desc.ID, checked)
	}

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, c.x+c.width-r.Theme.Padding-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "field":
		return "Field"
	case "layout":
		return "Layout"
	default:
		return cat
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

// FieldStatsData holds the most recent telemetry window for display.
type FieldStatsData struct {
	RMS       float64
	MaxAbs    float64
	Energy    float64
	PeakGain  float64
	Sources   int
	WindowEnd int64
}

// FieldStatsPanel renders quick statistics about the pressure field.
type FieldStatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewFieldStatsPanel creates a new field stats panel.
func NewFieldStatsPanel(x, y, width int32) *FieldStatsPanel {
	return &FieldStatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (q *FieldStatsPanel) SetPosition(x, y int32) {
	q.x = x
	q.y = y
}

// Draw renders the field stats panel.
func (q *FieldStatsPanel) Draw(data FieldStatsData) int32 {
	r := q.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	panelHeight := lineHeight*7 + padding*2

	r.DrawPanel(q.x, q.y, q.width, panelHeight)

	y := q.y + padding

	// Title
	rl.DrawText("Field Stats", q.x+padding, y, 14, rl.White)
	y += lineHeight + 2

	w := q.width - padding*2
	y = r.DrawLabelValue(q.x+padding, y, "RMS", fmt.Sprintf("%.3g", data.RMS), w)
	y = r.DrawLabelValue(q.x+padding, y, "Max |p|", fmt.Sprintf("%.3g", data.MaxAbs), w)
	y = r.DrawLabelValue(q.x+padding, y, "Energy", fmt.Sprintf("%.3g", data.Energy), w)
	y = r.DrawLabelValue(q.x+padding, y, "Gain", fmt.Sprintf("%.2fx", data.PeakGain), w)
	y = r.DrawLabelValue(q.x+padding, y, "Sources", fmt.Sprintf("%d", data.Sources), w)

	return y
}
