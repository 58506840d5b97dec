package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/pthm-cable/ardsim/camera"
	"github.com/pthm-cable/ardsim/voxel"
)

// colormapSize is the number of entries in each lookup table.
const colormapSize = 256

// Colormap is a precomputed lookup table over [0, 1].
type Colormap []color.RGBA

// SignedColormap returns a blue-white-red diverging map; 0.5 is silence.
func SignedColormap() Colormap {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	cm.SetConvergePoint(0.5)
	return toLUT(cm.Palette(colormapSize).Colors())
}

// MagnitudeColormap returns a heat map that fades in from black over the
// first quarter so silence stays dark.
func MagnitudeColormap() Colormap {
	lut := toLUT(palette.Heat(colormapSize, 1).Colors())
	ramp := len(lut) / 4
	for i := range ramp {
		k := float64(i) / float64(ramp)
		lut[i].R = uint8(float64(lut[i].R) * k)
		lut[i].G = uint8(float64(lut[i].G) * k)
		lut[i].B = uint8(float64(lut[i].B) * k)
	}
	return lut
}

func toLUT(cols []color.Color) Colormap {
	lut := make(Colormap, len(cols))
	for i, c := range cols {
		lut[i] = color.RGBAModel.Convert(c).(color.RGBA)
		lut[i].A = 255
	}
	return lut
}

// At returns the colour for t in [0, 1]; values outside are clamped.
func (cm Colormap) At(t float64) color.RGBA {
	if !(t > 0) {
		return cm[0]
	}
	if t >= 1 {
		return cm[len(cm)-1]
	}
	return cm[int(t*float64(len(cm)-1)+0.5)]
}

// ScaleTracker follows the loudest recent pressure so quiet fields stay
// visible. The scale jumps up immediately and decays slowly.
type ScaleTracker struct {
	Value float64
	Decay float64 // Per-update multiplier applied while the field is quieter
	Floor float64 // Scale never drops below this
}

// NewScaleTracker creates a tracker starting at floor.
func NewScaleTracker(floor float64) *ScaleTracker {
	return &ScaleTracker{Value: floor, Decay: 0.98, Floor: floor}
}

// Update folds in the current field maximum and returns the new scale.
func (s *ScaleTracker) Update(maxAbs float64) float64 {
	if math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return s.Value
	}
	if maxAbs > s.Value {
		s.Value = maxAbs
	} else {
		s.Value = max(s.Value*s.Decay, maxAbs, s.Floor)
	}
	return s.Value
}

// FieldRenderer draws the pressure grid as a nearest-filtered texture, one
// texel per voxel. Solid voxels are transparent.
type FieldRenderer struct {
	texture    rl.Texture2D
	pixels     []color.RGBA
	rows, cols int

	signed    Colormap
	magnitude Colormap

	initialized bool
}

// NewFieldRenderer creates a new field renderer.
func NewFieldRenderer() *FieldRenderer {
	return &FieldRenderer{
		signed:    SignedColormap(),
		magnitude: MagnitudeColormap(),
	}
}

// Init allocates the texture (must be called after raylib window is created).
// Calling it again with a new size replaces the texture.
func (f *FieldRenderer) Init(rows, cols int) {
	if f.initialized && rows == f.rows && cols == f.cols {
		return
	}
	f.Unload()

	img := rl.GenImageColor(cols, rows, rl.Blank)
	f.texture = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(f.texture, rl.FilterPoint)
	rl.UnloadImage(img)

	f.rows = rows
	f.cols = cols
	f.pixels = make([]color.RGBA, rows*cols)
	f.initialized = true
}

// Colorize fills dst with colours for values at the given scale.
// NaN values become fully transparent.
func Colorize(dst []color.RGBA, values []float64, scale float64, cm Colormap, signed bool) {
	if scale <= 0 {
		scale = 1
	}
	for i, v := range values {
		dst[i] = colorFor(v, scale, cm, signed)
	}
}

func colorFor(v, scale float64, cm Colormap, signed bool) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{}
	}
	t := math.Abs(v) / scale
	if signed {
		t = 0.5 + 0.5*v/scale
	}
	return cm.At(t)
}

// ColorFor returns the colour Update would give a single pressure value.
func (f *FieldRenderer) ColorFor(v, scale float64, signed bool) color.RGBA {
	if scale <= 0 {
		scale = 1
	}
	if signed {
		return colorFor(v, scale, f.signed, true)
	}
	return colorFor(v, scale, f.magnitude, false)
}

// Update uploads a row-major pressure grid. Signed selects the diverging map.
func (f *FieldRenderer) Update(values []float64, rows, cols int, scale float64, signed bool) {
	f.Init(rows, cols)
	if len(values) != rows*cols {
		return
	}

	cm := f.magnitude
	if signed {
		cm = f.signed
	}
	Colorize(f.pixels, values, scale, cm, signed)
	rl.UpdateTexture(f.texture, f.pixels)
}

// Draw renders the field texture over the grid's world extent.
func (f *FieldRenderer) Draw(cam *camera.Camera, g *voxel.Grid) {
	if !f.initialized || g == nil {
		return
	}

	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(f.cols), Height: float32(f.rows)}
	dstRect := gridRect(cam, g, voxel.Rect{W: g.Cols, H: g.Rows})
	rl.DrawTexturePro(f.texture, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (f *FieldRenderer) Unload() {
	if !f.initialized {
		return
	}
	rl.UnloadTexture(f.texture)
	f.initialized = false
}

// gridRect converts a block of voxels to a screen rectangle.
func gridRect(cam *camera.Camera, g *voxel.Grid, r voxel.Rect) rl.Rectangle {
	h := float32(g.Spacing)
	top := float32(g.Height) - float32(r.Row)*h
	sx, sy := cam.WorldToScreen(float32(r.Col)*h, top)
	return rl.Rectangle{
		X:      sx,
		Y:      sy,
		Width:  float32(r.W) * h * cam.Zoom,
		Height: float32(r.H) * h * cam.Zoom,
	}
}
