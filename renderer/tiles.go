package renderer

import (
	"log/slog"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ardsim/camera"
	"github.com/pthm-cable/ardsim/tilemap"
)

// TileRenderer draws the solid tiles of the coarse map, from the map's
// tileset atlas when one is available and as shaded blocks otherwise.
type TileRenderer struct {
	atlas    rl.Texture2D
	hasAtlas bool
}

// NewTileRenderer creates a new tile renderer.
func NewTileRenderer() *TileRenderer {
	return &TileRenderer{}
}

// Init loads the tileset atlas (must be called after raylib window is created).
func (r *TileRenderer) Init(m *tilemap.Map) {
	r.Unload()
	if m == nil || m.Tileset == nil || m.Tileset.ImagePath == "" {
		return
	}
	if _, err := os.Stat(m.Tileset.ImagePath); err != nil {
		slog.Warn("tileset image missing, using flat tiles", "path", m.Tileset.ImagePath, "error", err)
		return
	}
	r.atlas = rl.LoadTexture(m.Tileset.ImagePath)
	r.hasAtlas = r.atlas.ID != 0
}

// Draw renders the solid tiles visible through the camera.
func (r *TileRenderer) Draw(cam *camera.Camera, m *tilemap.Map) {
	if m == nil {
		return
	}

	height := float32(m.Height())
	for row := 0; row < m.Rows; row++ {
		top := height - float32(row)
		for col := 0; col < m.Cols; col++ {
			if !m.Solid(row, col) {
				continue
			}
			if !cam.IsVisible(float32(col), top-1, float32(col+1), top) {
				continue
			}

			sx, sy := cam.WorldToScreen(float32(col), top)
			dst := rl.Rectangle{X: sx, Y: sy, Width: cam.Zoom, Height: cam.Zoom}

			if r.hasAtlas && m.Tileset.Columns > 0 {
				ts := m.Tileset
				id := m.Tile(row, col) - 1
				src := rl.Rectangle{
					X:      float32((id % ts.Columns) * ts.TileWidth),
					Y:      float32((id / ts.Columns) * ts.TileHeight),
					Width:  float32(ts.TileWidth),
					Height: float32(ts.TileHeight),
				}
				rl.DrawTexturePro(r.atlas, src, dst, rl.Vector2{}, 0, rl.White)
				continue
			}

			// Depth-based color - darker towards the bottom of the map
			depthDarken := 1.0 - float32(row)/float32(m.Rows)*0.4
			gray := float32(70 + 10*(m.Tile(row, col)%3))
			base := rl.Color{
				R: uint8(gray * depthDarken),
				G: uint8((gray + 5) * depthDarken),
				B: uint8((gray + 12) * depthDarken),
				A: 255,
			}
			rl.DrawRectangleRec(dst, base)
			r.drawTileEdges(m, row, col, dst, base)
		}
	}
}

// drawTileEdges adds highlights and shadows where a tile borders air.
func (r *TileRenderer) drawTileEdges(m *tilemap.Map, row, col int, dst rl.Rectangle, base rl.Color) {
	edge := max(dst.Width*0.12, 1)

	// Top edge highlight (light from above)
	if !m.Solid(row-1, col) {
		rl.DrawRectangleRec(rl.Rectangle{X: dst.X, Y: dst.Y, Width: dst.Width, Height: edge}, lighten(base, 40, 200))
	}

	// Bottom edge shadow
	if !m.Solid(row+1, col) {
		rl.DrawRectangleRec(rl.Rectangle{X: dst.X, Y: dst.Y + dst.Height - edge, Width: dst.Width, Height: edge}, darken(base, 0.6, 200))
	}

	// Left edge (slight highlight)
	if !m.Solid(row, col-1) {
		rl.DrawRectangleRec(rl.Rectangle{X: dst.X, Y: dst.Y, Width: edge, Height: dst.Height}, lighten(base, 20, 150))
	}

	// Right edge shadow
	if !m.Solid(row, col+1) {
		rl.DrawRectangleRec(rl.Rectangle{X: dst.X + dst.Width - edge, Y: dst.Y, Width: edge, Height: dst.Height}, darken(base, 0.7, 150))
	}
}

func lighten(c rl.Color, amount float64, alpha uint8) rl.Color {
	return rl.Color{
		R: uint8(math.Min(float64(c.R)+amount, 255)),
		G: uint8(math.Min(float64(c.G)+amount, 255)),
		B: uint8(math.Min(float64(c.B)+amount+5, 255)),
		A: alpha,
	}
}

func darken(c rl.Color, factor float32, alpha uint8) rl.Color {
	return rl.Color{
		R: uint8(float32(c.R) * factor),
		G: uint8(float32(c.G) * factor),
		B: uint8(float32(c.B) * factor),
		A: alpha,
	}
}

// Unload frees resources.
func (r *TileRenderer) Unload() {
	if r.hasAtlas {
		rl.UnloadTexture(r.atlas)
		r.hasAtlas = false
	}
}
