// Package voxel turns a coarse tile map into the fine simulation grid and
// decomposes its free space into rectangular partitions with interfaces.
//
// Fine-grid row 0 is the top of the map. World coordinates have y pointing up,
// so a cell at (r, c) has its centre at ((c+0.5)h, mapHeight-(r+0.5)h).
package voxel

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/ardsim/tilemap"
)

// ErrGeometry is returned when a map cannot be rasterized.
var ErrGeometry = errors.New("invalid geometry")

// Grid is the fine voxel classification grid. It is immutable once built.
type Grid struct {
	Rows    int
	Cols    int
	Spacing float64 // World units per voxel
	Height  float64 // World height of the source map
	Width   float64 // World width of the source map
	solid   []bool
}

// Rasterize samples the coarse map at the centre of every fine cell.
// The fine grid has floor(rows/h) x floor(cols/h) cells.
func Rasterize(m *tilemap.Map, spacing float64) (*Grid, error) {
	if m == nil || m.Rows <= 0 || m.Cols <= 0 {
		return nil, fmt.Errorf("%w: empty coarse map", ErrGeometry)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("%w: voxel spacing %v", ErrGeometry, spacing)
	}

	rows := int(math.Floor(float64(m.Rows) / spacing))
	cols := int(math.Floor(float64(m.Cols) / spacing))
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: spacing %v leaves a %dx%d grid", ErrGeometry, spacing, rows, cols)
	}

	g := &Grid{
		Rows:    rows,
		Cols:    cols,
		Spacing: spacing,
		Height:  m.Height(),
		Width:   m.Width(),
		solid:   make([]bool, rows*cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := g.CellCenter(r, c)
			tileRow := int(math.Floor(g.Height - y))
			tileCol := int(math.Floor(x))
			g.solid[r*cols+c] = m.Solid(tileRow, tileCol)
		}
	}
	return g, nil
}

// InBounds reports whether (r, c) lies inside the grid.
func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.Rows && c >= 0 && c < g.Cols
}

// Index returns the row-major index of (r, c). The cell must be in bounds.
func (g *Grid) Index(r, c int) int {
	return r*g.Cols + c
}

// Solid reports whether (r, c) is solid. Cells outside the grid are solid.
func (g *Grid) Solid(r, c int) bool {
	if !g.InBounds(r, c) {
		return true
	}
	return g.solid[r*g.Cols+c]
}

// FreeCount returns the number of free cells.
func (g *Grid) FreeCount() int {
	n := 0
	for _, s := range g.solid {
		if !s {
			n++
		}
	}
	return n
}

// CellCenter returns the world position of the centre of cell (r, c).
func (g *Grid) CellCenter(r, c int) (x, y float64) {
	x = (float64(c) + 0.5) * g.Spacing
	y = g.Height - (float64(r)+0.5)*g.Spacing
	return x, y
}

// WorldToCell maps a world position to the cell containing it.
func (g *Grid) WorldToCell(x, y float64) (r, c int, ok bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	fc := math.Floor(x / g.Spacing)
	fr := math.Floor((g.Height - y) / g.Spacing)
	if fr < 0 || fc < 0 || fr >= float64(g.Rows) || fc >= float64(g.Cols) {
		return 0, 0, false
	}
	return int(fr), int(fc), true
}
