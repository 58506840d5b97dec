// Package tilemap loads Tiled-style JSON map descriptors into a coarse tile grid.
//
// Only the first layer and the first tileset are read. A tile id of 0 is empty
// space; any positive id is solid. One tile covers one unit of world length.
package tilemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformed is returned when a descriptor is missing required fields or
// its tile data does not match the declared dimensions.
var ErrMalformed = errors.New("malformed map descriptor")

// Tileset describes the tile atlas used by the renderer.
type Tileset struct {
	ImagePath  string // Resolved relative to the descriptor's folder
	TileWidth  int
	TileHeight int
	Columns    int
}

// Map is a coarse tile grid. Tiles are row-major with row 0 at the top.
type Map struct {
	Rows    int
	Cols    int
	Tiles   []int
	Tileset *Tileset // nil when the descriptor has no tileset
}

type tiledLayer struct {
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	Data   []int  `json:"data"`
	Name   string `json:"name"`
}

type tiledTileset struct {
	Image      string `json:"image"`
	TileWidth  int    `json:"tilewidth"`
	TileHeight int    `json:"tileheight"`
	Columns    int    `json:"columns"`
}

type tiledMap struct {
	Layers   []tiledLayer   `json:"layers"`
	Tilesets []tiledTileset `json:"tilesets"`
}

// New builds a map from explicit dimensions and row-major tile ids.
func New(rows, cols int, tiles []int) (*Map, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrMalformed, rows, cols)
	}
	if len(tiles) != rows*cols {
		return nil, fmt.Errorf("%w: %d tiles for %dx%d map", ErrMalformed, len(tiles), rows, cols)
	}
	return &Map{Rows: rows, Cols: cols, Tiles: tiles}, nil
}

// FromASCII builds a map from text rows: '#' is solid, anything else is empty.
// All rows must have the same length.
func FromASCII(lines ...string) (*Map, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformed)
	}
	cols := len(lines[0])
	tiles := make([]int, 0, len(lines)*cols)
	for r, line := range lines {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformed, r, len(line), cols)
		}
		for _, ch := range line {
			if ch == '#' {
				tiles = append(tiles, 1)
			} else {
				tiles = append(tiles, 0)
			}
		}
	}
	return New(len(lines), cols, tiles)
}

// MustASCII is like FromASCII but panics on error.
func MustASCII(lines ...string) *Map {
	m, err := FromASCII(lines...)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse decodes a descriptor from r. Tileset image paths are left as written.
func Parse(r io.Reader) (*Map, error) {
	var tm tiledMap
	if err := json.NewDecoder(r).Decode(&tm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(tm.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrMalformed)
	}

	layer := tm.Layers[0]
	if layer.Width == nil || layer.Height == nil {
		return nil, fmt.Errorf("%w: layer %q missing width/height", ErrMalformed, layer.Name)
	}
	m, err := New(*layer.Height, *layer.Width, layer.Data)
	if err != nil {
		return nil, err
	}

	if len(tm.Tilesets) > 0 {
		ts := tm.Tilesets[0]
		m.Tileset = &Tileset{
			ImagePath:  ts.Image,
			TileWidth:  ts.TileWidth,
			TileHeight: ts.TileHeight,
			Columns:    ts.Columns,
		}
	}
	return m, nil
}

// Load reads a descriptor from disk and resolves the tileset image path
// against the descriptor's folder.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Tileset != nil && m.Tileset.ImagePath != "" && !filepath.IsAbs(m.Tileset.ImagePath) {
		m.Tileset.ImagePath = filepath.Join(filepath.Dir(path), m.Tileset.ImagePath)
	}
	return m, nil
}

// Tile returns the tile id at (row, col), or 0 outside the map.
func (m *Map) Tile(row, col int) int {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		return 0
	}
	return m.Tiles[row*m.Cols+col]
}

// Solid reports whether the tile at (row, col) blocks sound.
func (m *Map) Solid(row, col int) bool {
	return m.Tile(row, col) > 0
}

// Height returns the map height in world units.
func (m *Map) Height() float64 {
	return float64(m.Rows)
}

// Width returns the map width in world units.
func (m *Map) Width() float64 {
	return float64(m.Cols)
}

// String renders the map with '#' for solid tiles, one line per row.
func (m *Map) String() string {
	var sb strings.Builder
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.Solid(r, c) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
