package voxel

// Rect is an axis-aligned block of cells: origin (Row, Col) is the top-left
// cell, extent is W columns by H rows.
type Rect struct {
	Row, Col int
	W, H     int
}

// Area returns the number of cells covered.
func (r Rect) Area() int {
	return r.W * r.H
}

// Contains reports whether (row, col) lies inside the rectangle.
func (r Rect) Contains(row, col int) bool {
	return row >= r.Row && row < r.Row+r.H && col >= r.Col && col < r.Col+r.W
}

// Local returns the row-major index of (row, col) relative to the origin.
func (r Rect) Local(row, col int) int {
	return (row-r.Row)*r.W + (col - r.Col)
}

// Cell converts a local index back to grid coordinates.
func (r Rect) Cell(i int) (row, col int) {
	return r.Row + i/r.W, r.Col + i%r.W
}

// Overlaps reports whether two rectangles share any cell.
func (r Rect) Overlaps(o Rect) bool {
	return r.Row < o.Row+o.H && o.Row < r.Row+r.H && r.Col < o.Col+o.W && o.Col < r.Col+r.W
}

// Meta is the per-cell bookkeeping written during decomposition and interface
// building. It is never touched while stepping.
type Meta struct {
	Partition  int // -1 when the cell belongs to no partition
	Interfaced DirFlags
}

// Layout is the decomposition of a grid into partitions and interfaces.
type Layout struct {
	Grid       *Grid
	Rects      []Rect
	Meta       []Meta
	Interfaces [][]Interface // Indexed by owning partition; filled by BuildInterfaces
}

// Decompose greedily packs free cells into rectangles. Cells are visited in
// row-major order; each unowned free cell seeds a rectangle that first grows
// downwards one row at a time, then rightwards one column at a time, while the
// new edge is entirely free and unowned.
//
// The result is deterministic for a given grid. A grid with no free cells
// yields an empty layout.
func Decompose(g *Grid) *Layout {
	l := &Layout{
		Grid: g,
		Meta: make([]Meta, g.Rows*g.Cols),
	}
	for i := range l.Meta {
		l.Meta[i].Partition = -1
	}

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if !l.available(r, c) {
				continue
			}

			rect := Rect{Row: r, Col: c, W: 1, H: 1}
			for l.rowAvailable(rect.Row+rect.H, rect.Col, rect.W) {
				rect.H++
			}
			for l.colAvailable(rect.Col+rect.W, rect.Row, rect.H) {
				rect.W++
			}

			l.claim(rect, len(l.Rects))
			l.Rects = append(l.Rects, rect)
		}
	}
	return l
}

// PartitionAt returns the partition owning (r, c), or -1.
func (l *Layout) PartitionAt(r, c int) int {
	if !l.Grid.InBounds(r, c) {
		return -1
	}
	return l.Meta[l.Grid.Index(r, c)].Partition
}

// available reports whether (r, c) is free and not yet owned.
func (l *Layout) available(r, c int) bool {
	return !l.Grid.Solid(r, c) && l.Meta[l.Grid.Index(r, c)].Partition < 0
}

func (l *Layout) rowAvailable(r, c0, w int) bool {
	if r >= l.Grid.Rows {
		return false
	}
	for c := c0; c < c0+w; c++ {
		if !l.available(r, c) {
			return false
		}
	}
	return true
}

func (l *Layout) colAvailable(c, r0, h int) bool {
	if c >= l.Grid.Cols {
		return false
	}
	for r := r0; r < r0+h; r++ {
		if !l.available(r, c) {
			return false
		}
	}
	return true
}

func (l *Layout) claim(rect Rect, p int) {
	for r := rect.Row; r < rect.Row+rect.H; r++ {
		for c := rect.Col; c < rect.Col+rect.W; c++ {
			l.Meta[l.Grid.Index(r, c)].Partition = p
		}
	}
}
