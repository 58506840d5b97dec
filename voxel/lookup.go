package voxel

// Slot is a weak reference to one pressure sample: a partition id and an
// offset into that partition's row-major arrays. It is resolved through the
// partition table, so partition storage can move without invalidating it.
type Slot struct {
	Partition int32
	Offset    int32
}

// Lookup maps every grid cell to the slot holding its pressure.
// It must be rebuilt whenever the partition list is rebuilt.
type Lookup struct {
	rows, cols int
	slots      []Slot
}

// NewLookup indexes every cell of every partition in l.
func NewLookup(l *Layout) *Lookup {
	g := l.Grid
	lk := &Lookup{
		rows:  g.Rows,
		cols:  g.Cols,
		slots: make([]Slot, g.Rows*g.Cols),
	}
	for i := range lk.slots {
		lk.slots[i] = Slot{Partition: -1, Offset: -1}
	}
	for p, rect := range l.Rects {
		for i := 0; i < rect.Area(); i++ {
			r, c := rect.Cell(i)
			lk.slots[r*g.Cols+c] = Slot{Partition: int32(p), Offset: int32(i)}
		}
	}
	return lk
}

// At returns the slot for (r, c). ok is false outside the grid or on cells
// owned by no partition.
func (lk *Lookup) At(r, c int) (s Slot, ok bool) {
	if r < 0 || r >= lk.rows || c < 0 || c >= lk.cols {
		return Slot{}, false
	}
	s = lk.slots[r*lk.cols+c]
	return s, s.Partition >= 0
}
