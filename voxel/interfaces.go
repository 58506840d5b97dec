package voxel

// Interface is one side of a shared boundary segment between two partitions.
// Rect covers the owner's cells along the boundary; Dir points from the owner
// towards the neighbor.
type Interface struct {
	Dir      Direction
	Rect     Rect
	Owner    int
	Neighbor int
}

// Len returns the number of boundary cells covered.
func (i Interface) Len() int {
	return i.Rect.Area()
}

// Cell returns the grid coordinates of the k-th boundary cell.
func (i Interface) Cell(k int) (row, col int) {
	if i.Rect.H == 1 {
		return i.Rect.Row, i.Rect.Col + k
	}
	return i.Rect.Row + k, i.Rect.Col
}

// edgeRun is the scan state for one partition edge: either no run, or a run
// of consecutive edge cells that all border the same neighbor.
type edgeRun struct {
	active   bool
	neighbor int
	start    int
	length   int
}

// BuildInterfaces records every shared boundary between partitions. Each
// segment is emitted once as a pair of interfaces, one per side, and the
// covered cells are flagged so the segment is skipped when the other side's
// edge is scanned.
func (l *Layout) BuildInterfaces() {
	l.Interfaces = make([][]Interface, len(l.Rects))
	for p, rect := range l.Rects {
		for _, dir := range Directions {
			l.scanEdge(p, rect, dir)
		}
	}
}

// AllInterfaces returns every interface, grouped by owner in partition order.
func (l *Layout) AllInterfaces() []Interface {
	var all []Interface
	for _, ifs := range l.Interfaces {
		all = append(all, ifs...)
	}
	return all
}

func (l *Layout) scanEdge(p int, rect Rect, dir Direction) {
	dr, dc := dir.Normal()
	n := edgeLength(rect, dir)

	var run edgeRun
	for t := 0; t < n; t++ {
		r, c := edgeCell(rect, dir, t)
		q := l.PartitionAt(r+dr, c+dc)

		if q < 0 || q == p || l.Meta[l.Grid.Index(r, c)].Interfaced.Has(dir) {
			l.flush(p, rect, dir, &run)
			continue
		}
		if run.active && run.neighbor == q {
			run.length++
			continue
		}
		l.flush(p, rect, dir, &run)
		run = edgeRun{active: true, neighbor: q, start: t, length: 1}
	}
	l.flush(p, rect, dir, &run)
}

// flush finalizes the current run, if any, into a matched interface pair.
func (l *Layout) flush(p int, rect Rect, dir Direction, run *edgeRun) {
	if !run.active {
		return
	}
	defer func() { *run = edgeRun{} }()

	r0, c0 := edgeCell(rect, dir, run.start)
	span := Rect{Row: r0, Col: c0, W: 1, H: 1}
	if dir == DirUp || dir == DirDown {
		span.W = run.length
	} else {
		span.H = run.length
	}

	dr, dc := dir.Normal()
	mirror := Rect{Row: span.Row + dr, Col: span.Col + dc, W: span.W, H: span.H}

	q := run.neighbor
	l.Interfaces[p] = append(l.Interfaces[p], Interface{Dir: dir, Rect: span, Owner: p, Neighbor: q})
	l.Interfaces[q] = append(l.Interfaces[q], Interface{Dir: dir.Opposite(), Rect: mirror, Owner: q, Neighbor: p})

	l.flag(span, dir)
	l.flag(mirror, dir.Opposite())
}

func (l *Layout) flag(rect Rect, dir Direction) {
	for r := rect.Row; r < rect.Row+rect.H; r++ {
		for c := rect.Col; c < rect.Col+rect.W; c++ {
			l.Meta[l.Grid.Index(r, c)].Interfaced |= dir.Flag()
		}
	}
}

func edgeLength(rect Rect, dir Direction) int {
	if dir == DirUp || dir == DirDown {
		return rect.W
	}
	return rect.H
}

// edgeCell returns the t-th cell along the edge of rect facing dir.
func edgeCell(rect Rect, dir Direction, t int) (r, c int) {
	switch dir {
	case DirUp:
		return rect.Row, rect.Col + t
	case DirDown:
		return rect.Row + rect.H - 1, rect.Col + t
	case DirLeft:
		return rect.Row + t, rect.Col
	default:
		return rect.Row + t, rect.Col + rect.W - 1
	}
}
