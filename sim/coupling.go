package sim

// Sixth-order interface stencil, sampled along the interface normal at
// offsets -2..3 from the owner's boundary cell.
var stencilWeights = [6]float64{-2, 27, -270, 270, -27, 2}

const stencilFirstOffset = -2

// couple writes the interface forcing for every boundary cell p owns.
// It reads neighbor pressure through the lookup and writes only p's forcing.
// Samples outside the grid or on unowned cells are left out of the sum.
func (e *Engine) couple(p *Partition) {
	forcing := p.Solver.Forcing()
	scale := e.opts.StencilScale

	for _, ifc := range p.Interfaces {
		dr, dc := ifc.Dir.Normal()
		for k := 0; k < ifc.Len(); k++ {
			r, c := ifc.Cell(k)

			var sum float64
			for j, w := range stencilWeights {
				o := stencilFirstOffset + j
				slot, ok := e.lookup.At(r+o*dr, c+o*dc)
				if !ok {
					continue
				}
				sum += w * e.partitions[slot.Partition].Solver.Pressure()[slot.Offset]
			}
			forcing[p.Local(r, c)] = scale * sum
		}
	}
}
