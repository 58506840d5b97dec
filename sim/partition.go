package sim

import (
	"github.com/pthm-cable/ardsim/spectral"
	"github.com/pthm-cable/ardsim/voxel"
)

// Partition is one rectangular spectral domain.
type Partition struct {
	ID         int
	Rect       voxel.Rect
	Interfaces []voxel.Interface // Interfaces this partition owns
	Solver     *spectral.Solver
	Source     *PointSource // nil when no source was ever triggered
}

// Pressure returns the partition's pressure field, row-major over Rect.
func (p *Partition) Pressure() []float64 {
	return p.Solver.Pressure()
}

// Forcing returns the forcing assembled during the last step.
func (p *Partition) Forcing() []float64 {
	return p.Solver.Forcing()
}

// Local converts grid coordinates to an index into the partition's arrays.
func (p *Partition) Local(r, c int) int {
	return p.Rect.Local(r, c)
}
