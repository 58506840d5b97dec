// Package spectral implements the modal wave solver used inside each
// partition: separable 2D cosine transforms over a rectangle with rigid walls,
// and the closed-form harmonic update of every mode.
//
// Transforms follow the unnormalized REDFT10/REDFT01 convention. Along one
// dimension of length n the forward (DCT-II) and inverse (DCT-III) are
//
//	X_k = 2 Σ_j x_j cos(πk(j+½)/n)
//	x_j = X_0 + 2 Σ_{k≥1} X_k cos(πk(j+½)/n)
//
// so a 2D round trip multiplies the field by 4·w·h. See Plan.Scale.
package spectral

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Coefficients are the physical constants baked into a plan's mode tables.
type Coefficients struct {
	SoundSpeed float64
	DT         float64
	DCLimit    bool // Drive the zero-frequency mode with dt² instead of leaving it unforced
}

// Plan holds everything precomputed for one partition shape: the cosine basis
// matrices for both transforms and the per-mode update coefficients.
// A Plan is read-only after construction and safe to share between solvers.
type Plan struct {
	w, h int

	fwdRows *mat.Dense // h×h, 2·cos(πk(j+½)/h)
	fwdCols *mat.Dense // w×w
	invRows *mat.Dense // h×h, s_k·cos(πk(j+½)/h) indexed [j][k]
	invCols *mat.Dense // w×w

	cosWDT []float64 // cos(ω·dt) per mode, row-major
	gain   []float64 // Forcing gain 2(1-cos ω·dt)/ω² per mode
}

// NewPlan builds the transform and mode tables for a w×h rectangle.
func NewPlan(w, h int, coeff Coefficients) *Plan {
	p := &Plan{
		w:       w,
		h:       h,
		fwdRows: forwardBasis(h),
		fwdCols: forwardBasis(w),
		invRows: inverseBasis(h),
		invCols: inverseBasis(w),
		cosWDT:  make([]float64, w*h),
		gain:    make([]float64, w*h),
	}

	// Mode wavenumbers are measured in voxels along each side.
	lx := float64(w)
	ly := float64(h)
	for ky := 0; ky < h; ky++ {
		for kx := 0; kx < w; kx++ {
			i := ky*w + kx
			fx := float64(kx) / lx
			fy := float64(ky) / ly
			omega := coeff.SoundSpeed * math.Pi * math.Sqrt(fx*fx+fy*fy)

			if omega == 0 {
				p.cosWDT[i] = 1
				if coeff.DCLimit {
					p.gain[i] = coeff.DT * coeff.DT
				}
				continue
			}

			// 2(1-cos θ) == 4sin²(θ/2); the sine form keeps precision for low modes.
			half := math.Sin(omega * coeff.DT / 2)
			p.cosWDT[i] = math.Cos(omega * coeff.DT)
			p.gain[i] = 4 * half * half / (omega * omega)
		}
	}
	return p
}

// Size returns the plan's width and height in voxels.
func (p *Plan) Size() (w, h int) {
	return p.w, p.h
}

// Len returns the number of modes (and voxels).
func (p *Plan) Len() int {
	return p.w * p.h
}

// Scale is the factor a Forward followed by an Inverse multiplies a field by.
func (p *Plan) Scale() float64 {
	return float64(4 * p.w * p.h)
}

// Forward writes the DCT-II of src into dst. tmp is scratch of the same shape.
// None of the three may share storage.
func (p *Plan) Forward(dst, src, tmp *mat.Dense) {
	tmp.Mul(p.fwdRows, src)
	dst.Mul(tmp, p.fwdCols.T())
}

// Inverse writes the DCT-III of src into dst. tmp is scratch of the same shape.
func (p *Plan) Inverse(dst, src, tmp *mat.Dense) {
	tmp.Mul(p.invRows, src)
	dst.Mul(tmp, p.invCols.T())
}

func cosBasis(k, j, n int) float64 {
	return math.Cos(math.Pi * float64(k) * (float64(j) + 0.5) / float64(n))
}

func forwardBasis(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			m.Set(k, j, 2*cosBasis(k, j, n))
		}
	}
	return m
}

func inverseBasis(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			s := 2.0
			if k == 0 {
				s = 1
			}
			m.Set(j, k, s*cosBasis(k, j, n))
		}
	}
	return m
}

// PlanCache shares plans between partitions of the same shape. All plans in a
// cache use the same coefficients; build a new cache when they change.
type PlanCache struct {
	coeff Coefficients

	mu    sync.Mutex
	plans map[[2]int]*Plan
}

// NewPlanCache returns an empty cache for the given coefficients.
func NewPlanCache(coeff Coefficients) *PlanCache {
	return &PlanCache{
		coeff: coeff,
		plans: make(map[[2]int]*Plan),
	}
}

// Get returns the plan for a w×h rectangle, building it on first use.
func (c *PlanCache) Get(w, h int) *Plan {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := [2]int{w, h}
	if p, ok := c.plans[key]; ok {
		return p
	}
	p := NewPlan(w, h, c.coeff)
	c.plans[key] = p
	return p
}

// Len returns the number of distinct shapes planned so far.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plans)
}

// Coefficients returns the constants the cache builds plans with.
func (c *PlanCache) Coefficients() Coefficients {
	return c.coeff
}
