package spectral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNonFinite is returned when an update produces NaN or Inf.
var ErrNonFinite = errors.New("non-finite value")

// Solver owns the modal state of one partition. All of its fields live in a
// single arena allocated at construction.
type Solver struct {
	plan  *Plan
	arena []float64

	modes        []float64
	prev         []float64
	forcing      []float64
	forcingModal []float64
	pressure     []float64

	// Matrix views over the arena, used by the transforms.
	modesM        *mat.Dense
	forcingM      *mat.Dense
	forcingModalM *mat.Dense
	pressureM     *mat.Dense
	tmpM          *mat.Dense
}

// NewSolver allocates a zeroed solver for the plan's shape.
func NewSolver(p *Plan) *Solver {
	n := p.Len()
	s := &Solver{
		plan:  p,
		arena: make([]float64, 6*n),
	}
	s.modes = s.arena[0*n : 1*n : 1*n]
	s.prev = s.arena[1*n : 2*n : 2*n]
	s.forcing = s.arena[2*n : 3*n : 3*n]
	s.forcingModal = s.arena[3*n : 4*n : 4*n]
	s.pressure = s.arena[4*n : 5*n : 5*n]
	tmp := s.arena[5*n : 6*n : 6*n]

	s.modesM = mat.NewDense(p.h, p.w, s.modes)
	s.forcingM = mat.NewDense(p.h, p.w, s.forcing)
	s.forcingModalM = mat.NewDense(p.h, p.w, s.forcingModal)
	s.pressureM = mat.NewDense(p.h, p.w, s.pressure)
	s.tmpM = mat.NewDense(p.h, p.w, tmp)
	return s
}

// Plan returns the shared plan the solver was built from.
func (s *Solver) Plan() *Plan { return s.plan }

// Modes returns the current modal coefficients, row-major.
func (s *Solver) Modes() []float64 { return s.modes }

// PreviousModes returns the modal coefficients of the previous step.
func (s *Solver) PreviousModes() []float64 { return s.prev }

// Forcing returns the physical-space forcing field. Callers write into it
// between ResetForcing and ProjectForcing.
func (s *Solver) Forcing() []float64 { return s.forcing }

// ForcingModal returns the forcing projected into modal space.
func (s *Solver) ForcingModal() []float64 { return s.forcingModal }

// Pressure returns the physical-space pressure, produced only by Update.
func (s *Solver) Pressure() []float64 { return s.pressure }

// Update advances every mode by one step and refreshes pressure from the
// inverse transform. Each mode is a harmonic oscillator driven by the modal
// forcing held constant over the step:
//
//	m' = 2·m·cos(ω·dt) - m_prev + gain·f
func (s *Solver) Update() error {
	cosWDT := s.plan.cosWDT
	gain := s.plan.gain
	for i, m := range s.modes {
		next := 2*m*cosWDT[i] - s.prev[i] + gain[i]*s.forcingModal[i]
		s.prev[i] = m
		s.modes[i] = next
	}
	if !finite(s.modes) {
		return fmt.Errorf("modal update: %w", ErrNonFinite)
	}

	s.plan.Inverse(s.pressureM, s.modesM, s.tmpM)
	floats.Scale(1/s.plan.Scale(), s.pressure)
	if !finite(s.pressure) {
		return fmt.Errorf("inverse transform: %w", ErrNonFinite)
	}
	return nil
}

// ResetForcing zeroes the physical-space forcing field.
func (s *Solver) ResetForcing() {
	clear(s.forcing)
}

// ProjectForcing transforms the forcing field into modal space for the next
// Update.
func (s *Solver) ProjectForcing() {
	s.plan.Forward(s.forcingModalM, s.forcingM, s.tmpM)
}

// Reset returns the solver to the all-zero state.
func (s *Solver) Reset() {
	clear(s.arena)
}

func finite(v []float64) bool {
	if len(v) == 0 {
		return true
	}
	return !floats.HasNaN(v) && !math.IsInf(floats.Max(v), 1) && !math.IsInf(floats.Min(v), -1)
}
