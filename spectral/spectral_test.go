package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testCoeff = Coefficients{
	SoundSpeed: 343,
	DT:         0.343 / (343 * math.Sqrt(3)),
}

const tol = 1e-9

func TestRoundTripScale(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := [][2]int{{1, 1}, {1, 5}, {6, 1}, {4, 3}, {7, 5}, {16, 9}}

	for _, shape := range shapes {
		w, h := shape[0], shape[1]
		p := NewPlan(w, h, testCoeff)

		data := make([]float64, w*h)
		for i := range data {
			data[i] = rng.NormFloat64()
		}
		x := mat.NewDense(h, w, append([]float64(nil), data...))
		modes := mat.NewDense(h, w, nil)
		back := mat.NewDense(h, w, nil)
		tmp := mat.NewDense(h, w, nil)

		p.Forward(modes, x, tmp)
		p.Inverse(back, modes, tmp)
		back.Scale(1/p.Scale(), back)

		assert.True(t, mat.EqualApprox(x, back, tol), "round trip failed for %dx%d", w, h)
	}
}

func TestForwardMatchesDefinition(t *testing.T) {
	const w, h = 3, 2
	p := NewPlan(w, h, testCoeff)
	x := mat.NewDense(h, w, []float64{
		1, -2, 0.5,
		3, 0, -1,
	})
	got := mat.NewDense(h, w, nil)
	p.Forward(got, x, mat.NewDense(h, w, nil))

	for ky := 0; ky < h; ky++ {
		for kx := 0; kx < w; kx++ {
			want := 0.0
			for j := 0; j < h; j++ {
				for i := 0; i < w; i++ {
					want += 4 * x.At(j, i) *
						math.Cos(math.Pi*float64(ky)*(float64(j)+0.5)/h) *
						math.Cos(math.Pi*float64(kx)*(float64(i)+0.5)/w)
				}
			}
			assert.InDelta(t, want, got.At(ky, kx), tol, "mode (%d,%d)", kx, ky)
		}
	}
}

func TestInverseForwardRestoresModes(t *testing.T) {
	// 4 columns by 3 rows, top-row modes 0 and 1 seeded.
	p := NewPlan(4, 3, testCoeff)
	modes := mat.NewDense(3, 4, nil)
	modes.Set(0, 0, 1.5)
	modes.Set(0, 1, -0.75)

	field := mat.NewDense(3, 4, nil)
	back := mat.NewDense(3, 4, nil)
	tmp := mat.NewDense(3, 4, nil)
	p.Inverse(field, modes, tmp)
	p.Forward(back, field, tmp)
	back.Scale(1/p.Scale(), back)

	assert.InDelta(t, 1.5, back.At(0, 0), tol)
	assert.InDelta(t, -0.75, back.At(0, 1), tol)
	assert.True(t, mat.EqualApprox(modes, back, tol))
}

func TestPlanCacheSharesShapes(t *testing.T) {
	c := NewPlanCache(testCoeff)
	a := c.Get(4, 3)
	b := c.Get(4, 3)
	d := c.Get(3, 4)

	assert.Same(t, a, b)
	assert.NotSame(t, a, d)
	assert.Equal(t, 2, c.Len())
	w, h := d.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 4, h)
}

func TestZeroForcingStaysZero(t *testing.T) {
	s := NewSolver(NewPlan(5, 4, testCoeff))
	for step := 0; step < 200; step++ {
		s.ResetForcing()
		s.ProjectForcing()
		require.NoError(t, s.Update())
	}
	for i, v := range s.Pressure() {
		require.Zero(t, v, "pressure[%d]", i)
	}
}

func TestFreeModeOscillates(t *testing.T) {
	p := NewPlan(6, 4, testCoeff)
	s := NewSolver(p)

	// Mode (kx=2, ky=1) released from rest: m_n = cos(n·ω·dt).
	i := 1*6 + 2
	theta := math.Acos(p.cosWDT[i])
	s.Modes()[i] = 1
	s.PreviousModes()[i] = math.Cos(theta) // cos(-θ)

	for n := 1; n <= 50; n++ {
		require.NoError(t, s.Update())
		assert.InDelta(t, math.Cos(float64(n)*theta), s.Modes()[i], 1e-9, "step %d", n)
	}

	// k = π·sqrt((2/6)² + (1/4)²) with the sides in voxels
	omega := testCoeff.SoundSpeed * math.Pi * math.Hypot(2.0/6, 1.0/4)
	assert.InDelta(t, omega*testCoeff.DT, theta, 1e-9)
}

func TestDCForcing(t *testing.T) {
	const f = 2.5

	tests := []struct {
		name    string
		dcLimit bool
		want    float64
	}{
		{"unforced", false, 0},
		{"limit", true, f * testCoeff.DT * testCoeff.DT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coeff := testCoeff
			coeff.DCLimit = tt.dcLimit
			s := NewSolver(NewPlan(3, 3, coeff))

			for i := range s.Forcing() {
				s.Forcing()[i] = f
			}
			s.ProjectForcing()

			// Uniform forcing only excites the zero-frequency mode
			for i, v := range s.ForcingModal()[1:] {
				assert.InDelta(t, 0, v, 1e-9, "mode %d", i+1)
			}

			require.NoError(t, s.Update())
			for _, v := range s.Pressure() {
				assert.InDelta(t, tt.want, v, 1e-12)
			}
		})
	}
}

func TestPointForcingIsLocalised(t *testing.T) {
	s := NewSolver(NewPlan(8, 8, testCoeff))
	s.Forcing()[3*8+4] = 1
	s.ProjectForcing()
	require.NoError(t, s.Update())

	p := s.Pressure()
	peak := p[3*8+4]
	assert.Greater(t, peak, 0.0)
	for i, v := range p {
		assert.LessOrEqual(t, math.Abs(v), peak+1e-15, "index %d", i)
	}
}

func TestNonFiniteDetected(t *testing.T) {
	s := NewSolver(NewPlan(4, 4, testCoeff))
	s.Forcing()[5] = math.Inf(1)
	s.ProjectForcing()
	assert.ErrorIs(t, s.Update(), ErrNonFinite)

	s.Reset()
	s.Modes()[0] = math.NaN()
	assert.ErrorIs(t, s.Update(), ErrNonFinite)
}
