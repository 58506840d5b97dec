package sim

import (
	"fmt"
	"math"
)

// SourceKind selects the waveform a point source emits.
type SourceKind uint8

const (
	SourceImpulse  SourceKind = iota // Constant unit value while active
	SourceGaussian                   // Gaussian pulse centred on the middle of the duration
	SourceRicker                     // Ricker wavelet centred on the middle of the duration
)

// ParseSourceKind maps a config name to a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "impulse":
		return SourceImpulse, nil
	case "gaussian":
		return SourceGaussian, nil
	case "ricker":
		return SourceRicker, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidSource, s)
}

func (k SourceKind) String() string {
	switch k {
	case SourceImpulse:
		return "impulse"
	case SourceGaussian:
		return "gaussian"
	case SourceRicker:
		return "ricker"
	}
	return fmt.Sprintf("SourceKind(%d)", k)
}

// PointSource injects a time-limited signal at one voxel of its partition.
type PointSource struct {
	Index     int     // Local row-major voxel index
	Remaining float64 // Simulated seconds left; inert at or below zero
	Total     float64
	Kind      SourceKind
	Amplitude float64
}

// Active reports whether the source still emits.
func (s *PointSource) Active() bool {
	return s != nil && s.Remaining > 0
}

// Step advances the source by dt and returns the value to add to forcing.
// Inert sources return 0.
func (s *PointSource) Step(dt float64) float64 {
	if !s.Active() {
		return 0
	}
	s.Remaining -= dt
	return s.Amplitude * s.shape(s.Total-s.Remaining)
}

// shape evaluates the unit waveform at elapsed time t.
func (s *PointSource) shape(t float64) float64 {
	switch s.Kind {
	case SourceGaussian:
		sigma := s.Total / 6
		u := (t - s.Total/2) / sigma
		return math.Exp(-u * u / 2)
	case SourceRicker:
		// Peak frequency 2/Total puts the side lobes well inside the duration.
		a := math.Pi * (2 / s.Total) * (t - s.Total/2)
		a *= a
		return (1 - 2*a) * math.Exp(-a)
	default:
		return 1
	}
}
