package sim

import (
	"fmt"

	"github.com/pthm-cable/ardsim/config"
	"github.com/pthm-cable/ardsim/spectral"
)

// Options are the engine's physical and scheduling parameters.
type Options struct {
	SoundSpeed   float64
	Spacing      float64 // Voxel edge length in world units
	DT           float64
	StencilScale float64 // Multiplier applied to the interface stencil sum
	DCLimit      bool    // See spectral.Coefficients

	SourceKind      SourceKind // Used by Touch
	SourceDuration  float64
	SourceAmplitude float64

	ParallelThreshold int // Partitions below this run on the calling goroutine
	Workers           int // 0 means GOMAXPROCS
}

// OptionsFromConfig builds engine options from a loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	kind, err := ParseSourceKind(cfg.Source.Kind)
	if err != nil {
		return Options{}, fmt.Errorf("source.kind: %w", err)
	}
	return Options{
		SoundSpeed:        cfg.Physics.SoundSpeed,
		Spacing:           cfg.Derived.VoxelSpacing,
		DT:                cfg.Derived.DT,
		StencilScale:      cfg.Derived.StencilScale,
		DCLimit:           cfg.Solver.DCForcing == config.DCForcingLimit,
		SourceKind:        kind,
		SourceDuration:    cfg.Source.Duration,
		SourceAmplitude:   cfg.Source.Amplitude,
		ParallelThreshold: cfg.Solver.ParallelThreshold,
		Workers:           cfg.Solver.Workers,
	}, nil
}

func (o Options) coefficients() spectral.Coefficients {
	return spectral.Coefficients{
		SoundSpeed: o.SoundSpeed,
		DT:         o.DT,
		DCLimit:    o.DCLimit,
	}
}
