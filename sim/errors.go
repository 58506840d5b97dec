package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by operations that need a loaded map.
	ErrNotLoaded = errors.New("no map loaded")

	// ErrDiverged is matched by every *DivergedError.
	ErrDiverged = errors.New("simulation diverged")

	// ErrInvalidSource is returned by Trigger for out-of-range targets or
	// unusable source parameters.
	ErrInvalidSource = errors.New("invalid point source")
)

// DivergedError reports the first partition that produced a non-finite value.
// The engine halts on it and keeps returning it from Step until the next Load.
type DivergedError struct {
	Partition int
	Step      uint64
	Phase     string
	Err       error
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("simulation diverged in partition %d at step %d (%s): %v", e.Partition, e.Step, e.Phase, e.Err)
}

// Unwrap exposes both ErrDiverged and the underlying solver error.
func (e *DivergedError) Unwrap() []error {
	return []error{ErrDiverged, e.Err}
}
