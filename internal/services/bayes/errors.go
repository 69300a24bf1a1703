package bayes

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data for change point model")
	ErrModelNotBuilt    = errors.New("model must be built before sampling")
	ErrDegenerateSeries = errors.New("observation series is degenerate")
	ErrSamplingFailure  = errors.New("sampling failed")
)

// SamplingError reports a numerical failure inside one chain. It matches ErrSamplingFailure.
type SamplingError struct {
	Chain     int
	Iteration int
	Reason    string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling failed in chain %d at iteration %d: %s", e.Chain, e.Iteration, e.Reason)
}

func (e *SamplingError) Unwrap() error { return ErrSamplingFailure }
