package models

// Resolution records how requested variable names were matched against the draws.
type Resolution string

const (
	ResolutionExact        Resolution = "exact"
	ResolutionPrefixed     Resolution = "prefixed"
	ResolutionAllAvailable Resolution = "all_available"
	ResolutionNone         Resolution = "none"
)

// ParamDiagnostic holds convergence statistics for one variable.
type ParamDiagnostic struct {
	Name      string  `json:"name"`
	RHat      float64 `json:"r_hat"`
	ESSBulk   float64 `json:"ess_bulk"`
	Converged bool    `json:"converged"`
}

// ConvergenceReport is the outcome of a convergence check.
// Converged is nil when no variable could be evaluated.
type ConvergenceReport struct {
	Params     []ParamDiagnostic `json:"params"`
	Converged  *bool             `json:"converged"`
	Threshold  float64           `json:"threshold"`
	Resolution Resolution        `json:"resolution"`
	Available  []string          `json:"available,omitempty"`
}

// IsConverged reports a definite positive verdict.
func (r ConvergenceReport) IsConverged() bool {
	return r.Converged != nil && *r.Converged
}

// Verdict renders the tri-state verdict for logs and reports.
func (r ConvergenceReport) Verdict() string {
	switch {
	case r.Converged == nil:
		return "unknown"
	case *r.Converged:
		return "converged"
	default:
		return "not_converged"
	}
}
