package models

import "time"

// Certainty is a coarse reading of how tightly the change point is located.
type Certainty string

const (
	CertaintyHigh     Certainty = "High"
	CertaintyModerate Certainty = "Moderate"
	CertaintyLow      Certainty = "Low"
)

// CertaintyFromStd maps the posterior std of the change point index to a tier.
func CertaintyFromStd(std float64) Certainty {
	switch {
	case std < 100:
		return CertaintyHigh
	case std < 500:
		return CertaintyModerate
	default:
		return CertaintyLow
	}
}

// ChangePointEstimate summarizes the posterior of the change point index.
type ChangePointEstimate struct {
	Mean    float64 `json:"mean"`
	Median  int     `json:"median"`
	Mode    int     `json:"mode"`
	Std     float64 `json:"std"`
	Lower95 int     `json:"hdi_lower_95"`
	Upper95 int     `json:"hdi_upper_95"`

	// Date is set only when the median index falls inside the date index.
	Date        *time.Time `json:"date,omitempty"`
	DateWarning string     `json:"date_warning,omitempty"`
	Certainty   Certainty  `json:"certainty"`
}

// ParamSummary summarizes the draws of one continuous quantity.
type ParamSummary struct {
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Std     float64 `json:"std"`
	Lower95 float64 `json:"lower_95"`
	Upper95 float64 `json:"upper_95"`
}

// ImpactEstimate summarizes the segment means and the shift between them.
type ImpactEstimate struct {
	MuBefore ParamSummary `json:"mu_before"`
	MuAfter  ParamSummary `json:"mu_after"`
	Sigma    ParamSummary `json:"sigma"`
	// Impact is computed draw by draw as mu_after - mu_before.
	Impact        ParamSummary `json:"impact"`
	ImpactPercent float64      `json:"impact_percent"`
}

// SamplingStats describes how a posterior was produced.
type SamplingStats struct {
	Chains      int       `json:"chains"`
	Draws       int       `json:"draws"`
	Tune        int       `json:"tune"`
	Seed        uint64    `json:"seed"`
	AcceptRates []float64 `json:"tau_accept_rates"`
	DurationMs  int64     `json:"duration_ms"`
}

// Detection bundles everything the change point engine infers from one series.
type Detection struct {
	ChangePoint ChangePointEstimate `json:"change_point"`
	Impact      ImpactEstimate      `json:"impact"`
	Convergence ConvergenceReport   `json:"convergence"`
	Sampling    SamplingStats       `json:"sampling"`
}
