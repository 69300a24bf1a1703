package models

import "time"

// AnalysisRecord is the persisted outcome of one analysis run.
type AnalysisRecord struct {
	RunID            string     `json:"run_id"`
	ChangePointDate  time.Time  `json:"change_point_date"`
	ChangePointObs   int        `json:"change_point_obs"`
	Mu1              float64    `json:"mu1"`
	Mu2              float64    `json:"mu2"`
	ImpactPercent    float64    `json:"impact_percent"`
	PriceBefore      *float64   `json:"price_before,omitempty"`
	PriceAfter       *float64   `json:"price_after,omitempty"`
	ImpactUSD        *float64   `json:"impact_usd,omitempty"`
	ClosestEvent     string     `json:"closest_event,omitempty"`
	ClosestEventDate *time.Time `json:"closest_event_date,omitempty"`
	DaysDifference   *int       `json:"days_difference,omitempty"`
	ImpactStatement  string     `json:"impact_statement"`
	Certainty        Certainty  `json:"certainty"`
	Confidence       Confidence `json:"confidence"`
	Converged        string     `json:"convergence"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AnalysisState distinguishes a finished analysis from one not yet run.
type AnalysisState string

const (
	AnalysisPending  AnalysisState = "pending"
	AnalysisComputed AnalysisState = "computed"
)

// AnalysisResult is what readers of the result store get back.
type AnalysisResult struct {
	State        AnalysisState   `json:"state"`
	Record       *AnalysisRecord `json:"record,omitempty"`
	NearbyEvents []NearbyEvent   `json:"nearby_events,omitempty"`
	Message      string          `json:"message,omitempty"`
}

func PendingResult(msg string) AnalysisResult {
	return AnalysisResult{State: AnalysisPending, Message: msg}
}

func ComputedResult(rec AnalysisRecord, nearby []NearbyEvent) AnalysisResult {
	return AnalysisResult{State: AnalysisComputed, Record: &rec, NearbyEvents: nearby}
}

func (r AnalysisResult) IsComputed() bool { return r.State == AnalysisComputed && r.Record != nil }
