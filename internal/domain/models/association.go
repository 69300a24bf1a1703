package models

import "time"

// Confidence grades an event association by the distance to the closest event.
type Confidence string

const (
	ConfidenceHigh     Confidence = "High"
	ConfidenceModerate Confidence = "Moderate"
	ConfidenceLow      Confidence = "Low"
	ConfidenceNone     Confidence = "None"
)

// Association links one detected change point to nearby catalog events.
type Association struct {
	ChangePointDate time.Time `json:"change_point_date"`
	MuBefore        float64   `json:"mu_before"`
	MuAfter         float64   `json:"mu_after"`
	ImpactLog       float64   `json:"impact_log"`
	ImpactPercent   float64   `json:"impact_percent"`

	// Price fields are set only when both average prices were supplied.
	PriceBefore *float64 `json:"price_before,omitempty"`
	PriceAfter  *float64 `json:"price_after,omitempty"`
	ImpactUSD   *float64 `json:"impact_usd,omitempty"`

	WindowDays   int           `json:"window_days"`
	NearbyEvents []NearbyEvent `json:"nearby_events"`
	ClosestEvent *NearbyEvent  `json:"closest_event,omitempty"`
	Confidence   Confidence    `json:"confidence"`
}

// ConfidenceFromDays grades an association by the closest event distance.
func ConfidenceFromDays(absDays int) Confidence {
	switch {
	case absDays <= 30:
		return ConfidenceHigh
	case absDays <= 60:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}
