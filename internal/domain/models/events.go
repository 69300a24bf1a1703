package models

import "time"

type ImpactLevel string

const (
	ImpactLevelHigh   ImpactLevel = "High"
	ImpactLevelMedium ImpactLevel = "Medium"
	ImpactLevelLow    ImpactLevel = "Low"
)

// EventRecord is one entry of the geopolitical/economic event catalog.
type EventRecord struct {
	Date        time.Time   `json:"event_date"`
	Description string      `json:"event_description"`
	Type        string      `json:"event_type"`
	Region      string      `json:"region"`
	ImpactLevel ImpactLevel `json:"impact_level"`
}

// NearbyEvent is a catalog event annotated with its signed day distance
// from a change point (event minus change point).
type NearbyEvent struct {
	EventRecord
	DaysDifference int `json:"days_difference"`
}

func (e NearbyEvent) AbsDays() int {
	if e.DaysDifference < 0 {
		return -e.DaysDifference
	}
	return e.DaysDifference
}
