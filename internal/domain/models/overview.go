package models

import "time"

// DateRange is an inclusive span of dates; nil ends mean the span is empty.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type PriceRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// PriceOverview is a filtered window of the price snapshot.
type PriceOverview struct {
	Records    []PricePoint `json:"records"`
	Count      int          `json:"count"`
	DateRange  DateRange    `json:"date_range"`
	PriceRange PriceRange   `json:"price_range"`
}

// SeriesSummary describes the whole price snapshot and its log returns.
type SeriesSummary struct {
	Observations         int        `json:"observations"`
	DateRange            DateRange  `json:"date_range"`
	Price                PriceRange `json:"price"`
	PriceStd             float64    `json:"price_std"`
	ReturnsMean          float64    `json:"returns_mean"`
	ReturnsStd           float64    `json:"returns_std"`
	AnnualizedVolatility float64    `json:"annualized_volatility"`
}

// EventFilter narrows the event catalog. Zero values match everything.
type EventFilter struct {
	From        time.Time
	To          time.Time
	EventType   string
	ImpactLevel ImpactLevel
}
