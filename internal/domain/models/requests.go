package models

// Requests for the read-side HTTP endpoints. Dates are ISO (2006-01-02).

type PricesRequest struct {
	StartDate string `query:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type EventsRequest struct {
	StartDate   string `query:"start_date" json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `query:"end_date" json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	EventType   string `query:"event_type" json:"event_type"`
	ImpactLevel string `query:"impact_level" json:"impact_level" validate:"omitempty,oneof=High Medium Low"`
}

// NearbyEventsRequest leaves WindowDays zero when the parameter is absent;
// handlers substitute the configured default since 0 is a valid window.
type NearbyEventsRequest struct {
	Date       string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
	WindowDays int    `query:"window_days" json:"window_days" validate:"gte=0,lte=3650"`
}
