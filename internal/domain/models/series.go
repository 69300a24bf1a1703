package models

import (
	"fmt"
	"time"
)

// PricePoint is one dated Brent price observation (USD per barrel).
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is a date-ascending snapshot of prices loaded from a source.
type PriceSeries struct {
	Source string
	Points []PricePoint
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// ObservationSeries is the series the change point model runs on.
// Dates is either empty or aligned one-to-one with Values.
type ObservationSeries struct {
	Values []float64
	Dates  []time.Time
}

func (s ObservationSeries) Len() int { return len(s.Values) }

func (s ObservationSeries) HasDates() bool { return len(s.Dates) > 0 }

// Validate checks the date index alignment.
func (s ObservationSeries) Validate() error {
	if len(s.Dates) != 0 && len(s.Dates) != len(s.Values) {
		return fmt.Errorf("date index length %d does not match %d observations", len(s.Dates), len(s.Values))
	}
	return nil
}
