package service

import (
	"context"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

// ChangePointDetector infers a single mean shift in an observation series.
type ChangePointDetector interface {
	Detect(ctx context.Context, series models.ObservationSeries) (models.Detection, error)
}

// EventAssociator relates a change point to catalog events.
type EventAssociator interface {
	FindNearbyEvents(date time.Time, windowDays int) []models.NearbyEvent
	Associate(date time.Time, muBefore, muAfter float64, priceBefore, priceAfter *float64, windowDays int) models.Association
	FormatImpactStatement(a models.Association, eventName string) string
	Events() []models.EventRecord
}
