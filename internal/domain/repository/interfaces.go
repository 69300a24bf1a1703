package repository

import (
	"context"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

// PriceSource loads a price snapshot.
type PriceSource interface {
	LoadPrices(ctx context.Context) (models.PriceSeries, error)
}

// ResultStore persists analysis outcomes and serves the latest one.
type ResultStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, rec models.AnalysisRecord, nearby []models.NearbyEvent) error
	// Latest returns a Pending result when nothing was persisted yet.
	Latest(ctx context.Context) (models.AnalysisResult, error)
	Close() error
}

type Publisher interface {
	PublishAnalysis(ctx context.Context, rec models.AnalysisRecord) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(status string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordConvergence(param string, rhat, ess float64)
	RecordAcceptance(chain int, rate float64)
}
