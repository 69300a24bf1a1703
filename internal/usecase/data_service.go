package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	domsvc "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/features"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/util"
)

// DataService serves read-only views over the price snapshot, the event
// catalog and the latest persisted analysis.
type DataService struct {
	prices domrepo.PriceSource
	assoc  domsvc.EventAssociator
	store  domrepo.ResultStore
}

func NewDataService(prices domrepo.PriceSource, assoc domsvc.EventAssociator, store domrepo.ResultStore) *DataService {
	return &DataService{prices: prices, assoc: assoc, store: store}
}

// Prices returns the points inside [from, to]; zero bounds are open.
func (s *DataService) Prices(ctx context.Context, from, to time.Time) (models.PriceOverview, error) {
	series, err := s.prices.LoadPrices(ctx)
	if err != nil {
		return models.PriceOverview{}, err
	}
	out := models.PriceOverview{Records: []models.PricePoint{}}
	for _, p := range series.Points {
		if util.InRange(p.Date, from, to) {
			out.Records = append(out.Records, p)
		}
	}
	out.Count = len(out.Records)
	if out.Count == 0 {
		return out, nil
	}
	out.DateRange = dateRange(out.Records)
	prices := make([]float64, out.Count)
	for i, p := range out.Records {
		prices[i] = p.Price
	}
	d := features.DescribeValues(prices)
	out.PriceRange = models.PriceRange{Min: d.Min, Max: d.Max, Mean: d.Mean}
	return out, nil
}

// Events filters the catalog, keeping chronological order.
func (s *DataService) Events(f models.EventFilter) []models.EventRecord {
	out := []models.EventRecord{}
	for _, e := range s.assoc.Events() {
		if !util.InRange(e.Date, f.From, f.To) {
			continue
		}
		if f.EventType != "" && !strings.EqualFold(e.Type, f.EventType) {
			continue
		}
		if f.ImpactLevel != "" && e.ImpactLevel != f.ImpactLevel {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *DataService) NearbyEvents(date time.Time, windowDays int) []models.NearbyEvent {
	out := s.assoc.FindNearbyEvents(date, windowDays)
	if out == nil {
		out = []models.NearbyEvent{}
	}
	return out
}

func (s *DataService) Summary(ctx context.Context) (models.SeriesSummary, error) {
	series, err := s.prices.LoadPrices(ctx)
	if err != nil {
		return models.SeriesSummary{}, err
	}
	out := models.SeriesSummary{Observations: series.Len()}
	if series.Len() == 0 {
		return out, nil
	}
	out.DateRange = dateRange(series.Points)
	pd := features.DescribeValues(series.Prices())
	out.Price = models.PriceRange{Min: pd.Min, Max: pd.Max, Mean: pd.Mean}
	out.PriceStd = pd.Std

	returns, err := features.ComputeLogReturns(series)
	if err != nil {
		return models.SeriesSummary{}, err
	}
	rd := features.DescribeValues(returns.Values)
	out.ReturnsMean = rd.Mean
	out.ReturnsStd = rd.Std
	out.AnnualizedVolatility = features.RealizedVolatility(returns.Values, 0, features.TradingDaysPerYear)
	return out, nil
}

func (s *DataService) LatestChangePoints(ctx context.Context) (models.AnalysisResult, error) {
	return s.store.Latest(ctx)
}

func dateRange(points []models.PricePoint) models.DateRange {
	first, last := points[0].Date, points[len(points)-1].Date
	return models.DateRange{Start: &first, End: &last}
}
