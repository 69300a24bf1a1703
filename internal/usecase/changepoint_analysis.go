package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	domsvc "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/features"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// ChangePointAnalysis runs one end to end analysis: load prices, detect the
// change point, relate it to catalog events, persist and announce the result.
type ChangePointAnalysis struct {
	prices     domrepo.PriceSource
	detector   domsvc.ChangePointDetector
	assoc      domsvc.EventAssociator
	store      domrepo.ResultStore
	pub        domrepo.Publisher
	metrics    domrepo.Metrics
	windowDays int
	l          *logger.Logger

	now   func() time.Time
	newID func() string
}

func NewChangePointAnalysis(
	prices domrepo.PriceSource,
	detector domsvc.ChangePointDetector,
	assoc domsvc.EventAssociator,
	store domrepo.ResultStore,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	windowDays int,
	l *logger.Logger,
) *ChangePointAnalysis {
	if l == nil {
		l = logger.Nop()
	}
	return &ChangePointAnalysis{
		prices:     prices,
		detector:   detector,
		assoc:      assoc,
		store:      store,
		pub:        pub,
		metrics:    metrics,
		windowDays: windowDays,
		l:          l,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

func (a *ChangePointAnalysis) Run(ctx context.Context) (models.AnalysisRecord, error) {
	start := a.now()
	rec, err := a.run(ctx)
	a.metrics.RecordLatency("analysis", a.now().Sub(start).Seconds())
	if err != nil {
		a.metrics.RecordAnalysis("failed")
		a.l.Error("analysis failed", logger.Error(err))
		return models.AnalysisRecord{}, err
	}
	a.metrics.RecordAnalysis("success")
	return rec, nil
}

func (a *ChangePointAnalysis) run(ctx context.Context) (models.AnalysisRecord, error) {
	series, err := a.prices.LoadPrices(ctx)
	if err != nil {
		a.metrics.RecordError("load_prices")
		return models.AnalysisRecord{}, fmt.Errorf("load prices: %w", err)
	}
	returns, err := features.ComputeLogReturns(series)
	if err != nil {
		a.metrics.RecordError("returns")
		return models.AnalysisRecord{}, fmt.Errorf("log returns: %w", err)
	}

	det, err := a.detector.Detect(ctx, returns)
	if err != nil {
		a.metrics.RecordError("detect")
		return models.AnalysisRecord{}, fmt.Errorf("detect change point: %w", err)
	}
	a.recordDiagnostics(det)

	tau := det.ChangePoint.Median
	var date time.Time
	if det.ChangePoint.Date != nil {
		date = *det.ChangePoint.Date
	} else {
		// Out of range median; anchor on the most recent return.
		date = returns.Dates[len(returns.Dates)-1]
		a.l.Warn("change point date fallback",
			logger.Int("tau", tau),
			logger.String("warning", det.ChangePoint.DateWarning),
			logger.Time("date", date),
		)
	}

	// tau indexes returns; prices[1:] shares their dates.
	var priceBefore, priceAfter *float64
	if before, after, ok := features.SplitAverages(series.Prices()[1:], tau); ok {
		priceBefore, priceAfter = &before, &after
	}

	assoc := a.assoc.Associate(date, det.Impact.MuBefore.Mean, det.Impact.MuAfter.Mean, priceBefore, priceAfter, a.windowDays)
	eventName := ""
	if assoc.ClosestEvent != nil {
		eventName = assoc.ClosestEvent.Description
	}

	rec := models.AnalysisRecord{
		RunID:           a.newID(),
		ChangePointDate: date,
		ChangePointObs:  tau,
		Mu1:             assoc.MuBefore,
		Mu2:             assoc.MuAfter,
		ImpactPercent:   assoc.ImpactPercent,
		PriceBefore:     assoc.PriceBefore,
		PriceAfter:      assoc.PriceAfter,
		ImpactUSD:       assoc.ImpactUSD,
		ClosestEvent:    eventName,
		ImpactStatement: a.assoc.FormatImpactStatement(assoc, eventName),
		Certainty:       det.ChangePoint.Certainty,
		Confidence:      assoc.Confidence,
		Converged:       det.Convergence.Verdict(),
		CreatedAt:       a.now().UTC(),
	}
	if ce := assoc.ClosestEvent; ce != nil {
		d, days := ce.Date, ce.DaysDifference
		rec.ClosestEventDate = &d
		rec.DaysDifference = &days
	}

	if err := a.store.Save(ctx, rec, assoc.NearbyEvents); err != nil {
		a.metrics.RecordError("save")
		return models.AnalysisRecord{}, fmt.Errorf("save analysis: %w", err)
	}
	if err := a.pub.PublishAnalysis(ctx, rec); err != nil {
		// The result is already persisted; a lost notification is not fatal.
		a.metrics.RecordError("publish")
		a.l.Warn("publish analysis failed", logger.String("run_id", rec.RunID), logger.Error(err))
	}

	a.l.Info("analysis completed",
		logger.String("run_id", rec.RunID),
		logger.Time("change_point_date", rec.ChangePointDate),
		logger.Int("tau", rec.ChangePointObs),
		logger.Float64("impact_percent", rec.ImpactPercent),
		logger.String("closest_event", rec.ClosestEvent),
		logger.String("convergence", rec.Converged),
	)
	return rec, nil
}

func (a *ChangePointAnalysis) recordDiagnostics(det models.Detection) {
	for _, p := range det.Convergence.Params {
		a.metrics.RecordConvergence(p.Name, p.RHat, p.ESSBulk)
	}
	for i, r := range det.Sampling.AcceptRates {
		a.metrics.RecordAcceptance(i, r)
	}
	if !det.Convergence.IsConverged() {
		a.l.Warn("posterior did not converge; estimates may be unreliable",
			logger.String("verdict", det.Convergence.Verdict()),
		)
	}
}
