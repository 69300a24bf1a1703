package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domsvc "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/bayes"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/diagnostics"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/summary"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// BayesianDetector runs the single change point model in process:
// build, sample, check convergence, summarize.
type BayesianDetector struct {
	name       string
	sampling   bayes.Config
	checker    *diagnostics.Checker
	summarizer *summary.Summarizer
	log        *logger.Logger
}

func NewBayesianDetector(cfg *config.Config, l *logger.Logger) *BayesianDetector {
	if l == nil {
		l = logger.Nop()
	}
	return &BayesianDetector{
		name: cfg.Model.Name,
		sampling: bayes.Config{
			Draws:        cfg.Model.Draws,
			Tune:         cfg.Model.Tune,
			Chains:       cfg.Model.Chains,
			TargetAccept: cfg.Model.TargetAccept,
			Seed:         cfg.Model.Seed,
		},
		checker:    diagnostics.NewChecker(diagnostics.WithThreshold(cfg.Model.RHatMax), diagnostics.WithLogger(l)),
		summarizer: summary.New(l),
		log:        l,
	}
}

// Detect fits the model to series. Non-convergence is reported, not returned as an error.
func (d *BayesianDetector) Detect(ctx context.Context, series models.ObservationSeries) (models.Detection, error) {
	var out models.Detection
	if err := series.Validate(); err != nil {
		return out, err
	}

	m, err := bayes.NewModel(series.Values, bayes.WithName(d.name), bayes.WithLogger(d.log))
	if err != nil {
		return out, err
	}
	if err := m.Build(); err != nil {
		return out, fmt.Errorf("build model: %w", err)
	}

	start := time.Now()
	draws, err := m.Sample(ctx, d.sampling)
	if err != nil {
		return out, fmt.Errorf("sample posterior: %w", err)
	}
	out.Sampling = models.SamplingStats{
		Chains:     draws.NumChains(),
		Draws:      draws.NumDraws(),
		Tune:       draws.Tune,
		Seed:       draws.Seed,
		DurationMs: time.Since(start).Milliseconds(),
	}
	for _, s := range draws.Stats {
		out.Sampling.AcceptRates = append(out.Sampling.AcceptRates, s.TauAcceptRate)
	}

	out.Convergence = d.checker.Check(draws)

	out.ChangePoint, err = d.summarizer.ChangePoint(draws, series.Dates)
	if err != nil {
		return out, fmt.Errorf("summarize change point: %w", err)
	}
	out.Impact, err = d.summarizer.Parameters(draws)
	if err != nil {
		return out, fmt.Errorf("summarize parameters: %w", err)
	}
	return out, nil
}

var _ domsvc.ChangePointDetector = (*BayesianDetector)(nil)
