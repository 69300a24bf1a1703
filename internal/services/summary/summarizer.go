package summary

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/bayes"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

const credibleMass = 0.95

// Summarizer reduces posterior draws to point estimates and intervals.
type Summarizer struct {
	log *logger.Logger
}

func New(l *logger.Logger) *Summarizer {
	if l == nil {
		l = logger.Nop()
	}
	return &Summarizer{log: l}
}

// ChangePoint summarizes the tau draws of all chains. When dates is given and
// the median index falls inside it, the estimate carries the matching date;
// otherwise the date stays nil and DateWarning explains why.
func (s *Summarizer) ChangePoint(d *bayes.Draws, dates []time.Time) (models.ChangePointEstimate, error) {
	var flat []int
	if d != nil {
		flat = d.FlatTau()
	}
	if len(flat) == 0 {
		return models.ChangePointEstimate{}, &MissingVariableError{Names: []string{bayes.ParamTau}}
	}

	values := toFloat(flat)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	std, _ := stats.StandardDeviationPopulation(values)
	lo, hi := HDI(values, credibleMass)

	est := models.ChangePointEstimate{
		Mean:      mean,
		Median:    int(median),
		Mode:      Mode(flat),
		Std:       std,
		Lower95:   int(lo),
		Upper95:   int(hi),
		Certainty: models.CertaintyFromStd(std),
	}

	if len(dates) > 0 {
		if est.Median >= 0 && est.Median < len(dates) {
			date := dates[est.Median]
			est.Date = &date
		} else {
			est.DateWarning = fmt.Sprintf("change point index %d is outside the date index of length %d", est.Median, len(dates))
			s.log.Warn("change point date unresolved",
				logger.Int("median", est.Median),
				logger.Int("dates", len(dates)),
			)
		}
	}

	s.log.Info("change point detected",
		logger.Int("median", est.Median),
		logger.Int("mode", est.Mode),
		logger.Float64("mean", est.Mean),
		logger.Int("hdi_lower", est.Lower95),
		logger.Int("hdi_upper", est.Upper95),
		logger.String("certainty", string(est.Certainty)),
	)
	return est, nil
}

// Parameters summarizes the segment means, the shared spread and their
// difference. The difference is taken draw by draw so that posterior
// correlation between the means carries into the impact.
func (s *Summarizer) Parameters(d *bayes.Draws) (models.ImpactEstimate, error) {
	if d == nil {
		return models.ImpactEstimate{}, &MissingVariableError{Names: []string{bayes.ParamMuBefore, bayes.ParamMuAfter, bayes.ParamSigma}}
	}
	before := bayes.Flatten(d.MuBefore)
	after := bayes.Flatten(d.MuAfter)
	sigma := bayes.Flatten(d.Sigma)

	var missing []string
	for _, v := range []struct {
		name  string
		draws []float64
	}{
		{bayes.ParamMuBefore, before},
		{bayes.ParamMuAfter, after},
		{bayes.ParamSigma, sigma},
	} {
		if len(v.draws) == 0 {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return models.ImpactEstimate{}, &MissingVariableError{Names: missing}
	}
	if len(before) != len(after) {
		return models.ImpactEstimate{}, fmt.Errorf("mu_before has %d draws but mu_after has %d", len(before), len(after))
	}

	impact := make([]float64, len(before))
	for i := range before {
		impact[i] = after[i] - before[i]
	}

	est := models.ImpactEstimate{
		MuBefore: describe(before),
		MuAfter:  describe(after),
		Sigma:    describe(sigma),
		Impact:   describe(impact),
	}
	est.ImpactPercent = ImpactPercent(est.Impact.Mean)

	s.log.Info("parameter estimates",
		logger.Float64("mu_before", est.MuBefore.Mean),
		logger.Float64("mu_after", est.MuAfter.Mean),
		logger.Float64("sigma", est.Sigma.Mean),
		logger.Float64("impact", est.Impact.Mean),
		logger.Float64("impact_percent", est.ImpactPercent),
	)
	return est, nil
}
