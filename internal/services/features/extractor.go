package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

// TradingDaysPerYear annualizes daily return statistics.
const TradingDaysPerYear = 252

var ErrNonPositivePrice = errors.New("non-positive price")

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// The result has len(series)-1 values; value i is dated series.Points[i+1].Date.
func ComputeLogReturns(series models.PriceSeries) (models.ObservationSeries, error) {
	pts := series.Points
	if len(pts) < 2 {
		return models.ObservationSeries{}, nil
	}
	out := models.ObservationSeries{
		Values: make([]float64, 0, len(pts)-1),
		Dates:  series.Dates()[1:],
	}
	for i := 1; i < len(pts); i++ {
		prev, cur := pts[i-1].Price, pts[i].Price
		if prev <= 0 || cur <= 0 {
			return models.ObservationSeries{}, fmt.Errorf("%w at %s", ErrNonPositivePrice, pts[i].Date.Format("2006-01-02"))
		}
		out.Values = append(out.Values, math.Log(cur/prev))
	}
	return out, nil
}

// RealizedVolatility computes annualized realized volatility over the trailing
// window using the provided number of bars per year. A window of 0 uses every return.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window == 0 {
		window = len(logReturns)
	}
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sd, err := stats.StandardDeviationSample(logReturns[len(logReturns)-window:])
	if err != nil {
		return 0
	}
	return sd * math.Sqrt(barsPerYear)
}

// SplitAverages returns the mean price before index tau and from tau onward.
// prices must be aligned with the observation series tau indexes, i.e. the
// price on the date of each return. ok is false when either side is empty.
func SplitAverages(prices []float64, tau int) (before, after float64, ok bool) {
	if tau <= 0 || tau >= len(prices) {
		return 0, 0, false
	}
	before, _ = stats.Mean(prices[:tau])
	after, _ = stats.Mean(prices[tau:])
	return before, after, true
}

// Describe returns min, max, mean and sample standard deviation.
type Describe struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

func DescribeValues(values []float64) Describe {
	if len(values) == 0 {
		return Describe{}
	}
	d := Describe{Count: len(values)}
	d.Min, _ = stats.Min(values)
	d.Max, _ = stats.Max(values)
	d.Mean, _ = stats.Mean(values)
	if len(values) > 1 {
		d.Std, _ = stats.StandardDeviationSample(values)
	}
	return d
}
