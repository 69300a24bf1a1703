package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

func series(prices ...float64) models.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.PriceSeries{}
	for i, p := range prices {
		s.Points = append(s.Points, models.PricePoint{Date: start.AddDate(0, 0, i), Price: p})
	}
	return s
}

func TestComputeLogReturns_Aligned(t *testing.T) {
	s := series(100, 110, 99)
	obs, err := ComputeLogReturns(s)
	require.NoError(t, err)
	require.Equal(t, 2, obs.Len())
	assert.InDelta(t, math.Log(1.1), obs.Values[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), obs.Values[1], 1e-12)
	assert.Equal(t, s.Points[1].Date, obs.Dates[0])
	assert.Equal(t, s.Points[2].Date, obs.Dates[1])
	assert.NoError(t, obs.Validate())
}

func TestComputeLogReturns_Edge(t *testing.T) {
	obs, err := ComputeLogReturns(series(100))
	require.NoError(t, err)
	assert.Equal(t, 0, obs.Len())

	_, err = ComputeLogReturns(series(100, 0, 5))
	assert.ErrorIs(t, err, ErrNonPositivePrice)
}

func TestSplitAverages(t *testing.T) {
	before, after, ok := SplitAverages([]float64{10, 20, 30, 40}, 1)
	require.True(t, ok)
	assert.Equal(t, 10.0, before)
	assert.Equal(t, 30.0, after)

	_, _, ok = SplitAverages([]float64{10, 20}, 0)
	assert.False(t, ok)
	_, _, ok = SplitAverages([]float64{10, 20}, 2)
	assert.False(t, ok)
}

func TestRealizedVolatility(t *testing.T) {
	r := []float64{0.01, -0.01, 0.01, -0.01}
	sd := math.Sqrt(4 * 0.0001 / 3)
	assert.InDelta(t, sd*math.Sqrt(TradingDaysPerYear), RealizedVolatility(r, 0, TradingDaysPerYear), 1e-12)
	assert.Equal(t, 0.0, RealizedVolatility(r, 10, TradingDaysPerYear))
}

func TestDescribeValues(t *testing.T) {
	d := DescribeValues([]float64{3, 1, 2})
	assert.Equal(t, Describe{Count: 3, Min: 1, Max: 3, Mean: 2, Std: 1}, d)
	assert.Equal(t, Describe{}, DescribeValues(nil))
}
