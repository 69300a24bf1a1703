package summary

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
)

// Mode returns the most frequent value; ties go to the smallest one.
func Mode(values []int) int {
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// HDI returns the narrowest interval holding a prob share of the draws.
// The first narrowest candidate wins.
func HDI(values []float64, prob float64) (lower, upper float64) {
	s := slices.Clone(values)
	slices.Sort(s)
	n := len(s)
	inc := int(math.Floor(prob * float64(n)))
	best := 0
	for i := 1; i < n-inc; i++ {
		if s[i+inc]-s[i] < s[best+inc]-s[best] {
			best = i
		}
	}
	return s[best], s[best+inc]
}

// Quantile is the linearly interpolated sample quantile (Hyndman and Fan type 7).
func Quantile(values []float64, p float64) float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	return quantileSorted(s, p)
}

func quantileSorted(s []float64, p float64) float64 {
	n := len(s)
	if n == 1 {
		return s[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return s[n-1]
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo])
}

// describe summarizes draws with an equal-tailed 95% interval.
func describe(values []float64) models.ParamSummary {
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	std, _ := stats.StandardDeviationPopulation(values)

	s := slices.Clone(values)
	slices.Sort(s)
	return models.ParamSummary{
		Mean:    mean,
		Median:  median,
		Std:     std,
		Lower95: quantileSorted(s, 0.025),
		Upper95: quantileSorted(s, 0.975),
	}
}

func toFloat(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// ImpactPercent converts a shift in mean log return into a percentage change.
func ImpactPercent(impactLog float64) float64 {
	return (math.Exp(impactLog) - 1) * 100
}
