package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ESSBulk is the bulk effective sample size on rank-normalized split chains,
// using Geyer's initial monotone sequence. Identical draws give the total
// draw count.
func ESSBulk(chains [][]float64) float64 {
	if !valid(chains) {
		return math.NaN()
	}
	if constant(chains) {
		return float64(len(chains) * len(chains[0]))
	}
	return ess(zScale(split(chains)))
}

func ess(chains [][]float64) float64 {
	m := len(chains)
	n := len(chains[0])
	fn := float64(n)

	acov := make([]*autocov, m)
	means := make([]float64, m)
	for c, ch := range chains {
		acov[c] = newAutocov(ch)
		means[c] = acov[c].mean
	}
	meanAt := func(lag int) float64 {
		s := 0.0
		for _, a := range acov {
			s += a.at(lag)
		}
		return s / float64(m)
	}

	meanVar := meanAt(0) * fn / (fn - 1)
	varPlus := meanVar * (fn - 1) / fn
	if m > 1 {
		varPlus += stat.Variance(means, nil)
	}
	if varPlus == 0 {
		return float64(m * n)
	}

	rho := make([]float64, n)
	rhoEven := 1.0
	rhoOdd := 1 - (meanVar-meanAt(1))/varPlus
	rho[0], rho[1] = rhoEven, rhoOdd

	t := 1
	for t < n-3 && rhoEven+rhoOdd > 0 {
		rhoEven = 1 - (meanVar-meanAt(t+1))/varPlus
		rhoOdd = 1 - (meanVar-meanAt(t+2))/varPlus
		if rhoEven+rhoOdd >= 0 {
			rho[t+1] = rhoEven
			rho[t+2] = rhoOdd
		}
		t += 2
	}
	maxT := t - 2
	if rhoEven > 0 {
		rho[maxT+1] = rhoEven
	}

	for t = 1; t <= maxT-2; t += 2 {
		if rho[t+1]+rho[t+2] > rho[t-1]+rho[t] {
			rho[t+1] = (rho[t-1] + rho[t]) / 2
			rho[t+2] = rho[t+1]
		}
	}

	total := float64(m * n)
	sum := 0.0
	for i := 0; i <= maxT; i++ {
		sum += rho[i]
	}
	tauHat := -1 + 2*sum + rho[maxT+1]
	tauHat = math.Max(tauHat, 1/math.Log10(total))
	return total / tauHat
}

// autocov computes biased autocovariances of one chain on demand. The Geyer
// sequence usually stops after a few lags, so lags are not precomputed.
type autocov struct {
	x    []float64
	mean float64
	memo map[int]float64
}

func newAutocov(x []float64) *autocov {
	return &autocov{x: x, mean: stat.Mean(x, nil), memo: make(map[int]float64)}
}

func (a *autocov) at(lag int) float64 {
	if v, ok := a.memo[lag]; ok {
		return v
	}
	n := len(a.x)
	s := 0.0
	for i := 0; i+lag < n; i++ {
		s += (a.x[i] - a.mean) * (a.x[i+lag] - a.mean)
	}
	v := s / float64(n)
	a.memo[lag] = v
	return v
}
