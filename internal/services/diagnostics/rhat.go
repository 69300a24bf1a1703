package diagnostics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	minChains = 2
	minDraws  = 4
)

// RHat is the rank-normalized split potential scale reduction of Vehtari et al.
// (2021): the larger of the bulk and folded-tail statistics. Draws that are all
// identical give 1. Fewer than 2 chains or 4 draws give NaN.
func RHat(chains [][]float64) float64 {
	if !valid(chains) {
		return math.NaN()
	}
	if constant(chains) {
		return 1
	}
	bulk := splitRHat(zScale(split(chains)))

	flat := flatten(chains)
	med, _ := stats.Median(flat)
	folded := make([][]float64, len(chains))
	for c, ch := range chains {
		folded[c] = make([]float64, len(ch))
		for i, v := range ch {
			folded[c][i] = math.Abs(v - med)
		}
	}
	tail := splitRHat(zScale(split(folded)))
	if math.IsNaN(tail) {
		return bulk
	}
	return math.Max(bulk, tail)
}

// splitRHat is the classic statistic on already split chains of equal length.
func splitRHat(chains [][]float64) float64 {
	n := float64(len(chains[0]))
	means := make([]float64, len(chains))
	vars := make([]float64, len(chains))
	for c, ch := range chains {
		means[c], vars[c] = stat.MeanVariance(ch, nil)
	}
	between := n * stat.Variance(means, nil)
	within := stat.Mean(vars, nil)
	if within == 0 {
		if between == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return math.Sqrt(((n-1)/n*within + between/n) / within)
}

// split halves every chain; the middle draw of an odd-length chain is dropped.
func split(chains [][]float64) [][]float64 {
	half := len(chains[0]) / 2
	out := make([][]float64, 0, 2*len(chains))
	for _, ch := range chains {
		out = append(out, ch[:half])
	}
	for _, ch := range chains {
		out = append(out, ch[len(ch)-half:])
	}
	return out
}

// zScale replaces every draw by the normal quantile of its pooled fractional
// rank, with ties given their average rank.
func zScale(chains [][]float64) [][]float64 {
	type item struct {
		v    float64
		c, i int
	}
	var all []item
	for c, ch := range chains {
		for i, v := range ch {
			all = append(all, item{v, c, i})
		}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].v < all[b].v })

	size := float64(len(all))
	out := make([][]float64, len(chains))
	for c, ch := range chains {
		out[c] = make([]float64, len(ch))
	}
	for lo := 0; lo < len(all); {
		hi := lo + 1
		for hi < len(all) && all[hi].v == all[lo].v {
			hi++
		}
		rank := float64(lo+hi+1) / 2
		z := distuv.UnitNormal.Quantile((rank - 0.375) / (size + 0.25))
		for k := lo; k < hi; k++ {
			out[all[k].c][all[k].i] = z
		}
		lo = hi
	}
	return out
}

func valid(chains [][]float64) bool {
	if len(chains) < minChains {
		return false
	}
	n := len(chains[0])
	if n < minDraws {
		return false
	}
	for _, ch := range chains {
		if len(ch) != n {
			return false
		}
		for _, v := range ch {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func constant(chains [][]float64) bool {
	first := chains[0][0]
	for _, ch := range chains {
		for _, v := range ch {
			if v != first {
				return false
			}
		}
	}
	return true
}

func flatten(chains [][]float64) []float64 {
	var out []float64
	for _, ch := range chains {
		out = append(out, ch...)
	}
	return out
}
