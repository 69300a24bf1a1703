package diagnostics

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/bayes"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

func normalChains(m, n int, offset func(c int) float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, 1))
	out := make([][]float64, m)
	for c := range out {
		out[c] = make([]float64, n)
		for i := range out[c] {
			out[c][i] = offset(c) + rng.NormFloat64()
		}
	}
	return out
}

func ar1Chains(m, n int, phi float64, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, 2))
	out := make([][]float64, m)
	for c := range out {
		out[c] = make([]float64, n)
		x := 0.0
		for i := range out[c] {
			x = phi*x + rng.NormFloat64()
			out[c][i] = x
		}
	}
	return out
}

func TestRHat_MixedChains(t *testing.T) {
	chains := normalChains(4, 1000, func(int) float64 { return 0 }, 1)
	r := RHat(chains)
	assert.Less(t, r, DefaultThreshold)
	assert.Greater(t, r, 0.99)
}

func TestRHat_SeparatedChains(t *testing.T) {
	chains := normalChains(4, 500, func(c int) float64 { return 3 * float64(c) }, 2)
	assert.Greater(t, RHat(chains), 1.1)
}

func TestRHat_IdenticalDraws(t *testing.T) {
	chains := [][]float64{{7, 7, 7, 7, 7, 7}, {7, 7, 7, 7, 7, 7}}
	assert.Equal(t, 1.0, RHat(chains))
	assert.Equal(t, 12.0, ESSBulk(chains))
}

func TestRHat_StuckChainsDisagree(t *testing.T) {
	chains := [][]float64{{1, 1, 1, 1, 1, 1}, {2, 2, 2, 2, 2, 2}}
	assert.True(t, math.IsInf(RHat(chains), 1))
}

func TestRHat_TooFewChainsOrDraws(t *testing.T) {
	assert.True(t, math.IsNaN(RHat([][]float64{{1, 2, 3, 4, 5}})))
	assert.True(t, math.IsNaN(RHat([][]float64{{1, 2, 3}, {3, 2, 1}})))
	assert.True(t, math.IsNaN(ESSBulk(nil)))
}

func TestESSBulk_IndependentVsCorrelated(t *testing.T) {
	iid := normalChains(4, 1000, func(int) float64 { return 0 }, 3)
	essIID := ESSBulk(iid)
	assert.Greater(t, essIID, 2500.0)

	sticky := ar1Chains(4, 1000, 0.95, 4)
	essAR := ESSBulk(sticky)
	assert.Less(t, essAR, 600.0)
	assert.Greater(t, essAR, 0.0)
}

func TestSplit_DropsMiddleOfOddChains(t *testing.T) {
	halves := split([][]float64{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}})
	assert.Equal(t, [][]float64{{1, 2}, {6, 7}, {4, 5}, {9, 10}}, halves)
}

func TestZScale_TiesShareRank(t *testing.T) {
	z := zScale([][]float64{{1, 2}, {2, 3}})
	assert.Equal(t, z[0][1], z[1][0])
	assert.Less(t, z[0][0], z[0][1])
	assert.Less(t, z[1][0], z[1][1])
	assert.InDelta(t, 0, z[0][1], 1e-12)
}

func vars(names ...string) []bayes.Variable {
	chains := normalChains(4, 200, func(int) float64 { return 0 }, 5)
	out := make([]bayes.Variable, len(names))
	for i, n := range names {
		out[i] = bayes.Variable{Name: n, Values: chains}
	}
	return out
}

func TestCheckVariables_Resolution(t *testing.T) {
	c := NewChecker()

	tests := []struct {
		name    string
		vars    []bayes.Variable
		want    models.Resolution
		nParams int
	}{
		{"exact", vars("tau", "mu_before", "mu_after", "sigma"), models.ResolutionExact, 4},
		{"prefixed", vars("m::tau", "m::mu_before", "m::mu_after", "m::sigma", "m::extra"), models.ResolutionPrefixed, 4},
		{"all available", vars("alpha", "beta"), models.ResolutionAllAvailable, 2},
		{"partial names fall back to everything", vars("tau", "mu_before"), models.ResolutionAllAvailable, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := c.CheckVariables(tt.vars, bayes.ParamNames...)
			assert.Equal(t, tt.want, rep.Resolution)
			assert.Len(t, rep.Params, tt.nParams)
			require.NotNil(t, rep.Converged)
			assert.Len(t, rep.Available, len(tt.vars))
		})
	}
}

func TestCheckVariables_NothingAvailable(t *testing.T) {
	var buf bytes.Buffer
	c := NewChecker(WithLogger(logger.NewWriter(&buf)))

	rep := c.CheckVariables(nil, bayes.ParamNames...)
	assert.Nil(t, rep.Converged)
	assert.Equal(t, models.ResolutionNone, rep.Resolution)
	assert.Equal(t, "unknown", rep.Verdict())
	assert.False(t, rep.IsConverged())
	assert.Contains(t, buf.String(), "no variables available")
}

func TestCheck_Verdict(t *testing.T) {
	good := normalChains(4, 400, func(int) float64 { return 0 }, 6)
	bad := normalChains(4, 400, func(c int) float64 { return 5 * float64(c) }, 7)

	d := &bayes.Draws{
		ModelName: "brent",
		Tau:       make([][]int, 4),
		MuBefore:  good,
		MuAfter:   good,
		Sigma:     good,
	}
	for c := range d.Tau {
		d.Tau[c] = make([]int, 400)
		for i := range d.Tau[c] {
			d.Tau[c][i] = 50
		}
	}

	rep := NewChecker().Check(d)
	assert.Equal(t, models.ResolutionPrefixed, rep.Resolution)
	require.NotNil(t, rep.Converged)
	assert.True(t, *rep.Converged)
	assert.Equal(t, "brent::tau", rep.Params[0].Name)
	assert.Equal(t, 1.0, rep.Params[0].RHat)

	d.MuAfter = bad
	rep = NewChecker().Check(d)
	require.NotNil(t, rep.Converged)
	assert.False(t, *rep.Converged)
	assert.False(t, rep.Params[2].Converged)
	assert.True(t, rep.Params[1].Converged)

	rep = NewChecker().Check(nil)
	assert.Nil(t, rep.Converged)
}

func TestWithThreshold(t *testing.T) {
	chains := normalChains(2, 50, func(c int) float64 { return 0.3 * float64(c) }, 8)
	r := RHat(chains)
	strict := NewChecker().CheckVariables([]bayes.Variable{{Name: "x", Values: chains}}, "x")
	loose := NewChecker(WithThreshold(r+0.5)).CheckVariables([]bayes.Variable{{Name: "x", Values: chains}}, "x")
	assert.True(t, loose.IsConverged())
	assert.Equal(t, r < DefaultThreshold, strict.IsConverged())
}
