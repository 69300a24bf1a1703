package bayes

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DiscreteUniformPrior is uniform over the integers Lower..Upper inclusive.
type DiscreteUniformPrior struct {
	Lower int
	Upper int
}

func (p DiscreteUniformPrior) Contains(k int) bool { return k >= p.Lower && k <= p.Upper }

func (p DiscreteUniformPrior) LogProb(k int) float64 {
	if !p.Contains(k) {
		return math.Inf(-1)
	}
	return -math.Log(float64(p.Upper - p.Lower + 1))
}

type NormalPrior struct {
	Mu    float64
	Sigma float64
}

func (p NormalPrior) LogProb(x float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.LogProb(x)
}

// HalfNormalPrior is a zero-centered normal folded onto the positive reals.
type HalfNormalPrior struct {
	Scale float64
}

func (p HalfNormalPrior) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + distuv.Normal{Mu: 0, Sigma: p.Scale}.LogProb(x)
}

// Priors is the parameter registry of the change point model.
type Priors struct {
	Tau      DiscreteUniformPrior
	MuBefore NormalPrior
	MuAfter  NormalPrior
	Sigma    HalfNormalPrior
}
