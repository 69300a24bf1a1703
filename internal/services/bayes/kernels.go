package bayes

import (
	"math"
	"math/rand/v2"
)

// adaptEvery is the tuning window, in iterations, between proposal adaptations.
const adaptEvery = 50

// tauKernel is a Metropolis step over the integer change point. Proposals mix a
// uniform draw over the whole support with a reflected random walk of radius
// up to radius. Both parts are symmetric.
type tauKernel struct {
	lower, upper int
	radius       int
	maxRadius    int
	target       float64
	globalProb   float64

	winProposed, winAccepted int
	proposed, accepted       int
}

func newTauKernel(prior DiscreteUniformPrior, target float64) *tauKernel {
	span := prior.Upper - prior.Lower
	return &tauKernel{
		lower:      prior.Lower,
		upper:      prior.Upper,
		radius:     max(1, span/20),
		maxRadius:  max(1, span),
		target:     target,
		globalProb: 0.1,
	}
}

func (k *tauKernel) propose(rng *rand.Rand, cur int) (next int, local bool) {
	if rng.Float64() < k.globalProb {
		return k.lower + rng.IntN(k.upper-k.lower+1), false
	}
	step := 1 + rng.IntN(k.radius)
	if rng.IntN(2) == 0 {
		step = -step
	}
	next = cur + step
	for next < k.lower || next > k.upper {
		if next < k.lower {
			next = 2*k.lower - next
		}
		if next > k.upper {
			next = 2*k.upper - next
		}
	}
	return next, true
}

// step runs one Metropolis update. logp evaluates the log posterior at a tau value.
func (k *tauKernel) step(rng *rand.Rand, cur int, logp func(int) float64, tuning bool) int {
	next, local := k.propose(rng, cur)
	if next == cur {
		// not a move; left out of the acceptance counts
		return cur
	}
	delta := logp(next) - logp(cur)
	accepted := delta >= 0 || math.Log(rng.Float64()) < delta
	if tuning {
		if local {
			k.winProposed++
			if accepted {
				k.winAccepted++
			}
		}
	} else {
		k.proposed++
		if accepted {
			k.accepted++
		}
	}
	if accepted {
		return next
	}
	return cur
}

// adapt moves the walk radius toward the target acceptance rate.
func (k *tauKernel) adapt() {
	if k.winProposed == 0 {
		return
	}
	rate := float64(k.winAccepted) / float64(k.winProposed)
	if rate < k.target {
		k.radius = max(1, int(float64(k.radius)*0.8))
	} else {
		k.radius = min(k.maxRadius, k.radius+max(1, k.radius/4))
	}
	k.winProposed, k.winAccepted = 0, 0
}

func (k *tauKernel) acceptRate() float64 {
	if k.proposed == 0 {
		return 0
	}
	return float64(k.accepted) / float64(k.proposed)
}

// sliceKernel is a univariate slice sampler with stepping out and shrinkage (Neal, 2003).
type sliceKernel struct {
	width    float64
	maxSteps int

	jumpSum float64
	jumps   int
}

const maxShrink = 200

func newSliceKernel(width float64) *sliceKernel {
	return &sliceKernel{width: width, maxSteps: 32}
}

// step draws a new value given the current one. ok is false when the log density
// at x0 is not finite.
func (k *sliceKernel) step(rng *rand.Rand, x0 float64, logf func(float64) float64, tuning bool) (float64, bool) {
	fx0 := logf(x0)
	if math.IsNaN(fx0) || math.IsInf(fx0, 0) {
		return x0, false
	}
	logy := fx0 - rng.ExpFloat64()

	left := x0 - k.width*rng.Float64()
	right := left + k.width
	j := rng.IntN(k.maxSteps)
	r := k.maxSteps - 1 - j
	for ; j > 0 && logf(left) > logy; j-- {
		left -= k.width
	}
	for ; r > 0 && logf(right) > logy; r-- {
		right += k.width
	}

	x1 := x0
	for i := 0; i < maxShrink; i++ {
		cand := left + rng.Float64()*(right-left)
		if logf(cand) > logy {
			x1 = cand
			break
		}
		if cand < x0 {
			left = cand
		} else {
			right = cand
		}
	}
	if tuning {
		k.jumpSum += math.Abs(x1 - x0)
		k.jumps++
	}
	return x1, true
}

// adapt sets the initial bracket width to twice the mean jump of the last window.
func (k *sliceKernel) adapt() {
	if k.jumps == 0 {
		return
	}
	if mean := k.jumpSum / float64(k.jumps); mean > 0 {
		k.width = math.Max(2*mean, 1e-12)
	}
	k.jumpSum, k.jumps = 0, 0
}
