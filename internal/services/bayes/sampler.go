package bayes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// checkEvery is how often, in iterations, a chain checks for cancellation.
const checkEvery = 100

// Config controls one sampling run.
type Config struct {
	Draws        int
	Tune         int
	Chains       int
	TargetAccept float64
	// Seed fixes the random streams. Nil seeds from the clock.
	Seed *int64
}

func DefaultConfig() Config {
	return Config{
		Draws:        2000,
		Tune:         1000,
		Chains:       4,
		TargetAccept: 0.95,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Draws < 1:
		return fmt.Errorf("draws must be positive, got %d", c.Draws)
	case c.Tune < 0:
		return fmt.Errorf("tune must not be negative, got %d", c.Tune)
	case c.Chains < 1:
		return fmt.Errorf("chains must be positive, got %d", c.Chains)
	case c.TargetAccept <= 0 || c.TargetAccept >= 1:
		return fmt.Errorf("target accept must be in (0, 1), got %g", c.TargetAccept)
	}
	return nil
}

func (c Config) seed() uint64 {
	if c.Seed != nil {
		return uint64(*c.Seed)
	}
	return uint64(time.Now().UnixNano())
}

// Sample runs cfg.Chains independent chains in parallel and returns the retained
// draws. Equal seeds and chain counts reproduce identical draws.
func (m *Model) Sample(ctx context.Context, cfg Config) (*Draws, error) {
	if !m.built {
		return nil, ErrModelNotBuilt
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampler config: %w", err)
	}

	seed := cfg.seed()
	d := newDraws(m.name, cfg.Chains, cfg.Draws)
	d.Seed, d.Tune = seed, cfg.Tune

	start := time.Now()
	m.log.Info("sampling started",
		logger.String("model", m.name),
		logger.Int("chains", cfg.Chains),
		logger.Int("draws", cfg.Draws),
		logger.Int("tune", cfg.Tune),
		logger.Uint64("seed", seed),
	)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < cfg.Chains; c++ {
		g.Go(func() error {
			return m.runChain(gctx, c, cfg, seed, d)
		})
	}
	if err := g.Wait(); err != nil {
		var se *SamplingError
		if errors.As(err, &se) {
			m.log.Error("sampling failed", logger.Error(err), logger.Int("chain", se.Chain))
		}
		return nil, err
	}

	m.log.Info("sampling finished",
		logger.String("model", m.name),
		logger.Duration("duration", time.Since(start)),
	)
	return d, nil
}

// runChain owns row c of d and touches nothing else.
func (m *Model) runChain(ctx context.Context, c int, cfg Config, seed uint64, d *Draws) error {
	rng := rand.New(rand.NewPCG(seed, uint64(c)+1))
	st := m.initialState(c, rng)

	tauK := newTauKernel(m.priors.Tau, cfg.TargetAccept)
	muK := [2]*sliceKernel{newSliceKernel(m.std), newSliceKernel(m.std)}
	sigK := newSliceKernel(1)
	n := len(m.y)

	fail := func(it int, reason string) error {
		return &SamplingError{Chain: c, Iteration: it, Reason: reason}
	}

	total := cfg.Tune + cfg.Draws
	for it := 0; it < total; it++ {
		if it%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tuning := it < cfg.Tune

		st.Tau = tauK.step(rng, st.Tau, func(t int) float64 {
			s := st
			s.Tau = t
			return m.LogLikelihood(s)
		}, tuning)

		inv := 1 / (2 * st.Sigma * st.Sigma)
		var ok bool
		st.MuBefore, ok = muK[0].step(rng, st.MuBefore, func(mu float64) float64 {
			return m.priors.MuBefore.LogProb(mu) - m.segmentSSE(0, st.Tau, mu)*inv
		}, tuning)
		if !ok {
			return fail(it, "non-finite density for mu_before")
		}
		st.MuAfter, ok = muK[1].step(rng, st.MuAfter, func(mu float64) float64 {
			return m.priors.MuAfter.LogProb(mu) - m.segmentSSE(st.Tau, n, mu)*inv
		}, tuning)
		if !ok {
			return fail(it, "non-finite density for mu_after")
		}

		sse := m.sse(st)
		eta, ok := sigK.step(rng, math.Log(st.Sigma), func(eta float64) float64 {
			sigma := math.Exp(eta)
			if sigma < m.floor || math.IsInf(sigma, 1) {
				return math.Inf(-1)
			}
			// the trailing eta is the log-Jacobian of sigma = exp(eta)
			return m.priors.Sigma.LogProb(sigma) - float64(n)*eta - sse/(2*sigma*sigma) + eta
		}, tuning)
		if !ok {
			return fail(it, "non-finite density for sigma")
		}
		st.Sigma = math.Exp(eta)

		lp := m.LogPosterior(st)
		if math.IsNaN(lp) || math.IsInf(lp, 0) {
			return fail(it, fmt.Sprintf("log posterior is %v", lp))
		}

		if tuning {
			if (it+1)%adaptEvery == 0 {
				tauK.adapt()
				muK[0].adapt()
				muK[1].adapt()
				sigK.adapt()
			}
			continue
		}
		i := it - cfg.Tune
		d.Tau[c][i] = st.Tau
		d.MuBefore[c][i] = st.MuBefore
		d.MuAfter[c][i] = st.MuAfter
		d.Sigma[c][i] = st.Sigma
	}

	d.Stats[c] = ChainStats{
		Chain:         c,
		TauAcceptRate: tauK.acceptRate(),
		TauRadius:     tauK.radius,
		MuWidth:       [2]float64{muK[0].width, muK[1].width},
		LogSigmaWidth: sigK.width,
	}
	m.log.Debug("chain finished",
		logger.Int("chain", c),
		logger.Float64("tau_accept_rate", tauK.acceptRate()),
		logger.Int("tau_radius", tauK.radius),
	)
	return nil
}

// initialState starts chain 0 at the series midpoint and the sample moments,
// the other chains at dispersed random points.
func (m *Model) initialState(c int, rng *rand.Rand) State {
	n := len(m.y)
	st := State{Tau: n / 2, MuBefore: m.mean, MuAfter: m.mean, Sigma: m.std}
	if c == 0 {
		return st
	}
	p := m.priors.Tau
	st.Tau = p.Lower + rng.IntN(p.Upper-p.Lower+1)
	st.MuBefore = m.mean + m.std*(2*rng.Float64()-1)
	st.MuAfter = m.mean + m.std*(2*rng.Float64()-1)
	st.Sigma = m.std * math.Exp(2*rng.Float64()-1)
	return st
}
