package bayes

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// MinObservations is the shortest series the model accepts.
const MinObservations = 10

// Parameter names as exported on draws.
const (
	ParamTau      = "tau"
	ParamMuBefore = "mu_before"
	ParamMuAfter  = "mu_after"
	ParamSigma    = "sigma"
)

// ParamNames lists the model parameters in reporting order.
var ParamNames = []string{ParamTau, ParamMuBefore, ParamMuAfter, ParamSigma}

// sigma may not shrink below this fraction of the sample std. On exactly
// piecewise-constant data the likelihood is unbounded as sigma goes to zero.
const sigmaFloorRatio = 1e-6

// State is one point in parameter space. Observations with index < Tau
// have mean MuBefore, the rest MuAfter.
type State struct {
	Tau      int
	MuBefore float64
	MuAfter  float64
	Sigma    float64
}

// Model is a single change point model over one observation series.
type Model struct {
	name string
	y    []float64
	log  *logger.Logger

	built  bool
	priors Priors
	mean   float64
	std    float64
	floor  float64
	// prefix sums of centered observations and their squares, len(y)+1
	cumSum []float64
	cumSq  []float64
}

type Option func(*Model)

// WithName names the model; exported variables become "<name>::<param>".
func WithName(name string) Option {
	return func(m *Model) { m.name = name }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// NewModel validates the series length and copies the observations.
func NewModel(values []float64, opts ...Option) (*Model, error) {
	if len(values) < MinObservations {
		return nil, fmt.Errorf("%w: need at least %d observations, got %d", ErrInsufficientData, MinObservations, len(values))
	}
	m := &Model{
		y:   append([]float64(nil), values...),
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Model) Name() string { return m.name }

func (m *Model) N() int { return len(m.y) }

func (m *Model) Built() bool { return m.built }

// Priors returns the prior specification. Valid only after Build.
func (m *Model) Priors() Priors { return m.priors }

// Build derives the priors from the data and prepares likelihood caches.
func (m *Model) Build() error {
	for i, v := range m.y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite observation at index %d", ErrDegenerateSeries, i)
		}
	}
	mean, err := stats.Mean(m.y)
	if err != nil {
		return fmt.Errorf("mean: %w", err)
	}
	std, err := stats.StandardDeviationPopulation(m.y)
	if err != nil {
		return fmt.Errorf("std: %w", err)
	}
	if std == 0 || math.IsNaN(std) {
		return fmt.Errorf("%w: zero variance, priors are undefined", ErrDegenerateSeries)
	}

	n := len(m.y)
	m.mean, m.std = mean, std
	m.floor = sigmaFloorRatio * std
	m.priors = Priors{
		Tau:      DiscreteUniformPrior{Lower: 1, Upper: n - 1},
		MuBefore: NormalPrior{Mu: mean, Sigma: 2 * std},
		MuAfter:  NormalPrior{Mu: mean, Sigma: 2 * std},
		Sigma:    HalfNormalPrior{Scale: std},
	}

	m.cumSum = make([]float64, n+1)
	m.cumSq = make([]float64, n+1)
	for i, v := range m.y {
		c := v - mean
		m.cumSum[i+1] = m.cumSum[i] + c
		m.cumSq[i+1] = m.cumSq[i] + c*c
	}
	m.built = true

	m.log.Debug("change point model built",
		logger.String("model", m.name),
		logger.Int("observations", n),
		logger.Float64("mean", mean),
		logger.Float64("std", std),
	)
	return nil
}

// segmentSSE is the sum of squared deviations of y[lo:hi] from mu.
func (m *Model) segmentSSE(lo, hi int, mu float64) float64 {
	d := mu - m.mean
	k := float64(hi - lo)
	s1 := m.cumSum[hi] - m.cumSum[lo]
	s2 := m.cumSq[hi] - m.cumSq[lo]
	sse := s2 - 2*d*s1 + k*d*d
	if sse < 0 {
		return 0
	}
	return sse
}

func (m *Model) sse(s State) float64 {
	return m.segmentSSE(0, s.Tau, s.MuBefore) + m.segmentSSE(s.Tau, len(m.y), s.MuAfter)
}

// LogLikelihood evaluates the Gaussian likelihood in constant time.
func (m *Model) LogLikelihood(s State) float64 {
	if !m.priors.Tau.Contains(s.Tau) || s.Sigma < m.floor {
		return math.Inf(-1)
	}
	n := float64(len(m.y))
	return -n*math.Log(s.Sigma) - 0.5*n*math.Log(2*math.Pi) - m.sse(s)/(2*s.Sigma*s.Sigma)
}

// LogPosterior is the unnormalized log posterior density.
func (m *Model) LogPosterior(s State) float64 {
	lp := m.priors.Tau.LogProb(s.Tau) +
		m.priors.MuBefore.LogProb(s.MuBefore) +
		m.priors.MuAfter.LogProb(s.MuAfter) +
		m.priors.Sigma.LogProb(s.Sigma)
	if math.IsInf(lp, -1) {
		return lp
	}
	return lp + m.LogLikelihood(s)
}
