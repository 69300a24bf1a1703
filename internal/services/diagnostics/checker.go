package diagnostics

import (
	"strings"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/bayes"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// DefaultThreshold is the R-hat value at or above which chains count as unmixed.
const DefaultThreshold = 1.01

// Checker computes convergence reports for posterior draws.
type Checker struct {
	threshold float64
	log       *logger.Logger
}

type Option func(*Checker)

func WithThreshold(t float64) Option {
	return func(c *Checker) {
		if t > 1 {
			c.threshold = t
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.log = l
		}
	}
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{threshold: DefaultThreshold, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check evaluates the model parameters of d. It never fails: when nothing can
// be evaluated the verdict is left undetermined.
func (c *Checker) Check(d *bayes.Draws) models.ConvergenceReport {
	if d == nil {
		return c.CheckVariables(nil, bayes.ParamNames...)
	}
	return c.CheckVariables(d.Variables(), bayes.ParamNames...)
}

// CheckVariables evaluates the variables matching names. Names are matched
// verbatim first, then as the parameter part of "<model>::<name>", and when
// neither covers every name all available variables are used.
func (c *Checker) CheckVariables(vars []bayes.Variable, names ...string) models.ConvergenceReport {
	rep := models.ConvergenceReport{Threshold: c.threshold}
	for _, v := range vars {
		rep.Available = append(rep.Available, v.Name)
	}

	selected, res := resolve(vars, names)
	rep.Resolution = res
	if res != models.ResolutionExact {
		c.log.Warn("convergence variables not matched verbatim",
			logger.String("resolution", string(res)),
			logger.Strings("requested", names),
			logger.Strings("available", rep.Available),
		)
	}
	if len(selected) == 0 {
		c.log.Warn("no variables available for convergence check",
			logger.Strings("available", rep.Available),
		)
		return rep
	}

	converged := true
	for _, v := range selected {
		p := models.ParamDiagnostic{
			Name:    v.Name,
			RHat:    RHat(v.Values),
			ESSBulk: ESSBulk(v.Values),
		}
		// NaN compares false, so an undefined R-hat never passes.
		p.Converged = p.RHat < c.threshold
		converged = converged && p.Converged
		rep.Params = append(rep.Params, p)
	}
	rep.Converged = &converged

	if converged {
		c.log.Info("chains converged", logger.Any("params", rep.Params))
	} else {
		c.log.Warn("chains did not converge",
			logger.Float64("threshold", c.threshold),
			logger.Any("params", rep.Params),
		)
	}
	return rep
}

func resolve(vars []bayes.Variable, names []string) ([]bayes.Variable, models.Resolution) {
	if len(vars) == 0 {
		return nil, models.ResolutionNone
	}
	if len(names) > 0 {
		if sel, ok := match(vars, names, func(v bayes.Variable, name string) bool {
			return v.Name == name
		}); ok {
			return sel, models.ResolutionExact
		}
		if sel, ok := match(vars, names, func(v bayes.Variable, name string) bool {
			return strings.HasSuffix(v.Name, "::"+name)
		}); ok {
			return sel, models.ResolutionPrefixed
		}
	}
	return vars, models.ResolutionAllAvailable
}

// match picks one variable per name, in name order. ok is false unless every name matched.
func match(vars []bayes.Variable, names []string, eq func(bayes.Variable, string) bool) ([]bayes.Variable, bool) {
	out := make([]bayes.Variable, 0, len(names))
	for _, name := range names {
		found := false
		for _, v := range vars {
			if eq(v, name) {
				out = append(out, v)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}
