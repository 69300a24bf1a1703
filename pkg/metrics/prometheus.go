package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rhat        *prometheus.GaugeVec
	ess         *prometheus.GaugeVec
	acceptance  *prometheus.GaugeVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brent_analyses_total",
				Help: "Total number of change point analyses by outcome",
			},
			[]string{"status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brent_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brent_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		rhat: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brent_posterior_rhat",
				Help: "Rank-normalized split R-hat of the last analysis",
			},
			[]string{"param"},
		),
		ess: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brent_posterior_ess_bulk",
				Help: "Bulk effective sample size of the last analysis",
			},
			[]string{"param"},
		),
		acceptance: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brent_tau_acceptance_rate",
				Help: "Change point Metropolis acceptance rate per chain of the last analysis",
			},
			[]string{"chain"},
		),
	}
}

// RecordAnalysis counts a finished analysis run.
func (r *Recorder) RecordAnalysis(status string) {
	r.analyses.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordConvergence stores the diagnostics of one parameter.
func (r *Recorder) RecordConvergence(param string, rhat, ess float64) {
	r.rhat.WithLabelValues(param).Set(rhat)
	r.ess.WithLabelValues(param).Set(ess)
}

func (r *Recorder) RecordAcceptance(chain int, rate float64) {
	r.acceptance.WithLabelValues(strconv.Itoa(chain)).Set(rate)
}
