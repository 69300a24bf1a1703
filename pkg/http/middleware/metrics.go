package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	applogger "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

type httpCollectors struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var (
	collectors     *httpCollectors
	collectorsOnce sync.Once
)

func httpMetrics() *httpCollectors {
	collectorsOnce.Do(func() {
		labels := []string{"route", "method", "class"}
		collectors = &httpCollectors{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brent", Subsystem: "http", Name: "requests_total",
				Help: "Requests served, by route template and status code",
			}, []string{"route", "method", "status"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "brent", Subsystem: "http", Name: "request_duration_seconds",
				Help:    "Request latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			}, labels),
			size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "brent", Subsystem: "http", Name: "response_size_bytes",
				Help:    "Response body size",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			}, labels),
			inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "brent", Subsystem: "http", Name: "in_flight_requests",
				Help: "Requests currently being served",
			}),
		}
		prometheus.MustRegister(collectors.requests, collectors.duration, collectors.size, collectors.inFlight)
	})
	return collectors
}

// Metrics records request metrics labelled by the matched route template.
// 5xx responses are logged as errors and requests slower than slow as warnings.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	m := httpMetrics()
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				// write the error now so the recorded status is final
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			res := c.Response()
			method := c.Request().Method
			class := strconv.Itoa(res.Status/100) + "xx"
			elapsed := time.Since(start)

			m.requests.WithLabelValues(route, method, strconv.Itoa(res.Status)).Inc()
			m.duration.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
			m.size.WithLabelValues(route, method, class).Observe(float64(res.Size))

			fields := []applogger.Field{
				applogger.String("route", route),
				applogger.String("method", method),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", elapsed),
			}
			switch {
			case res.Status >= 500:
				l.Error("http request failed", append(fields, applogger.Int64("bytes", res.Size))...)
			case slow > 0 && elapsed >= slow:
				l.Warn("http request slow", fields...)
			}
			return nil
		}
	}
}
