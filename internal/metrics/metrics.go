// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the HTTP and domain collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	LeasesRenewed prometheus.Counter
	LeasesExpired prometheus.Counter
	SweepFailures *prometheus.CounterVec
	SweepRuns     *prometheus.CounterVec
}

// New registers every collector on reg, plus Go and process collectors when
// withRuntime is set.
func New(reg *prometheus.Registry, withRuntime bool) (*Metrics, error) {
	m := &Metrics{
		registry: reg,
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeasesRenewed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_leases_renewed_total",
			Help: "Leases extended by renewal.",
		}),
		LeasesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_leases_expired_total",
			Help: "Leases closed by expiry.",
		}),
		SweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_sweep_failures_total",
			Help: "Items a sweep failed to process.",
		}, []string{"sweep"}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_sweep_runs_total",
			Help: "Completed sweep runs.",
		}, []string{"sweep"}),
	}

	cs := []prometheus.Collector{
		m.requestCount, m.requestDuration,
		m.LeasesRenewed, m.LeasesExpired, m.SweepFailures, m.SweepRuns,
	}
	if withRuntime {
		cs = append(cs, collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by route pattern and records their latency.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			method := c.Request().Method
			m.requestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf resolves the response status the global error handler will use.
func statusOf(err error) int {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr.Status
	}
	return http.StatusInternalServerError
}
