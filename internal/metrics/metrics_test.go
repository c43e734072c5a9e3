package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T) (*echo.Echo, *Metrics) {
	t.Helper()
	m, err := New(prometheus.NewRegistry(), false)
	require.NoError(t, err)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/vehicles/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/leases/:id", func(c echo.Context) error {
		return sqlerr.NotFound("leases", pgx.ErrNoRows)
	})
	e.POST("/leases/:id/renew", func(c echo.Context) error {
		return errs.NewRuleError("LEASE_NOT_ACTIVE", "lease is not active")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	return e, m
}

func serve(e *echo.Echo, method, path string) {
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	e, m := newTestEcho(t)

	serve(e, http.MethodGet, "/vehicles/1")
	serve(e, http.MethodGet, "/vehicles/2")
	serve(e, http.MethodGet, "/leases/3")
	serve(e, http.MethodPost, "/leases/3/renew")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/vehicles/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/leases/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/leases/:id/renew", "400")))
	assert.Positive(t, testutil.CollectAndCount(m.requestDuration))
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	e, m := newTestEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, testutil.CollectAndCount(m.requestCount))
}

func TestDomainCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry(), true)
	require.NoError(t, err)

	m.LeasesRenewed.Inc()
	m.SweepFailures.WithLabelValues("renewals").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeasesRenewed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepFailures.WithLabelValues("renewals")))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, false)
	require.NoError(t, err)
	_, err = New(reg, false)
	assert.Error(t, err)
}
