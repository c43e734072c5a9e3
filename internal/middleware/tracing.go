package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/kryptonation/creamrun-sub000/internal/server"
)

// TracingMiddleware starts New Relic transactions and decorates them. Both
// middlewares are no-ops without an agent.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// tracedParams are the path parameters copied onto the transaction.
var tracedParams = []string{"id", "case_no", "step_id"}

// EnhanceTracing names the transaction after the matched route and records
// the caller, the fleet object being touched and any returned error. It must
// run after NewRelicMiddleware.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.route", c.Path())
			txn.AddAttribute("http.real_ip", c.RealIP())
			if id := GetRequestID(c); id != "" {
				txn.AddAttribute("request.id", id)
			}
			if user := GetUserID(c); user != "" {
				txn.AddAttribute("user.id", user)
			}
			for _, name := range tracedParams {
				if v := c.Param(name); v != "" {
					txn.AddAttribute("fleet."+name, v)
				}
			}

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}
			txn.AddAttribute("http.status_code", c.Response().Status)
			return err
		}
	}
}
