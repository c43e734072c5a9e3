package router

import (
	"github.com/kryptonation/creamrun-sub000/internal/handler"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes mounts the unauthenticated endpoints: health,
// Prometheus metrics, API docs and, locally, email previews.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	r.Static("/static", "static")
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)

	if s.Config.Primary.Env == "local" {
		r.GET("/dev/emails", h.EmailPreview.List)
		r.GET("/dev/emails/:template", h.EmailPreview.Preview)
	}
}
