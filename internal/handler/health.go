package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/middleware"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler reports whether the service and its dependencies are
// reachable. The database is required; Redis and object storage are
// reported but do not fail the check.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(s)}
}

type dependencyCheck struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

func (h *HealthHandler) dependencies() []dependencyCheck {
	checks := []dependencyCheck{{
		name:     "database",
		required: true,
		ping:     func(ctx context.Context) error { return h.server.DB.Pool.Ping(ctx) },
	}}
	if h.server.Redis != nil {
		checks = append(checks, dependencyCheck{
			name: "redis",
			ping: func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() },
		})
	}
	if h.server.Storage != nil {
		checks = append(checks, dependencyCheck{name: "storage", ping: h.server.Storage.Ping})
	}
	return checks
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]interface{}{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}

func (h *HealthHandler) run(ctx context.Context, logger zerolog.Logger, dc dependencyCheck) (map[string]interface{}, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := dc.ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Str("check", dc.name).Dur("response_time", elapsed).Msg("health check failed")
		h.recordFailure(dc.name, elapsed, err)
		return map[string]interface{}{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}, !dc.required
	}

	logger.Debug().Str("check", dc.name).Dur("response_time", elapsed).Msg("health check passed")
	return map[string]interface{}{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}, true
}

// CheckHealth answers 200 when every required dependency responds and 503
// otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	checks := map[string]interface{}{}
	healthy := true
	for _, dc := range h.dependencies() {
		result, ok := h.run(c.Request().Context(), logger, dc)
		checks[dc.name] = result
		healthy = healthy && ok
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !healthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}
