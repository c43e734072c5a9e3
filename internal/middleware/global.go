package middleware

import (
	"fmt"
	"net/http"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{server: s}
}

func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  global.server.Config.Server.CORSAllowedOrigins,
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	})
}

// BodyLimit caps request bodies a little above the document upload limit.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(fmt.Sprintf("%dM", global.server.Config.Storage.MaxUploadMB+1))
}

// RequestLogger writes one "API" line per request. The level follows the
// final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The error handler has not written the response yet, so the
			// status comes from the error itself.
			// https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode, _ = describeError(normalizeError(v.Error))
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}
			if userID := GetUserID(c); userID != "" {
				e = e.Str("user_id", userID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// normalizeError maps an error onto the *errs.HTTPError the client will
// see. Database errors are classified by sqlerr; anything unknown is a 500.
func normalizeError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		return sqlerr.HandleError(err)
	}
	switch echoErr.Code {
	case http.StatusNotFound:
		return errs.NewNotFoundError("Route not found", false, nil)
	case http.StatusRequestEntityTooLarge:
		return &errs.HTTPError{Code: "PAYLOAD_TOO_LARGE", Message: "Request body is too large", Status: echoErr.Code, Override: true}
	}
	return echoErr
}

// describeError returns the status and the public body of a normalized error.
func describeError(err error) (int, errs.HTTPError) {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, *httpErr
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		status = echoErr.Code
		message = http.StatusText(status)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
	}
	return status, errs.HTTPError{
		Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(status)),
		Message: message,
		Status:  status,
	}
}

// GlobalErrorHandler logs the original error and writes the JSON error body.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	status, body := describeError(normalizeError(err))

	logger := GetLogger(c)
	event := logger.Warn()
	if status >= 500 {
		event = logger.Error().Stack()
	}
	event.
		Err(err).
		Int("status", status).
		Str("error_code", body.Code).
		Msg(body.Message)

	if !c.Response().Committed {
		_ = c.JSON(status, body)
	}
}
