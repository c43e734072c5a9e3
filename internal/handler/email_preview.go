package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/labstack/echo/v4"
)

// EmailPreviewHandler renders notification templates with sample data. It
// is only routed in the local environment.
type EmailPreviewHandler struct {
	Handler
}

func NewEmailPreviewHandler(s *server.Server) *EmailPreviewHandler {
	return &EmailPreviewHandler{Handler: NewHandler(s)}
}

// List returns the names of the templates that have sample data.
func (h *EmailPreviewHandler) List(c echo.Context) error {
	names := make([]string, 0, len(email.PreviewData))
	for name := range email.PreviewData {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return c.JSON(http.StatusOK, names)
}

func (h *EmailPreviewHandler) Preview(c echo.Context) error {
	name := email.Template(c.Param("template"))
	data, ok := email.PreviewData[name]
	if !ok || !email.Known(name) {
		code := "UNKNOWN_TEMPLATE"
		return errs.NewNotFoundError(fmt.Sprintf("No email template named %q", name), true, &code)
	}

	html, err := email.Render(name, data)
	if err != nil {
		return fmt.Errorf("render %s preview: %w", name, err)
	}
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTML(http.StatusOK, html)
}
