package handler

import (
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/labstack/echo/v4"
)

type ReportHandler struct {
	Handler
	reports *service.ReportService
}

func NewReportHandler(s *server.Server, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{Handler: NewHandler(s), reports: reports}
}

func (h *ReportHandler) Fleet(c echo.Context, _ *NoRequest) (*model.FleetReport, error) {
	return h.reports.Fleet(c.Request().Context())
}

func (h *ReportHandler) Leases(c echo.Context, _ *NoRequest) (*model.LeaseReport, error) {
	return h.reports.Leases(c.Request().Context())
}
