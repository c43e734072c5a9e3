package handler

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LeaseHandler struct {
	Handler
	leases *service.LeaseService
}

func NewLeaseHandler(s *server.Server, leases *service.LeaseService) *LeaseHandler {
	return &LeaseHandler{Handler: NewHandler(s), leases: leases}
}

// CreateLeaseRequest creates a draft lease or previews its schedule. Without
// end_date the default term applies; without weekly_amount the current
// rate for the lease and vehicle type is used.
type CreateLeaseRequest struct {
	LeaseType     model.LeaseType  `json:"lease_type" validate:"required,oneof=dov long_term short_term medallion_only"`
	VehicleID     uuid.UUID        `json:"vehicle_id" validate:"required"`
	DriverID      uuid.UUID        `json:"driver_id" validate:"required"`
	MedallionID   *uuid.UUID       `json:"medallion_id"`
	StartDate     civil.Date       `json:"start_date"`
	EndDate       *civil.Date      `json:"end_date"`
	WeeklyAmount  *decimal.Decimal `json:"weekly_amount"`
	Deposit       decimal.Decimal  `json:"deposit"`
	AutoRenew     bool             `json:"auto_renew"`
	TotalSegments int              `json:"total_segments" validate:"min=0,max=52"`
}

func (r *CreateLeaseRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if !r.StartDate.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "start_date", Message: "is required"})
	}
	if r.EndDate != nil && r.StartDate.IsValid() && r.EndDate.Before(r.StartDate) {
		problems = append(problems, validation.CustomValidationError{Field: "end_date", Message: "must not be before start_date"})
	}
	if r.WeeklyAmount != nil && !r.WeeklyAmount.IsPositive() {
		problems = append(problems, validation.CustomValidationError{Field: "weekly_amount", Message: "must be greater than 0"})
	}
	if r.Deposit.IsNegative() {
		problems = append(problems, validation.CustomValidationError{Field: "deposit", Message: "must not be negative"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (r *CreateLeaseRequest) input() service.CreateLeaseInput {
	return service.CreateLeaseInput{
		LeaseType:     r.LeaseType,
		VehicleID:     r.VehicleID,
		DriverID:      r.DriverID,
		MedallionID:   r.MedallionID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		WeeklyAmount:  r.WeeklyAmount,
		Deposit:       r.Deposit,
		AutoRenew:     r.AutoRenew,
		TotalSegments: r.TotalSegments,
	}
}

func (h *LeaseHandler) Create(c echo.Context, req *CreateLeaseRequest) (*model.Lease, error) {
	return h.leases.CreateDraft(c.Request().Context(), req.input())
}

func (h *LeaseHandler) Preview(c echo.Context, req *CreateLeaseRequest) (*service.SchedulePreview, error) {
	return h.leases.Preview(c.Request().Context(), req.input())
}

func (h *LeaseHandler) Get(c echo.Context, req *IDRequest) (*service.LeaseDetail, error) {
	return h.leases.Get(c.Request().Context(), req.UUID())
}

type SearchLeasesRequest struct {
	PageRequest
	Status    string `query:"status" validate:"omitempty,oneof=draft active expired terminated"`
	LeaseType string `query:"lease_type" validate:"omitempty,oneof=dov long_term short_term medallion_only"`
	DriverID  string `query:"driver_id" validate:"omitempty,uuid"`
	VehicleID string `query:"vehicle_id" validate:"omitempty,uuid"`
	EndFrom   string `query:"end_from"`
	EndTo     string `query:"end_to"`
	Query     string `query:"q" validate:"omitempty,max=100"`

	endFrom, endTo *civil.Date
}

func (r *SearchLeasesRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	var ok bool
	if r.endFrom, ok = parseDate(r.EndFrom); !ok {
		problems = append(problems, validation.CustomValidationError{Field: "end_from", Message: "must be a date (YYYY-MM-DD)"})
	}
	if r.endTo, ok = parseDate(r.EndTo); !ok {
		problems = append(problems, validation.CustomValidationError{Field: "end_to", Message: "must be a date (YYYY-MM-DD)"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (r *SearchLeasesRequest) filter() repository.LeaseFilter {
	return repository.LeaseFilter{
		Status:    r.Status,
		LeaseType: r.LeaseType,
		DriverID:  optionalUUID(r.DriverID),
		VehicleID: optionalUUID(r.VehicleID),
		EndFrom:   r.endFrom,
		EndTo:     r.endTo,
		Query:     r.Query,
	}
}

func (h *LeaseHandler) Search(c echo.Context, req *SearchLeasesRequest) (*Page[model.Lease], error) {
	res, err := h.leases.Search(c.Request().Context(), req.filter(), req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}

func (h *LeaseHandler) Export(c echo.Context, req *SearchLeasesRequest) ([]byte, error) {
	return h.leases.Export(c.Request().Context(), req.filter(), req.Sort)
}

func (h *LeaseHandler) Activate(c echo.Context, req *IDRequest) (*service.LeaseDetail, error) {
	return h.leases.Activate(c.Request().Context(), req.UUID())
}

type TerminateLeaseRequest struct {
	IDRequest
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *TerminateLeaseRequest) Validate() error { return validation.Struct(r) }

func (h *LeaseHandler) Terminate(c echo.Context, req *TerminateLeaseRequest) (*model.Lease, error) {
	return h.leases.Terminate(c.Request().Context(), req.UUID(), req.Reason)
}

func (h *LeaseHandler) Renew(c echo.Context, req *IDRequest) (*model.LeaseRenewal, error) {
	return h.leases.Renew(c.Request().Context(), req.UUID())
}

func (h *LeaseHandler) Installments(c echo.Context, req *IDRequest) ([]model.LeaseInstallment, error) {
	return h.leases.Installments(c.Request().Context(), req.UUID())
}

func (h *LeaseHandler) Renewals(c echo.Context, req *IDRequest) ([]model.LeaseRenewal, error) {
	return h.leases.Renewals(c.Request().Context(), req.UUID())
}

func (h *LeaseHandler) Rates(c echo.Context, _ *NoRequest) ([]model.LeaseRate, error) {
	return h.leases.Rates(c.Request().Context())
}
