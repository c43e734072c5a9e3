package handler

import (
	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/labstack/echo/v4"
)

type DriverHandler struct {
	Handler
	drivers *service.DriverService
}

func NewDriverHandler(s *server.Server, drivers *service.DriverService) *DriverHandler {
	return &DriverHandler{Handler: NewHandler(s), drivers: drivers}
}

type RegisterDriverRequest struct {
	FirstName        string     `json:"first_name" validate:"required,max=100"`
	LastName         string     `json:"last_name" validate:"required,max=100"`
	Email            string     `json:"email" validate:"omitempty,email"`
	Phone            string     `json:"phone" validate:"omitempty,e164"`
	TLCLicenseNumber string     `json:"tlc_license_number" validate:"required,max=20"`
	TLCLicenseExpiry civil.Date `json:"tlc_license_expiry"`
	DMVLicenseNumber string     `json:"dmv_license_number" validate:"required,max=20"`
	DMVLicenseExpiry civil.Date `json:"dmv_license_expiry"`
}

func (r *RegisterDriverRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if !r.TLCLicenseExpiry.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "tlc_license_expiry", Message: "is required"})
	}
	if !r.DMVLicenseExpiry.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "dmv_license_expiry", Message: "is required"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (h *DriverHandler) Register(c echo.Context, req *RegisterDriverRequest) (*model.Driver, error) {
	return h.drivers.Register(c.Request().Context(), service.RegisterDriverInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		TLCLicenseNumber: req.TLCLicenseNumber,
		TLCLicenseExpiry: req.TLCLicenseExpiry,
		DMVLicenseNumber: req.DMVLicenseNumber,
		DMVLicenseExpiry: req.DMVLicenseExpiry,
	})
}

func (h *DriverHandler) Get(c echo.Context, req *IDRequest) (*model.Driver, error) {
	return h.drivers.Get(c.Request().Context(), req.UUID())
}

type UpdateDriverRequest struct {
	IDRequest
	FirstName        *string     `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName         *string     `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email            *string     `json:"email" validate:"omitempty,email"`
	Phone            *string     `json:"phone" validate:"omitempty,e164"`
	TLCLicenseNumber *string     `json:"tlc_license_number" validate:"omitempty,min=1,max=20"`
	TLCLicenseExpiry *civil.Date `json:"tlc_license_expiry"`
	DMVLicenseNumber *string     `json:"dmv_license_number" validate:"omitempty,min=1,max=20"`
	DMVLicenseExpiry *civil.Date `json:"dmv_license_expiry"`
}

func (r *UpdateDriverRequest) Validate() error { return validation.Struct(r) }

func (h *DriverHandler) Update(c echo.Context, req *UpdateDriverRequest) (*model.Driver, error) {
	return h.drivers.Update(c.Request().Context(), req.UUID(), service.UpdateDriverInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		TLCLicenseNumber: req.TLCLicenseNumber,
		TLCLicenseExpiry: req.TLCLicenseExpiry,
		DMVLicenseNumber: req.DMVLicenseNumber,
		DMVLicenseExpiry: req.DMVLicenseExpiry,
	})
}

type SearchDriversRequest struct {
	PageRequest
	Status string `query:"status" validate:"omitempty,oneof=registered active suspended inactive"`
	Query  string `query:"q" validate:"omitempty,max=100"`
}

func (r *SearchDriversRequest) Validate() error { return validation.Struct(r) }

func (r *SearchDriversRequest) filter() repository.DriverFilter {
	return repository.DriverFilter{Status: r.Status, Query: r.Query}
}

func (h *DriverHandler) Search(c echo.Context, req *SearchDriversRequest) (*Page[model.Driver], error) {
	res, err := h.drivers.Search(c.Request().Context(), req.filter(), req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}

func (h *DriverHandler) Export(c echo.Context, req *SearchDriversRequest) ([]byte, error) {
	return h.drivers.Export(c.Request().Context(), req.filter(), req.Sort)
}

func (h *DriverHandler) Activate(c echo.Context, req *IDRequest) (*model.Driver, error) {
	return h.drivers.Activate(c.Request().Context(), req.UUID())
}

func (h *DriverHandler) Suspend(c echo.Context, req *IDRequest) (*model.Driver, error) {
	return h.drivers.Suspend(c.Request().Context(), req.UUID())
}

func (h *DriverHandler) Deactivate(c echo.Context, req *IDRequest) (*model.Driver, error) {
	return h.drivers.Deactivate(c.Request().Context(), req.UUID())
}
