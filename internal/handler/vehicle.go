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

type VehicleHandler struct {
	Handler
	vehicles *service.VehicleService
}

func NewVehicleHandler(s *server.Server, vehicles *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{Handler: NewHandler(s), vehicles: vehicles}
}

type CreateVehicleRequest struct {
	VIN           string            `json:"vin" validate:"required,len=17,alphanum"`
	Make          string            `json:"make" validate:"required,max=50"`
	Model         string            `json:"model" validate:"required,max=50"`
	ModelYear     int               `json:"model_year" validate:"required,min=1990,max=2100"`
	VehicleType   model.VehicleType `json:"vehicle_type" validate:"required,oneof=regular hybrid wav ev"`
	PurchasePrice decimal.Decimal   `json:"purchase_price"`
	PurchaseDate  civil.Date        `json:"purchase_date"`
}

func (r *CreateVehicleRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if r.PurchasePrice.IsNegative() {
		problems = append(problems, validation.CustomValidationError{Field: "purchase_price", Message: "must not be negative"})
	}
	if !r.PurchaseDate.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "purchase_date", Message: "is required"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (h *VehicleHandler) Create(c echo.Context, req *CreateVehicleRequest) (*model.Vehicle, error) {
	return h.vehicles.Create(c.Request().Context(), service.CreateVehicleInput{
		VIN:           req.VIN,
		Make:          req.Make,
		Model:         req.Model,
		ModelYear:     req.ModelYear,
		VehicleType:   req.VehicleType,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
	})
}

func (h *VehicleHandler) Get(c echo.Context, req *IDRequest) (*model.Vehicle, error) {
	return h.vehicles.Get(c.Request().Context(), req.UUID())
}

type UpdateVehicleRequest struct {
	IDRequest
	Make               *string            `json:"make" validate:"omitempty,min=1,max=50"`
	Model              *string            `json:"model" validate:"omitempty,min=1,max=50"`
	ModelYear          *int               `json:"model_year" validate:"omitempty,min=1990,max=2100"`
	VehicleType        *model.VehicleType `json:"vehicle_type" validate:"omitempty,oneof=regular hybrid wav ev"`
	PlateNumber        *string            `json:"plate_number" validate:"omitempty,min=1,max=10"`
	RegistrationExpiry *civil.Date        `json:"registration_expiry"`
	PurchasePrice      *decimal.Decimal   `json:"purchase_price"`
}

func (r *UpdateVehicleRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.PurchasePrice != nil && r.PurchasePrice.IsNegative() {
		return validation.CustomValidationErrors{{Field: "purchase_price", Message: "must not be negative"}}
	}
	return nil
}

func (h *VehicleHandler) Update(c echo.Context, req *UpdateVehicleRequest) (*model.Vehicle, error) {
	return h.vehicles.Update(c.Request().Context(), req.UUID(), service.UpdateVehicleInput{
		Make:               req.Make,
		Model:              req.Model,
		ModelYear:          req.ModelYear,
		VehicleType:        req.VehicleType,
		PlateNumber:        req.PlateNumber,
		RegistrationExpiry: req.RegistrationExpiry,
		PurchasePrice:      req.PurchasePrice,
	})
}

type SearchVehiclesRequest struct {
	PageRequest
	Status      string `query:"status" validate:"omitempty,oneof=purchased delivered hacking_up hacked_up registered available leased out_of_service retired"`
	VehicleType string `query:"vehicle_type" validate:"omitempty,oneof=regular hybrid wav ev"`
	Make        string `query:"make" validate:"omitempty,max=50"`
	MedallionID string `query:"medallion_id" validate:"omitempty,uuid"`
	Query       string `query:"q" validate:"omitempty,max=100"`
}

func (r *SearchVehiclesRequest) Validate() error { return validation.Struct(r) }

func (r *SearchVehiclesRequest) filter() repository.VehicleFilter {
	return repository.VehicleFilter{
		Status:      r.Status,
		VehicleType: r.VehicleType,
		Make:        r.Make,
		MedallionID: optionalUUID(r.MedallionID),
		Query:       r.Query,
	}
}

func (h *VehicleHandler) Search(c echo.Context, req *SearchVehiclesRequest) (*Page[model.Vehicle], error) {
	res, err := h.vehicles.Search(c.Request().Context(), req.filter(), req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}

func (h *VehicleHandler) Export(c echo.Context, req *SearchVehiclesRequest) ([]byte, error) {
	return h.vehicles.Export(c.Request().Context(), req.filter(), req.Sort)
}

type TransitionVehicleRequest struct {
	IDRequest
	Status model.VehicleStatus `json:"status" validate:"required,oneof=purchased delivered hacking_up hacked_up registered available leased out_of_service retired"`
}

func (r *TransitionVehicleRequest) Validate() error { return validation.Struct(r) }

func (h *VehicleHandler) Transition(c echo.Context, req *TransitionVehicleRequest) (*model.Vehicle, error) {
	return h.vehicles.Transition(c.Request().Context(), req.UUID(), req.Status)
}

type AssignMedallionRequest struct {
	IDRequest
	MedallionID uuid.UUID `json:"medallion_id" validate:"required"`
}

func (r *AssignMedallionRequest) Validate() error { return validation.Struct(r) }

func (h *VehicleHandler) AssignMedallion(c echo.Context, req *AssignMedallionRequest) (*model.Vehicle, error) {
	return h.vehicles.AssignMedallion(c.Request().Context(), req.UUID(), req.MedallionID)
}

func (h *VehicleHandler) UnassignMedallion(c echo.Context, req *IDRequest) (*model.Vehicle, error) {
	return h.vehicles.UnassignMedallion(c.Request().Context(), req.UUID())
}

func (h *VehicleHandler) ListHackupTasks(c echo.Context, req *IDRequest) ([]model.HackupTask, error) {
	return h.vehicles.ListHackupTasks(c.Request().Context(), req.UUID())
}

func (h *VehicleHandler) EnsureHackupTasks(c echo.Context, req *IDRequest) ([]model.HackupTask, error) {
	return h.vehicles.EnsureHackupTasks(c.Request().Context(), req.UUID())
}

type UpdateHackupTaskRequest struct {
	IDRequest
	Status *model.HackupTaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Vendor *string                 `json:"vendor" validate:"omitempty,max=100"`
	Cost   *decimal.Decimal        `json:"cost"`
	Notes  *string                 `json:"notes" validate:"omitempty,max=1000"`
}

func (r *UpdateHackupTaskRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if r.Cost != nil && r.Cost.IsNegative() {
		return validation.CustomValidationErrors{{Field: "cost", Message: "must not be negative"}}
	}
	return nil
}

func (h *VehicleHandler) UpdateHackupTask(c echo.Context, req *UpdateHackupTaskRequest) (*model.HackupTask, error) {
	return h.vehicles.UpdateHackupTask(c.Request().Context(), req.UUID(), service.UpdateHackupTaskInput{
		Status: req.Status,
		Vendor: req.Vendor,
		Cost:   req.Cost,
		Notes:  req.Notes,
	})
}
