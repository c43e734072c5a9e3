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
)

// MedallionHandler serves medallions and their owner entities.
type MedallionHandler struct {
	Handler
	medallions *service.MedallionService
}

func NewMedallionHandler(s *server.Server, medallions *service.MedallionService) *MedallionHandler {
	return &MedallionHandler{Handler: NewHandler(s), medallions: medallions}
}

type CreateMedallionRequest struct {
	MedallionNumber string              `json:"medallion_number" validate:"required,min=2,max=10,alphanum"`
	MedallionType   model.MedallionType `json:"medallion_type" validate:"required,oneof=regular wav"`
	OwnerEntityID   uuid.UUID           `json:"owner_entity_id" validate:"required"`
	RenewalDate     *civil.Date         `json:"renewal_date"`
}

func (r *CreateMedallionRequest) Validate() error { return validation.Struct(r) }

func (h *MedallionHandler) Create(c echo.Context, req *CreateMedallionRequest) (*model.Medallion, error) {
	return h.medallions.Create(c.Request().Context(), service.CreateMedallionInput{
		MedallionNumber: req.MedallionNumber,
		MedallionType:   req.MedallionType,
		OwnerEntityID:   req.OwnerEntityID,
		RenewalDate:     req.RenewalDate,
	})
}

func (h *MedallionHandler) Get(c echo.Context, req *IDRequest) (*model.Medallion, error) {
	return h.medallions.Get(c.Request().Context(), req.UUID())
}

type UpdateMedallionRequest struct {
	IDRequest
	MedallionType *model.MedallionType   `json:"medallion_type" validate:"omitempty,oneof=regular wav"`
	OwnerEntityID *uuid.UUID             `json:"owner_entity_id"`
	Status        *model.MedallionStatus `json:"status" validate:"omitempty,oneof=in_storage active"`
	RenewalDate   *civil.Date            `json:"renewal_date"`
}

func (r *UpdateMedallionRequest) Validate() error { return validation.Struct(r) }

func (h *MedallionHandler) Update(c echo.Context, req *UpdateMedallionRequest) (*model.Medallion, error) {
	return h.medallions.Update(c.Request().Context(), req.UUID(), service.UpdateMedallionInput{
		MedallionType: req.MedallionType,
		OwnerEntityID: req.OwnerEntityID,
		Status:        req.Status,
		RenewalDate:   req.RenewalDate,
	})
}

type SearchMedallionsRequest struct {
	PageRequest
	Status        string `query:"status" validate:"omitempty,oneof=in_storage active assigned"`
	MedallionType string `query:"medallion_type" validate:"omitempty,oneof=regular wav"`
	OwnerEntityID string `query:"owner_entity_id" validate:"omitempty,uuid"`
	Query         string `query:"q" validate:"omitempty,max=100"`
}

func (r *SearchMedallionsRequest) Validate() error { return validation.Struct(r) }

func (r *SearchMedallionsRequest) filter() repository.MedallionFilter {
	return repository.MedallionFilter{
		Status:        r.Status,
		MedallionType: r.MedallionType,
		OwnerEntityID: optionalUUID(r.OwnerEntityID),
		Query:         r.Query,
	}
}

func (h *MedallionHandler) Search(c echo.Context, req *SearchMedallionsRequest) (*Page[model.Medallion], error) {
	res, err := h.medallions.Search(c.Request().Context(), req.filter(), req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}

func (h *MedallionHandler) Export(c echo.Context, req *SearchMedallionsRequest) ([]byte, error) {
	return h.medallions.Export(c.Request().Context(), req.filter(), req.Sort)
}

type CreateEntityRequest struct {
	EntityType model.EntityType `json:"entity_type" validate:"required,oneof=corporation individual"`
	Name       string           `json:"name" validate:"required,max=200"`
	TaxIDLast4 *string          `json:"tax_id_last4" validate:"omitempty,len=4,numeric"`
	Email      *string          `json:"email" validate:"omitempty,email"`
	Phone      *string          `json:"phone" validate:"omitempty,e164"`
	Address    *string          `json:"address" validate:"omitempty,max=500"`
}

func (r *CreateEntityRequest) Validate() error { return validation.Struct(r) }

func (h *MedallionHandler) CreateEntity(c echo.Context, req *CreateEntityRequest) (*model.Entity, error) {
	return h.medallions.CreateEntity(c.Request().Context(), service.CreateEntityInput{
		EntityType: req.EntityType,
		Name:       req.Name,
		TaxIDLast4: req.TaxIDLast4,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
	})
}

func (h *MedallionHandler) GetEntity(c echo.Context, req *IDRequest) (*model.Entity, error) {
	return h.medallions.GetEntity(c.Request().Context(), req.UUID())
}

type SearchEntitiesRequest struct {
	PageRequest
	EntityType string `query:"entity_type" validate:"omitempty,oneof=corporation individual"`
	Query      string `query:"q" validate:"omitempty,max=100"`
}

func (r *SearchEntitiesRequest) Validate() error { return validation.Struct(r) }

func (h *MedallionHandler) SearchEntities(c echo.Context, req *SearchEntitiesRequest) (*Page[model.Entity], error) {
	res, err := h.medallions.SearchEntities(c.Request().Context(),
		repository.EntityFilter{EntityType: req.EntityType, Query: req.Query}, req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}
