package service

import (
	"bytes"
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

type CreateMedallionInput struct {
	MedallionNumber string
	MedallionType   model.MedallionType
	OwnerEntityID   uuid.UUID
	RenewalDate     *civil.Date
}

// UpdateMedallionInput holds the editable fields. Assignment status is set
// by vehicle assignment only.
type UpdateMedallionInput struct {
	MedallionType *model.MedallionType
	OwnerEntityID *uuid.UUID
	Status        *model.MedallionStatus
	RenewalDate   *civil.Date
}

type CreateEntityInput struct {
	EntityType model.EntityType
	Name       string
	TaxIDLast4 *string
	Email      *string
	Phone      *string
	Address    *string
}

type MedallionService struct {
	repos  *repository.Repositories
	logger *zerolog.Logger
}

func NewMedallionService(repos *repository.Repositories, logger *zerolog.Logger) *MedallionService {
	return &MedallionService{repos: repos, logger: logger}
}

// Create stores a medallion in storage for an existing owner.
func (s *MedallionService) Create(ctx context.Context, in CreateMedallionInput) (*model.Medallion, error) {
	if _, err := s.repos.Entities.GetByID(ctx, in.OwnerEntityID); err != nil {
		return nil, err
	}
	m, err := s.repos.Medallions.Create(ctx, &model.Medallion{
		MedallionNumber: in.MedallionNumber,
		MedallionType:   in.MedallionType,
		OwnerEntityID:   in.OwnerEntityID,
		Status:          model.MedallionStatusInStorage,
		RenewalDate:     in.RenewalDate,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("medallion_number", m.MedallionNumber).Msg("medallion created")
	return m, nil
}

func (s *MedallionService) Get(ctx context.Context, id uuid.UUID) (*model.Medallion, error) {
	return s.repos.Medallions.GetByID(ctx, id)
}

func (s *MedallionService) Update(ctx context.Context, id uuid.UUID, in UpdateMedallionInput) (*model.Medallion, error) {
	m, err := s.repos.Medallions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.MedallionType != nil {
		m.MedallionType = *in.MedallionType
	}
	if in.OwnerEntityID != nil {
		if _, err := s.repos.Entities.GetByID(ctx, *in.OwnerEntityID); err != nil {
			return nil, err
		}
		m.OwnerEntityID = *in.OwnerEntityID
	}
	if in.Status != nil && *in.Status != m.Status {
		if *in.Status == model.MedallionStatusAssigned || m.Status == model.MedallionStatusAssigned {
			return nil, errMedallionAssignment
		}
		m.Status = *in.Status
	}
	if in.RenewalDate != nil {
		m.RenewalDate = in.RenewalDate
	}
	return s.repos.Medallions.Update(ctx, m)
}

func (s *MedallionService) Search(ctx context.Context, f repository.MedallionFilter, pq repository.PageQuery) (*repository.PageResult[model.Medallion], error) {
	return s.repos.Medallions.Search(ctx, f, pq)
}

var medallionColumns = []export.Column[model.Medallion]{
	{Header: "id", Value: func(m model.Medallion) string { return m.ID.String() }},
	{Header: "medallion_number", Value: func(m model.Medallion) string { return m.MedallionNumber }},
	{Header: "medallion_type", Value: func(m model.Medallion) string { return string(m.MedallionType) }},
	{Header: "owner_entity_id", Value: func(m model.Medallion) string { return m.OwnerEntityID.String() }},
	{Header: "status", Value: func(m model.Medallion) string { return string(m.Status) }},
	{Header: "renewal_date", Value: func(m model.Medallion) string { return export.Date(m.RenewalDate) }},
}

func (s *MedallionService) Export(ctx context.Context, f repository.MedallionFilter, sort string) ([]byte, error) {
	res, err := s.repos.Medallions.Search(ctx, f, repository.PageQuery{Limit: repository.ExportLimit, Sort: sort})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, medallionColumns, res.Items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *MedallionService) CreateEntity(ctx context.Context, in CreateEntityInput) (*model.Entity, error) {
	return s.repos.Entities.Create(ctx, &model.Entity{
		EntityType: in.EntityType,
		Name:       in.Name,
		TaxIDLast4: in.TaxIDLast4,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
	})
}

func (s *MedallionService) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	return s.repos.Entities.GetByID(ctx, id)
}

func (s *MedallionService) SearchEntities(ctx context.Context, f repository.EntityFilter, pq repository.PageQuery) (*repository.PageResult[model.Entity], error) {
	return s.repos.Entities.Search(ctx, f, pq)
}
