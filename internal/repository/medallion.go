package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

type MedallionFilter struct {
	Status        string
	MedallionType string
	OwnerEntityID *uuid.UUID
	Query         string
}

type MedallionRepository interface {
	Create(ctx context.Context, m *model.Medallion) (*model.Medallion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Medallion, error)
	Update(ctx context.Context, m *model.Medallion) (*model.Medallion, error)
	Search(ctx context.Context, f MedallionFilter, pq PageQuery) (*PageResult[model.Medallion], error)
}

type EntityFilter struct {
	EntityType string
	Query      string
}

type EntityRepository interface {
	Create(ctx context.Context, e *model.Entity) (*model.Entity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	Search(ctx context.Context, f EntityFilter, pq PageQuery) (*PageResult[model.Entity], error)
}

const medallionColumns = `id, medallion_number, medallion_type, owner_entity_id, status, renewal_date, created_at, updated_at`

var medallionSort = map[string]string{
	"medallion_number": "medallion_number",
	"status":           "status",
	"renewal_date":     "renewal_date",
	"created_at":       "created_at",
}

type medallionRepository struct {
	db DBTX
}

func NewMedallionRepository(db DBTX) MedallionRepository {
	return &medallionRepository{db: db}
}

func scanMedallion(row scanner) (*model.Medallion, error) {
	var (
		m       model.Medallion
		renewal *time.Time
	)
	err := row.Scan(&m.ID, &m.MedallionNumber, &m.MedallionType, &m.OwnerEntityID, &m.Status, &renewal, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.RenewalDate = toNullDate(renewal)
	return &m, nil
}

func (r *medallionRepository) Create(ctx context.Context, m *model.Medallion) (*model.Medallion, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO medallions (medallion_number, medallion_type, owner_entity_id, status, renewal_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+medallionColumns,
		m.MedallionNumber, m.MedallionType, m.OwnerEntityID, m.Status, NullDateArg(m.RenewalDate),
	)
	created, err := scanMedallion(row)
	if err != nil {
		return nil, fmt.Errorf("insert medallion: %w", err)
	}
	return created, nil
}

func (r *medallionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Medallion, error) {
	m, err := scanMedallion(r.db.QueryRow(ctx, `SELECT `+medallionColumns+` FROM medallions WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("medallions", err)
	}
	return m, nil
}

func (r *medallionRepository) Update(ctx context.Context, m *model.Medallion) (*model.Medallion, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE medallions SET medallion_type = $2, owner_entity_id = $3, status = $4, renewal_date = $5
		WHERE id = $1
		RETURNING `+medallionColumns,
		m.ID, m.MedallionType, m.OwnerEntityID, m.Status, NullDateArg(m.RenewalDate),
	)
	updated, err := scanMedallion(row)
	if err != nil {
		return nil, sqlerr.NotFound("medallions", err)
	}
	return updated, nil
}

func (r *medallionRepository) Search(ctx context.Context, f MedallionFilter, pq PageQuery) (*PageResult[model.Medallion], error) {
	qb := NewQueryBuilder(medallionColumns, "medallions").
		Eq("status", f.Status).
		Eq("medallion_type", f.MedallionType).
		Contains(f.Query, "medallion_number")
	if f.OwnerEntityID != nil {
		qb.EqAny("owner_entity_id", *f.OwnerEntityID)
	}
	if err := qb.OrderBy(pq.Sort, medallionSort, "medallion_number ASC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanMedallion)
	if err != nil {
		return nil, fmt.Errorf("search medallions: %w", err)
	}
	return res, nil
}

const entityColumns = `id, entity_type, name, tax_id_last4, email, phone, address, created_at, updated_at`

var entitySort = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

type entityRepository struct {
	db DBTX
}

func NewEntityRepository(db DBTX) EntityRepository {
	return &entityRepository{db: db}
}

func scanEntity(row scanner) (*model.Entity, error) {
	var e model.Entity
	err := row.Scan(&e.ID, &e.EntityType, &e.Name, &e.TaxIDLast4, &e.Email, &e.Phone, &e.Address, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entityRepository) Create(ctx context.Context, e *model.Entity) (*model.Entity, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO entities (entity_type, name, tax_id_last4, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+entityColumns,
		e.EntityType, e.Name, e.TaxIDLast4, e.Email, e.Phone, e.Address,
	)
	created, err := scanEntity(row)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}
	return created, nil
}

func (r *entityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	e, err := scanEntity(r.db.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("entities", err)
	}
	return e, nil
}

func (r *entityRepository) Search(ctx context.Context, f EntityFilter, pq PageQuery) (*PageResult[model.Entity], error) {
	qb := NewQueryBuilder(entityColumns, "entities").
		Eq("entity_type", f.EntityType).
		Contains(f.Query, "name", "email")
	if err := qb.OrderBy(pq.Sort, entitySort, "name ASC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanEntity)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	return res, nil
}
