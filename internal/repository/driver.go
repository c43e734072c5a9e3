package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

type DriverFilter struct {
	Status string
	Query  string
}

type DriverRepository interface {
	Create(ctx context.Context, d *model.Driver) (*model.Driver, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error)
	Update(ctx context.Context, d *model.Driver) (*model.Driver, error)
	Search(ctx context.Context, f DriverFilter, pq PageQuery) (*PageResult[model.Driver], error)
	// ExpiringLicenses lists active drivers with a TLC or DMV license
	// expiring on or before the given day.
	ExpiringLicenses(ctx context.Context, before civil.Date) ([]model.Driver, error)
}

const driverColumns = `id, first_name, last_name, email, phone, tlc_license_number, tlc_license_expiry,
	dmv_license_number, dmv_license_expiry, status, created_at, updated_at`

var driverSort = map[string]string{
	"last_name":          "last_name",
	"first_name":         "first_name",
	"status":             "status",
	"tlc_license_expiry": "tlc_license_expiry",
	"created_at":         "created_at",
}

type driverRepository struct {
	db DBTX
}

func NewDriverRepository(db DBTX) DriverRepository {
	return &driverRepository{db: db}
}

func scanDriver(row scanner) (*model.Driver, error) {
	var (
		d         model.Driver
		tlcExpiry time.Time
		dmvExpiry time.Time
	)
	err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.TLCLicenseNumber, &tlcExpiry,
		&d.DMVLicenseNumber, &dmvExpiry, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.TLCLicenseExpiry = toDate(tlcExpiry)
	d.DMVLicenseExpiry = toDate(dmvExpiry)
	return &d, nil
}

func (r *driverRepository) Create(ctx context.Context, d *model.Driver) (*model.Driver, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO drivers (first_name, last_name, email, phone, tlc_license_number, tlc_license_expiry,
			dmv_license_number, dmv_license_expiry, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+driverColumns,
		d.FirstName, d.LastName, d.Email, d.Phone, d.TLCLicenseNumber, DateArg(d.TLCLicenseExpiry),
		d.DMVLicenseNumber, DateArg(d.DMVLicenseExpiry), d.Status,
	)
	created, err := scanDriver(row)
	if err != nil {
		return nil, fmt.Errorf("insert driver: %w", err)
	}
	return created, nil
}

func (r *driverRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	d, err := scanDriver(r.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("drivers", err)
	}
	return d, nil
}

func (r *driverRepository) Update(ctx context.Context, d *model.Driver) (*model.Driver, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE drivers SET
			first_name = $2, last_name = $3, email = $4, phone = $5,
			tlc_license_number = $6, tlc_license_expiry = $7,
			dmv_license_number = $8, dmv_license_expiry = $9, status = $10
		WHERE id = $1
		RETURNING `+driverColumns,
		d.ID, d.FirstName, d.LastName, d.Email, d.Phone,
		d.TLCLicenseNumber, DateArg(d.TLCLicenseExpiry),
		d.DMVLicenseNumber, DateArg(d.DMVLicenseExpiry), d.Status,
	)
	updated, err := scanDriver(row)
	if err != nil {
		return nil, sqlerr.NotFound("drivers", err)
	}
	return updated, nil
}

func (r *driverRepository) Search(ctx context.Context, f DriverFilter, pq PageQuery) (*PageResult[model.Driver], error) {
	qb := NewQueryBuilder(driverColumns, "drivers").
		Eq("status", f.Status).
		Contains(f.Query, "first_name", "last_name", "email", "tlc_license_number")
	if err := qb.OrderBy(pq.Sort, driverSort, "last_name ASC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanDriver)
	if err != nil {
		return nil, fmt.Errorf("search drivers: %w", err)
	}
	return res, nil
}

func (r *driverRepository) ExpiringLicenses(ctx context.Context, before civil.Date) ([]model.Driver, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+driverColumns+` FROM drivers
		WHERE status = 'active' AND (tlc_license_expiry <= $1 OR dmv_license_expiry <= $1)
		ORDER BY LEAST(tlc_license_expiry, dmv_license_expiry)`,
		DateArg(before),
	)
	if err != nil {
		return nil, fmt.Errorf("list expiring licenses: %w", err)
	}
	return collect(rows, scanDriver)
}
