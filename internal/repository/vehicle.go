package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

// VehicleFilter narrows a vehicle search. Empty fields do not filter.
type VehicleFilter struct {
	Status      string
	VehicleType string
	Make        string
	MedallionID *uuid.UUID
	Query       string
}

type VehicleRepository interface {
	Create(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	GetByMedallion(ctx context.Context, medallionID uuid.UUID) (*model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	Search(ctx context.Context, f VehicleFilter, pq PageQuery) (*PageResult[model.Vehicle], error)
}

type HackupTaskRepository interface {
	CreateMissing(ctx context.Context, vehicleID uuid.UUID, types []model.HackupTaskType) error
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.HackupTask, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.HackupTask, error)
	Update(ctx context.Context, t *model.HackupTask) (*model.HackupTask, error)
}

const vehicleColumns = `id, vin, make, model, model_year, vehicle_type, medallion_id, plate_number,
	registration_expiry, purchase_price, purchase_date, status, delivered_at, hacked_up_at,
	registered_at, created_at, updated_at`

var vehicleSort = map[string]string{
	"vin":           "vin",
	"make":          "make",
	"model_year":    "model_year",
	"status":        "status",
	"purchase_date": "purchase_date",
	"created_at":    "created_at",
}

type vehicleRepository struct {
	db DBTX
}

func NewVehicleRepository(db DBTX) VehicleRepository {
	return &vehicleRepository{db: db}
}

func scanVehicle(row scanner) (*model.Vehicle, error) {
	var (
		v            model.Vehicle
		regExpiry    *time.Time
		purchaseDate time.Time
	)
	err := row.Scan(
		&v.ID, &v.VIN, &v.Make, &v.Model, &v.ModelYear, &v.VehicleType, &v.MedallionID, &v.PlateNumber,
		&regExpiry, &v.PurchasePrice, &purchaseDate, &v.Status, &v.DeliveredAt, &v.HackedUpAt,
		&v.RegisteredAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.RegistrationExpiry = toNullDate(regExpiry)
	v.PurchaseDate = toDate(purchaseDate)
	return &v, nil
}

func (r *vehicleRepository) Create(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO vehicles (vin, make, model, model_year, vehicle_type, purchase_price, purchase_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+vehicleColumns,
		v.VIN, v.Make, v.Model, v.ModelYear, v.VehicleType, v.PurchasePrice, DateArg(v.PurchaseDate), v.Status,
	)
	created, err := scanVehicle(row)
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}
	return created, nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, sqlerr.NotFound("vehicles", err)
	}
	return v, nil
}

func (r *vehicleRepository) GetByMedallion(ctx context.Context, medallionID uuid.UUID) (*model.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE medallion_id = $1`, medallionID)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, sqlerr.NotFound("vehicles", err)
	}
	return v, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE vehicles SET
			make = $2, model = $3, model_year = $4, vehicle_type = $5, medallion_id = $6,
			plate_number = $7, registration_expiry = $8, purchase_price = $9, status = $10,
			delivered_at = $11, hacked_up_at = $12, registered_at = $13
		WHERE id = $1
		RETURNING `+vehicleColumns,
		v.ID, v.Make, v.Model, v.ModelYear, v.VehicleType, v.MedallionID,
		v.PlateNumber, NullDateArg(v.RegistrationExpiry), v.PurchasePrice, v.Status,
		v.DeliveredAt, v.HackedUpAt, v.RegisteredAt,
	)
	updated, err := scanVehicle(row)
	if err != nil {
		return nil, sqlerr.NotFound("vehicles", err)
	}
	return updated, nil
}

func (r *vehicleRepository) Search(ctx context.Context, f VehicleFilter, pq PageQuery) (*PageResult[model.Vehicle], error) {
	qb := NewQueryBuilder(vehicleColumns, "vehicles").
		Eq("status", f.Status).
		Eq("vehicle_type", f.VehicleType).
		Eq("make", f.Make).
		Contains(f.Query, "vin", "plate_number", "make", "model")
	if f.MedallionID != nil {
		qb.EqAny("medallion_id", *f.MedallionID)
	}
	if err := qb.OrderBy(pq.Sort, vehicleSort, "created_at DESC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanVehicle)
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}
	return res, nil
}

const hackupColumns = `id, vehicle_id, task_type, status, vendor, cost, completed_at, notes, created_at, updated_at`

type hackupTaskRepository struct {
	db DBTX
}

func NewHackupTaskRepository(db DBTX) HackupTaskRepository {
	return &hackupTaskRepository{db: db}
}

func scanHackupTask(row scanner) (*model.HackupTask, error) {
	var t model.HackupTask
	err := row.Scan(&t.ID, &t.VehicleID, &t.TaskType, &t.Status, &t.Vendor, &t.Cost, &t.CompletedAt, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *hackupTaskRepository) CreateMissing(ctx context.Context, vehicleID uuid.UUID, types []model.HackupTaskType) error {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO hackup_tasks (vehicle_id, task_type)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (vehicle_id, task_type) DO NOTHING`,
		vehicleID, names,
	)
	if err != nil {
		return fmt.Errorf("insert hackup tasks: %w", err)
	}
	return nil
}

func (r *hackupTaskRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.HackupTask, error) {
	rows, err := r.db.Query(ctx, `SELECT `+hackupColumns+` FROM hackup_tasks WHERE vehicle_id = $1 ORDER BY task_type`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list hackup tasks: %w", err)
	}
	return collect(rows, scanHackupTask)
}

func (r *hackupTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.HackupTask, error) {
	t, err := scanHackupTask(r.db.QueryRow(ctx, `SELECT `+hackupColumns+` FROM hackup_tasks WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("hackup_tasks", err)
	}
	return t, nil
}

func (r *hackupTaskRepository) Update(ctx context.Context, t *model.HackupTask) (*model.HackupTask, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE hackup_tasks SET status = $2, vendor = $3, cost = $4, completed_at = $5, notes = $6
		WHERE id = $1
		RETURNING `+hackupColumns,
		t.ID, t.Status, t.Vendor, t.Cost, t.CompletedAt, t.Notes,
	)
	updated, err := scanHackupTask(row)
	if err != nil {
		return nil, sqlerr.NotFound("hackup_tasks", err)
	}
	return updated, nil
}
