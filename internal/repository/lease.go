package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/lease"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

type LeaseFilter struct {
	Status    string
	LeaseType string
	DriverID  *uuid.UUID
	VehicleID *uuid.UUID
	EndFrom   *civil.Date
	EndTo     *civil.Date
	Query     string
}

type LeaseRepository interface {
	NextLeaseNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, l *model.Lease) (*model.Lease, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Lease, error)
	// GetForUpdate locks the lease row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Lease, error)
	Update(ctx context.Context, l *model.Lease) (*model.Lease, error)
	Search(ctx context.Context, f LeaseFilter, pq PageQuery) (*PageResult[model.Lease], error)
	// ListActiveIDs returns active leases ending on or before the given day,
	// oldest end date first.
	ListActiveIDs(ctx context.Context, endingBy civil.Date) ([]uuid.UUID, error)
	HasActiveForDriver(ctx context.Context, driverID uuid.UUID) (bool, error)
	HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)

	InsertInstallments(ctx context.Context, leaseID uuid.UUID, items []lease.Installment) error
	ListInstallments(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseInstallment, error)
	MaxInstallmentNo(ctx context.Context, leaseID uuid.UUID) (int, error)
	// VoidInstallmentsAfter voids scheduled installments starting after day.
	VoidInstallmentsAfter(ctx context.Context, leaseID uuid.UUID, day civil.Date) (int64, error)

	CreateRenewal(ctx context.Context, r *model.LeaseRenewal) (*model.LeaseRenewal, error)
	ListRenewals(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseRenewal, error)
}

type RateRepository interface {
	// Current returns the rate in effect on day, or a not-found error.
	Current(ctx context.Context, leaseType model.LeaseType, vehicleType model.VehicleType, day civil.Date) (*model.LeaseRate, error)
	List(ctx context.Context) ([]model.LeaseRate, error)
}

const leaseColumns = `id, lease_number, lease_type, vehicle_id, medallion_id, driver_id, start_date, end_date,
	weekly_amount, deposit, auto_renew, segment, total_segments, status, expiring_notified_at,
	terminated_at, termination_reason, created_at, updated_at`

var leaseSort = map[string]string{
	"lease_number":  "lease_number",
	"start_date":    "start_date",
	"end_date":      "end_date",
	"weekly_amount": "weekly_amount",
	"status":        "status",
	"created_at":    "created_at",
}

type leaseRepository struct {
	db DBTX
}

func NewLeaseRepository(db DBTX) LeaseRepository {
	return &leaseRepository{db: db}
}

func scanLease(row scanner) (*model.Lease, error) {
	var (
		l          model.Lease
		start, end time.Time
	)
	err := row.Scan(
		&l.ID, &l.LeaseNumber, &l.LeaseType, &l.VehicleID, &l.MedallionID, &l.DriverID, &start, &end,
		&l.WeeklyAmount, &l.Deposit, &l.AutoRenew, &l.Segment, &l.TotalSegments, &l.Status, &l.ExpiringNotifiedAt,
		&l.TerminatedAt, &l.TerminationReason, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.StartDate = toDate(start)
	l.EndDate = toDate(end)
	return &l, nil
}

func (r *leaseRepository) NextLeaseNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('lease_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next lease number: %w", err)
	}
	return fmt.Sprintf("LS-%06d", n), nil
}

func (r *leaseRepository) Create(ctx context.Context, l *model.Lease) (*model.Lease, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO leases (lease_number, lease_type, vehicle_id, medallion_id, driver_id, start_date, end_date,
			weekly_amount, deposit, auto_renew, segment, total_segments, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+leaseColumns,
		l.LeaseNumber, l.LeaseType, l.VehicleID, l.MedallionID, l.DriverID, DateArg(l.StartDate), DateArg(l.EndDate),
		l.WeeklyAmount, l.Deposit, l.AutoRenew, l.Segment, l.TotalSegments, l.Status,
	)
	created, err := scanLease(row)
	if err != nil {
		return nil, fmt.Errorf("insert lease: %w", err)
	}
	return created, nil
}

func (r *leaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	l, err := scanLease(r.db.QueryRow(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("leases", err)
	}
	return l, nil
}

func (r *leaseRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	l, err := scanLease(r.db.QueryRow(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, sqlerr.NotFound("leases", err)
	}
	return l, nil
}

func (r *leaseRepository) Update(ctx context.Context, l *model.Lease) (*model.Lease, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE leases SET
			medallion_id = $2, start_date = $3, end_date = $4, weekly_amount = $5, deposit = $6,
			auto_renew = $7, segment = $8, total_segments = $9, status = $10,
			expiring_notified_at = $11, terminated_at = $12, termination_reason = $13
		WHERE id = $1
		RETURNING `+leaseColumns,
		l.ID, l.MedallionID, DateArg(l.StartDate), DateArg(l.EndDate), l.WeeklyAmount, l.Deposit,
		l.AutoRenew, l.Segment, l.TotalSegments, l.Status,
		l.ExpiringNotifiedAt, l.TerminatedAt, l.TerminationReason,
	)
	updated, err := scanLease(row)
	if err != nil {
		return nil, sqlerr.NotFound("leases", err)
	}
	return updated, nil
}

func (r *leaseRepository) Search(ctx context.Context, f LeaseFilter, pq PageQuery) (*PageResult[model.Lease], error) {
	qb := NewQueryBuilder(leaseColumns, "leases").
		Eq("status", f.Status).
		Eq("lease_type", f.LeaseType).
		DateRange("end_date", f.EndFrom, f.EndTo).
		Contains(f.Query, "lease_number")
	if f.DriverID != nil {
		qb.EqAny("driver_id", *f.DriverID)
	}
	if f.VehicleID != nil {
		qb.EqAny("vehicle_id", *f.VehicleID)
	}
	if err := qb.OrderBy(pq.Sort, leaseSort, "created_at DESC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanLease)
	if err != nil {
		return nil, fmt.Errorf("search leases: %w", err)
	}
	return res, nil
}

func (r *leaseRepository) ListActiveIDs(ctx context.Context, endingBy civil.Date) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM leases
		WHERE status = 'active' AND end_date <= $1
		ORDER BY end_date, id`,
		DateArg(endingBy),
	)
	if err != nil {
		return nil, fmt.Errorf("list active leases: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *leaseRepository) HasActiveForDriver(ctx context.Context, driverID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leases WHERE driver_id = $1 AND status = 'active')`, driverID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active lease: %w", err)
	}
	return exists, nil
}

func (r *leaseRepository) HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leases WHERE vehicle_id = $1 AND status = 'active')`, vehicleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active vehicle lease: %w", err)
	}
	return exists, nil
}

const installmentColumns = `id, lease_id, installment_no, period_start, period_end, due_date, amount, status, created_at, updated_at`

func scanInstallment(row scanner) (*model.LeaseInstallment, error) {
	var (
		i                  model.LeaseInstallment
		start, end, dueDay time.Time
	)
	err := row.Scan(&i.ID, &i.LeaseID, &i.InstallmentNo, &start, &end, &dueDay, &i.Amount, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.PeriodStart = toDate(start)
	i.PeriodEnd = toDate(end)
	i.DueDate = toDate(dueDay)
	return &i, nil
}

func (r *leaseRepository) InsertInstallments(ctx context.Context, leaseID uuid.UUID, items []lease.Installment) error {
	for _, it := range items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO lease_installments (lease_id, installment_no, period_start, period_end, due_date, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			leaseID, it.Number, DateArg(it.PeriodStart), DateArg(it.PeriodEnd), DateArg(it.DueDate), it.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert installment %d: %w", it.Number, err)
		}
	}
	return nil
}

func (r *leaseRepository) ListInstallments(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseInstallment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+installmentColumns+` FROM lease_installments WHERE lease_id = $1 ORDER BY installment_no`, leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return collect(rows, scanInstallment)
}

func (r *leaseRepository) MaxInstallmentNo(ctx context.Context, leaseID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(installment_no), 0) FROM lease_installments WHERE lease_id = $1`, leaseID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max installment: %w", err)
	}
	return n, nil
}

func (r *leaseRepository) VoidInstallmentsAfter(ctx context.Context, leaseID uuid.UUID, day civil.Date) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE lease_installments SET status = 'void'
		WHERE lease_id = $1 AND status = 'scheduled' AND period_start > $2`,
		leaseID, DateArg(day),
	)
	if err != nil {
		return 0, fmt.Errorf("void installments: %w", err)
	}
	return tag.RowsAffected(), nil
}

const renewalColumns = `id, lease_id, segment, previous_end_date, new_end_date, weekly_amount, renewed_at, created_at, updated_at`

func scanRenewal(row scanner) (*model.LeaseRenewal, error) {
	var (
		rn           model.LeaseRenewal
		prevEnd, end time.Time
	)
	err := row.Scan(&rn.ID, &rn.LeaseID, &rn.Segment, &prevEnd, &end, &rn.WeeklyAmount, &rn.RenewedAt, &rn.CreatedAt, &rn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rn.PreviousEndDate = toDate(prevEnd)
	rn.NewEndDate = toDate(end)
	return &rn, nil
}

func (r *leaseRepository) CreateRenewal(ctx context.Context, rn *model.LeaseRenewal) (*model.LeaseRenewal, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO lease_renewals (lease_id, segment, previous_end_date, new_end_date, weekly_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+renewalColumns,
		rn.LeaseID, rn.Segment, DateArg(rn.PreviousEndDate), DateArg(rn.NewEndDate), rn.WeeklyAmount,
	)
	created, err := scanRenewal(row)
	if err != nil {
		return nil, fmt.Errorf("insert renewal: %w", err)
	}
	return created, nil
}

func (r *leaseRepository) ListRenewals(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseRenewal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+renewalColumns+` FROM lease_renewals WHERE lease_id = $1 ORDER BY renewed_at`, leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	return collect(rows, scanRenewal)
}

const rateColumns = `id, lease_type, vehicle_type, weekly_amount, effective_from, created_at, updated_at`

type rateRepository struct {
	db DBTX
}

func NewRateRepository(db DBTX) RateRepository {
	return &rateRepository{db: db}
}

func scanRate(row scanner) (*model.LeaseRate, error) {
	var (
		rate model.LeaseRate
		from time.Time
	)
	err := row.Scan(&rate.ID, &rate.LeaseType, &rate.VehicleType, &rate.WeeklyAmount, &from, &rate.CreatedAt, &rate.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rate.EffectiveFrom = toDate(from)
	return &rate, nil
}

func (r *rateRepository) Current(ctx context.Context, leaseType model.LeaseType, vehicleType model.VehicleType, day civil.Date) (*model.LeaseRate, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+rateColumns+` FROM lease_rates
		WHERE lease_type = $1 AND vehicle_type = $2 AND effective_from <= $3
		ORDER BY effective_from DESC
		LIMIT 1`,
		leaseType, vehicleType, DateArg(day),
	)
	rate, err := scanRate(row)
	if err != nil {
		return nil, sqlerr.NotFound("lease_rates", err)
	}
	return rate, nil
}

func (r *rateRepository) List(ctx context.Context) ([]model.LeaseRate, error) {
	rows, err := r.db.Query(ctx, `SELECT `+rateColumns+` FROM lease_rates ORDER BY lease_type, vehicle_type, effective_from DESC`)
	if err != nil {
		return nil, fmt.Errorf("list lease rates: %w", err)
	}
	return collect(rows, scanRate)
}
