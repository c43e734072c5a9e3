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

type ExpenseFilter struct {
	VehicleID   *uuid.UUID
	MedallionID *uuid.UUID
	Category    string
	Status      string
	From        *civil.Date
	To          *civil.Date
}

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) (*model.Expense, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExpenseStatus) (*model.Expense, error)
	Search(ctx context.Context, f ExpenseFilter, pq PageQuery) (*PageResult[model.Expense], error)
	// Totals sums expenses per category over the incurred_on range.
	Totals(ctx context.Context, from, to *civil.Date) ([]model.CategoryTotal, error)
	// Upcoming lists open compliance items expiring between from and to.
	Upcoming(ctx context.Context, from, to civil.Date) ([]model.Expense, error)
}

const expenseColumns = `id, vehicle_id, medallion_id, category, amount, incurred_on, expires_on, document_id,
	status, notes, created_at, updated_at`

var expenseSort = map[string]string{
	"incurred_on": "incurred_on",
	"expires_on":  "expires_on",
	"amount":      "amount",
	"category":    "category",
	"created_at":  "created_at",
}

type expenseRepository struct {
	db DBTX
}

func NewExpenseRepository(db DBTX) ExpenseRepository {
	return &expenseRepository{db: db}
}

func scanExpense(row scanner) (*model.Expense, error) {
	var (
		e        model.Expense
		incurred time.Time
		expires  *time.Time
	)
	err := row.Scan(
		&e.ID, &e.VehicleID, &e.MedallionID, &e.Category, &e.Amount, &incurred, &expires, &e.DocumentID,
		&e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.IncurredOn = toDate(incurred)
	e.ExpiresOn = toNullDate(expires)
	return &e, nil
}

func (r *expenseRepository) Create(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO expenses (vehicle_id, medallion_id, category, amount, incurred_on, expires_on, document_id, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+expenseColumns,
		e.VehicleID, e.MedallionID, e.Category, e.Amount, DateArg(e.IncurredOn), NullDateArg(e.ExpiresOn),
		e.DocumentID, e.Status, e.Notes,
	)
	created, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return created, nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, err := scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("expenses", err)
	}
	return e, nil
}

func (r *expenseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExpenseStatus) (*model.Expense, error) {
	row := r.db.QueryRow(ctx, `UPDATE expenses SET status = $2 WHERE id = $1 RETURNING `+expenseColumns, id, status)
	e, err := scanExpense(row)
	if err != nil {
		return nil, sqlerr.NotFound("expenses", err)
	}
	return e, nil
}

func (r *expenseRepository) filter(f ExpenseFilter) *QueryBuilder {
	qb := NewQueryBuilder(expenseColumns, "expenses").
		Eq("category", f.Category).
		Eq("status", f.Status).
		DateRange("incurred_on", f.From, f.To)
	if f.VehicleID != nil {
		qb.EqAny("vehicle_id", *f.VehicleID)
	}
	if f.MedallionID != nil {
		qb.EqAny("medallion_id", *f.MedallionID)
	}
	return qb
}

func (r *expenseRepository) Search(ctx context.Context, f ExpenseFilter, pq PageQuery) (*PageResult[model.Expense], error) {
	qb := r.filter(f)
	if err := qb.OrderBy(pq.Sort, expenseSort, "incurred_on DESC"); err != nil {
		return nil, err
	}

	res, err := page(ctx, r.db, qb, pq, scanExpense)
	if err != nil {
		return nil, fmt.Errorf("search expenses: %w", err)
	}
	return res, nil
}

func (r *expenseRepository) Totals(ctx context.Context, from, to *civil.Date) ([]model.CategoryTotal, error) {
	qb := NewQueryBuilder("category, COUNT(*), COALESCE(SUM(amount), 0)", "expenses").
		DateRange("incurred_on", from, to)
	sql, args := qb.Build(PageQuery{})
	rows, err := r.db.Query(ctx, sql+" GROUP BY category ORDER BY category", args...)
	if err != nil {
		return nil, fmt.Errorf("expense totals: %w", err)
	}
	return collect(rows, func(row scanner) (*model.CategoryTotal, error) {
		var t model.CategoryTotal
		if err := row.Scan(&t.Category, &t.Count, &t.Total); err != nil {
			return nil, err
		}
		return &t, nil
	})
}

func (r *expenseRepository) Upcoming(ctx context.Context, from, to civil.Date) ([]model.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE expires_on IS NOT NULL AND expires_on BETWEEN $1 AND $2 AND status = 'open'
		ORDER BY expires_on`,
		DateArg(from), DateArg(to),
	)
	if err != nil {
		return nil, fmt.Errorf("upcoming compliance: %w", err)
	}
	return collect(rows, scanExpense)
}
