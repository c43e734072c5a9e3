package service

import (
	"bytes"
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateExpenseInput struct {
	VehicleID   *uuid.UUID
	MedallionID *uuid.UUID
	Category    model.ExpenseCategory
	Amount      decimal.Decimal
	IncurredOn  civil.Date
	ExpiresOn   *civil.Date
	DocumentID  *uuid.UUID
	Notes       *string
}

// ComplianceWindow is the result of Upcoming.
type ComplianceWindow struct {
	From     civil.Date      `json:"from"`
	To       civil.Date      `json:"to"`
	Expenses []model.Expense `json:"expenses"`
}

type ExpenseService struct {
	repos  *repository.Repositories
	cfg    config.LeaseConfig
	logger *zerolog.Logger
	now    Clock
}

func NewExpenseService(repos *repository.Repositories, cfg config.LeaseConfig, logger *zerolog.Logger) *ExpenseService {
	return &ExpenseService{repos: repos, cfg: cfg, logger: logger, now: time.Now}
}

// Create records an expense against a vehicle, a medallion or both.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpenseInput) (*model.Expense, error) {
	if in.VehicleID == nil && in.MedallionID == nil {
		code := "EXPENSE_TARGET_REQUIRED"
		return nil, errs.NewBadRequestError("An expense needs a vehicle or a medallion", true, &code, nil, nil)
	}
	if in.ExpiresOn != nil && in.ExpiresOn.Before(in.IncurredOn) {
		code := "INVALID_EXPENSE_DATES"
		return nil, errs.NewBadRequestError("Expiry must not be before the incurred date", true, &code, nil, nil)
	}

	e, err := s.repos.Expenses.Create(ctx, &model.Expense{
		VehicleID:   in.VehicleID,
		MedallionID: in.MedallionID,
		Category:    in.Category,
		Amount:      in.Amount,
		IncurredOn:  in.IncurredOn,
		ExpiresOn:   in.ExpiresOn,
		DocumentID:  in.DocumentID,
		Status:      model.ExpenseStatusOpen,
		Notes:       in.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("expense_id", e.ID.String()).Str("category", string(e.Category)).Msg("expense recorded")
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	return s.repos.Expenses.GetByID(ctx, id)
}

func (s *ExpenseService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExpenseStatus) (*model.Expense, error) {
	return s.repos.Expenses.UpdateStatus(ctx, id, status)
}

func (s *ExpenseService) Search(ctx context.Context, f repository.ExpenseFilter, pq repository.PageQuery) (*repository.PageResult[model.Expense], error) {
	return s.repos.Expenses.Search(ctx, f, pq)
}

func (s *ExpenseService) Totals(ctx context.Context, from, to *civil.Date) ([]model.CategoryTotal, error) {
	return s.repos.Expenses.Totals(ctx, from, to)
}

// Upcoming lists open items expiring within days from today. Zero days uses
// the configured compliance window.
func (s *ExpenseService) Upcoming(ctx context.Context, days int) (*ComplianceWindow, error) {
	if days <= 0 {
		days = s.cfg.ComplianceWindowDays
	}
	from := todayIn(s.now, s.cfg.Location())
	to := from.AddDays(days)

	items, err := s.repos.Expenses.Upcoming(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &ComplianceWindow{From: from, To: to, Expenses: items}, nil
}

var expenseColumns = []export.Column[model.Expense]{
	{Header: "id", Value: func(e model.Expense) string { return e.ID.String() }},
	{Header: "vehicle_id", Value: func(e model.Expense) string { return export.UUID(e.VehicleID) }},
	{Header: "medallion_id", Value: func(e model.Expense) string { return export.UUID(e.MedallionID) }},
	{Header: "category", Value: func(e model.Expense) string { return string(e.Category) }},
	{Header: "amount", Value: func(e model.Expense) string { return e.Amount.StringFixed(2) }},
	{Header: "incurred_on", Value: func(e model.Expense) string { return e.IncurredOn.String() }},
	{Header: "expires_on", Value: func(e model.Expense) string { return export.Date(e.ExpiresOn) }},
	{Header: "status", Value: func(e model.Expense) string { return string(e.Status) }},
	{Header: "notes", Value: func(e model.Expense) string { return export.Str(e.Notes) }},
}

func (s *ExpenseService) Export(ctx context.Context, f repository.ExpenseFilter, sort string) ([]byte, error) {
	res, err := s.repos.Expenses.Search(ctx, f, repository.PageQuery{Limit: repository.ExportLimit, Sort: sort})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, expenseColumns, res.Items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
