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

type ExpenseHandler struct {
	Handler
	expenses *service.ExpenseService
}

func NewExpenseHandler(s *server.Server, expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{Handler: NewHandler(s), expenses: expenses}
}

type CreateExpenseRequest struct {
	VehicleID   *uuid.UUID            `json:"vehicle_id"`
	MedallionID *uuid.UUID            `json:"medallion_id"`
	Category    model.ExpenseCategory `json:"category" validate:"required,oneof=insurance inspection registration repair fuel tlc_fee other"`
	Amount      decimal.Decimal       `json:"amount"`
	IncurredOn  civil.Date            `json:"incurred_on"`
	ExpiresOn   *civil.Date           `json:"expires_on"`
	DocumentID  *uuid.UUID            `json:"document_id"`
	Notes       *string               `json:"notes" validate:"omitempty,max=1000"`
}

func (r *CreateExpenseRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if !r.Amount.IsPositive() {
		problems = append(problems, validation.CustomValidationError{Field: "amount", Message: "must be greater than 0"})
	}
	if !r.IncurredOn.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "incurred_on", Message: "is required"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (h *ExpenseHandler) Create(c echo.Context, req *CreateExpenseRequest) (*model.Expense, error) {
	return h.expenses.Create(c.Request().Context(), service.CreateExpenseInput{
		VehicleID:   req.VehicleID,
		MedallionID: req.MedallionID,
		Category:    req.Category,
		Amount:      req.Amount,
		IncurredOn:  req.IncurredOn,
		ExpiresOn:   req.ExpiresOn,
		DocumentID:  req.DocumentID,
		Notes:       req.Notes,
	})
}

func (h *ExpenseHandler) Get(c echo.Context, req *IDRequest) (*model.Expense, error) {
	return h.expenses.Get(c.Request().Context(), req.UUID())
}

type SearchExpensesRequest struct {
	PageRequest
	VehicleID   string `query:"vehicle_id" validate:"omitempty,uuid"`
	MedallionID string `query:"medallion_id" validate:"omitempty,uuid"`
	Category    string `query:"category" validate:"omitempty,oneof=insurance inspection registration repair fuel tlc_fee other"`
	Status      string `query:"status" validate:"omitempty,oneof=open paid"`
	From        string `query:"from"`
	To          string `query:"to"`

	from, to *civil.Date
}

func (r *SearchExpensesRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return r.parseRange()
}

func (r *SearchExpensesRequest) parseRange() error {
	var problems validation.CustomValidationErrors
	var ok bool
	if r.from, ok = parseDate(r.From); !ok {
		problems = append(problems, validation.CustomValidationError{Field: "from", Message: "must be a date (YYYY-MM-DD)"})
	}
	if r.to, ok = parseDate(r.To); !ok {
		problems = append(problems, validation.CustomValidationError{Field: "to", Message: "must be a date (YYYY-MM-DD)"})
	}
	if r.from != nil && r.to != nil && r.to.Before(*r.from) {
		problems = append(problems, validation.CustomValidationError{Field: "to", Message: "must not be before from"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func (r *SearchExpensesRequest) filter() repository.ExpenseFilter {
	return repository.ExpenseFilter{
		VehicleID:   optionalUUID(r.VehicleID),
		MedallionID: optionalUUID(r.MedallionID),
		Category:    r.Category,
		Status:      r.Status,
		From:        r.from,
		To:          r.to,
	}
}

func (h *ExpenseHandler) Search(c echo.Context, req *SearchExpensesRequest) (*Page[model.Expense], error) {
	res, err := h.expenses.Search(c.Request().Context(), req.filter(), req.pageQuery())
	if err != nil {
		return nil, err
	}
	return newPage(res, req.PageRequest), nil
}

func (h *ExpenseHandler) Export(c echo.Context, req *SearchExpensesRequest) ([]byte, error) {
	return h.expenses.Export(c.Request().Context(), req.filter(), req.Sort)
}

// ExpenseSummaryRequest bounds the totals by incurred date; both ends are
// optional.
type ExpenseSummaryRequest struct {
	From string `query:"from"`
	To   string `query:"to"`

	inner SearchExpensesRequest
}

func (r *ExpenseSummaryRequest) Validate() error {
	r.inner = SearchExpensesRequest{From: r.From, To: r.To}
	return r.inner.parseRange()
}

func (h *ExpenseHandler) Summary(c echo.Context, req *ExpenseSummaryRequest) ([]model.CategoryTotal, error) {
	return h.expenses.Totals(c.Request().Context(), req.inner.from, req.inner.to)
}

type ComplianceRequest struct {
	Days int `query:"days" validate:"omitempty,min=1,max=365"`
}

func (r *ComplianceRequest) Validate() error { return validation.Struct(r) }

func (h *ExpenseHandler) Compliance(c echo.Context, req *ComplianceRequest) (*service.ComplianceWindow, error) {
	return h.expenses.Upcoming(c.Request().Context(), req.Days)
}

type UpdateExpenseStatusRequest struct {
	IDRequest
	Status model.ExpenseStatus `json:"status" validate:"required,oneof=open paid"`
}

func (r *UpdateExpenseStatusRequest) Validate() error { return validation.Struct(r) }

func (h *ExpenseHandler) UpdateStatus(c echo.Context, req *UpdateExpenseStatusRequest) (*model.Expense, error) {
	return h.expenses.UpdateStatus(c.Request().Context(), req.UUID(), req.Status)
}
