package model

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseInsurance    ExpenseCategory = "insurance"
	ExpenseInspection   ExpenseCategory = "inspection"
	ExpenseRegistration ExpenseCategory = "registration"
	ExpenseRepair       ExpenseCategory = "repair"
	ExpenseFuel         ExpenseCategory = "fuel"
	ExpenseTLCFee       ExpenseCategory = "tlc_fee"
	ExpenseOther        ExpenseCategory = "other"
)

type ExpenseStatus string

const (
	ExpenseStatusOpen ExpenseStatus = "open"
	ExpenseStatusPaid ExpenseStatus = "paid"
)

// Expense is a cost against a vehicle or medallion. ExpiresOn is set for
// compliance items (insurance, inspection) that lapse.
type Expense struct {
	Base
	VehicleID   *uuid.UUID      `json:"vehicle_id"`
	MedallionID *uuid.UUID      `json:"medallion_id"`
	Category    ExpenseCategory `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	IncurredOn  civil.Date      `json:"incurred_on"`
	ExpiresOn   *civil.Date     `json:"expires_on"`
	DocumentID  *uuid.UUID      `json:"document_id"`
	Status      ExpenseStatus   `json:"status"`
	Notes       *string         `json:"notes"`
}

// CategoryTotal is the sum of expenses in one category.
type CategoryTotal struct {
	Category ExpenseCategory `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}
