package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LeaseType string

const (
	// LeaseTypeDOV is a driver-owned-vehicle lease, renewed in fixed segments
	// up to a maximum number of segments.
	LeaseTypeDOV           LeaseType = "dov"
	LeaseTypeLongTerm      LeaseType = "long_term"
	LeaseTypeShortTerm     LeaseType = "short_term"
	LeaseTypeMedallionOnly LeaseType = "medallion_only"
)

type LeaseStatus string

const (
	LeaseStatusDraft      LeaseStatus = "draft"
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusExpired    LeaseStatus = "expired"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

type Lease struct {
	Base
	LeaseNumber        string          `json:"lease_number"`
	LeaseType          LeaseType       `json:"lease_type"`
	VehicleID          uuid.UUID       `json:"vehicle_id"`
	MedallionID        *uuid.UUID      `json:"medallion_id"`
	DriverID           uuid.UUID       `json:"driver_id"`
	StartDate          civil.Date      `json:"start_date"`
	EndDate            civil.Date      `json:"end_date"`
	WeeklyAmount       decimal.Decimal `json:"weekly_amount"`
	Deposit            decimal.Decimal `json:"deposit"`
	AutoRenew          bool            `json:"auto_renew"`
	Segment            int             `json:"segment"`
	TotalSegments      int             `json:"total_segments"`
	Status             LeaseStatus     `json:"status"`
	ExpiringNotifiedAt *time.Time      `json:"expiring_notified_at"`
	TerminatedAt       *time.Time      `json:"terminated_at"`
	TerminationReason  *string         `json:"termination_reason"`
}

type InstallmentStatus string

const (
	InstallmentScheduled InstallmentStatus = "scheduled"
	InstallmentPosted    InstallmentStatus = "posted"
	InstallmentPaid      InstallmentStatus = "paid"
	InstallmentVoid      InstallmentStatus = "void"
)

type LeaseInstallment struct {
	Base
	LeaseID       uuid.UUID         `json:"lease_id"`
	InstallmentNo int               `json:"installment_no"`
	PeriodStart   civil.Date        `json:"period_start"`
	PeriodEnd     civil.Date        `json:"period_end"`
	DueDate       civil.Date        `json:"due_date"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        InstallmentStatus `json:"status"`
}

// LeaseRenewal records one extension of a lease.
type LeaseRenewal struct {
	Base
	LeaseID         uuid.UUID       `json:"lease_id"`
	Segment         int             `json:"segment"`
	PreviousEndDate civil.Date      `json:"previous_end_date"`
	NewEndDate      civil.Date      `json:"new_end_date"`
	WeeklyAmount    decimal.Decimal `json:"weekly_amount"`
	RenewedAt       time.Time       `json:"renewed_at"`
}

// LeaseRate is the configured weekly amount for a lease and vehicle type.
type LeaseRate struct {
	Base
	LeaseType     LeaseType       `json:"lease_type"`
	VehicleType   VehicleType     `json:"vehicle_type"`
	WeeklyAmount  decimal.Decimal `json:"weekly_amount"`
	EffectiveFrom civil.Date      `json:"effective_from"`
}
