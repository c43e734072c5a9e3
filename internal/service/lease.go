package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/lease"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateLeaseInput describes a new draft lease. Zero optional fields take
// their defaults: the vehicle's medallion, one term from the start date,
// and the current rate for the lease and vehicle type.
type CreateLeaseInput struct {
	LeaseType     model.LeaseType
	VehicleID     uuid.UUID
	DriverID      uuid.UUID
	MedallionID   *uuid.UUID
	StartDate     civil.Date
	EndDate       *civil.Date
	WeeklyAmount  *decimal.Decimal
	Deposit       decimal.Decimal
	AutoRenew     bool
	TotalSegments int
}

// LeaseDetail is a lease with its installment schedule.
type LeaseDetail struct {
	*model.Lease
	Installments []model.LeaseInstallment `json:"installments"`
}

// SchedulePreview is a schedule computed without writing anything.
type SchedulePreview struct {
	StartDate    civil.Date          `json:"start_date"`
	EndDate      civil.Date          `json:"end_date"`
	WeeklyAmount decimal.Decimal     `json:"weekly_amount"`
	Installments []lease.Installment `json:"installments"`
	Total        decimal.Decimal     `json:"total"`
}

type LeaseService struct {
	repos    *repository.Repositories
	notifier job.Notifier
	cfg      config.LeaseConfig
	logger   *zerolog.Logger
	now      Clock
}

func NewLeaseService(repos *repository.Repositories, notifier job.Notifier, cfg config.LeaseConfig, logger *zerolog.Logger) *LeaseService {
	return &LeaseService{
		repos:    repos,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Policy is the renewal policy built from config.
func (s *LeaseService) Policy() lease.Policy {
	return lease.Policy{
		RenewalWindowDays:  s.cfg.RenewalWindowDays,
		ExpiringNoticeDays: s.cfg.ExpiringNoticeDays,
		DOVSegmentWeeks:    s.cfg.DOVSegmentWeeks,
		DefaultTermWeeks:   s.cfg.DefaultTermWeeks,
		ShortTermWeeks:     s.cfg.ShortTermWeeks,
	}
}

// Today is the current day in the fleet's timezone.
func (s *LeaseService) Today() civil.Date {
	return todayIn(s.now, s.cfg.Location())
}

func (s *LeaseService) schedule(start, end civil.Date, weekly decimal.Decimal, firstNo int) ([]lease.Installment, error) {
	items, err := lease.WeeklySchedule(start, end, weekly, s.cfg.CycleWeekday(), firstNo)
	switch {
	case errors.Is(err, lease.ErrEndBeforeStart):
		return nil, errs.NewRuleError("INVALID_LEASE_DATES", "End date must not be before start date")
	case errors.Is(err, lease.ErrNegativeAmount):
		return nil, errs.NewRuleError("INVALID_LEASE_AMOUNT", "Weekly amount must not be negative")
	}
	return items, err
}

// resolveTerms fills in the defaults of in against the vehicle.
func (s *LeaseService) resolveTerms(ctx context.Context, in *CreateLeaseInput, vehicle *model.Vehicle) (civil.Date, decimal.Decimal, error) {
	end := in.StartDate.AddDays(s.Policy().TermWeeks(in.LeaseType)*7 - 1)
	if in.EndDate != nil {
		end = *in.EndDate
	}
	if end.Before(in.StartDate) {
		return end, decimal.Zero, errs.NewRuleError("INVALID_LEASE_DATES", "End date must not be before start date")
	}

	if in.WeeklyAmount != nil {
		if in.WeeklyAmount.IsNegative() {
			return end, decimal.Zero, errs.NewRuleError("INVALID_LEASE_AMOUNT", "Weekly amount must not be negative")
		}
		return end, *in.WeeklyAmount, nil
	}

	rate, err := s.repos.Rates.Current(ctx, in.LeaseType, vehicle.VehicleType, in.StartDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return end, decimal.Zero, errs.NewRuleError("NO_LEASE_RATE",
			fmt.Sprintf("No %s rate is configured for %s vehicles", in.LeaseType, vehicle.VehicleType))
	}
	if err != nil {
		return end, decimal.Zero, err
	}
	return end, rate.WeeklyAmount, nil
}

// CreateDraft validates the vehicle and driver and stores a draft lease.
func (s *LeaseService) CreateDraft(ctx context.Context, in CreateLeaseInput) (*model.Lease, error) {
	vehicle, err := s.repos.Vehicles.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status != model.VehicleStatusAvailable {
		return nil, errs.NewRuleError("VEHICLE_NOT_AVAILABLE",
			fmt.Sprintf("Vehicle %s is %s, not available", vehicle.VIN, vehicle.Status))
	}

	driver, err := s.repos.Drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	if driver.Status != model.DriverStatusActive {
		return nil, errs.NewRuleError("DRIVER_NOT_ACTIVE", fmt.Sprintf("Driver %s is not active", driver.FullName()))
	}

	end, weekly, err := s.resolveTerms(ctx, &in, vehicle)
	if err != nil {
		return nil, err
	}

	medallionID := in.MedallionID
	if medallionID == nil {
		medallionID = vehicle.MedallionID
	}

	totalSegments := 1
	if in.LeaseType == model.LeaseTypeDOV {
		totalSegments = s.cfg.DOVTotalSegments
		if in.TotalSegments > 0 {
			totalSegments = in.TotalSegments
		}
	}

	number, err := s.repos.Leases.NextLeaseNumber(ctx)
	if err != nil {
		return nil, err
	}

	l, err := s.repos.Leases.Create(ctx, &model.Lease{
		LeaseNumber:   number,
		LeaseType:     in.LeaseType,
		VehicleID:     vehicle.ID,
		MedallionID:   medallionID,
		DriverID:      driver.ID,
		StartDate:     in.StartDate,
		EndDate:       end,
		WeeklyAmount:  weekly,
		Deposit:       in.Deposit,
		AutoRenew:     in.AutoRenew,
		Segment:       1,
		TotalSegments: totalSegments,
		Status:        model.LeaseStatusDraft,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("lease_number", l.LeaseNumber).Str("vehicle_id", l.VehicleID.String()).Msg("draft lease created")
	return l, nil
}

// Preview computes the schedule a lease would get, without writing.
func (s *LeaseService) Preview(ctx context.Context, in CreateLeaseInput) (*SchedulePreview, error) {
	vehicle, err := s.repos.Vehicles.GetByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	end, weekly, err := s.resolveTerms(ctx, &in, vehicle)
	if err != nil {
		return nil, err
	}
	return s.preview(in.StartDate, end, weekly)
}

// PreviewLease computes the schedule of an existing lease.
func (s *LeaseService) PreviewLease(ctx context.Context, id uuid.UUID) (*SchedulePreview, error) {
	l, err := s.repos.Leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.preview(l.StartDate, l.EndDate, l.WeeklyAmount)
}

func (s *LeaseService) preview(start, end civil.Date, weekly decimal.Decimal) (*SchedulePreview, error) {
	items, err := s.schedule(start, end, weekly, 1)
	if err != nil {
		return nil, err
	}
	return &SchedulePreview{
		StartDate:    start,
		EndDate:      end,
		WeeklyAmount: weekly,
		Installments: items,
		Total:        lease.Total(items),
	}, nil
}

// Activate generates the schedule of a draft lease and puts the vehicle on lease.
func (s *LeaseService) Activate(ctx context.Context, id uuid.UUID) (*LeaseDetail, error) {
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		l, err := tx.Leases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l.Status != model.LeaseStatusDraft {
			return errs.NewRuleError("LEASE_NOT_DRAFT", fmt.Sprintf("Lease %s is %s, only draft leases can be activated", l.LeaseNumber, l.Status))
		}

		vehicle, err := tx.Vehicles.GetByID(ctx, l.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != model.VehicleStatusAvailable {
			return errs.NewRuleError("VEHICLE_NOT_AVAILABLE",
				fmt.Sprintf("Vehicle %s is %s, not available", vehicle.VIN, vehicle.Status))
		}

		driver, err := tx.Drivers.GetByID(ctx, l.DriverID)
		if err != nil {
			return err
		}
		if driver.Status != model.DriverStatusActive {
			return errs.NewRuleError("DRIVER_NOT_ACTIVE", fmt.Sprintf("Driver %s is not active", driver.FullName()))
		}

		items, err := s.schedule(l.StartDate, l.EndDate, l.WeeklyAmount, 1)
		if err != nil {
			return err
		}
		if err := tx.Leases.InsertInstallments(ctx, l.ID, items); err != nil {
			return err
		}

		l.Status = model.LeaseStatusActive
		if _, err := tx.Leases.Update(ctx, l); err != nil {
			return err
		}

		vehicle.Status = model.VehicleStatusLeased
		_, err = tx.Vehicles.Update(ctx, vehicle)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("lease_id", id.String()).Msg("lease activated")
	return s.Get(ctx, id)
}

// Terminate ends a draft or active lease early. Future installments are
// voided and a leased vehicle becomes available.
func (s *LeaseService) Terminate(ctx context.Context, id uuid.UUID, reason string) (*model.Lease, error) {
	var out *model.Lease
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		l, err := tx.Leases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l.Status != model.LeaseStatusActive && l.Status != model.LeaseStatusDraft {
			return errs.NewRuleError("LEASE_NOT_ACTIVE", fmt.Sprintf("Lease %s is already %s", l.LeaseNumber, l.Status))
		}

		wasActive := l.Status == model.LeaseStatusActive
		if wasActive {
			if _, err := tx.Leases.VoidInstallmentsAfter(ctx, l.ID, s.Today()); err != nil {
				return err
			}
		}

		l.Status = model.LeaseStatusTerminated
		l.TerminatedAt = ptr(s.now().UTC())
		l.TerminationReason = &reason
		if out, err = tx.Leases.Update(ctx, l); err != nil {
			return err
		}

		if wasActive {
			return s.releaseVehicle(ctx, tx, l.VehicleID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("lease_id", id.String()).Str("reason", reason).Msg("lease terminated")
	return out, nil
}

func (s *LeaseService) releaseVehicle(ctx context.Context, tx *repository.Repositories, vehicleID uuid.UUID) error {
	vehicle, err := tx.Vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.Status != model.VehicleStatusLeased {
		return nil
	}
	vehicle.Status = model.VehicleStatusAvailable
	_, err = tx.Vehicles.Update(ctx, vehicle)
	return err
}

func (s *LeaseService) Get(ctx context.Context, id uuid.UUID) (*LeaseDetail, error) {
	l, err := s.repos.Leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Leases.ListInstallments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LeaseDetail{Lease: l, Installments: items}, nil
}

func (s *LeaseService) Installments(ctx context.Context, id uuid.UUID) ([]model.LeaseInstallment, error) {
	if _, err := s.repos.Leases.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Leases.ListInstallments(ctx, id)
}

func (s *LeaseService) Renewals(ctx context.Context, id uuid.UUID) ([]model.LeaseRenewal, error) {
	if _, err := s.repos.Leases.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Leases.ListRenewals(ctx, id)
}

func (s *LeaseService) Search(ctx context.Context, f repository.LeaseFilter, pq repository.PageQuery) (*repository.PageResult[model.Lease], error) {
	return s.repos.Leases.Search(ctx, f, pq)
}

var leaseColumns = []export.Column[model.Lease]{
	{Header: "id", Value: func(l model.Lease) string { return l.ID.String() }},
	{Header: "lease_number", Value: func(l model.Lease) string { return l.LeaseNumber }},
	{Header: "lease_type", Value: func(l model.Lease) string { return string(l.LeaseType) }},
	{Header: "status", Value: func(l model.Lease) string { return string(l.Status) }},
	{Header: "driver_id", Value: func(l model.Lease) string { return l.DriverID.String() }},
	{Header: "vehicle_id", Value: func(l model.Lease) string { return l.VehicleID.String() }},
	{Header: "medallion_id", Value: func(l model.Lease) string { return export.UUID(l.MedallionID) }},
	{Header: "start_date", Value: func(l model.Lease) string { return l.StartDate.String() }},
	{Header: "end_date", Value: func(l model.Lease) string { return l.EndDate.String() }},
	{Header: "weekly_amount", Value: func(l model.Lease) string { return l.WeeklyAmount.StringFixed(2) }},
	{Header: "deposit", Value: func(l model.Lease) string { return l.Deposit.StringFixed(2) }},
	{Header: "auto_renew", Value: func(l model.Lease) string { return fmt.Sprint(l.AutoRenew) }},
	{Header: "segment", Value: func(l model.Lease) string { return fmt.Sprintf("%d/%d", l.Segment, l.TotalSegments) }},
}

// Export renders the matching leases as CSV.
func (s *LeaseService) Export(ctx context.Context, f repository.LeaseFilter, sort string) ([]byte, error) {
	res, err := s.repos.Leases.Search(ctx, f, repository.PageQuery{Limit: repository.ExportLimit, Sort: sort})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, leaseColumns, res.Items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Renew extends an active lease by one term now, regardless of the renewal
// window.
func (s *LeaseService) Renew(ctx context.Context, id uuid.UUID) (*model.LeaseRenewal, error) {
	var (
		renewal *model.LeaseRenewal
		n       *notice
	)
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		l, err := tx.Leases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l.Status != model.LeaseStatusActive {
			return errs.NewRuleError("LEASE_NOT_ACTIVE", fmt.Sprintf("Lease %s is %s", l.LeaseNumber, l.Status))
		}
		if !lease.Renewable(l) {
			return errs.NewRuleError("LEASE_NOT_RENEWABLE", fmt.Sprintf("Lease %s cannot be renewed", l.LeaseNumber))
		}

		end, seg := s.Policy().NextTerm(l)
		renewal, n, err = s.renew(ctx, tx, l, end, seg)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, n)
	return renewal, nil
}

// Apply evaluates an active lease on day and carries out the decision when
// accept allows it. It returns the action taken, or ActionNone.
func (s *LeaseService) Apply(ctx context.Context, id uuid.UUID, day civil.Date, accept func(lease.Action) bool) (lease.Action, error) {
	taken := lease.ActionNone
	var n *notice

	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		l, err := tx.Leases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		d := lease.Decide(l, day, s.Policy())
		if d.Action == lease.ActionNone || !accept(d.Action) {
			return nil
		}

		switch d.Action {
		case lease.ActionRenew:
			_, n, err = s.renew(ctx, tx, l, d.NewEndDate, d.NewSegment)
		case lease.ActionExpire:
			n, err = s.expire(ctx, tx, l, d.Reason)
		case lease.ActionNotifyExpiring:
			n, err = s.markExpiring(ctx, tx, l)
		}
		if err != nil {
			return err
		}
		taken = d.Action
		return nil
	})
	if err != nil {
		return lease.ActionNone, err
	}

	s.send(ctx, n)
	return taken, nil
}

func (s *LeaseService) renew(ctx context.Context, tx *repository.Repositories, l *model.Lease, newEnd civil.Date, newSegment int) (*model.LeaseRenewal, *notice, error) {
	weekly := l.WeeklyAmount
	if l.LeaseType != model.LeaseTypeDOV {
		vehicle, err := tx.Vehicles.GetByID(ctx, l.VehicleID)
		if err != nil {
			return nil, nil, err
		}
		rate, err := tx.Rates.Current(ctx, l.LeaseType, vehicle.VehicleType, l.EndDate.AddDays(1))
		switch {
		case err == nil:
			weekly = rate.WeeklyAmount
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, nil, err
		}
	}

	lastNo, err := tx.Leases.MaxInstallmentNo(ctx, l.ID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.schedule(l.EndDate.AddDays(1), newEnd, weekly, lastNo+1)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Leases.InsertInstallments(ctx, l.ID, items); err != nil {
		return nil, nil, err
	}

	renewal, err := tx.Leases.CreateRenewal(ctx, &model.LeaseRenewal{
		LeaseID:         l.ID,
		Segment:         newSegment,
		PreviousEndDate: l.EndDate,
		NewEndDate:      newEnd,
		WeeklyAmount:    weekly,
	})
	if err != nil {
		return nil, nil, err
	}

	prevEnd := l.EndDate
	l.EndDate = newEnd
	l.Segment = newSegment
	l.WeeklyAmount = weekly
	l.ExpiringNotifiedAt = nil
	if _, err := tx.Leases.Update(ctx, l); err != nil {
		return nil, nil, err
	}

	driver, err := tx.Drivers.GetByID(ctx, l.DriverID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("lease_number", l.LeaseNumber).
		Str("previous_end_date", prevEnd.String()).
		Str("new_end_date", newEnd.String()).
		Int("segment", newSegment).
		Msg("lease renewed")

	return renewal, &notice{
		driver:   driver,
		template: email.TemplateLeaseRenewed,
		data: map[string]any{
			"DriverName":      driver.FullName(),
			"LeaseNumber":     l.LeaseNumber,
			"PreviousEndDate": prevEnd.String(),
			"NewEndDate":      newEnd.String(),
			"WeeklyAmount":    weekly.StringFixed(2),
		},
		sms: fmt.Sprintf("Lease %s renewed until %s at $%s/week.", l.LeaseNumber, newEnd, weekly.StringFixed(2)),
	}, nil
}

func (s *LeaseService) expire(ctx context.Context, tx *repository.Repositories, l *model.Lease, reason string) (*notice, error) {
	if _, err := tx.Leases.VoidInstallmentsAfter(ctx, l.ID, l.EndDate); err != nil {
		return nil, err
	}

	l.Status = model.LeaseStatusExpired
	l.TerminationReason = &reason
	if _, err := tx.Leases.Update(ctx, l); err != nil {
		return nil, err
	}
	if err := s.releaseVehicle(ctx, tx, l.VehicleID); err != nil {
		return nil, err
	}

	driver, err := tx.Drivers.GetByID(ctx, l.DriverID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("lease_number", l.LeaseNumber).Str("reason", reason).Msg("lease expired")

	return &notice{
		driver:   driver,
		template: email.TemplateLeaseExpired,
		data: map[string]any{
			"DriverName":    driver.FullName(),
			"LeaseNumber":   l.LeaseNumber,
			"EndDate":       l.EndDate.String(),
			"TermCompleted": reason == lease.ReasonTermCompleted,
		},
		sms: fmt.Sprintf("Lease %s ended on %s.", l.LeaseNumber, l.EndDate),
	}, nil
}

func (s *LeaseService) markExpiring(ctx context.Context, tx *repository.Repositories, l *model.Lease) (*notice, error) {
	l.ExpiringNotifiedAt = ptr(s.now().UTC())
	if _, err := tx.Leases.Update(ctx, l); err != nil {
		return nil, err
	}

	driver, err := tx.Drivers.GetByID(ctx, l.DriverID)
	if err != nil {
		return nil, err
	}

	return &notice{
		driver:   driver,
		template: email.TemplateLeaseExpiring,
		data: map[string]any{
			"DriverName":  driver.FullName(),
			"LeaseNumber": l.LeaseNumber,
			"EndDate":     l.EndDate.String(),
		},
		sms: fmt.Sprintf("Lease %s ends on %s and will not renew.", l.LeaseNumber, l.EndDate),
	}, nil
}

func (s *LeaseService) Rates(ctx context.Context) ([]model.LeaseRate, error) {
	return s.repos.Rates.List(ctx)
}
