package service

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/lease"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/metrics"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

const (
	SweepRenewal    = "renewal"
	SweepExpiry     = "expiry"
	SweepCompliance = "compliance"
)

// SweepService runs the daily batch jobs. Each lease is handled in its own
// transaction; a failing lease is counted and the sweep moves on.
type SweepService struct {
	leases   *LeaseService
	repos    *repository.Repositories
	notifier job.Notifier
	metrics  *metrics.Metrics
	cfg      config.LeaseConfig
	opsEmail string
	logger   *zerolog.Logger
}

var _ job.Sweeper = (*SweepService)(nil)

func NewSweepService(
	leases *LeaseService,
	repos *repository.Repositories,
	notifier job.Notifier,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zerolog.Logger,
) *SweepService {
	return &SweepService{
		leases:   leases,
		repos:    repos,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg.Lease,
		opsEmail: cfg.Integration.OpsEmail,
		logger:   logger,
	}
}

// RunRenewalSweep renews every auto-renewing lease whose end date falls
// inside the renewal window, including ones already past their end date.
func (s *SweepService) RunRenewalSweep(ctx context.Context) (*model.SweepResult, error) {
	today := s.leases.Today()
	return s.sweepLeases(ctx, SweepRenewal, today, today.AddDays(s.cfg.RenewalWindowDays), func(a lease.Action) bool {
		return a == lease.ActionRenew
	})
}

// RunExpirySweep expires leases that ended without renewing and sends the
// advance notice for those about to. Leases due for renewal are left to the
// renewal sweep.
func (s *SweepService) RunExpirySweep(ctx context.Context) (*model.SweepResult, error) {
	today := s.leases.Today()
	return s.sweepLeases(ctx, SweepExpiry, today, today.AddDays(s.cfg.ExpiringNoticeDays), func(a lease.Action) bool {
		return a == lease.ActionExpire || a == lease.ActionNotifyExpiring
	})
}

func (s *SweepService) sweepLeases(ctx context.Context, name string, today, endingBy civil.Date, accept func(lease.Action) bool) (*model.SweepResult, error) {
	s.metrics.SweepRuns.WithLabelValues(name).Inc()
	result := &model.SweepResult{Sweep: name}

	ids, err := s.repos.Leases.ListActiveIDs(ctx, endingBy)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues(name).Inc()
		return nil, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		action, err := s.leases.Apply(ctx, id, today, accept)
		if err != nil {
			result.Failed++
			s.metrics.SweepFailures.WithLabelValues(name).Inc()
			s.logger.Error().Err(err).Str("sweep", name).Str("lease_id", id.String()).Msg("lease sweep failed")
			continue
		}

		switch action {
		case lease.ActionNone:
			result.Skipped++
			continue
		case lease.ActionRenew:
			s.metrics.LeasesRenewed.Inc()
		case lease.ActionExpire:
			s.metrics.LeasesExpired.Inc()
		}
		result.Succeeded++
	}

	s.logger.Info().
		Str("sweep", name).
		Str("day", today.String()).
		Int("processed", result.Processed).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("sweep finished")

	return result, nil
}

// RunComplianceSweep mails operations a digest of open compliance expenses
// and driver licenses lapsing within the compliance window.
func (s *SweepService) RunComplianceSweep(ctx context.Context) (*model.SweepResult, error) {
	s.metrics.SweepRuns.WithLabelValues(SweepCompliance).Inc()
	result := &model.SweepResult{Sweep: SweepCompliance}

	today := s.leases.Today()
	windowEnd := today.AddDays(s.cfg.ComplianceWindowDays)

	expenses, err := s.repos.Expenses.Upcoming(ctx, today, windowEnd)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues(SweepCompliance).Inc()
		return nil, err
	}
	drivers, err := s.repos.Drivers.ExpiringLicenses(ctx, windowEnd)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues(SweepCompliance).Inc()
		return nil, err
	}

	result.Processed = len(expenses) + len(drivers)
	if result.Processed == 0 {
		s.logger.Info().Msg("compliance sweep found nothing due")
		return result, nil
	}
	if s.opsEmail == "" {
		result.Skipped = result.Processed
		s.logger.Warn().Int("items", result.Processed).Msg("compliance items due but no operations email is configured")
		return result, nil
	}

	expenseRows := make([]map[string]any, 0, len(expenses))
	for _, e := range expenses {
		row := map[string]any{
			"category":   string(e.Category),
			"vehicle_id": "",
			"expires_on": "",
			"amount":     e.Amount.StringFixed(2),
		}
		if e.VehicleID != nil {
			row["vehicle_id"] = e.VehicleID.String()
		}
		if e.ExpiresOn != nil {
			row["expires_on"] = e.ExpiresOn.String()
		}
		expenseRows = append(expenseRows, row)
	}

	driverRows := make([]map[string]any, 0, len(drivers))
	for _, d := range drivers {
		driverRows = append(driverRows, map[string]any{
			"name":               d.FullName(),
			"tlc_license_expiry": d.TLCLicenseExpiry.String(),
			"dmv_license_expiry": d.DMVLicenseExpiry.String(),
		})
	}

	err = s.notifier.Email(ctx, job.EmailPayload{
		To:       []string{s.opsEmail},
		Template: email.TemplateComplianceDigest,
		Data: map[string]any{
			"WindowEnd": windowEnd.String(),
			"Expenses":  expenseRows,
			"Drivers":   driverRows,
		},
	})
	if err != nil {
		result.Failed = result.Processed
		s.metrics.SweepFailures.WithLabelValues(SweepCompliance).Inc()
		return result, err
	}

	result.Succeeded = result.Processed
	s.logger.Info().Int("expenses", len(expenses)).Int("drivers", len(drivers)).Msg("compliance digest queued")
	return result, nil
}
