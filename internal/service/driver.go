package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

type RegisterDriverInput struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	TLCLicenseNumber string
	TLCLicenseExpiry civil.Date
	DMVLicenseNumber string
	DMVLicenseExpiry civil.Date
}

type UpdateDriverInput struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	TLCLicenseNumber *string
	TLCLicenseExpiry *civil.Date
	DMVLicenseNumber *string
	DMVLicenseExpiry *civil.Date
}

type DriverService struct {
	repos    *repository.Repositories
	notifier job.Notifier
	cfg      config.LeaseConfig
	logger   *zerolog.Logger
	now      Clock
}

func NewDriverService(repos *repository.Repositories, notifier job.Notifier, cfg config.LeaseConfig, logger *zerolog.Logger) *DriverService {
	return &DriverService{repos: repos, notifier: notifier, cfg: cfg, logger: logger, now: time.Now}
}

func (s *DriverService) Register(ctx context.Context, in RegisterDriverInput) (*model.Driver, error) {
	d, err := s.repos.Drivers.Create(ctx, &model.Driver{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            in.Phone,
		TLCLicenseNumber: in.TLCLicenseNumber,
		TLCLicenseExpiry: in.TLCLicenseExpiry,
		DMVLicenseNumber: in.DMVLicenseNumber,
		DMVLicenseExpiry: in.DMVLicenseExpiry,
		Status:           model.DriverStatusRegistered,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("driver_id", d.ID.String()).Msg("driver registered")
	return d, nil
}

func (s *DriverService) Get(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	return s.repos.Drivers.GetByID(ctx, id)
}

func (s *DriverService) Update(ctx context.Context, id uuid.UUID, in UpdateDriverInput) (*model.Driver, error) {
	d, err := s.repos.Drivers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		d.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		d.LastName = *in.LastName
	}
	if in.Email != nil {
		d.Email = *in.Email
	}
	if in.Phone != nil {
		d.Phone = *in.Phone
	}
	if in.TLCLicenseNumber != nil {
		d.TLCLicenseNumber = *in.TLCLicenseNumber
	}
	if in.TLCLicenseExpiry != nil {
		d.TLCLicenseExpiry = *in.TLCLicenseExpiry
	}
	if in.DMVLicenseNumber != nil {
		d.DMVLicenseNumber = *in.DMVLicenseNumber
	}
	if in.DMVLicenseExpiry != nil {
		d.DMVLicenseExpiry = *in.DMVLicenseExpiry
	}
	return s.repos.Drivers.Update(ctx, d)
}

func (s *DriverService) Search(ctx context.Context, f repository.DriverFilter, pq repository.PageQuery) (*repository.PageResult[model.Driver], error) {
	return s.repos.Drivers.Search(ctx, f, pq)
}

var driverColumns = []export.Column[model.Driver]{
	{Header: "id", Value: func(d model.Driver) string { return d.ID.String() }},
	{Header: "first_name", Value: func(d model.Driver) string { return d.FirstName }},
	{Header: "last_name", Value: func(d model.Driver) string { return d.LastName }},
	{Header: "email", Value: func(d model.Driver) string { return d.Email }},
	{Header: "phone", Value: func(d model.Driver) string { return d.Phone }},
	{Header: "tlc_license_number", Value: func(d model.Driver) string { return d.TLCLicenseNumber }},
	{Header: "tlc_license_expiry", Value: func(d model.Driver) string { return d.TLCLicenseExpiry.String() }},
	{Header: "dmv_license_number", Value: func(d model.Driver) string { return d.DMVLicenseNumber }},
	{Header: "dmv_license_expiry", Value: func(d model.Driver) string { return d.DMVLicenseExpiry.String() }},
	{Header: "status", Value: func(d model.Driver) string { return string(d.Status) }},
}

func (s *DriverService) Export(ctx context.Context, f repository.DriverFilter, sort string) ([]byte, error) {
	res, err := s.repos.Drivers.Search(ctx, f, repository.PageQuery{Limit: repository.ExportLimit, Sort: sort})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, driverColumns, res.Items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Activate makes a driver eligible for leases. Both licenses must be valid
// today. A driver activated for the first time gets the welcome email.
func (s *DriverService) Activate(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	d, err := s.repos.Drivers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == model.DriverStatusActive {
		return d, nil
	}
	if !d.LicensesValidOn(todayIn(s.now, s.cfg.Location())) {
		return nil, errs.NewRuleError("DRIVER_LICENSE_EXPIRED", "TLC and DMV licenses must both be unexpired")
	}

	first := d.Status == model.DriverStatusRegistered
	d.Status = model.DriverStatusActive
	updated, err := s.repos.Drivers.Update(ctx, d)
	if err != nil {
		return nil, err
	}

	if first && updated.Email != "" {
		err := s.notifier.Email(ctx, job.EmailPayload{
			To:       []string{updated.Email},
			Template: email.TemplateDriverWelcome,
			Data: map[string]any{
				"FirstName":        updated.FirstName,
				"TLCLicenseNumber": updated.TLCLicenseNumber,
			},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("driver_id", id.String()).Msg("failed to queue welcome email")
		}
	}

	s.logger.Info().Str("driver_id", id.String()).Msg("driver activated")
	return updated, nil
}

func (s *DriverService) Suspend(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	return s.setStatus(ctx, id, model.DriverStatusSuspended)
}

// Deactivate retires a driver who holds no active lease.
func (s *DriverService) Deactivate(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	active, err := s.repos.Leases.HasActiveForDriver(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, errs.NewRuleError("DRIVER_HAS_ACTIVE_LEASE", "Driver has an active lease")
	}
	return s.setStatus(ctx, id, model.DriverStatusInactive)
}

func (s *DriverService) setStatus(ctx context.Context, id uuid.UUID, status model.DriverStatus) (*model.Driver, error) {
	d, err := s.repos.Drivers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == model.DriverStatusInactive && status != model.DriverStatusInactive {
		return nil, errs.NewRuleError("DRIVER_INACTIVE", fmt.Sprintf("Driver %s is inactive", d.FullName()))
	}
	d.Status = status
	updated, err := s.repos.Drivers.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("driver_id", id.String()).Str("status", string(status)).Msg("driver status changed")
	return updated, nil
}
