package service

import (
	"fmt"

	"github.com/kryptonation/creamrun-sub000/internal/bpm"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/lib/sms"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/server"
)

type Services struct {
	Auth      *AuthService
	Job       *job.JobService
	Vehicle   *VehicleService
	Medallion *MedallionService
	Driver    *DriverService
	Lease     *LeaseService
	Sweep     *SweepService
	Expense   *ExpenseService
	Document  *DocumentService
	Report    *ReportService
	Cases     *bpm.Engine
}

// NewService builds every service on the server's resources, registers the
// workflows and hands the notification and sweep handlers to the job
// service. Starting the workers is left to the caller.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	cfg := s.Config
	logger := s.Logger

	leases := NewLeaseService(repos, s.Job, cfg.Lease, logger)
	svc := &Services{
		Auth:      NewAuthService(s),
		Job:       s.Job,
		Vehicle:   NewVehicleService(repos, logger),
		Medallion: NewMedallionService(repos, logger),
		Driver:    NewDriverService(repos, s.Job, cfg.Lease, logger),
		Lease:     leases,
		Sweep:     NewSweepService(leases, repos, s.Job, s.Metrics, cfg, logger),
		Expense:   NewExpenseService(repos, cfg.Lease, logger),
		Document:  NewDocumentService(repos, s.Storage, cfg.Storage, logger),
		Report:    NewReportService(repos, s.Cache, cfg, logger),
		Cases:     bpm.NewEngine(repos, logger),
	}

	if err := RegisterFlows(svc.Cases, svc); err != nil {
		return nil, fmt.Errorf("register workflows: %w", err)
	}

	s.Job.InitHandlers(email.NewClient(cfg, logger), sms.NewClient(cfg, logger), svc.Sweep)

	return svc, nil
}
