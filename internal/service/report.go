package service

import (
	"context"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/lib/cache"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

// reportWindowDays bounds "expiring soon" and "recent renewals".
const reportWindowDays = 30

// ReportService serves the dashboard summaries through a short-lived cache.
// A cache that errors is logged and bypassed.
type ReportService struct {
	repos  *repository.Repositories
	cache  cache.Cache
	ttl    time.Duration
	lease  config.LeaseConfig
	logger *zerolog.Logger
	now    Clock
}

func NewReportService(repos *repository.Repositories, c cache.Cache, cfg *config.Config, logger *zerolog.Logger) *ReportService {
	return &ReportService{
		repos:  repos,
		cache:  c,
		ttl:    cfg.Redis.CacheTTL,
		lease:  cfg.Lease,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ReportService) Fleet(ctx context.Context) (*model.FleetReport, error) {
	return cached(ctx, s, cache.Key("report", "fleet"), func() (*model.FleetReport, error) {
		return s.repos.Reports.FleetStatusCounts(ctx)
	})
}

func (s *ReportService) Leases(ctx context.Context) (*model.LeaseReport, error) {
	today := todayIn(s.now, s.lease.Location())
	return cached(ctx, s, cache.Key("report", "leases", today.String()), func() (*model.LeaseReport, error) {
		return s.repos.Reports.LeaseSummary(ctx, today.AddDays(reportWindowDays), today.AddDays(-reportWindowDays))
	})
}

func cached[T any](ctx context.Context, s *ReportService, key string, load func() (*T, error)) (*T, error) {
	if s.cache != nil && s.ttl > 0 {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		} else if ok {
			return &hit, nil
		}
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
		}
	}
	return v, nil
}
