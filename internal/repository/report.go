package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/model"
)

type ReportRepository interface {
	FleetStatusCounts(ctx context.Context) (*model.FleetReport, error)
	// LeaseSummary counts leases ending by expiringBy and renewals since renewedSince.
	LeaseSummary(ctx context.Context, expiringBy, renewedSince civil.Date) (*model.LeaseReport, error)
}

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) counts(ctx context.Context, sql string, args ...any) ([]model.StatusCount, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (*model.StatusCount, error) {
		var c model.StatusCount
		if err := row.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		return &c, nil
	})
}

func (r *reportRepository) FleetStatusCounts(ctx context.Context) (*model.FleetReport, error) {
	var (
		rep model.FleetReport
		err error
	)
	if rep.Vehicles, err = r.counts(ctx, `SELECT status, COUNT(*) FROM vehicles GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("vehicle counts: %w", err)
	}
	if rep.Medallions, err = r.counts(ctx, `SELECT status, COUNT(*) FROM medallions GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("medallion counts: %w", err)
	}
	if rep.Drivers, err = r.counts(ctx, `SELECT status, COUNT(*) FROM drivers GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("driver counts: %w", err)
	}
	return &rep, nil
}

func (r *reportRepository) LeaseSummary(ctx context.Context, expiringBy, renewedSince civil.Date) (*model.LeaseReport, error) {
	var rep model.LeaseReport
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(weekly_amount), 0),
			COUNT(*) FILTER (WHERE end_date <= $1)
		FROM leases WHERE status = 'active'`,
		DateArg(expiringBy),
	).Scan(&rep.ActiveLeases, &rep.WeeklyRevenue, &rep.ExpiringSoon)
	if err != nil {
		return nil, fmt.Errorf("lease summary: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM lease_renewals WHERE renewed_at >= $1`, DateArg(renewedSince),
	).Scan(&rep.RecentRenewals)
	if err != nil {
		return nil, fmt.Errorf("recent renewals: %w", err)
	}

	if rep.ByType, err = r.counts(ctx,
		`SELECT lease_type, COUNT(*) FROM leases WHERE status = 'active' GROUP BY lease_type ORDER BY lease_type`,
	); err != nil {
		return nil, fmt.Errorf("lease type counts: %w", err)
	}
	return &rep, nil
}
