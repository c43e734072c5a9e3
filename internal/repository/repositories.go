package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kryptonation/creamrun-sub000/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Vehicles    VehicleRepository
	HackupTasks HackupTaskRepository
	Medallions  MedallionRepository
	Entities    EntityRepository
	Drivers     DriverRepository
	Leases      LeaseRepository
	Rates       RateRepository
	Documents   DocumentRepository
	Expenses    ExpenseRepository
	Cases       CaseRepository
	Reports     ReportRepository

	begin func(ctx context.Context, fn func(pgx.Tx) error) error
}

// NewRepositories builds the repositories on the server's connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return NewPoolRepositories(s.DB.Pool)
}

// NewPoolRepositories builds the repositories on pool. InTx opens real
// transactions on it.
func NewPoolRepositories(pool *pgxpool.Pool) *Repositories {
	r := bind(pool)
	r.begin = func(ctx context.Context, fn func(pgx.Tx) error) error {
		return pgx.BeginFunc(ctx, pool, fn)
	}
	return r
}

func bind(db DBTX) *Repositories {
	return &Repositories{
		Vehicles:    NewVehicleRepository(db),
		HackupTasks: NewHackupTaskRepository(db),
		Medallions:  NewMedallionRepository(db),
		Entities:    NewEntityRepository(db),
		Drivers:     NewDriverRepository(db),
		Leases:      NewLeaseRepository(db),
		Rates:       NewRateRepository(db),
		Documents:   NewDocumentRepository(db),
		Expenses:    NewExpenseRepository(db),
		Cases:       NewCaseRepository(db),
		Reports:     NewReportRepository(db),
	}
}

// InTx runs fn with repositories bound to one transaction, committing when
// fn returns nil. Calls made on a transaction's repositories, and on
// containers built without a pool, run fn directly.
func (r *Repositories) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.begin == nil {
		return fn(r)
	}
	return r.begin(ctx, func(tx pgx.Tx) error {
		return fn(bind(tx))
	})
}
