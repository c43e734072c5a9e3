package mocks

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/lease"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockLeaseRepository struct {
	mock.Mock
}

var _ repository.LeaseRepository = (*MockLeaseRepository)(nil)

func (m *MockLeaseRepository) NextLeaseNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockLeaseRepository) Create(ctx context.Context, l *model.Lease) (*model.Lease, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

func (m *MockLeaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

func (m *MockLeaseRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

func (m *MockLeaseRepository) Update(ctx context.Context, l *model.Lease) (*model.Lease, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

func (m *MockLeaseRepository) Search(ctx context.Context, f repository.LeaseFilter, pq repository.PageQuery) (*repository.PageResult[model.Lease], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Lease]), args.Error(1)
}

func (m *MockLeaseRepository) ListActiveIDs(ctx context.Context, endingBy civil.Date) ([]uuid.UUID, error) {
	args := m.Called(ctx, endingBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLeaseRepository) HasActiveForDriver(ctx context.Context, driverID uuid.UUID) (bool, error) {
	args := m.Called(ctx, driverID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaseRepository) HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, vehicleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaseRepository) InsertInstallments(ctx context.Context, leaseID uuid.UUID, items []lease.Installment) error {
	args := m.Called(ctx, leaseID, items)
	return args.Error(0)
}

func (m *MockLeaseRepository) ListInstallments(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseInstallment, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaseInstallment), args.Error(1)
}

func (m *MockLeaseRepository) MaxInstallmentNo(ctx context.Context, leaseID uuid.UUID) (int, error) {
	args := m.Called(ctx, leaseID)
	return args.Int(0), args.Error(1)
}

func (m *MockLeaseRepository) VoidInstallmentsAfter(ctx context.Context, leaseID uuid.UUID, day civil.Date) (int64, error) {
	args := m.Called(ctx, leaseID, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeaseRepository) CreateRenewal(ctx context.Context, r *model.LeaseRenewal) (*model.LeaseRenewal, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaseRenewal), args.Error(1)
}

func (m *MockLeaseRepository) ListRenewals(ctx context.Context, leaseID uuid.UUID) ([]model.LeaseRenewal, error) {
	args := m.Called(ctx, leaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaseRenewal), args.Error(1)
}
