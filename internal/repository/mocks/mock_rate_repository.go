package mocks

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockRateRepository struct {
	mock.Mock
}

var _ repository.RateRepository = (*MockRateRepository)(nil)

func (m *MockRateRepository) Current(ctx context.Context, leaseType model.LeaseType, vehicleType model.VehicleType, day civil.Date) (*model.LeaseRate, error) {
	args := m.Called(ctx, leaseType, vehicleType, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaseRate), args.Error(1)
}

func (m *MockRateRepository) List(ctx context.Context) ([]model.LeaseRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaseRate), args.Error(1)
}
