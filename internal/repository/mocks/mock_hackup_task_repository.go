package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockHackupTaskRepository struct {
	mock.Mock
}

var _ repository.HackupTaskRepository = (*MockHackupTaskRepository)(nil)

func (m *MockHackupTaskRepository) CreateMissing(ctx context.Context, vehicleID uuid.UUID, types []model.HackupTaskType) error {
	args := m.Called(ctx, vehicleID, types)
	return args.Error(0)
}

func (m *MockHackupTaskRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.HackupTask, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HackupTask), args.Error(1)
}

func (m *MockHackupTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.HackupTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HackupTask), args.Error(1)
}

func (m *MockHackupTaskRepository) Update(ctx context.Context, t *model.HackupTask) (*model.HackupTask, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HackupTask), args.Error(1)
}
