package mocks

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDriverRepository struct {
	mock.Mock
}

var _ repository.DriverRepository = (*MockDriverRepository)(nil)

func (m *MockDriverRepository) Create(ctx context.Context, d *model.Driver) (*model.Driver, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *model.Driver) (*model.Driver, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Driver), args.Error(1)
}

func (m *MockDriverRepository) Search(ctx context.Context, f repository.DriverFilter, pq repository.PageQuery) (*repository.PageResult[model.Driver], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Driver]), args.Error(1)
}

func (m *MockDriverRepository) ExpiringLicenses(ctx context.Context, before civil.Date) ([]model.Driver, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Driver), args.Error(1)
}
