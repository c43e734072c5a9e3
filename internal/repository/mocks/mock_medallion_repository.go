package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockMedallionRepository struct {
	mock.Mock
}

var _ repository.MedallionRepository = (*MockMedallionRepository)(nil)

func (m *MockMedallionRepository) Create(ctx context.Context, md *model.Medallion) (*model.Medallion, error) {
	args := m.Called(ctx, md)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medallion), args.Error(1)
}

func (m *MockMedallionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Medallion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medallion), args.Error(1)
}

func (m *MockMedallionRepository) Update(ctx context.Context, md *model.Medallion) (*model.Medallion, error) {
	args := m.Called(ctx, md)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medallion), args.Error(1)
}

func (m *MockMedallionRepository) Search(ctx context.Context, f repository.MedallionFilter, pq repository.PageQuery) (*repository.PageResult[model.Medallion], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Medallion]), args.Error(1)
}
