package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockEntityRepository struct {
	mock.Mock
}

var _ repository.EntityRepository = (*MockEntityRepository)(nil)

func (m *MockEntityRepository) Create(ctx context.Context, e *model.Entity) (*model.Entity, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entity), args.Error(1)
}

func (m *MockEntityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Entity), args.Error(1)
}

func (m *MockEntityRepository) Search(ctx context.Context, f repository.EntityFilter, pq repository.PageQuery) (*repository.PageResult[model.Entity], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Entity]), args.Error(1)
}
