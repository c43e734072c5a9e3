package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockCaseRepository struct {
	mock.Mock
}

var _ repository.CaseRepository = (*MockCaseRepository)(nil)

func (m *MockCaseRepository) NextSequence(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCaseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) GetByNo(ctx context.Context, caseNo string) (*model.Case, error) {
	args := m.Called(ctx, caseNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) GetForUpdate(ctx context.Context, caseNo string) (*model.Case, error) {
	args := m.Called(ctx, caseNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) AddStep(ctx context.Context, s *model.CaseStep) (*model.CaseStep, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CaseStep), args.Error(1)
}

func (m *MockCaseRepository) ListSteps(ctx context.Context, caseID uuid.UUID) ([]model.CaseStep, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CaseStep), args.Error(1)
}
