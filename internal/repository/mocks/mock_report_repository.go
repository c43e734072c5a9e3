package mocks

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockReportRepository struct {
	mock.Mock
}

var _ repository.ReportRepository = (*MockReportRepository)(nil)

func (m *MockReportRepository) FleetStatusCounts(ctx context.Context) (*model.FleetReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FleetReport), args.Error(1)
}

func (m *MockReportRepository) LeaseSummary(ctx context.Context, expiringBy, renewedSince civil.Date) (*model.LeaseReport, error) {
	args := m.Called(ctx, expiringBy, renewedSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeaseReport), args.Error(1)
}
