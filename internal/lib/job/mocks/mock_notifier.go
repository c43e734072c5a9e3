package mocks

import (
	"context"

	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

var _ job.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Email(ctx context.Context, p job.EmailPayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockNotifier) SMS(ctx context.Context, p job.SMSPayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
