package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/metrics"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) sweepService(t *testing.T, opsEmail string) (*SweepService, *metrics.Metrics) {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry(), false)
	require.NoError(t, err)
	cfg := &config.Config{
		Lease:       testLeaseConfig(),
		Integration: config.IntegrationConfig{OpsEmail: opsEmail},
	}
	return NewSweepService(f.leaseService(), f.repos, f.notifier, m, cfg, f.logger), m
}

func TestExpirySweep_CountsEachLease(t *testing.T) {
	f := newFixture()
	svc, m := f.sweepService(t, "")

	broken := uuid.New()

	v := testVehicle(model.VehicleStatusLeased)
	d := testDriver(model.DriverStatusActive)
	d.Email = ""
	d.Phone = ""
	ended := activeLease(v.ID, d.ID)
	ended.AutoRenew = false
	ended.EndDate = day(2024, 6, 9)

	// Due for renewal, which belongs to the renewal sweep.
	renewing := activeLease(uuid.New(), uuid.New())

	f.leases.On("ListActiveIDs", mock.Anything, day(2024, 6, 24)).
		Return([]uuid.UUID{broken, ended.ID, renewing.ID}, nil)
	f.leases.On("GetForUpdate", mock.Anything, broken).Return(nil, errors.New("deadlock detected"))
	f.leases.On("GetForUpdate", mock.Anything, ended.ID).Return(ended, nil)
	f.leases.On("GetForUpdate", mock.Anything, renewing.ID).Return(renewing, nil)
	f.leases.On("VoidInstallmentsAfter", mock.Anything, ended.ID, ended.EndDate).Return(int64(0), nil)
	f.leases.On("Update", mock.Anything, ended).Return(ended, nil)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.vehicles.On("Update", mock.Anything, v).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)

	res, err := svc.RunExpirySweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &model.SweepResult{Sweep: SweepExpiry, Processed: 3, Succeeded: 1, Failed: 1, Skipped: 1}, res)
	assert.Equal(t, model.LeaseStatusExpired, ended.Status)
	assert.Equal(t, model.LeaseStatusActive, renewing.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeasesExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepFailures.WithLabelValues(SweepExpiry)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues(SweepExpiry)))
	f.assertExpectations(t)
}

func TestRenewalSweep_ListFailure(t *testing.T) {
	f := newFixture()
	svc, m := f.sweepService(t, "")
	f.leases.On("ListActiveIDs", mock.Anything, day(2024, 6, 17)).Return(nil, errors.New("connection refused"))

	_, err := svc.RunRenewalSweep(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepFailures.WithLabelValues(SweepRenewal)))
	f.assertExpectations(t)
}

func TestComplianceSweep_SendsDigest(t *testing.T) {
	f := newFixture()
	svc, _ := f.sweepService(t, "ops@example.com")

	vehicleID := uuid.New()
	expires := day(2024, 6, 30)
	f.expenses.On("Upcoming", mock.Anything, day(2024, 6, 10), day(2024, 7, 10)).Return([]model.Expense{{
		VehicleID: &vehicleID,
		Category:  model.ExpenseInsurance,
		Amount:    dec("1200"),
		ExpiresOn: &expires,
	}}, nil)
	f.drivers.On("ExpiringLicenses", mock.Anything, day(2024, 7, 10)).Return([]model.Driver{*testDriver(model.DriverStatusActive)}, nil)
	f.notifier.On("Email", mock.Anything, mock.MatchedBy(func(p job.EmailPayload) bool {
		expenses, _ := p.Data["Expenses"].([]map[string]any)
		drivers, _ := p.Data["Drivers"].([]map[string]any)
		return p.Template == email.TemplateComplianceDigest &&
			p.To[0] == "ops@example.com" &&
			len(expenses) == 1 && expenses[0]["expires_on"] == "2024-06-30" &&
			len(drivers) == 1 && drivers[0]["name"] == "Ana Lopez"
	})).Return(nil)

	res, err := svc.RunComplianceSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Succeeded)
	f.assertExpectations(t)
}

func TestComplianceSweep_NoRecipient(t *testing.T) {
	f := newFixture()
	svc, _ := f.sweepService(t, "")
	f.expenses.On("Upcoming", mock.Anything, mock.Anything, mock.Anything).Return([]model.Expense{{Category: model.ExpenseInspection}}, nil)
	f.drivers.On("ExpiringLicenses", mock.Anything, mock.Anything).Return([]model.Driver{}, nil)

	res, err := svc.RunComplianceSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	f.notifier.AssertNotCalled(t, "Email", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}
