package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kryptonation/creamrun-sub000/internal/lease"
	"github.com/kryptonation/creamrun-sub000/internal/lib/email"
	"github.com/kryptonation/creamrun-sub000/internal/lib/job"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeLease(vehicleID, driverID uuid.UUID) *model.Lease {
	l := &model.Lease{
		LeaseNumber:   "LS-000007",
		LeaseType:     model.LeaseTypeLongTerm,
		VehicleID:     vehicleID,
		DriverID:      driverID,
		StartDate:     day(2024, 1, 1),
		EndDate:       day(2024, 6, 15),
		WeeklyAmount:  dec("400"),
		AutoRenew:     true,
		Segment:       1,
		TotalSegments: 1,
		Status:        model.LeaseStatusActive,
	}
	l.ID = uuid.New()
	return l
}

func testDriver(status model.DriverStatus) *model.Driver {
	d := &model.Driver{
		FirstName:        "Ana",
		LastName:         "Lopez",
		Email:            "ana@example.com",
		Phone:            "+12125550100",
		TLCLicenseExpiry: day(2025, 1, 1),
		DMVLicenseExpiry: day(2025, 1, 1),
		Status:           status,
	}
	d.ID = uuid.New()
	return d
}

func testVehicle(status model.VehicleStatus) *model.Vehicle {
	v := &model.Vehicle{
		VIN:         "1FTFW1ET5DFC10312",
		VehicleType: model.VehicleTypeHybrid,
		Status:      status,
	}
	v.ID = uuid.New()
	return v
}

func TestCreateDraft_VehicleNotAvailable(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)

	_, err := f.leaseService().CreateDraft(context.Background(), CreateLeaseInput{
		LeaseType: model.LeaseTypeLongTerm,
		VehicleID: v.ID,
		DriverID:  uuid.New(),
		StartDate: day(2024, 6, 9),
	})

	requireCode(t, err, "VEHICLE_NOT_AVAILABLE")
	f.assertExpectations(t)
}

func TestCreateDraft_DriverNotActive(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	d := testDriver(model.DriverStatusSuspended)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)

	_, err := f.leaseService().CreateDraft(context.Background(), CreateLeaseInput{
		LeaseType: model.LeaseTypeLongTerm,
		VehicleID: v.ID,
		DriverID:  d.ID,
		StartDate: day(2024, 6, 9),
	})

	requireCode(t, err, "DRIVER_NOT_ACTIVE")
	f.assertExpectations(t)
}

func TestCreateDraft_DefaultsFromRateAndTerm(t *testing.T) {
	f := newFixture()
	medallionID := uuid.New()
	v := testVehicle(model.VehicleStatusAvailable)
	v.MedallionID = &medallionID
	d := testDriver(model.DriverStatusActive)
	start := day(2024, 6, 9)

	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.rates.On("Current", mock.Anything, model.LeaseTypeLongTerm, model.VehicleTypeHybrid, start).
		Return(&model.LeaseRate{WeeklyAmount: dec("450")}, nil)
	f.leases.On("NextLeaseNumber", mock.Anything).Return("LS-000042", nil)
	f.leases.On("Create", mock.Anything, mock.MatchedBy(func(l *model.Lease) bool {
		return l.LeaseNumber == "LS-000042" &&
			l.EndDate == start.AddDays(26*7-1) &&
			l.WeeklyAmount.Equal(dec("450")) &&
			l.MedallionID != nil && *l.MedallionID == medallionID &&
			l.Status == model.LeaseStatusDraft &&
			l.Segment == 1 && l.TotalSegments == 1
	})).Return(&model.Lease{LeaseNumber: "LS-000042"}, nil)

	l, err := f.leaseService().CreateDraft(context.Background(), CreateLeaseInput{
		LeaseType: model.LeaseTypeLongTerm,
		VehicleID: v.ID,
		DriverID:  d.ID,
		StartDate: start,
	})

	require.NoError(t, err)
	assert.Equal(t, "LS-000042", l.LeaseNumber)
	f.assertExpectations(t)
}

func TestCreateDraft_DOVUsesConfiguredSegments(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	d := testDriver(model.DriverStatusActive)
	weekly := dec("380")

	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.leases.On("NextLeaseNumber", mock.Anything).Return("LS-000043", nil)
	f.leases.On("Create", mock.Anything, mock.MatchedBy(func(l *model.Lease) bool {
		return l.TotalSegments == 4 && l.WeeklyAmount.Equal(weekly)
	})).Return(&model.Lease{}, nil)

	_, err := f.leaseService().CreateDraft(context.Background(), CreateLeaseInput{
		LeaseType:    model.LeaseTypeDOV,
		VehicleID:    v.ID,
		DriverID:     d.ID,
		StartDate:    day(2024, 6, 9),
		WeeklyAmount: &weekly,
		AutoRenew:    true,
	})

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestCreateDraft_NoRate(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	d := testDriver(model.DriverStatusActive)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.rates.On("Current", mock.Anything, model.LeaseTypeShortTerm, model.VehicleTypeHybrid, day(2024, 6, 9)).
		Return(nil, sqlerr.NotFound("lease_rates", pgx.ErrNoRows))

	_, err := f.leaseService().CreateDraft(context.Background(), CreateLeaseInput{
		LeaseType: model.LeaseTypeShortTerm,
		VehicleID: v.ID,
		DriverID:  d.ID,
		StartDate: day(2024, 6, 9),
	})

	requireCode(t, err, "NO_LEASE_RATE")
	f.assertExpectations(t)
}

func TestActivate_GeneratesScheduleAndLeasesVehicle(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	d := testDriver(model.DriverStatusActive)
	l := activeLease(v.ID, d.ID)
	l.Status = model.LeaseStatusDraft
	l.StartDate = day(2024, 6, 9)
	l.EndDate = day(2024, 6, 22)
	l.WeeklyAmount = dec("700")

	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.leases.On("InsertInstallments", mock.Anything, l.ID, mock.MatchedBy(func(items []lease.Installment) bool {
		return len(items) == 2 && items[0].Number == 1 && items[1].Amount.Equal(dec("700"))
	})).Return(nil)
	f.leases.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Lease) bool {
		return u.Status == model.LeaseStatusActive
	})).Return(l, nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusLeased
	})).Return(v, nil)
	f.leases.On("GetByID", mock.Anything, l.ID).Return(l, nil)
	f.leases.On("ListInstallments", mock.Anything, l.ID).Return([]model.LeaseInstallment{{InstallmentNo: 1}, {InstallmentNo: 2}}, nil)

	detail, err := f.leaseService().Activate(context.Background(), l.ID)

	require.NoError(t, err)
	assert.Len(t, detail.Installments, 2)
	f.assertExpectations(t)
}

func TestActivate_RejectsNonDraft(t *testing.T) {
	f := newFixture()
	l := activeLease(uuid.New(), uuid.New())
	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)

	_, err := f.leaseService().Activate(context.Background(), l.ID)

	requireCode(t, err, "LEASE_NOT_DRAFT")
	f.assertExpectations(t)
}

func TestApply_RenewsWithCurrentRate(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	d := testDriver(model.DriverStatusActive)
	l := activeLease(v.ID, d.ID)
	newEnd := day(2024, 12, 14)

	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.rates.On("Current", mock.Anything, model.LeaseTypeLongTerm, model.VehicleTypeHybrid, day(2024, 6, 16)).
		Return(&model.LeaseRate{WeeklyAmount: dec("450")}, nil)
	f.leases.On("MaxInstallmentNo", mock.Anything, l.ID).Return(24, nil)
	f.leases.On("InsertInstallments", mock.Anything, l.ID, mock.MatchedBy(func(items []lease.Installment) bool {
		return len(items) == 26 &&
			items[0].Number == 25 &&
			items[0].PeriodStart == day(2024, 6, 16) &&
			items[0].Amount.Equal(dec("450")) &&
			items[25].PeriodEnd == newEnd
	})).Return(nil)
	f.leases.On("CreateRenewal", mock.Anything, mock.MatchedBy(func(r *model.LeaseRenewal) bool {
		return r.PreviousEndDate == day(2024, 6, 15) && r.NewEndDate == newEnd && r.Segment == 2
	})).Return(&model.LeaseRenewal{NewEndDate: newEnd}, nil)
	f.leases.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Lease) bool {
		return u.EndDate == newEnd && u.WeeklyAmount.Equal(dec("450")) && u.ExpiringNotifiedAt == nil
	})).Return(l, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.notifier.On("Email", mock.Anything, mock.MatchedBy(func(p job.EmailPayload) bool {
		return p.Template == email.TemplateLeaseRenewed &&
			p.To[0] == d.Email &&
			p.Data["NewEndDate"] == "2024-12-14" &&
			p.Data["WeeklyAmount"] == "450.00"
	})).Return(nil)
	f.notifier.On("SMS", mock.Anything, mock.MatchedBy(func(p job.SMSPayload) bool {
		return p.To == d.Phone
	})).Return(nil)

	action, err := f.leaseService().Apply(context.Background(), l.ID, day(2024, 6, 10), func(lease.Action) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, lease.ActionRenew, action)
	f.assertExpectations(t)
}

func TestApply_ExpiresAndReleasesVehicle(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	d := testDriver(model.DriverStatusActive)
	d.Phone = ""
	l := activeLease(v.ID, d.ID)
	l.AutoRenew = false
	l.EndDate = day(2024, 6, 9)

	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)
	f.leases.On("VoidInstallmentsAfter", mock.Anything, l.ID, day(2024, 6, 9)).Return(int64(2), nil)
	f.leases.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Lease) bool {
		return u.Status == model.LeaseStatusExpired &&
			u.TerminationReason != nil && *u.TerminationReason == lease.ReasonNotRenewed
	})).Return(l, nil)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusAvailable
	})).Return(v, nil)
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.notifier.On("Email", mock.Anything, mock.MatchedBy(func(p job.EmailPayload) bool {
		return p.Template == email.TemplateLeaseExpired && p.Data["TermCompleted"] == false
	})).Return(nil)

	action, err := f.leaseService().Apply(context.Background(), l.ID, day(2024, 6, 10), func(lease.Action) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, lease.ActionExpire, action)
	f.notifier.AssertNotCalled(t, "SMS", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestApply_NotifiesExpiringOnce(t *testing.T) {
	f := newFixture()
	d := testDriver(model.DriverStatusActive)
	l := activeLease(uuid.New(), d.ID)
	l.AutoRenew = false
	l.EndDate = day(2024, 6, 20)

	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)
	f.leases.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Lease) bool {
		return u.ExpiringNotifiedAt != nil && u.ExpiringNotifiedAt.Equal(fixedNow)
	})).Return(l, nil).Once()
	f.drivers.On("GetByID", mock.Anything, d.ID).Return(d, nil)
	f.notifier.On("Email", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifier.On("SMS", mock.Anything, mock.Anything).Return(nil).Once()

	svc := f.leaseService()
	accept := func(lease.Action) bool { return true }

	action, err := svc.Apply(context.Background(), l.ID, day(2024, 6, 10), accept)
	require.NoError(t, err)
	assert.Equal(t, lease.ActionNotifyExpiring, action)

	// The notice timestamp is now set on the lease.
	action, err = svc.Apply(context.Background(), l.ID, day(2024, 6, 11), accept)
	require.NoError(t, err)
	assert.Equal(t, lease.ActionNone, action)
	f.assertExpectations(t)
}

func TestApply_DeclinedActionWritesNothing(t *testing.T) {
	f := newFixture()
	l := activeLease(uuid.New(), uuid.New())
	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)

	action, err := f.leaseService().Apply(context.Background(), l.ID, day(2024, 6, 10), func(a lease.Action) bool {
		return a == lease.ActionExpire
	})

	require.NoError(t, err)
	assert.Equal(t, lease.ActionNone, action)
	f.assertExpectations(t)
}

func TestTerminate_VoidsFutureInstallments(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	l := activeLease(v.ID, uuid.New())

	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)
	f.leases.On("VoidInstallmentsAfter", mock.Anything, l.ID, day(2024, 6, 10)).Return(int64(1), nil)
	f.leases.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Lease) bool {
		return u.Status == model.LeaseStatusTerminated &&
			u.TerminatedAt != nil &&
			*u.TerminationReason == "driver left"
	})).Return(l, nil)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusAvailable
	})).Return(v, nil)

	_, err := f.leaseService().Terminate(context.Background(), l.ID, "driver left")

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestTerminate_AlreadyClosed(t *testing.T) {
	f := newFixture()
	l := activeLease(uuid.New(), uuid.New())
	l.Status = model.LeaseStatusExpired
	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)

	_, err := f.leaseService().Terminate(context.Background(), l.ID, "late")

	requireCode(t, err, "LEASE_NOT_ACTIVE")
	f.assertExpectations(t)
}

func TestRenew_DOVLastSegment(t *testing.T) {
	f := newFixture()
	l := activeLease(uuid.New(), uuid.New())
	l.LeaseType = model.LeaseTypeDOV
	l.Segment = 4
	l.TotalSegments = 4
	f.leases.On("GetForUpdate", mock.Anything, l.ID).Return(l, nil)

	_, err := f.leaseService().Renew(context.Background(), l.ID)

	requireCode(t, err, "LEASE_NOT_RENEWABLE")
	f.assertExpectations(t)
}

func TestPreview_NoWrites(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	weekly := dec("700")
	end := day(2024, 6, 19)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)

	p, err := f.leaseService().Preview(context.Background(), CreateLeaseInput{
		LeaseType:    model.LeaseTypeShortTerm,
		VehicleID:    v.ID,
		StartDate:    day(2024, 6, 5),
		EndDate:      &end,
		WeeklyAmount: &weekly,
	})

	require.NoError(t, err)
	require.Len(t, p.Installments, 3)
	// Wed 5th to Sat 8th, a full week, then Sun 16th to Wed 19th.
	assert.True(t, dec("400").Equal(p.Installments[0].Amount))
	assert.True(t, dec("1500").Equal(p.Total))
	f.assertExpectations(t)
}
