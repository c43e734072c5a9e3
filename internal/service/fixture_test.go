package service

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	jobmocks "github.com/kryptonation/creamrun-sub000/internal/lib/job/mocks"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/repository/mocks"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Monday.
var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLeaseConfig() config.LeaseConfig {
	return config.LeaseConfig{
		CycleStartDay:        "sunday",
		Timezone:             "UTC",
		RenewalWindowDays:    7,
		ExpiringNoticeDays:   14,
		DOVSegmentWeeks:      26,
		DOVTotalSegments:     4,
		DefaultTermWeeks:     26,
		ShortTermWeeks:       4,
		ComplianceWindowDays: 30,
	}
}

type fixture struct {
	vehicles   *mocks.MockVehicleRepository
	hackup     *mocks.MockHackupTaskRepository
	medallions *mocks.MockMedallionRepository
	entities   *mocks.MockEntityRepository
	drivers    *mocks.MockDriverRepository
	leases     *mocks.MockLeaseRepository
	rates      *mocks.MockRateRepository
	documents  *mocks.MockDocumentRepository
	expenses   *mocks.MockExpenseRepository
	cases      *mocks.MockCaseRepository
	reports    *mocks.MockReportRepository
	notifier   *jobmocks.MockNotifier
	repos      *repository.Repositories
	logger     *zerolog.Logger
}

func newFixture() *fixture {
	f := &fixture{
		vehicles:   new(mocks.MockVehicleRepository),
		hackup:     new(mocks.MockHackupTaskRepository),
		medallions: new(mocks.MockMedallionRepository),
		entities:   new(mocks.MockEntityRepository),
		drivers:    new(mocks.MockDriverRepository),
		leases:     new(mocks.MockLeaseRepository),
		rates:      new(mocks.MockRateRepository),
		documents:  new(mocks.MockDocumentRepository),
		expenses:   new(mocks.MockExpenseRepository),
		cases:      new(mocks.MockCaseRepository),
		reports:    new(mocks.MockReportRepository),
		notifier:   new(jobmocks.MockNotifier),
	}
	f.repos = &repository.Repositories{
		Vehicles:    f.vehicles,
		HackupTasks: f.hackup,
		Medallions:  f.medallions,
		Entities:    f.entities,
		Drivers:     f.drivers,
		Leases:      f.leases,
		Rates:       f.rates,
		Documents:   f.documents,
		Expenses:    f.expenses,
		Cases:       f.cases,
		Reports:     f.reports,
	}
	l := zerolog.Nop()
	f.logger = &l
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.vehicles.AssertExpectations(t)
	f.hackup.AssertExpectations(t)
	f.medallions.AssertExpectations(t)
	f.drivers.AssertExpectations(t)
	f.leases.AssertExpectations(t)
	f.rates.AssertExpectations(t)
	f.documents.AssertExpectations(t)
	f.expenses.AssertExpectations(t)
	f.cases.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func (f *fixture) leaseService() *LeaseService {
	s := NewLeaseService(f.repos, f.notifier, testLeaseConfig(), f.logger)
	s.now = clock
	return s
}

// requireCode asserts err is an *errs.HTTPError carrying code.
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, code, httpErr.Code)
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
