package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/lib/cache"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	items map[string][]byte
	err   error
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if c.err != nil {
		return c.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (f *fixture) reportService(c cache.Cache) *ReportService {
	cfg := &config.Config{
		Redis: config.RedisConfig{CacheTTL: time.Minute},
		Lease: testLeaseConfig(),
	}
	s := NewReportService(f.repos, c, cfg, f.logger)
	s.now = clock
	return s
}

func TestFleetReport_CachesResult(t *testing.T) {
	f := newFixture()
	c := &memCache{items: map[string][]byte{}}
	report := &model.FleetReport{Vehicles: []model.StatusCount{{Status: "available", Count: 4}}}
	f.reports.On("FleetStatusCounts", mock.Anything).Return(report, nil).Once()

	svc := f.reportService(c)
	first, err := svc.Fleet(context.Background())
	require.NoError(t, err)
	second, err := svc.Fleet(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, c.items, cache.Key("report", "fleet"))
	f.reports.AssertExpectations(t)
}

func TestLeaseReport_CacheErrorFallsBack(t *testing.T) {
	f := newFixture()
	c := &memCache{items: map[string][]byte{}, err: errors.New("redis down")}
	report := &model.LeaseReport{ActiveLeases: 12, WeeklyRevenue: dec("4800")}
	f.reports.On("LeaseSummary", mock.Anything, day(2024, 7, 10), day(2024, 5, 11)).Return(report, nil).Twice()

	svc := f.reportService(c)
	for range 2 {
		got, err := svc.Leases(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 12, got.ActiveLeases)
	}
	f.reports.AssertExpectations(t)
}
