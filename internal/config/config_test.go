package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FLEET_PRIMARY.ENV", "local")
	t.Setenv("FLEET_DATABASE.HOST", "localhost")
	t.Setenv("FLEET_DATABASE.USER", "fleet")
	t.Setenv("FLEET_DATABASE.PASSWORD", "secret")
	t.Setenv("FLEET_DATABASE.NAME", "fleet")
	t.Setenv("FLEET_REDIS.ADDRESS", "localhost:6379")
	t.Setenv("FLEET_AUTH.SECRET_KEY", "sk_test")
	t.Setenv("FLEET_STORAGE.ENDPOINT", "localhost:9000")
	t.Setenv("FLEET_STORAGE.ACCESS_KEY", "minio")
	t.Setenv("FLEET_STORAGE.SECRET_KEY", "minio123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "fleet-documents", cfg.Storage.Bucket)
	assert.Equal(t, 26, cfg.Lease.DOVSegmentWeeks)
	assert.Equal(t, 8, cfg.Lease.DOVTotalSegments)
	assert.Equal(t, time.Sunday, cfg.Lease.CycleWeekday())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "fleetd", cfg.Observability.ServiceName)
	assert.Equal(t, "local", cfg.Observability.Environment)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_SERVER.PORT", "9090")
	t.Setenv("FLEET_LEASE.CYCLE_START_DAY", "monday")
	t.Setenv("FLEET_LEASE.RENEWAL_WINDOW_DAYS", "3")
	t.Setenv("FLEET_STORAGE.PRESIGN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Monday, cfg.Lease.CycleWeekday())
	assert.Equal(t, 3, cfg.Lease.RenewalWindowDays)
	assert.Equal(t, 5*time.Minute, cfg.Storage.PresignTTL)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_DATABASE.HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_AuthDisabledOutsideLocal(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_PRIMARY.ENV", "production")
	t.Setenv("FLEET_AUTH.DISABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.disabled")
}

func TestLoad_InvalidCron(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_SCHEDULER.RENEWAL_CRON", "every morning")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renewal_cron")
}

func TestObservabilityConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ObservabilityConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *ObservabilityConfig) {}},
		{name: "bad level", mutate: func(c *ObservabilityConfig) { c.Logging.Level = "trace" }, wantErr: "invalid logging level"},
		{name: "bad format", mutate: func(c *ObservabilityConfig) { c.Logging.Format = "xml" }, wantErr: "invalid logging format"},
		{name: "negative threshold", mutate: func(c *ObservabilityConfig) { c.Logging.SlowQueryThreshold = -time.Second }, wantErr: "slow_query_threshold"},
		{name: "missing service", mutate: func(c *ObservabilityConfig) { c.ServiceName = "" }, wantErr: "service_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultObservabilityConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestObservabilityConfig_GetLogLevel(t *testing.T) {
	c := DefaultObservabilityConfig()
	c.Logging.Level = ""

	c.Environment = "production"
	assert.Equal(t, "info", c.GetLogLevel())
	assert.True(t, c.IsProduction())

	c.Environment = "local"
	assert.Equal(t, "debug", c.GetLogLevel())
	assert.False(t, c.IsProduction())

	c.Logging.Level = "warn"
	assert.Equal(t, "warn", c.GetLogLevel())
}

func TestLeaseConfig_Location(t *testing.T) {
	l := LeaseConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, l.Location())

	l.Timezone = "UTC"
	assert.Equal(t, "UTC", l.Location().String())
}
