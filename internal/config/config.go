// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when one
// exists), loads them into structured Go types and validates them so the
// service fails fast on bad or missing configuration.
//
// Keys are read with the FLEET_ prefix. Nesting uses the "." delimiter, so
// FLEET_DATABASE.HOST maps to Config.Database.Host.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env before we read it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "FLEET_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Lease         LeaseConfig          `koanf:"lease" validate:"required"`
	Scheduler     SchedulerConfig      `koanf:"scheduler" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimit is the sustained number of API requests per second allowed per client IP.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
type RedisConfig struct {
	Address  string        `koanf:"address" validate:"required"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

// AuthConfig stores authentication secrets.
//
// Disabled skips bearer token checks entirely and is only honoured in the
// local environment.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required_unless=Disabled true"`
	Disabled  bool   `koanf:"disabled"`
}

// IntegrationConfig holds credentials for outbound notification providers.
// Empty keys disable the corresponding channel.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from" validate:"required"`
	OpsEmail     string `koanf:"ops_email" validate:"omitempty,email"`
	SMSUsername  string `koanf:"sms_username"`
	SMSAPIKey    string `koanf:"sms_api_key"`
	SMSEnv       string `koanf:"sms_env" validate:"oneof=sandbox production"`
	SMSFrom      string `koanf:"sms_from"`
}

// StorageConfig configures the S3-compatible document store.
type StorageConfig struct {
	Endpoint    string        `koanf:"endpoint" validate:"required"`
	AccessKey   string        `koanf:"access_key" validate:"required"`
	SecretKey   string        `koanf:"secret_key" validate:"required"`
	Bucket      string        `koanf:"bucket" validate:"required"`
	UseSSL      bool          `koanf:"use_ssl"`
	PresignTTL  time.Duration `koanf:"presign_ttl" validate:"min=1m"`
	MaxUploadMB int           `koanf:"max_upload_mb" validate:"min=1,max=100"`
}

// LeaseConfig carries the business rules of the lease schedule and the
// renewal/expiry sweeps.
type LeaseConfig struct {
	// CycleStartDay is the weekday every billing week starts on.
	CycleStartDay        string `koanf:"cycle_start_day" validate:"oneof=sunday monday tuesday wednesday thursday friday saturday"`
	Timezone             string `koanf:"timezone" validate:"required"`
	RenewalWindowDays    int    `koanf:"renewal_window_days" validate:"min=0"`
	ExpiringNoticeDays   int    `koanf:"expiring_notice_days" validate:"min=0"`
	DOVSegmentWeeks      int    `koanf:"dov_segment_weeks" validate:"min=1"`
	DOVTotalSegments     int    `koanf:"dov_total_segments" validate:"min=1"`
	DefaultTermWeeks     int    `koanf:"default_term_weeks" validate:"min=1"`
	ShortTermWeeks       int    `koanf:"short_term_weeks" validate:"min=1"`
	ComplianceWindowDays int    `koanf:"compliance_window_days" validate:"min=1"`
}

// SchedulerConfig holds the cron specs of the periodic sweeps.
type SchedulerConfig struct {
	Enabled        bool   `koanf:"enabled"`
	RenewalCron    string `koanf:"renewal_cron" validate:"required"`
	ExpiryCron     string `koanf:"expiry_cron" validate:"required"`
	ComplianceCron string `koanf:"compliance_cron" validate:"required"`
}

// Validate checks that every cron spec parses with the standard five-field parser.
func (s SchedulerConfig) Validate() error {
	for name, spec := range map[string]string{
		"renewal_cron":    s.RenewalCron,
		"expiry_cron":     s.ExpiryCron,
		"compliance_cron": s.ComplianceCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid scheduler %s %q: %w", name, spec, err)
		}
	}
	return nil
}

// CycleWeekday converts CycleStartDay into a time.Weekday.
func (l LeaseConfig) CycleWeekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), l.CycleStartDay) {
			return d
		}
	}
	return time.Sunday
}

// Location returns the timezone used to decide what "today" is for the sweeps.
func (l LeaseConfig) Location() *time.Location {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// defaultConfig seeds optional values. koanf only overwrites fields that are
// present in the environment, so these survive unmarshalling.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			RateLimit:          20,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Redis: RedisConfig{
			CacheTTL: time.Minute,
		},
		Integration: IntegrationConfig{
			EmailFrom: "Fleet Operations <fleet@example.com>",
			SMSEnv:    "sandbox",
		},
		Storage: StorageConfig{
			Bucket:      "fleet-documents",
			PresignTTL:  15 * time.Minute,
			MaxUploadMB: 20,
		},
		Lease: LeaseConfig{
			CycleStartDay:        "sunday",
			Timezone:             "America/New_York",
			RenewalWindowDays:    7,
			ExpiringNoticeDays:   14,
			DOVSegmentWeeks:      26,
			DOVTotalSegments:     8,
			DefaultTermWeeks:     52,
			ShortTermWeeks:       4,
			ComplianceWindowDays: 30,
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			RenewalCron:    "0 6 * * *",
			ExpiryCron:     "30 6 * * *",
			ComplianceCron: "0 7 * * 1",
		},
	}
}

// Load reads the FLEET_ environment, applies defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := defaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Auth.Disabled && mainConfig.Primary.Env != "local" {
		return nil, fmt.Errorf("auth.disabled is only allowed in the local environment")
	}

	if err := mainConfig.Scheduler.Validate(); err != nil {
		return nil, err
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = "fleetd"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// LoadConfig is Load for process entrypoints: it logs and exits on failure.
func LoadConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load configuration")
	}
	return cfg
}
