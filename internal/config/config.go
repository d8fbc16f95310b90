package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredentials is returned when the storage endpoint or access key is absent
var ErrMissingCredentials = errors.New("storage credentials missing")

// MissingCredentialsError names the unset storage variables
type MissingCredentialsError struct {
	Vars []string
}

func (e *MissingCredentialsError) Error() string {
	return strings.Join(e.Vars, " and ") + " must be set"
}

func (e *MissingCredentialsError) Is(target error) bool {
	return target == ErrMissingCredentials
}

// Config holds all application configuration
type Config struct {
	// Storage
	StorageURL string `envconfig:"STORAGE_URL"`
	StorageKey string `envconfig:"STORAGE_KEY"`

	// Legacy names, accepted as aliases
	SupabaseURL string `envconfig:"SUPABASE_URL"`
	SupabaseKey string `envconfig:"SUPABASE_KEY"`

	StorageConnectTimeout time.Duration `envconfig:"STORAGE_CONNECT_TIMEOUT" default:"30s"`
	// StorageTimeout bounds each REST storage request
	StorageTimeout        time.Duration `envconfig:"STORAGE_TIMEOUT" default:"30s"`

	// NBA stats API
	StatsBaseURL string        `envconfig:"NBA_STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	StatsTimeout time.Duration `envconfig:"NBA_STATS_TIMEOUT" default:"30s"`
	RequestDelay time.Duration `envconfig:"NBA_REQUEST_DELAY" default:"1s"`
	Season       string        `envconfig:"NBA_SEASON" default:"2025-26"`
	SeasonType   string        `envconfig:"NBA_SEASON_TYPE" default:"Regular Season"`
	PerMode      string        `envconfig:"NBA_PER_MODE" default:"PerGame"`

	// Upsert
	BatchSize    int  `envconfig:"UPSERT_BATCH_SIZE" default:"1000"`
	StrictUpsert bool `envconfig:"STRICT_UPSERT" default:"false"`

	// Redis response cache
	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	// Scheduler
	SyncCron string `envconfig:"SYNC_CRON" default:"0 6 * * *"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Monitoring
	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`
}

// MaxBatchSize is the largest batch the storage backend accepts in one request
const MaxBatchSize = 1000

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	cfg.applyAliases()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyAliases() {
	if c.StorageURL == "" {
		c.StorageURL = c.SupabaseURL
	}
	if c.StorageKey == "" {
		c.StorageKey = c.SupabaseKey
	}
}

// Missing lists the required variables that are unset
func (c *Config) Missing() []string {
	var missing []string
	if c.StorageURL == "" {
		missing = append(missing, "STORAGE_URL")
	}
	if c.StorageKey == "" {
		missing = append(missing, "STORAGE_KEY")
	}
	return missing
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return &MissingCredentialsError{Vars: missing}
	}

	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("UPSERT_BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize)
	}

	if c.StatsTimeout <= 0 {
		return fmt.Errorf("NBA_STATS_TIMEOUT must be positive")
	}

	if c.RequestDelay < 0 {
		return fmt.Errorf("NBA_REQUEST_DELAY must not be negative")
	}

	if c.Season == "" {
		return fmt.Errorf("NBA_SEASON is required")
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
