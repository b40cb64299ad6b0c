// Package config defines the top-level configuration for the market replay
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by REPLAY_* environment variables.
type Config struct {
	Replay   ReplayConfig   `toml:"replay"`
	Reversal ReversalConfig `toml:"reversal"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// ReplayConfig holds the core replay parameters: the date window, the strategy
// to drive, and where the daily snapshot CSVs live.
type ReplayConfig struct {
	StartDate    string  `toml:"start_date"`
	EndDate      string  `toml:"end_date"`
	StartingCash float64 `toml:"starting_cash"`
	Strategy     string  `toml:"strategy"`
	// DataSource selects where snapshots are read from: "local" or "s3".
	DataSource string `toml:"data_source"`
	LocalDir   string `toml:"local_dir"`
	// Commission selects the fee schedule: "interactive_brokers" or "free".
	Commission string `toml:"commission"`
}

// Start parses the configured start date.
func (r ReplayConfig) Start() (time.Time, error) {
	return time.Parse("2006-01-02", r.StartDate)
}

// End parses the configured end date.
func (r ReplayConfig) End() (time.Time, error) {
	return time.Parse("2006-01-02", r.EndDate)
}

// ReversalConfig holds the screen thresholds for the reversal strategy.
type ReversalConfig struct {
	MinMarketCap  float64 `toml:"min_market_cap"`
	MaxPerfYear   float64 `toml:"max_perf_year"`
	MinPE         float64 `toml:"min_pe"`
	MinVolume     float64 `toml:"min_volume"`
	ExitPerfWeek  float64 `toml:"exit_perf_week"`
	WatchlistDays int     `toml:"watchlist_days"`
	OrderQuantity int64   `toml:"order_quantity"`
}

// DatabaseConfig holds PostgreSQL connection parameters for run persistence.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the snapshot cache.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	TTL        duration `toml:"ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	// ArchiveRuns uploads run artifacts (equity curve, fills) after each run.
	ArchiveRuns bool `toml:"archive_runs"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Replay: ReplayConfig{
			StartDate:    "2021-02-22",
			EndDate:      "2021-04-09",
			StartingCash: 100_000,
			Strategy:     "reversal",
			DataSource:   "local",
			LocalDir:     "data",
			Commission:   "interactive_brokers",
		},
		Reversal: ReversalConfig{
			MinMarketCap:  200_000,
			MaxPerfYear:   0,
			MinPE:         5,
			MinVolume:     1_000_000,
			ExitPerfWeek:  0.10,
			WatchlistDays: 6,
			OrderQuantity: 100,
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			TTL:        duration{24 * time.Hour},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "replay-data",
			UseSSL:         false,
			ForcePathStyle: true,
			ArchiveRuns:    false,
		},
		Notify: NotifyConfig{
			Events: []string{"run_finished", "run_failed"},
		},
		LogLevel: "info",
	}
}

// validDataSources enumerates the accepted values for ReplayConfig.DataSource.
var validDataSources = map[string]bool{
	"local": true,
	"s3":    true,
}

// validCommissions enumerates the accepted values for ReplayConfig.Commission.
var validCommissions = map[string]bool{
	"interactive_brokers": true,
	"free":                true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Replay window
	start, startErr := c.Replay.Start()
	if startErr != nil {
		errs = append(errs, fmt.Sprintf("replay: start_date %q is not YYYY-MM-DD", c.Replay.StartDate))
	}
	end, endErr := c.Replay.End()
	if endErr != nil {
		errs = append(errs, fmt.Sprintf("replay: end_date %q is not YYYY-MM-DD", c.Replay.EndDate))
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		errs = append(errs, "replay: end_date must not precede start_date")
	}
	if c.Replay.StartingCash <= 0 {
		errs = append(errs, "replay: starting_cash must be > 0")
	}
	if c.Replay.Strategy == "" {
		errs = append(errs, "replay: strategy must not be empty")
	}
	if !validDataSources[c.Replay.DataSource] {
		errs = append(errs, fmt.Sprintf("replay: unknown data_source %q (valid: local, s3)", c.Replay.DataSource))
	}
	if c.Replay.DataSource == "local" && c.Replay.LocalDir == "" {
		errs = append(errs, "replay: local_dir must be set when data_source is local")
	}
	if !validCommissions[c.Replay.Commission] {
		errs = append(errs, fmt.Sprintf("replay: unknown commission %q (valid: interactive_brokers, free)", c.Replay.Commission))
	}

	// Reversal screen
	if c.Reversal.WatchlistDays < 1 {
		errs = append(errs, "reversal: watchlist_days must be >= 1")
	}
	if c.Reversal.OrderQuantity < 1 {
		errs = append(errs, "reversal: order_quantity must be >= 1")
	}
	if c.Reversal.ExitPerfWeek < 0 {
		errs = append(errs, "reversal: exit_perf_week must be >= 0")
	}

	// Database
	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.TTL.Duration <= 0 {
			errs = append(errs, "redis: ttl must be > 0")
		}
	}

	// S3 is required when it is the data source or archival is on.
	if c.Replay.DataSource == "s3" || c.S3.ArchiveRuns {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Notify channels need complete credentials when set.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
