package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies REPLAY_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known REPLAY_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Replay ──
	setStr(&cfg.Replay.StartDate, "REPLAY_START_DATE")
	setStr(&cfg.Replay.EndDate, "REPLAY_END_DATE")
	setFloat64(&cfg.Replay.StartingCash, "REPLAY_STARTING_CASH")
	setStr(&cfg.Replay.Strategy, "REPLAY_STRATEGY")
	setStr(&cfg.Replay.DataSource, "REPLAY_DATA_SOURCE")
	setStr(&cfg.Replay.LocalDir, "REPLAY_LOCAL_DIR")
	setStr(&cfg.Replay.Commission, "REPLAY_COMMISSION")

	// ── Reversal ──
	setFloat64(&cfg.Reversal.MinMarketCap, "REPLAY_REVERSAL_MIN_MARKET_CAP")
	setFloat64(&cfg.Reversal.MaxPerfYear, "REPLAY_REVERSAL_MAX_PERF_YEAR")
	setFloat64(&cfg.Reversal.MinPE, "REPLAY_REVERSAL_MIN_PE")
	setFloat64(&cfg.Reversal.MinVolume, "REPLAY_REVERSAL_MIN_VOLUME")
	setFloat64(&cfg.Reversal.ExitPerfWeek, "REPLAY_REVERSAL_EXIT_PERF_WEEK")
	setInt(&cfg.Reversal.WatchlistDays, "REPLAY_REVERSAL_WATCHLIST_DAYS")
	setInt64(&cfg.Reversal.OrderQuantity, "REPLAY_REVERSAL_ORDER_QUANTITY")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "REPLAY_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "REPLAY_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "REPLAY_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "REPLAY_DATABASE_HOST")
	setInt(&cfg.Database.Port, "REPLAY_DATABASE_PORT")
	setStr(&cfg.Database.Database, "REPLAY_DATABASE_NAME")
	setStr(&cfg.Database.User, "REPLAY_DATABASE_USER")
	setStr(&cfg.Database.Password, "REPLAY_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "REPLAY_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "REPLAY_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "REPLAY_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "REPLAY_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "REPLAY_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "REPLAY_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "REPLAY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REPLAY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "REPLAY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "REPLAY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "REPLAY_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TTL, "REPLAY_REDIS_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "REPLAY_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "REPLAY_S3_REGION")
	setStr(&cfg.S3.Bucket, "REPLAY_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "REPLAY_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "REPLAY_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "REPLAY_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "REPLAY_S3_FORCE_PATH_STYLE")
	setBool(&cfg.S3.ArchiveRuns, "REPLAY_S3_ARCHIVE_RUNS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "REPLAY_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "REPLAY_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "REPLAY_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "REPLAY_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "REPLAY_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
