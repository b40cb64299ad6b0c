package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[replay]
start_date = "2021-01-04"
strategy = "reversal"

[reversal]
order_quantity = 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "2021-01-04", cfg.Replay.StartDate)
	assert.Equal(t, int64(50), cfg.Reversal.OrderQuantity)
	// Untouched fields keep their defaults.
	assert.Equal(t, "2021-04-09", cfg.Replay.EndDate)
	assert.Equal(t, 100_000.0, cfg.Replay.StartingCash)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REPLAY_STRATEGY", "momentum")
	t.Setenv("REPLAY_STARTING_CASH", "50000")
	t.Setenv("REPLAY_REDIS_ENABLED", "true")
	t.Setenv("REPLAY_REDIS_TTL", "1h")
	t.Setenv("REPLAY_NOTIFY_EVENTS", "run_failed, run_finished")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "momentum", cfg.Replay.Strategy)
	assert.Equal(t, 50_000.0, cfg.Replay.StartingCash)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "1h0m0s", cfg.Redis.TTL.String())
	assert.Equal(t, []string{"run_failed", "run_finished"}, cfg.Notify.Events)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Replay.StartDate = "yesterday"
	cfg.Replay.StartingCash = -1
	cfg.Replay.DataSource = "ftp"
	cfg.Reversal.OrderQuantity = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, "start_date")
	assert.Contains(t, msg, "starting_cash")
	assert.Contains(t, msg, "data_source")
	assert.Contains(t, msg, "order_quantity")
}

func TestValidateDateOrder(t *testing.T) {
	cfg := Defaults()
	cfg.Replay.StartDate = "2021-04-09"
	cfg.Replay.EndDate = "2021-02-22"
	assert.ErrorContains(t, cfg.Validate(), "end_date")
}

func TestValidateS3RequiredForS3Source(t *testing.T) {
	cfg := Defaults()
	cfg.Replay.DataSource = "s3"
	cfg.S3.Bucket = ""
	assert.ErrorContains(t, cfg.Validate(), "bucket")
}

func TestValidateTelegramPair(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "token"
	assert.ErrorContains(t, cfg.Validate(), "telegram")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "hunter2"
	cfg.S3.SecretKey = "secret"
	cfg.Notify.TelegramToken = "token"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Database.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Database.Password)
}
