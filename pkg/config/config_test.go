package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "CADENCE_VERSION",
	"DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
	"REDIS_URL", "RABBITMQ_URL", "HTTP_ADDR",
	"LOCK_BACKEND", "LOCK_TTL", "LOCK_WAIT_TIMEOUT",
	"DIRECTORY_URL", "DIRECTORY_TIMEOUT", "DIRECTORY_CACHE_TTL",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
	"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL", "OUTBOX_PROCESSOR_ENABLED",
	"WORKER_HEALTH_ADDR",
}

// clearEnv blanks every key so defaults apply. t.Setenv restores the
// original values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	assert.True(t, cfg.LocalMode)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.LockBackend)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 5*time.Second, cfg.LockWaitTimeout)
	assert.False(t, cfg.UseRedisLocks())

	assert.Equal(t, 2*time.Second, cfg.DirectoryTimeout)
	assert.Equal(t, 10*time.Minute, cfg.DirectoryCacheTTL)

	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.True(t, cfg.OutboxProcessorEnabled)
	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://cadence:secret@db:5432/cadence")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_WAIT_TIMEOUT", "750ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")
	t.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.LocalMode)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.True(t, cfg.UseRedisLocks())
	assert.Equal(t, 750*time.Millisecond, cfg.LockWaitTimeout)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.False(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOCK_TTL", "soon")
	t.Setenv("OUTBOX_BATCH_SIZE", "many")
	t.Setenv("OUTBOX_PROCESSOR_ENABLED", "perhaps")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.True(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_ExplicitDriverWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "postgres://ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.True(t, cfg.LocalMode)
}

func TestUseRedisLocks_RequiresURL(t *testing.T) {
	cfg := &Config{LockBackend: "redis"}
	assert.False(t, cfg.UseRedisLocks())
}
