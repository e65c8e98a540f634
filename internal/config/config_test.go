package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "",
		"REDIS_URL":        "",
		"ADMIN_JWT_SECRET": "",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost:5432/gtro",
		"REDIS_URL":        "redis://localhost:6379/0",
		"ADMIN_JWT_SECRET": "test-secret",
		"PORT":             "",
		"APP_ENV":          "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "EUR", cfg.CurrencyCode)
	require.Equal(t, 5*time.Minute, cfg.SnapshotCacheTTL)
	require.Equal(t, 60, cfg.QuoteRateLimitMax)
	require.True(t, cfg.MigrateOnStart)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":       "postgres://localhost:5432/gtro",
		"REDIS_URL":          "redis://localhost:6379/0",
		"ADMIN_JWT_SECRET":   "test-secret",
		"PORT":               "9090",
		"SNAPSHOT_CACHE_TTL": "30s",
		"MIGRATE_ON_START":   "false",
		"CURRENCY_CODE":      "USD",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 30*time.Second, cfg.SnapshotCacheTTL)
	require.False(t, cfg.MigrateOnStart)
	require.Equal(t, "USD", cfg.CurrencyCode)
}
