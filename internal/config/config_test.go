package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/utils"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_BACKEND", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ACQUIRE_TIMEOUT_MS", "250")
	t.Setenv("REGISTRY_TIMEOUT_MS", "not-a-number")
	t.Setenv("APP_ENV", "production")

	cfg := LoadConfig()
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.AcquireTimeout)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t,
		"host=db.internal port=6543 user=postgres password=password dbname=deductible sslmode=disable",
		cfg.Database.GetDSN())
}

func TestDevLoginIsOptIn(t *testing.T) {
	for _, key := range []string{"APP_ENV", "DEV_LOGIN"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	// Test case 1: Nothing set means production without dev login
	cfg := LoadConfig()
	assert.Equal(t, "production", cfg.AppEnv)
	assert.False(t, cfg.DevLoginEnabled())

	// Test case 2: Development alone is not enough
	t.Setenv("APP_ENV", "development")
	assert.False(t, LoadConfig().DevLoginEnabled())

	// Test case 3: Opt-in outside development is ignored
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEV_LOGIN", "true")
	assert.False(t, LoadConfig().DevLoginEnabled())

	// Test case 4: Both set
	t.Setenv("APP_ENV", "development")
	assert.True(t, LoadConfig().DevLoginEnabled())
}

func TestSetupDatabaseSQLite(t *testing.T) {
	t.Setenv("DB_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cfg.db"))

	cfg := LoadConfig()
	assert.Contains(t, cfg.Database.GetDSN(), "_foreign_keys=on")

	h, err := SetupDatabase(context.Background(), cfg, utils.NopLogger())
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, backend.SQLite, h.Kind())

	var n int
	require.NoError(t, h.DB().Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'donations'`))
	assert.Equal(t, 1, n)
}

func TestSetupDatabaseRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DB_BACKEND", "mysql")
	_, err := SetupDatabase(context.Background(), LoadConfig(), utils.NopLogger())
	assert.Error(t, err)
}
