package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PHARMASYNC_APP_NAME":                os.Getenv("PHARMASYNC_APP_NAME"),
		"PHARMASYNC_APP_ENV":                 os.Getenv("PHARMASYNC_APP_ENV"),
		"PHARMASYNC_DATABASE_HOST":           os.Getenv("PHARMASYNC_DATABASE_HOST"),
		"PHARMASYNC_DATABASE_PASSWORD":       os.Getenv("PHARMASYNC_DATABASE_PASSWORD"),
		"PHARMASYNC_DATABASE_SSLMODE":        os.Getenv("PHARMASYNC_DATABASE_SSLMODE"),
		"PHARMASYNC_IMPORT_BATCH_SIZE":       os.Getenv("PHARMASYNC_IMPORT_BATCH_SIZE"),
		"PHARMASYNC_IMPORT_RECONCILE_POLICY": os.Getenv("PHARMASYNC_IMPORT_RECONCILE_POLICY"),
		"PHARMASYNC_IMPORT_VAT_RATE":         os.Getenv("PHARMASYNC_IMPORT_VAT_RATE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pharmasync-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 100, cfg.Import.BatchSize)
		assert.Equal(t, 24*time.Hour, cfg.Import.TaskTTL)
		assert.Equal(t, 0.15, cfg.Import.VATRate)
		assert.Equal(t, uint(32), cfg.Import.SourceWarehouse.ID)
		assert.Equal(t, uint(38), cfg.Import.DestWarehouse.ID)
		assert.Equal(t, "Internal supplier", cfg.Import.DefaultSupplier)
		assert.Equal(t, uint(686), cfg.Import.DefaultSupplierID)
		assert.Equal(t, "skip", cfg.Import.ReconcilePolicy)
	})

	t.Run("loads values from environment variables", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARMASYNC_APP_NAME", "test-app")
		os.Setenv("PHARMASYNC_DATABASE_HOST", "testdb.local")
		os.Setenv("PHARMASYNC_IMPORT_BATCH_SIZE", "250")
		os.Setenv("PHARMASYNC_IMPORT_RECONCILE_POLICY", "update")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 250, cfg.Import.BatchSize)
		assert.Equal(t, "update", cfg.Import.ReconcilePolicy)
	})

	t.Run("rejects unknown reconcile policy", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARMASYNC_IMPORT_RECONCILE_POLICY", "merge")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile_policy")
	})

	t.Run("rejects out-of-range vat rate", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARMASYNC_IMPORT_VAT_RATE", "15")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vat_rate")
	})

	t.Run("production requires database password and ssl", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARMASYNC_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)

		os.Setenv("PHARMASYNC_DATABASE_PASSWORD", "secret")
		os.Setenv("PHARMASYNC_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss:word",
		DBName:   "pharmasync",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped.
	assert.NotContains(t, dsn, "p@ss:word")
}
