package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "local", cfg.Storage.Provider)
		assert.Equal(t, 20, cfg.Catalog.PageSize)
		assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
		assert.True(t, cfg.Log.Error)
		assert.False(t, cfg.Log.Debug)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("CATALOG_PAGE_SIZE", "50")
		t.Setenv("LOG_INFO", "false")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("REDIS_PORT", "6380")
		t.Setenv("LOGIN_WINDOW", "2m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 50, cfg.Catalog.PageSize)
		assert.False(t, cfg.Log.Info)
		assert.Equal(t, "cache:6380", cfg.Redis.Addr)
		assert.Equal(t, 2*time.Minute, cfg.Auth.LoginWindow)
	})

	t.Run("invalid page size falls back", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("CATALOG_PAGE_SIZE", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Catalog.PageSize)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "mysql")

		_, err := Load()
		assert.Error(t, err)
	})
}
