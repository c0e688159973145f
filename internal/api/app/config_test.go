package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("FITTRACK_JWT_SECRET", "")
		t.Setenv("FITTRACK_DATABASE_FILE", "/tmp/fittrack.db")

		_, err := LoadConfig()
		require.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("MissingDatabaseFile", func(t *testing.T) {
		t.Setenv("FITTRACK_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("FITTRACK_DATABASE_FILE", "")

		_, err := LoadConfig()
		require.ErrorIs(t, err, ErrMissingDatabase)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("FITTRACK_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("FITTRACK_DATABASE_FILE", "/tmp/fittrack.db")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "fittrack", cfg.Issuer)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, time.Hour, cfg.ReconcileInterval)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
		require.Empty(t, cfg.RedisAddr)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("FITTRACK_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("FITTRACK_DATABASE_FILE", "/tmp/fittrack.db")
		t.Setenv("PORT", "9090")
		t.Setenv("FITTRACK_RECONCILE_INTERVAL", "15m")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 9090, cfg.Port)
		require.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	})
}
