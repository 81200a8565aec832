package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 15*time.Minute, cfg.NotificationCooldown())
	assert.Equal(t, 5*time.Second, cfg.PushTimeout())
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFICATION_COOLDOWN_MINUTES", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.NotificationCooldown())
}

func TestValidateProductionRequirements(t *testing.T) {
	base := Config{
		Port:                        "5001",
		Env:                         "production",
		JWTSecret:                   "a-sufficiently-long-production-secret!!",
		DBPassword:                  "strong-password",
		NotificationCooldownMinutes: 15,
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base
		assert.NoError(t, cfg.Validate())
	})

	t.Run("default jwt secret rejected", func(t *testing.T) {
		cfg := base
		cfg.JWTSecret = "dev-secret-key-change-in-production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("short jwt secret rejected", func(t *testing.T) {
		cfg := base
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("weak db password rejected", func(t *testing.T) {
		cfg := base
		cfg.DBPassword = "password"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive cooldown rejected", func(t *testing.T) {
		cfg := base
		cfg.NotificationCooldownMinutes = 0
		assert.Error(t, cfg.Validate())
	})
}
