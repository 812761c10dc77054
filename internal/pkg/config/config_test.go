package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("BATTLE_DATABASE_URL", "")

	cfg, err := Load(map[string]interface{}{
		"database_url": "postgres://localhost/battle",
	})
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.TurnTimeout)
	require.Equal(t, time.Hour, cfg.StateTTL)
	require.Equal(t, "localhost", cfg.Redis.Host)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "postgres://localhost/battle", cfg.DatabaseURL)
}

func TestLoadEnvOverridesSettings(t *testing.T) {
	t.Setenv("BATTLE_DATABASE_URL", "postgres://env/battle")
	t.Setenv("BATTLE_TURN_TIMEOUT", "10s")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load(map[string]interface{}{"database_url": "postgres://file/battle"})
	require.NoError(t, err)
	require.Equal(t, "postgres://env/battle", cfg.DatabaseURL)
	require.Equal(t, 10*time.Second, cfg.TurnTimeout)
	require.Equal(t, 6380, cfg.Redis.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BATTLE_STATE_TTL", "5s")
	_, err := Load(nil)
	require.Error(t, err)
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("BATTLE_JWT_SECRET", "")
	_, err := Load(nil)
	require.Error(t, err)
}

func TestLogFieldsRedactsSecrets(t *testing.T) {
	cfg := &BattleConfig{JWTSecret: "s3cr3t", DatabaseURL: "postgres://user:pw@db/battle"}
	fields := cfg.LogFields()
	require.Equal(t, "***REDACTED***", fields["jwt_secret"])
	require.Equal(t, "***REDACTED***", fields["database_url"])
	require.Equal(t, "***REDACTED***", fields["redis_password"])
}
