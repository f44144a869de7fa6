package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AllowAllOrigins())
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, https://b.example ,")
	t.Setenv("REDIS_ADDR", "localhost:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AllowAllOrigins())
	assert.Equal(t, "localhost:6380", cfg.RedisAddr)
}

func TestFromViper_Sanitize(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("session_ttl", "0s")
	v.Set("send_buffer", -1)
	v.Set("mode", "production")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, "release", cfg.Mode)

	v.Set("port", 70000)
	_, err = FromViper(v)
	assert.Error(t, err)
}
