package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_NAME", "contacts")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.SessionCacheTTL)
	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Equal(t, "mail.outbound", cfg.Mail.Queue)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoad_InvalidTransport(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIL_TRANSPORT", "pigeon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_SessionTTLClampedBelowAccessTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "3m")
	t.Setenv("SESSION_CACHE_TTL", "10m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.SessionCacheTTL)
	assert.Less(t, cfg.SessionCacheTTL, cfg.AccessTTL)
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.Capacity)
	assert.Equal(t, 2, cfg.RefillTokens)
	assert.Equal(t, 15*time.Second, cfg.RefillInterval)
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadRateLimitConfig_RefillEvery(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "3s")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 3*time.Second, cfg.RefillInterval)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb := NewRedisClient(RedisConfig{Addr: addr})
	require.NotNil(t, rdb)
	defer rdb.Close()

	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: addr}))
}

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
}

func TestLoadRateLimitConfig_DisabledAndClamped(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 75*time.Second, cfg.TTL)
}

func TestEnvBool(t *testing.T) {
	for v, want := range map[string]bool{"yes": true, "TRUE": true, "1": true, "No": false, "0": false} {
		t.Setenv("X_FLAG", v)
		assert.Equal(t, want, envBool("X_FLAG", !want), v)
	}
	t.Setenv("X_FLAG", "maybe")
	assert.True(t, envBool("X_FLAG", true))
}

func TestLoad_MailTLSModes(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mail.StartTLS)
	assert.False(t, cfg.Mail.SSLTLS)

	t.Setenv("MAIL_SSL_TLS", "true")
	t.Setenv("MAIL_STARTTLS", "false")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Mail.SSLTLS)
	assert.False(t, cfg.Mail.StartTLS)

	t.Setenv("MAIL_STARTTLS", "true")
	_, err = Load()
	assert.ErrorContains(t, err, "mutually exclusive")
}
