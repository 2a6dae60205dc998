package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "marketplace")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "marketplace.notifications", cfg.NotifyQueue)
	assert.Equal(t, 1024, cfg.NotifyBuffer)
	assert.Equal(t, 10, cfg.MinJustification)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"APP_ENV", "DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoadRejectsNonPositiveBuffer(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_BUFFER", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "NOTIFY_BUFFER")
}

func TestRabbitURLFallback(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://x@broker:5672/")
	assert.Equal(t, "amqp://x@broker:5672/", rabbitURL())
	t.Setenv("RABBITMQ_URL", "amqp://y@other:5672/")
	assert.Equal(t, "amqp://y@other:5672/", rabbitURL())
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_ONLY=from-file\nDOTENV_SET=from-file\n"), 0o600))
	t.Setenv("DOTENV_SET", "from-env")
	t.Setenv("DOTENV_ONLY", "")
	require.NoError(t, os.Unsetenv("DOTENV_ONLY"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DOTENV_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_SET"))
	require.NoError(t, os.Unsetenv("DOTENV_ONLY"))
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG", "off")
	assert.False(t, envBool("FLAG", true))
	t.Setenv("FLAG", "maybe")
	assert.True(t, envBool("FLAG", true))
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
