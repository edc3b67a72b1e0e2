package config_test

import (
	"os"
	"testing"
	"time"

	"repairdesk/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "HTTP_ADDR", "DB_HOST", "REDIS_ADDR", "JWT_ISSUER", "CHAT_RATE_LIMIT", "CHAT_RATE_WINDOW", "TELEGRAM_BOT_TOKEN")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 20, cfg.Chat.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Chat.RateWindow)
	assert.Empty(t, cfg.TelegramBotToken)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ISSUER", "identity")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CHAT_RATE_LIMIT", "5")
	t.Setenv("CHAT_RATE_WINDOW", "1m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "identity", cfg.Auth.JWTIssuer)
	assert.Contains(t, cfg.DB.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DB.DSN(), "dbname=shop")
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5, cfg.Chat.RateLimit)
	assert.Equal(t, time.Minute, cfg.Chat.RateWindow)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"negative limit", map[string]string{"CHAT_RATE_LIMIT": "-1"}},
		{"window too short", map[string]string{"CHAT_RATE_LIMIT": "3", "CHAT_RATE_WINDOW": "500ms"}},
		{"not a number", map[string]string{"CHAT_RATE_LIMIT": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, "CHAT_RATE_LIMIT", "CHAT_RATE_WINDOW")
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	unsetenv(t, "JWT_SECRET")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_ZeroLimitSkipsWindowCheck(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CHAT_RATE_LIMIT", "0")
	t.Setenv("CHAT_RATE_WINDOW", "0s")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Chat.RateLimit)
}

func TestLoadStores(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	unsetenv(t, "JWT_SECRET")

	db, rdb, err := config.LoadStores()
	require.NoError(t, err)
	assert.Equal(t, "6543", db.Port)
	assert.Equal(t, "localhost:6379", rdb.Addr)
	assert.Equal(t, 2, rdb.DB)
}
