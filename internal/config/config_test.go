package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "API_PREFIX", "FRONTEND_ORIGIN", "API_URL", "PORT",
	"DB_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_NAME",
	"REPORT_INTERVAL_HOURS", "REPORT_AT", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.Development())
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:3002", cfg.FrontendOrigin)
	assert.Equal(t, "http://localhost:3000", cfg.APIURL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.ReportInterval)
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.BotEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("API_PREFIX", "/v1/")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_NAME", "tasks")
	t.Setenv("REPORT_INTERVAL_HOURS", "0")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.False(t, cfg.Development())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Zero(t, cfg.ReportInterval)
	assert.Equal(t, int64(-100200), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramEnabled())
	assert.True(t, cfg.BotEnabled())
}

func TestRootPrefixAndBotWithoutChat(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_PREFIX", "/")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.APIPrefix)
	assert.True(t, cfg.BotEnabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadDotenvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=4000\nFRONTEND_ORIGIN=http://example.test\n"), 0o644))
	t.Setenv("PORT", "5000")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "http://example.test", cfg.FrontendOrigin)
	os.Unsetenv("FRONTEND_ORIGIN")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"PORT": "http"}, `PORT must be between 1 and 65535, got "http"`},
		{"port range", map[string]string{"PORT": "70000"}, `PORT must be between 1 and 65535, got "70000"`},
		{"interval", map[string]string{"REPORT_INTERVAL_HOURS": "-2"}, `REPORT_INTERVAL_HOURS must be a non-negative number, got "-2"`},
		{"driver", map[string]string{"DB_DRIVER": "oracle"}, `DB_DRIVER "oracle" is not supported`},
		{"mysql name", map[string]string{"DB_DRIVER": "mysql"}, "DB_NAME or DATABASE_URL is required for mysql"},
		{"token", map[string]string{"TELEGRAM_CHAT_ID": "42"}, "TELEGRAM_TOKEN is required when TELEGRAM_CHAT_ID is set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile("")
			assert.EqualError(t, err, tt.want)
		})
	}
}
