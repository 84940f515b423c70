package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 60, cfg.Telegram.PollTimeout)
	assert.Equal(t, "yt-dlp", cfg.Download.YtDlpPath)
	assert.Equal(t, "best", cfg.Download.Format)
	assert.Equal(t, 5, cfg.Thumbnails.Count)
	assert.Equal(t, 2.0, cfg.Thumbnails.MinDuration)
	assert.Equal(t, 5*time.Second, cfg.Thumbnails.ProbeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Thumbnails.FrameTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Cookies.Retention)
	assert.Equal(t, "instagram.com", cfg.Cookies.Domain)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.False(t, cfg.UseWebhook())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/hook")
	t.Setenv("PORT", "8443")
	t.Setenv("IGREELBOT_WORK_DIR", "/srv/work")
	t.Setenv("IGREELBOT_COOKIES_DIR", "/srv/cookies")
	t.Setenv("IGREELBOT_DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("IGREELBOT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "https://bot.example.com/hook", cfg.Telegram.WebhookURL)
	assert.Equal(t, 8443, cfg.Telegram.Port)
	assert.Equal(t, "/srv/work", cfg.Download.WorkDir)
	assert.Equal(t, "/srv/cookies", cfg.Cookies.Dir)
	assert.Equal(t, 90*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.UseWebhook())
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("IGREELBOT_DOWNLOAD_TIMEOUT", "forever")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "IGREELBOT_DOWNLOAD_TIMEOUT")
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
telegram:
  token: file-token
  port: 9000
download:
  work_dir: /file/work
  timeout: 2m
thumbnails:
  count: 3
cookies:
  retention: 12h
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "file-token", cfg.Telegram.Token)
		assert.Equal(t, 9000, cfg.Telegram.Port)
		assert.Equal(t, "/file/work", cfg.Download.WorkDir)
		assert.Equal(t, 2*time.Minute, cfg.Download.Timeout)
		assert.Equal(t, 3, cfg.Thumbnails.Count)
		assert.Equal(t, 12*time.Hour, cfg.Cookies.Retention)
		assert.Equal(t, "warn", cfg.Logging.Level)

		// untouched sections keep defaults
		assert.Equal(t, "ffmpeg", cfg.Thumbnails.FFmpegPath)
		assert.False(t, cfg.UseWebhook())
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("telegram: [unclosed"), 0644))

		cfg := DefaultConfig()
		assert.Error(t, cfg.LoadFromFile(configPath))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(c *Config) {},
		},
		{
			name:    "missing token",
			modify:  func(c *Config) { c.Telegram.Token = "" },
			wantErr: "bot token is required",
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.Telegram.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "relative webhook url",
			modify:  func(c *Config) { c.Telegram.WebhookURL = "/hook" },
			wantErr: "invalid webhook url",
		},
		{
			name:   "thumbnail count at cap",
			modify: func(c *Config) { c.Thumbnails.Count = 5 },
		},
		{
			name:    "thumbnail count above cap",
			modify:  func(c *Config) { c.Thumbnails.Count = 6 },
			wantErr: "thumbnail count must be between 0 and 5",
		},
		{
			name:    "zero retention",
			modify:  func(c *Config) { c.Cookies.Retention = 0 },
			wantErr: "cookie retention",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Telegram.Token = "123:abc"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUseWebhook(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Telegram.Port = 8080
	assert.False(t, cfg.UseWebhook(), "port alone selects polling")

	cfg.Telegram.Port = 0
	cfg.Telegram.WebhookURL = "https://example.com/hook"
	assert.False(t, cfg.UseWebhook(), "url alone selects polling")

	cfg.Telegram.Port = 8080
	assert.True(t, cfg.UseWebhook())
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"token":       "flag-token",
		"port":        7000,
		"webhook-url": "https://flag.example.com",
		"work-dir":    "/flag/work",
		"cookies-dir": "/flag/cookies",
		"log-level":   "error",
		"unknown":     true,
	})

	assert.Equal(t, "flag-token", cfg.Telegram.Token)
	assert.Equal(t, 7000, cfg.Telegram.Port)
	assert.Equal(t, "https://flag.example.com", cfg.Telegram.WebhookURL)
	assert.Equal(t, "/flag/work", cfg.Download.WorkDir)
	assert.Equal(t, "/flag/cookies", cfg.Cookies.Dir)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "env-token")

		cfg, err := Load("", map[string]interface{}{"token": "flag-token"})
		require.NoError(t, err)
		assert.Equal(t, "flag-token", cfg.Telegram.Token)
	})

	t.Run("refuses to start without token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")

		_, err := Load("", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bot token is required")
	})

	t.Run("falls back to keychain token", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		require.NoError(t, SaveToken("keychain-token"))
		defer DeleteToken()

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "keychain-token", cfg.Telegram.Token)
	})
}

func TestKeyringToken(t *testing.T) {
	keyring.MockInit()

	_, err := LoadToken()
	assert.ErrorIs(t, err, ErrTokenNotFound)

	assert.Error(t, SaveToken(""))
	require.NoError(t, SaveToken("123:abc"))

	token, err := LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", token)

	require.NoError(t, DeleteToken())
	assert.ErrorIs(t, DeleteToken(), ErrTokenNotFound)
}
