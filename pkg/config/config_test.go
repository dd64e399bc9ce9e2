package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Delivery.MaxMessageLength)
	assert.Equal(t, 100, cfg.Delivery.ReservedMargin)
	assert.Equal(t, 3996, cfg.Delivery.ChunkLength())
	assert.Equal(t, 8000, cfg.Health.Port)
	assert.True(t, cfg.Health.Enabled)
	assert.Equal(t, 20*time.Second, cfg.Analyzer.Timeout)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
telegram:
  token: from-file
  allow_from: ["1", "2"]
  poll_timeout: 10s
delivery:
  max_message_length: 2000
health:
  port: 9000
logging:
  level: debug
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("RESERVED_MARGIN", "50")
	t.Setenv("TELEGRAM_ALLOW_FROM", "7,8,9")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, []string{"7", "8", "9"}, cfg.Telegram.AllowFrom)
	assert.Equal(t, 10*time.Second, cfg.Telegram.PollTimeout)
	assert.Equal(t, 2000, cfg.Delivery.MaxMessageLength)
	assert.Equal(t, 50, cfg.Delivery.ReservedMargin)
	assert.Equal(t, 9000, cfg.Health.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format, "untouched keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadBadEnvironment(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Telegram.Token = "123:abc"
		return &cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, ErrMissingToken},
		{"zero length", func(c *Config) { c.Delivery.MaxMessageLength = 0 }, ErrInvalidMessageLength},
		{"margin too large", func(c *Config) { c.Delivery.ReservedMargin = 4096 }, ErrInvalidReservedMargin},
		{"negative margin", func(c *Config) { c.Delivery.ReservedMargin = -1 }, ErrInvalidReservedMargin},
		{"bad port", func(c *Config) { c.Health.Port = 0 }, ErrInvalidPort},
		{"bad timeout", func(c *Config) { c.Analyzer.Timeout = 0 }, ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	cfg := valid()
	cfg.Health.Enabled = false
	cfg.Health.Port = 0
	assert.NoError(t, cfg.Validate(), "port is ignored when health is off")
}
