// Package config loads bot settings from an optional YAML file and the
// process environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound is returned when an explicitly given file is missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	ErrMissingToken          = errors.New("telegram bot token is required (TELEGRAM_BOT_TOKEN)")
	ErrInvalidMessageLength  = errors.New("max message length must be positive")
	ErrInvalidReservedMargin = errors.New("reserved margin must be non-negative and smaller than max message length")
	ErrInvalidPort           = errors.New("health port must be between 1 and 65535")
	ErrInvalidTimeout        = errors.New("analyzer timeout must be positive")
)

type Config struct {
	Telegram   TelegramConfig `yaml:"telegram"`
	Delivery   DeliveryConfig `yaml:"delivery"`
	Health     HealthConfig   `yaml:"health"`
	Analyzer   AnalyzerConfig `yaml:"analyzer"`
	Logging    LoggingConfig  `yaml:"logging"`
	ChainsFile string         `yaml:"chains_file" env:"CHAINS_FILE"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	AllowFrom   []string      `yaml:"allow_from" env:"TELEGRAM_ALLOW_FROM" envSeparator:","`
	APIServer   string        `yaml:"api_server" env:"TELEGRAM_API_SERVER"`
	PollTimeout time.Duration `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT"`
}

// DeliveryConfig holds the transport's message size contract.
type DeliveryConfig struct {
	MaxMessageLength int `yaml:"max_message_length" env:"MAX_MESSAGE_LENGTH"`
	ReservedMargin   int `yaml:"reserved_margin" env:"RESERVED_MARGIN"`
}

type HealthConfig struct {
	Enabled bool `yaml:"enabled" env:"HEALTH_ENABLED"`
	Port    int  `yaml:"port" env:"PORT"`
}

type AnalyzerConfig struct {
	DexScreenerURL string        `yaml:"dexscreener_url" env:"DEXSCREENER_URL"`
	GoPlusURL      string        `yaml:"goplus_url" env:"GOPLUS_URL"`
	Timeout        time.Duration `yaml:"timeout" env:"ANALYZER_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the settings used when neither file nor environment
// override a value.
func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			PollTimeout: 30 * time.Second,
		},
		Delivery: DeliveryConfig{
			MaxMessageLength: 4096,
			ReservedMargin:   100,
		},
		Health: HealthConfig{
			Enabled: true,
			Port:    8000,
		},
		Analyzer: AnalyzerConfig{
			DexScreenerURL: "https://api.dexscreener.com",
			GoPlusURL:      "https://api.gopluslabs.io",
			Timeout:        20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to run the bot.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if err := c.Delivery.Validate(); err != nil {
		return err
	}
	if c.Health.Enabled && (c.Health.Port < 1 || c.Health.Port > 65535) {
		return ErrInvalidPort
	}
	if c.Analyzer.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func (d DeliveryConfig) Validate() error {
	if d.MaxMessageLength <= 0 {
		return ErrInvalidMessageLength
	}
	if d.ReservedMargin < 0 || d.ReservedMargin >= d.MaxMessageLength {
		return ErrInvalidReservedMargin
	}
	return nil
}

// ChunkLength is the per-chunk budget used when a payload must be split.
func (d DeliveryConfig) ChunkLength() int {
	return d.MaxMessageLength - d.ReservedMargin
}
