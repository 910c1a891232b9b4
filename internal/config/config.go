package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tokengate configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
	Manifests ManifestsConfig `mapstructure:"manifests"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines ledger database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RetentionConfig controls the background cleanup of old usage events.
type RetentionConfig struct {
	Days     int    `mapstructure:"days"`
	Interval string `mapstructure:"interval"`
}

// SweepInterval parses the configured interval.
func (r RetentionConfig) SweepInterval() (time.Duration, error) {
	d, err := time.ParseDuration(r.Interval)
	if err != nil {
		return 0, fmt.Errorf("parse retention interval %q: %w", r.Interval, err)
	}
	return d, nil
}

// ManifestsConfig locates agent manifest files.
type ManifestsConfig struct {
	Dir string `mapstructure:"dir"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".tokengate"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".tokengate", "ledger.db"))
	v.SetDefault("retention.days", 90)
	v.SetDefault("retention.interval", "24h")
	v.SetDefault("manifests.dir", "manifests/")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("alerts.slack.channel", "#agent-budgets")

	// Environment variables
	v.SetEnvPrefix("TOKENGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Retention.Days < 0 {
		return nil, fmt.Errorf("retention.days must be non-negative, got %d", cfg.Retention.Days)
	}

	return &cfg, nil
}
