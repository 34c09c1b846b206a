package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the REST API.
type ServerConfig struct {
	// BaseURL is the API root every endpoint is appended to.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationConfig controls the notification feed synchronizer.
type NotificationConfig struct {
	// PollIntervalSec is how often the feed is refreshed in the background.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Limit is the page size requested from the feed endpoint.
	Limit int `mapstructure:"limit" yaml:"limit"`
}

// AlertConfig controls the transient alert surface.
type AlertConfig struct {
	MaxVisible int `mapstructure:"max_visible" yaml:"max_visible"`
	DurationMS int `mapstructure:"duration_ms" yaml:"duration_ms"`
}

// CacheConfig locates the local snapshot cache.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server        ServerConfig       `mapstructure:"server" yaml:"server"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Alerts        AlertConfig        `mapstructure:"alerts" yaml:"alerts"`
	Cache         CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
}

// Defaults mirrored by LoadConfig and defaultAppConfig.
const (
	DefaultBaseURL         = "http://localhost:5000/api"
	DefaultTimeoutSec      = 30
	DefaultPollIntervalSec = 30
	DefaultNotificationCap = 10
	DefaultMaxAlerts       = 5
	DefaultAlertDurationMS = 5000
)

// envPrefix namespaces environment overrides, e.g. WORKHUB_SERVER_BASE_URL.
const envPrefix = "WORKHUB"

// DefaultConfigDir returns ~/.config/workhub.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "workhub")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/workhub/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: DefaultTimeoutSec,
		},
		Notifications: NotificationConfig{
			PollIntervalSec: DefaultPollIntervalSec,
			Limit:           DefaultNotificationCap,
		},
		Alerts: AlertConfig{
			MaxVisible: DefaultMaxAlerts,
			DurationMS: DefaultAlertDurationMS,
		},
		Cache: CacheConfig{
			Path: filepath.Join(DefaultConfigDir(), "cache.db"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first, and WORKHUB_*
// environment variables override file values. If the file does not exist,
// defaults (plus environment overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	defaults := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", defaults.Server.BaseURL)
	v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	v.SetDefault("notifications.poll_interval_sec", defaults.Notifications.PollIntervalSec)
	v.SetDefault("notifications.limit", defaults.Notifications.Limit)
	v.SetDefault("alerts.max_visible", defaults.Alerts.MaxVisible)
	v.SetDefault("alerts.duration_ms", defaults.Alerts.DurationMS)
	v.SetDefault("cache.path", defaults.Cache.Path)
	v.SetDefault("display.theme", defaults.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces non-positive numeric settings with their defaults.
func (c *AppConfig) normalize() {
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = DefaultBaseURL
	}
	if c.Server.TimeoutSec <= 0 {
		c.Server.TimeoutSec = DefaultTimeoutSec
	}
	if c.Notifications.PollIntervalSec <= 0 {
		c.Notifications.PollIntervalSec = DefaultPollIntervalSec
	}
	if c.Notifications.Limit <= 0 {
		c.Notifications.Limit = DefaultNotificationCap
	}
	if c.Alerts.MaxVisible <= 0 {
		c.Alerts.MaxVisible = DefaultMaxAlerts
	}
	if c.Alerts.DurationMS <= 0 {
		c.Alerts.DurationMS = DefaultAlertDurationMS
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("notifications", cfg.Notifications)
	v.Set("alerts", cfg.Alerts)
	v.Set("cache", cfg.Cache)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
