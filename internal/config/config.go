package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
)

const (
	minIntervalSeconds  = 1
	maxIntervalSeconds  = 3600
	minRenewalMinutes   = 1
	maxRenewalMinutes   = 1440
	minThresholdPercent = 0.0
	maxThresholdPercent = 100.0
	defaultAppName      = "battery-alert"
	defaultSummary      = "Low Battery"
	defaultIcon         = "battery"
	configDirName       = "battery-alert"
	configFileName      = "config.toml"
)

type Config struct {
	Monitor      MonitorConfig      `toml:"monitor" json:"monitor"`
	Thresholds   ThresholdsConfig   `toml:"thresholds" json:"thresholds"`
	Renewal      RenewalConfig      `toml:"renewal" json:"renewal"`
	Notification NotificationConfig `toml:"notification" json:"notification"`
	Status       StatusConfig       `toml:"status" json:"status"`
}

type MonitorConfig struct {
	IntervalSeconds int `toml:"interval_seconds" json:"interval_seconds"`
}

type ThresholdsConfig struct {
	CriticalPercent float64 `toml:"critical_percent" json:"critical_percent"`
	LowPercent      float64 `toml:"low_percent" json:"low_percent"`
}

type RenewalConfig struct {
	LowMinutes      int `toml:"low_minutes" json:"low_minutes"`
	CriticalMinutes int `toml:"critical_minutes" json:"critical_minutes"`
}

type NotificationConfig struct {
	AppName         string `toml:"app_name" json:"app_name"`
	Summary         string `toml:"summary" json:"summary"`
	Icon            string `toml:"icon" json:"icon"`
	ReplacePrevious bool   `toml:"replace_previous" json:"replace_previous"`
}

type StatusConfig struct {
	Export bool `toml:"export" json:"export"`
}

func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			IntervalSeconds: 10,
		},
		Thresholds: ThresholdsConfig{
			CriticalPercent: 10,
			LowPercent:      20,
		},
		Renewal: RenewalConfig{
			LowMinutes:      10,
			CriticalMinutes: 5,
		},
		Notification: NotificationConfig{
			AppName:         defaultAppName,
			Summary:         defaultSummary,
			Icon:            defaultIcon,
			ReplacePrevious: true,
		},
		Status: StatusConfig{
			Export: true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/battery-alert/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return NormalizeAndValidate(cfg)
}

// LoadOrDefault loads path, falling back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return NormalizeAndValidate(DefaultConfig())
	}
	return cfg, err
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg

	sanitized.Notification.AppName = withDefault(sanitized.Notification.AppName, defaultAppName)
	sanitized.Notification.Summary = withDefault(sanitized.Notification.Summary, defaultSummary)
	sanitized.Notification.Icon = withDefault(sanitized.Notification.Icon, defaultIcon)

	if err := validateRange("monitor.interval_seconds", sanitized.Monitor.IntervalSeconds, minIntervalSeconds, maxIntervalSeconds); err != nil {
		return nil, err
	}
	if err := validateRange("renewal.low_minutes", sanitized.Renewal.LowMinutes, minRenewalMinutes, maxRenewalMinutes); err != nil {
		return nil, err
	}
	if err := validateRange("renewal.critical_minutes", sanitized.Renewal.CriticalMinutes, minRenewalMinutes, maxRenewalMinutes); err != nil {
		return nil, err
	}
	if err := validatePercent("thresholds.critical_percent", sanitized.Thresholds.CriticalPercent); err != nil {
		return nil, err
	}
	if err := validatePercent("thresholds.low_percent", sanitized.Thresholds.LowPercent); err != nil {
		return nil, err
	}
	if sanitized.Thresholds.CriticalPercent >= sanitized.Thresholds.LowPercent {
		return nil, fmt.Errorf("thresholds.critical_percent (%g) must be below thresholds.low_percent (%g)",
			sanitized.Thresholds.CriticalPercent, sanitized.Thresholds.LowPercent)
	}

	return &sanitized, nil
}

// Interval is the pause between two monitor ticks.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}

// Policy builds the alert policy from the thresholds and renewal settings.
func (c *Config) Policy() alert.Policy {
	return alert.Policy{
		CriticalBelow:   c.Thresholds.CriticalPercent,
		LowBelow:        c.Thresholds.LowPercent,
		LowRenewal:      time.Duration(c.Renewal.LowMinutes) * time.Minute,
		CriticalRenewal: time.Duration(c.Renewal.CriticalMinutes) * time.Minute,
	}
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config TOML: %w", err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("config path must not be empty")
	}

	sanitized, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if err := Encode(&data, sanitized); err != nil {
		return err
	}

	dir := filepath.Dir(trimmedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data.Bytes()); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, trimmedPath); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	tmpPath = ""

	return nil
}

func withDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}

func validatePercent(name string, value float64) error {
	if math.IsNaN(value) || value <= minThresholdPercent || value > maxThresholdPercent {
		return fmt.Errorf("%s must be above %g and at most %g, got %g", name, minThresholdPercent, maxThresholdPercent, value)
	}
	return nil
}
