// Package config handles configuration loading and validation for ans.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/ans/internal/core/notification"
)

// Config holds the application configuration.
type Config struct {
	Database         DatabaseConfig      `yaml:"database"`
	Events           EventsConfig        `yaml:"events"`
	Sweep            SweepConfig         `yaml:"sweep"`
	Dnd              DndConfig           `yaml:"dnd"`
	Limits           LimitsConfig        `yaml:"limits"`
	Templates        []string            `yaml:"templates"`
	DeviceRemindType string              `yaml:"device_remind_type"`
	RequestEnable    RequestEnableConfig `yaml:"request_enable"`
	SystemBundles    []string            `yaml:"system_bundles"`
	DataDir          string              `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig holds SQLite connection pool settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// EventsConfig configures the in-process event bus.
type EventsConfig struct {
	// BufferSize is the initial capacity of the event queue.
	BufferSize int `yaml:"buffer_size"`
}

// SweepConfig configures the background reaper removing expired notifications.
type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DndConfig configures do-not-disturb evaluation.
type DndConfig struct {
	Supported bool   `yaml:"supported"`
	Timezone  string `yaml:"timezone"` // IANA name or "Local"
}

// LimitsConfig caps the number of active notifications.
type LimitsConfig struct {
	MaxActivePerBundle int `yaml:"max_active_per_bundle"`
	MaxActiveTotal     int `yaml:"max_active_total"`
}

// RequestEnableConfig controls how RequestEnableNotification is answered.
type RequestEnableConfig struct {
	AutoGrant bool `yaml:"auto_grant"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Events: EventsConfig{BufferSize: 256},
		Sweep:  SweepConfig{Interval: time.Minute},
		Dnd: DndConfig{
			Supported: true,
			Timezone:  "Local",
		},
		Limits: LimitsConfig{
			MaxActivePerBundle: 100,
			MaxActiveTotal:     1000,
		},
		Templates:        []string{"downloadTemplate"},
		DeviceRemindType: notification.RemindActive.String(),
		SystemBundles:    []string{"com.ohos.systemui"},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = defaults.Events.BufferSize
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = defaults.Sweep.Interval
	}
	if c.Dnd.Timezone == "" {
		c.Dnd.Timezone = defaults.Dnd.Timezone
	}
	if c.Limits.MaxActivePerBundle == 0 {
		c.Limits.MaxActivePerBundle = defaults.Limits.MaxActivePerBundle
	}
	if c.Limits.MaxActiveTotal == 0 {
		c.Limits.MaxActiveTotal = defaults.Limits.MaxActiveTotal
	}
	if c.DeviceRemindType == "" {
		c.DeviceRemindType = defaults.DeviceRemindType
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if c.Events.BufferSize < 1 {
		return fmt.Errorf("events.buffer_size must be at least 1")
	}

	if c.Sweep.Interval < 0 {
		return fmt.Errorf("sweep.interval cannot be negative")
	}

	if c.Limits.MaxActivePerBundle < 1 {
		return fmt.Errorf("limits.max_active_per_bundle must be at least 1")
	}
	if c.Limits.MaxActiveTotal < c.Limits.MaxActivePerBundle {
		return fmt.Errorf("limits.max_active_total must be at least limits.max_active_per_bundle")
	}

	if _, err := notification.ParseRemindType(c.DeviceRemindType); err != nil {
		return fmt.Errorf("device_remind_type %q is not a known remind type", c.DeviceRemindType)
	}

	return nil
}

// Location returns the time zone DND windows are evaluated in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Dnd.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load dnd timezone %q: %w", c.Dnd.Timezone, err)
	}
	return loc, nil
}

// RemindType returns the configured device remind type.
func (c *Config) RemindType() notification.RemindType {
	rt, err := notification.ParseRemindType(c.DeviceRemindType)
	if err != nil {
		return notification.RemindActive
	}
	return rt
}

// IsSystemBundle reports whether bundle is listed in system_bundles.
func (c *Config) IsSystemBundle(bundle string) bool {
	for _, b := range c.SystemBundles {
		if b == bundle {
			return true
		}
	}
	return false
}

// SupportsTemplate reports whether name is a configured notification template.
func (c *Config) SupportsTemplate(name string) bool {
	for _, t := range c.Templates {
		if t == name {
			return true
		}
	}
	return false
}
