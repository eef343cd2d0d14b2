package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// time zone loading, list contents and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		criterio.Run("dnd.timezone", c.Dnd.Timezone, timezoneLoadable),
		c.validateTemplates(),
		c.validateSystemBundles(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Sweep.Interval > 0 && c.Sweep.Interval < time.Second {
		warnings = append(warnings, ValidationWarning{
			Category: "Sweep",
			Item:     "interval",
			Message:  fmt.Sprintf("interval %s is very short; expired notifications are also hidden from queries", c.Sweep.Interval),
		})
	}
	if !c.Dnd.Supported {
		warnings = append(warnings, ValidationWarning{
			Category: "Dnd",
			Item:     "supported",
			Message:  "do-not-disturb is disabled; set requests are rejected",
		})
	}
	if len(c.SystemBundles) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "SystemBundles",
			Message:  "no system bundles configured; only callers flagged as system can manage other bundles",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func timezoneLoadable(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown time zone %q", name)
	}
	return nil
}

func (c *Config) validateTemplates() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool, len(c.Templates))
	for i, name := range c.Templates {
		field := fmt.Sprintf("templates[%d]", i)
		if strings.TrimSpace(name) == "" {
			errs = errs.Append(field, fmt.Errorf("template name cannot be empty"))
			continue
		}
		if seen[name] {
			errs = errs.Append(field, fmt.Errorf("duplicate template %q", name))
		}
		seen[name] = true
	}
	return errs.ToError()
}

func (c *Config) validateSystemBundles() error {
	var errs criterio.FieldErrorsBuilder
	for i, bundle := range c.SystemBundles {
		if strings.TrimSpace(bundle) == "" {
			errs = errs.Append(fmt.Sprintf("system_bundles[%d]", i), fmt.Errorf("bundle name cannot be empty"))
		}
	}
	return errs.ToError()
}
