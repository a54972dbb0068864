// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// DefaultHTTPTimeout bounds a single http(s) module fetch.
	DefaultHTTPTimeout = 30 * time.Second
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	logLevels = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
)

type (
	// LogLevel is the minimum level of log records written to stderr.
	LogLevel string

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// BaseURL overrides the loader's base URL; relative values resolve
		// against the working directory.
		BaseURL string `json:"base_url" mapstructure:"base_url"`
		// ImportMaps lists import-map documents applied at bootstrap.
		ImportMaps []string `json:"import_maps" mapstructure:"import_maps"`
		// Preload lists module ids imported before the requested one.
		Preload   []string        `json:"preload" mapstructure:"preload"`
		Bootstrap BootstrapConfig `json:"bootstrap" mapstructure:"bootstrap"`
		HTTP      HTTPConfig      `json:"http" mapstructure:"http"`
		Shell     ShellConfig     `json:"shell" mapstructure:"shell"`
	}

	// BootstrapConfig selects where bootstrap configuration is discovered.
	BootstrapConfig struct {
		// ScanDir is searched for system.config.{cue,json,yaml}.
		ScanDir string `json:"scan_dir" mapstructure:"scan_dir"`
		// HTML is a page carrying import-map and module script elements.
		HTML string `json:"html" mapstructure:"html"`
	}

	HTTPConfig struct {
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// ShellConfig configures the shell module interpreter.
	ShellConfig struct {
		// AllowExec lets modules run host programs.
		AllowExec bool `json:"allow_exec" mapstructure:"allow_exec"`
		// InheritEnv passes the sysmod process environment to modules.
		InheritEnv bool `json:"inherit_env" mapstructure:"inherit_env"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   LogLevelWarn,
		ImportMaps: []string{},
		Preload:    []string{},
		Bootstrap:  BootstrapConfig{ScanDir: "."},
		HTTP:       HTTPConfig{Timeout: DefaultHTTPTimeout},
		Shell:      ShellConfig{InheritEnv: true},
	}
}

func (l LogLevel) String() string { return string(l) }

// IsValid reports whether l is one of the known levels.
func (l LogLevel) IsValid() (bool, []error) {
	if slices.Contains(logLevels, l) {
		return true, nil
	}
	return false, []error{&InvalidLogLevelError{Value: l}}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks what the schema cannot see, such as values coming from
// environment overrides.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
