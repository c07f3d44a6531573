// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "BUREAU_TRACER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for shared test machines.
	Staging Environment = "staging"
	// Production is for machines recording real work.
	Production Environment = "production"
)

// Config is the master configuration for the tracer.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Capture configures the terminal proxy.
	Capture CaptureConfig `yaml:"capture"`

	// Privacy configures redaction.
	Privacy PrivacyConfig `yaml:"privacy"`

	// Storage configures where finished interactions go.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures the command-line logger.
	Logging LoggingConfig `yaml:"logging"`

	// Per-environment overrides, applied after the base config is
	// loaded when Environment matches.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
// Booleans are pointers so that an override block can leave them alone.
type ConfigOverrides struct {
	Paths   *PathsConfig      `yaml:"paths,omitempty"`
	Capture *CaptureOverrides `yaml:"capture,omitempty"`
	Privacy *PrivacyConfig    `yaml:"privacy,omitempty"`
	Storage *StorageOverrides `yaml:"storage,omitempty"`
	Logging *LoggingConfig    `yaml:"logging,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for tracer data.
	Root string `yaml:"root"`

	// Sessions holds one artifact per session plus debug logs.
	Sessions string `yaml:"sessions"`
}

// CaptureConfig configures the terminal proxy.
type CaptureConfig struct {
	// Command is the program to monitor.
	// Default: claude
	Command string `yaml:"command"`

	// PollInterval bounds each readiness wait, and so how quickly the
	// proxy notices that the child exited.
	// Default: 100ms
	PollInterval string `yaml:"poll_interval"`

	// TeardownTimeout is how long teardown waits for the child to exit
	// after SIGHUP before killing it.
	// Default: 2s
	TeardownTimeout string `yaml:"teardown_timeout"`

	// MaxDuration ends a capture that runs longer than this. Empty or
	// zero means no limit.
	MaxDuration string `yaml:"max_duration"`

	// PromptMarker is the idle-prompt marker that ends a turn.
	// Default: ">"
	PromptMarker string `yaml:"prompt_marker"`

	// Debug writes a JSON debug log and a raw transcript next to each
	// session artifact.
	Debug bool `yaml:"debug"`
}

// CaptureOverrides is [CaptureConfig] with an optional Debug.
type CaptureOverrides struct {
	Command         string `yaml:"command"`
	PollInterval    string `yaml:"poll_interval"`
	TeardownTimeout string `yaml:"teardown_timeout"`
	MaxDuration     string `yaml:"max_duration"`
	PromptMarker    string `yaml:"prompt_marker"`
	Debug           *bool  `yaml:"debug,omitempty"`
}

// PrivacyConfig configures redaction.
type PrivacyConfig struct {
	// Mode selects which sensitivity levels are masked:
	// minimal, moderate, or strict.
	// Default: strict
	Mode string `yaml:"mode"`

	// PatternsFile is an optional YAML or JSONC file of extra patterns.
	PatternsFile string `yaml:"patterns_file"`

	// DisabledPatterns names built-in patterns to switch off.
	DisabledPatterns []string `yaml:"disabled_patterns"`

	// Allowlist holds literal values that are never masked.
	Allowlist []string `yaml:"allowlist"`
}

// StorageConfig configures persistence of finished interactions.
type StorageConfig struct {
	// Index also records masked interactions in a SQLite index for
	// search and statistics.
	// Default: true
	Index bool `yaml:"index"`

	// IndexPath is the index database file.
	// Default: <root>/index.db
	IndexPath string `yaml:"index_path"`

	// Archive compresses finished artifacts: none, zstd, or lz4.
	// Default: none
	Archive string `yaml:"archive"`

	// SealRecipients are age public keys. When set, raw user and
	// assistant text is encrypted to them before it is written.
	SealRecipients []string `yaml:"seal_recipients"`

	// KeepRaw writes the unmasked text alongside the masked text.
	// Default: true (development), false (production)
	KeepRaw bool `yaml:"keep_raw"`
}

// StorageOverrides is [StorageConfig] with optional booleans.
type StorageOverrides struct {
	Index          *bool    `yaml:"index,omitempty"`
	IndexPath      string   `yaml:"index_path"`
	Archive        string   `yaml:"archive"`
	SealRecipients []string `yaml:"seal_recipients"`
	KeepRaw        *bool    `yaml:"keep_raw,omitempty"`
}

// LoggingConfig configures the command-line logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// Timing is the parsed form of the capture durations.
type Timing struct {
	PollInterval    time.Duration
	TeardownTimeout time.Duration

	// MaxDuration is zero when captures are unbounded.
	MaxDuration time.Duration
}

// Default returns the configuration used when no file is given, and the
// base that a config file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "bureau-tracer")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			Sessions: filepath.Join(defaultRoot, "sessions"),
		},
		Capture: CaptureConfig{
			Command:         "claude",
			PollInterval:    "100ms",
			TeardownTimeout: "2s",
			PromptMarker:    ">",
		},
		Privacy: PrivacyConfig{
			Mode: "strict",
		},
		Storage: StorageConfig{
			Index:     true,
			IndexPath: filepath.Join(defaultRoot, "index.db"),
			Archive:   "none",
			KeepRaw:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by BUREAU_TRACER_CONFIG.
// When the variable is unset the defaults are used, with environment
// overrides and variable expansion applied as for a file.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.applyEnvironmentOverrides()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. A named file
// that does not exist is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: no raw text on disk, no debug transcripts.
		if overrides == nil {
			keepRaw, debug := false, false
			overrides = &ConfigOverrides{
				Capture: &CaptureOverrides{Debug: &debug},
				Storage: &StorageOverrides{KeepRaw: &keepRaw},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		setString(&c.Paths.Root, overrides.Paths.Root)
		setString(&c.Paths.Sessions, overrides.Paths.Sessions)
	}

	if overrides.Capture != nil {
		setString(&c.Capture.Command, overrides.Capture.Command)
		setString(&c.Capture.PollInterval, overrides.Capture.PollInterval)
		setString(&c.Capture.TeardownTimeout, overrides.Capture.TeardownTimeout)
		setString(&c.Capture.MaxDuration, overrides.Capture.MaxDuration)
		setString(&c.Capture.PromptMarker, overrides.Capture.PromptMarker)
		if overrides.Capture.Debug != nil {
			c.Capture.Debug = *overrides.Capture.Debug
		}
	}

	if overrides.Privacy != nil {
		setString(&c.Privacy.Mode, overrides.Privacy.Mode)
		setString(&c.Privacy.PatternsFile, overrides.Privacy.PatternsFile)
		if overrides.Privacy.DisabledPatterns != nil {
			c.Privacy.DisabledPatterns = overrides.Privacy.DisabledPatterns
		}
		if overrides.Privacy.Allowlist != nil {
			c.Privacy.Allowlist = overrides.Privacy.Allowlist
		}
	}

	if overrides.Storage != nil {
		if overrides.Storage.Index != nil {
			c.Storage.Index = *overrides.Storage.Index
		}
		setString(&c.Storage.IndexPath, overrides.Storage.IndexPath)
		setString(&c.Storage.Archive, overrides.Storage.Archive)
		if overrides.Storage.SealRecipients != nil {
			c.Storage.SealRecipients = overrides.Storage.SealRecipients
		}
		if overrides.Storage.KeepRaw != nil {
			c.Storage.KeepRaw = *overrides.Storage.KeepRaw
		}
	}

	if overrides.Logging != nil {
		setString(&c.Logging.Level, overrides.Logging.Level)
	}
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
// ${TRACER_ROOT} refers to the expanded Paths.Root.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"TRACER_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TRACER_ROOT"] = c.Paths.Root

	c.Paths.Sessions = expandVars(c.Paths.Sessions, vars)
	c.Privacy.PatternsFile = expandVars(c.Privacy.PatternsFile, vars)
	c.Storage.IndexPath = expandVars(c.Storage.IndexPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided vars
// take precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Timing parses the capture durations.
func (c CaptureConfig) Timing() (Timing, error) {
	var timing Timing
	var errs []error

	parse := func(field, value string, target *time.Duration, required bool) {
		if value == "" {
			if required {
				errs = append(errs, fmt.Errorf("capture.%s is required", field))
			}
			return
		}
		duration, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("capture.%s: %w", field, err))
			return
		}
		if duration < 0 || (required && duration == 0) {
			errs = append(errs, fmt.Errorf("capture.%s must be positive, got %s", field, value))
			return
		}
		*target = duration
	}
	parse("poll_interval", c.PollInterval, &timing.PollInterval, true)
	parse("teardown_timeout", c.TeardownTimeout, &timing.TeardownTimeout, true)
	parse("max_duration", c.MaxDuration, &timing.MaxDuration, false)

	if len(errs) > 0 {
		return Timing{}, errors.Join(errs...)
	}
	return timing, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Sessions == "" {
		errs = append(errs, fmt.Errorf("paths.sessions is required"))
	}

	if c.Capture.Command == "" {
		errs = append(errs, fmt.Errorf("capture.command is required"))
	}
	if c.Capture.PromptMarker == "" {
		errs = append(errs, fmt.Errorf("capture.prompt_marker is required"))
	}
	if _, err := c.Capture.Timing(); err != nil {
		errs = append(errs, err)
	}

	modes := []string{"minimal", "moderate", "strict"}
	if !contains(modes, c.Privacy.Mode) {
		errs = append(errs, fmt.Errorf("privacy.mode must be one of: %v", modes))
	}

	archives := []string{"", "none", "zstd", "lz4"}
	if !contains(archives, c.Storage.Archive) {
		errs = append(errs, fmt.Errorf("storage.archive must be one of: none, zstd, lz4"))
	}
	if c.Storage.Index && c.Storage.IndexPath == "" {
		errs = append(errs, fmt.Errorf("storage.index_path is required when storage.index is enabled"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the configured directories if they don't exist.
// Session data can hold raw prompts, so directories are owner-only.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Paths.Root, c.Paths.Sessions}
	if c.Storage.Index && c.Storage.IndexPath != "" {
		paths = append(paths, filepath.Dir(c.Storage.IndexPath))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
