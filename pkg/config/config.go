package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/foldermirror/pkg/models"
)

const (
	// DefaultSyncInterval is the pause between the end of one pass and the start of the next
	DefaultSyncInterval = 10 * time.Minute
	// DefaultLogFilePath is resolved against the working directory at startup
	DefaultLogFilePath = "SyncLogs/default.log"
)

// Config represents the application configuration
type Config struct {
	SourcePath   string            `yaml:"source_path" toml:"source_path"`
	TargetPath   string            `yaml:"target_path" toml:"target_path"`
	SyncInterval string            `yaml:"sync_interval" toml:"sync_interval"`
	LogFilePath  string            `yaml:"log_file_path" toml:"log_file_path"`
	StopOnError  bool              `yaml:"stop_on_error" toml:"stop_on_error"`
	Watch        bool              `yaml:"watch" toml:"watch"`
	Performance  PerformanceConfig `yaml:"performance" toml:"performance"`
	Output       OutputConfig      `yaml:"output" toml:"output"`
	Logging      LoggingConfig     `yaml:"logging" toml:"logging"`
	Exclude      []string          `yaml:"exclude" toml:"exclude"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize     int   `yaml:"buffer_size" toml:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit" toml:"bandwidth_limit"` // bytes/second, 0 = unlimited
}

// OutputConfig holds settings for single-pass commands
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format"`     // "human" or "json"
	Progress bool   `yaml:"progress" toml:"progress"` // Show progress bar
	Quiet    bool   `yaml:"quiet" toml:"quiet"`       // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format     string `yaml:"format" toml:"format"`           // "json" or "text"
	Level      string `yaml:"level" toml:"level"`             // "debug", "info", "warn", "error"
	MaxSize    int64  `yaml:"max_size" toml:"max_size"`       // bytes before rotation, 0 = never
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"` // rotated files kept
	Console    bool   `yaml:"console" toml:"console"`         // also write entries to stderr
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		SyncInterval: DefaultSyncInterval.String(),
		LogFilePath:  DefaultLogFilePath,
		Performance: PerformanceConfig{
			BufferSize:     65536,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 5,
			Console:    true,
		},
	}
}

// Interval returns the parsed sync interval
func (c *Config) Interval() (time.Duration, error) {
	if c.SyncInterval == "" {
		return DefaultSyncInterval, nil
	}
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return 0, &models.ValidationError{
			Field:   "sync_interval",
			Message: fmt.Sprintf("invalid duration %q", c.SyncInterval),
		}
	}
	return d, nil
}

// ResolvedLogFilePath returns the absolute log file path
func (c *Config) ResolvedLogFilePath() (string, error) {
	p := c.LogFilePath
	if p == "" {
		p = DefaultLogFilePath
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve log file path: %w", err)
	}
	return abs, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	interval, err := c.Interval()
	if err != nil {
		return err
	}
	if interval <= 0 {
		return &models.ValidationError{
			Field:   "sync_interval",
			Message: "must be positive",
		}
	}

	if c.Performance.BufferSize < 4096 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 4096 bytes",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size",
			Message: "rotation settings must not be negative",
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return &models.ValidationError{
				Field:   "exclude",
				Message: fmt.Sprintf("invalid pattern %q", pattern),
			}
		}
	}

	return nil
}

// RequirePaths checks the settings a pass cannot start without
func (c *Config) RequirePaths() error {
	if c.SourcePath == "" {
		return &models.ValidationError{Field: "source_path", Message: "is required"}
	}
	if c.TargetPath == "" {
		return &models.ValidationError{Field: "target_path", Message: "is required"}
	}
	return nil
}
