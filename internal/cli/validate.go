package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldermirror/internal/platform"
	"github.com/sdejongh/foldermirror/pkg/config"
	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/storage"
	"github.com/sdejongh/foldermirror/pkg/sync"
)

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) error {
	if passFlags.Source != "" {
		cfg.SourcePath = passFlags.Source
	}
	if passFlags.Target != "" {
		cfg.TargetPath = passFlags.Target
	}
	if passFlags.Interval != "" {
		cfg.SyncInterval = passFlags.Interval
	}
	if passFlags.LogFile != "" {
		cfg.LogFilePath = passFlags.LogFile
	}
	if passFlags.LogFormat != "" {
		cfg.Logging.Format = passFlags.LogFormat
	}
	if passFlags.LogLevel != "" {
		cfg.Logging.Level = passFlags.LogLevel
	}
	if len(passFlags.Exclude) > 0 {
		cfg.Exclude = passFlags.Exclude
	}
	if passFlags.StopOnError {
		cfg.StopOnError = true
	}
	if passFlags.Watch {
		cfg.Watch = true
	}
	if passFlags.Output != "" {
		cfg.Output.Format = passFlags.Output
	}

	// Bandwidth accepts human units such as "10MB" or "1GiB"
	if passFlags.Bandwidth != "" {
		limit, err := humanize.ParseBytes(passFlags.Bandwidth)
		if err != nil {
			return fmt.Errorf("invalid bandwidth limit %q: %w", passFlags.Bandwidth, err)
		}
		cfg.Performance.BandwidthLimit = int64(limit)
	}

	// Quiet disables progress and console logging
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
		cfg.Logging.Console = false
	}

	// Verbose enables debug logging
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg.Validate()
}

// validateRoots checks that both roots are configured, exist as directories,
// and can be mirrored onto each other. Failures are fatal before any pass.
func validateRoots(cfg *config.Config) (source, target string, err error) {
	if err := cfg.RequirePaths(); err != nil {
		return "", "", err
	}

	source, err = filepath.Abs(cfg.SourcePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve source path: %w", err)
	}
	target, err = filepath.Abs(cfg.TargetPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve target path: %w", err)
	}

	for _, root := range []struct{ name, path string }{{"source", source}, {"target", target}} {
		info, err := os.Stat(root.path)
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%s path does not exist: %s", root.name, root.path)
		} else if err != nil {
			return "", "", fmt.Errorf("failed to access %s path: %w", root.name, err)
		} else if !info.IsDir() {
			return "", "", fmt.Errorf("%s path is not a directory: %s", root.name, root.path)
		}
	}

	if err := platform.ValidateRoots(source, target); err != nil {
		return "", "", err
	}
	return source, target, nil
}

// createLogger creates the file logger, teeing to console when given
func createLogger(cfg *config.Config, console io.Writer) (logging.Logger, string, error) {
	path, err := cfg.ResolvedLogFilePath()
	if err != nil {
		return nil, "", err
	}

	// Parse log format
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	logger, err := logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       path,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    console,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, path, nil
}

// newReconciler builds a reconciler over the OS filesystem from configuration
func newReconciler(cfg *config.Config, logger logging.Logger, dryRun bool) (*sync.Reconciler, error) {
	return sync.NewReconciler(storage.NewLocal(), logger, sync.Options{
		DryRun:         dryRun,
		Exclude:        cfg.Exclude,
		BandwidthLimit: cfg.Performance.BandwidthLimit,
		BufferSize:     cfg.Performance.BufferSize,
	})
}
