package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/foldermirror/pkg/config"
	"github.com/sdejongh/foldermirror/pkg/models"
	"github.com/sdejongh/foldermirror/pkg/output"
)

// NewOnceCommand creates the once command
func NewOnceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single mirror pass",
		Long: `Run one pass that makes the target an exact copy of the source, print a
summary and exit. The exit code is 0 on success, 2 on failure and 3 when
interrupted.`,
		RunE: runOnce,
	}

	addPathFlags(cmd)
	addTransferFlags(cmd)
	addOutputFlags(cmd)

	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	return runSinglePass(cmd, false)
}

// runSinglePass runs one pass with formatted output; dryRun plans without mutating
func runSinglePass(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagsToConfig(cfg); err != nil {
		return err
	}

	source, target, err := validateRoots(cfg)
	if err != nil {
		return err
	}

	logger, _, err := createLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer logger.Close()

	reconciler, err := newReconciler(cfg, logger, dryRun)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if cfg.Output.Quiet {
		out = io.Discard
	}
	formatter := output.New(cfg.Output.Format, cfg.Output.Progress && !dryRun, out)
	if err := formatter.Start(out, source, target); err != nil {
		return err
	}
	reconciler.SetProgress(formatter)

	report, err := reconciler.Run(ctx, source, target)
	if err != nil {
		formatter.Error(err)
	}
	if report == nil {
		return err
	}

	if dryRun && cfg.Output.Format != "json" {
		if err := output.WritePlanHuman(report, out); err != nil {
			return err
		}
	}
	if err := formatter.Complete(report); err != nil {
		return err
	}

	if err := writeDiffReport(cfg, report); err != nil {
		return err
	}

	if report.Status != models.StatusSuccess {
		return &ExitError{Code: report.Status.ExitCode(), Err: err}
	}
	return nil
}

// writeDiffReport writes the planned or performed actions when --diff-report is set
func writeDiffReport(cfg *config.Config, report *models.PassReport) error {
	if passFlags.DiffReport == "" {
		return nil
	}
	format := passFlags.DiffFormat
	if format == "" {
		format = cfg.Output.Format
	}
	if err := output.WritePlanReport(report, passFlags.DiffReport, format); err != nil {
		return fmt.Errorf("failed to write differences report: %w", err)
	}
	return nil
}
