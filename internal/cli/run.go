package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/foldermirror/pkg/sync"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mirror source onto target on a fixed interval",
		Long: `Run the mirror worker. A pass makes the target an exact copy of the source:
new files and directories are copied, changed files are overwritten and
entries that no longer exist in the source are deleted. Passes repeat on
sync_interval until SIGINT or SIGTERM; a pass in progress always finishes.`,
		RunE: runRun,
	}

	addPathFlags(cmd)
	addTransferFlags(cmd)
	cmd.Flags().StringVarP(&passFlags.Interval, "interval", "i", "", "time between passes, e.g. 10m (overrides sync_interval)")
	cmd.Flags().BoolVar(&passFlags.StopOnError, "stop-on-error", false, "exit after the first failed pass")
	cmd.Flags().BoolVarP(&passFlags.Watch, "watch", "w", false, "start a pass early when the source changes")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
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
	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	var console io.Writer
	if cfg.Logging.Console {
		console = cmd.ErrOrStderr()
	}
	logger, logPath, err := createLogger(cfg, console)
	if err != nil {
		return err
	}
	defer logger.Close()

	reconciler, err := newReconciler(cfg, logger, false)
	if err != nil {
		return err
	}

	workerConfig := sync.WorkerConfig{
		Source:      source,
		Target:      target,
		Interval:    interval,
		StopOnError: cfg.StopOnError,
		LogFilePath: logPath,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watch {
		watcher, err := sync.NewSourceWatcher(source, cfg.Exclude, sync.DefaultDebounce, logger)
		if err != nil {
			return err
		}
		workerConfig.Trigger = watcher.Trigger()
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	worker := sync.NewWorker(reconciler, logger, workerConfig)
	g.Go(func() error {
		err := worker.Run(gctx)
		// Stop the watcher once the worker is done
		stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	return nil
}
