package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/models"
)

// WorkerConfig holds the settings of the hosted pass loop
type WorkerConfig struct {
	Source      string
	Target      string
	Interval    time.Duration
	StopOnError bool
	// LogFilePath is only reported in the startup banner
	LogFilePath string
	// Trigger cuts the wait before the next pass short when it receives
	Trigger <-chan struct{}
}

// Worker runs passes on a fixed interval, measured from the end of the
// previous pass. Passes never overlap.
type Worker struct {
	reconciler *Reconciler
	logger     logging.Logger
	config     WorkerConfig
	onPass     func(*models.PassReport)
}

// NewWorker creates a worker driving reconciler
func NewWorker(reconciler *Reconciler, logger logging.Logger, config WorkerConfig) *Worker {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Worker{
		reconciler: reconciler,
		logger:     logger,
		config:     config,
	}
}

// OnPass registers a callback receiving every pass report
func (w *Worker) OnPass(fn func(*models.PassReport)) {
	w.onPass = fn
}

// Run executes passes until ctx is cancelled. A pass in flight always runs to
// completion; cancellation only interrupts the wait between passes.
// A failed pass is logged and the next one is scheduled as usual, unless
// StopOnError is set, in which case the failure is returned.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "worker started", logging.Fields{
		"source":        w.config.Source,
		"target":        w.config.Target,
		"interval":      w.config.Interval.String(),
		"log_file":      w.config.LogFilePath,
		"stop_on_error": w.config.StopOnError,
	})
	if !w.config.StopOnError {
		w.logger.Info(ctx, "failed passes are logged and retried at the next interval", nil)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "worker stopped", nil)
			return nil
		case <-timer.C:
		case <-w.config.Trigger:
			w.logger.Debug(ctx, "pass triggered by source change", nil)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		if ctx.Err() != nil {
			w.logger.Info(ctx, "worker stopped", nil)
			return nil
		}

		if err := w.runPass(ctx); err != nil && w.config.StopOnError {
			return err
		}
		timer.Reset(w.config.Interval)
	}
}

func (w *Worker) runPass(ctx context.Context) error {
	report, err := w.reconciler.Run(context.WithoutCancel(ctx), w.config.Source, w.config.Target)
	if report != nil && w.onPass != nil {
		w.onPass(report)
	}

	if err != nil {
		fields := logging.Fields{}
		if report != nil {
			fields["pass_id"] = report.PassID
		}
		w.logger.Error(ctx, "pass failed", err, fields)
		return fmt.Errorf("sync pass failed: %w", err)
	}

	w.logger.Info(ctx, "sync completed", logging.Fields{
		"pass_id":   report.PassID,
		"mutations": report.Stats.Mutations(),
		"unchanged": report.Stats.FilesUnchanged,
		"duration":  report.Duration.String(),
	})
	return nil
}
