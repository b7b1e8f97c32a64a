package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// Recorder accumulates the report of one pass
type Recorder struct {
	report *models.PassReport
}

// NewRecorder starts a report with a fresh pass ID
func NewRecorder(source, target string, dryRun bool) *Recorder {
	return &Recorder{
		report: &models.PassReport{
			PassID:     uuid.New().String(),
			SourcePath: source,
			TargetPath: target,
			DryRun:     dryRun,
			StartTime:  time.Now(),
		},
	}
}

// PassID returns the identifier of the recorded pass
func (r *Recorder) PassID() string {
	return r.report.PassID
}

// Stats gives direct access to the counters
func (r *Recorder) Stats() *models.Statistics {
	return &r.report.Stats
}

// Record appends an action and updates the matching counter
func (r *Recorder) Record(op models.FileOperation) {
	r.report.Operations = append(r.report.Operations, op)

	stats := &r.report.Stats
	switch op.Action {
	case models.ActionCopy:
		stats.FilesCopied++
		stats.BytesCopied += op.Size
	case models.ActionReplace:
		stats.FilesReplaced++
		stats.BytesCopied += op.Size
	case models.ActionDelete:
		stats.FilesDeleted++
	case models.ActionCopyTree:
		stats.DirsCopied++
		stats.BytesCopied += op.Size
	case models.ActionDeleteTree:
		stats.DirsDeleted++
	}
}

// Finish stamps the end time and status and returns the report
func (r *Recorder) Finish(err error) *models.PassReport {
	report := r.report
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	switch {
	case err == nil:
		report.Status = models.StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		report.Status = models.StatusCancelled
		report.Error = err.Error()
	default:
		report.Status = models.StatusFailed
		report.Error = err.Error()
	}
	return report
}
