package sync

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/output"
	"github.com/sdejongh/foldermirror/pkg/ratelimit"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

// ProgressReporter receives transfer notifications; output.Formatter implements it
type ProgressReporter interface {
	Progress(update output.ProgressUpdate) error
}

// Progress reporting thresholds
const (
	progressReportInterval = 50 * time.Millisecond // Minimum time between progress reports
	progressReportBytes    = 64 * 1024             // Minimum bytes between reports (64KB)
)

// progressReader wraps an io.Reader to report progress
type progressReader struct {
	reader         io.Reader
	read           int64
	lastReported   int64
	lastReportTime time.Time
	onProgress     func(bytesRead int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)

		// Report on the byte or time threshold, and always on the final read
		sinceBytes := pr.read - pr.lastReported
		if sinceBytes >= progressReportBytes || time.Since(pr.lastReportTime) >= progressReportInterval || err != nil {
			pr.onProgress(pr.read)
			pr.lastReported = pr.read
			pr.lastReportTime = time.Now()
		}
	}
	return n, err
}

// fileCopier streams one file to a new location, throttled and observed.
// The first failed progress report is logged and turns reporting off; the copy goes on.
type fileCopier struct {
	fs          storage.Backend
	limiter     *ratelimit.Limiter
	progress    ProgressReporter
	logger      logging.Logger
	progressErr error
}

func newFileCopier(fs storage.Backend, limiter *ratelimit.Limiter, progress ProgressReporter, logger logging.Logger) *fileCopier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &fileCopier{fs: fs, limiter: limiter, progress: progress, logger: logger}
}

// copy writes the content of src to dst and returns the bytes written
func (c *fileCopier) copy(ctx context.Context, src, dst string, size int64, mode storage.WriteMode) (int64, error) {
	rc, err := c.fs.Read(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("failed to read source: %w", err)
	}
	reader := ratelimit.NewReadCloser(ctx, rc, c.limiter)
	defer reader.Close()

	var r io.Reader = reader
	if c.progress != nil {
		c.report(ctx, output.ProgressUpdate{
			Type:       "file_start",
			FilePath:   src,
			TotalBytes: size,
		})
		r = &progressReader{
			reader:         r,
			lastReportTime: time.Now(),
			onProgress: func(bytesRead int64) {
				c.report(ctx, output.ProgressUpdate{
					Type:         "file_progress",
					FilePath:     src,
					BytesWritten: bytesRead,
					TotalBytes:   size,
				})
			},
		}
	}

	if err := c.fs.Write(ctx, dst, r, size, mode); err != nil {
		c.report(ctx, output.ProgressUpdate{Type: "file_error", FilePath: src, Error: err})
		return 0, fmt.Errorf("failed to write target: %w", err)
	}

	c.report(ctx, output.ProgressUpdate{
		Type:         "file_complete",
		FilePath:     src,
		BytesWritten: size,
		TotalBytes:   size,
	})
	return size, nil
}

func (c *fileCopier) report(ctx context.Context, update output.ProgressUpdate) {
	if c.progress == nil || c.progressErr != nil {
		return
	}
	if err := c.progress.Progress(update); err != nil {
		c.progressErr = err
		c.logger.Warn(ctx, "progress reporting disabled", logging.Fields{
			"file":  update.FilePath,
			"error": err.Error(),
		})
	}
}

// TreeStats counts what one CopyTree call created
type TreeStats struct {
	Dirs  int
	Files int
	Bytes int64
}

// TreeCopier duplicates a directory subtree into a destination that does not exist yet
type TreeCopier struct {
	fs      storage.Backend
	files   *fileCopier
	exclude *Excluder
}

// NewTreeCopier creates a tree copier; limiter, progress, exclude and logger may be nil
func NewTreeCopier(fs storage.Backend, limiter *ratelimit.Limiter, progress ProgressReporter, exclude *Excluder, logger logging.Logger) *TreeCopier {
	return &TreeCopier{
		fs:      fs,
		files:   newFileCopier(fs, limiter, progress, logger),
		exclude: exclude,
	}
}

// CopyTree creates unit.Target, copies every file directly inside unit.Source,
// then recurses into each subdirectory. An existing destination file fails the copy.
func (c *TreeCopier) CopyTree(ctx context.Context, unit Unit) (TreeStats, error) {
	var stats TreeStats
	err := c.copyTree(ctx, unit, &stats)
	return stats, err
}

func (c *TreeCopier) copyTree(ctx context.Context, unit Unit, stats *TreeStats) error {
	if err := c.fs.MkdirAll(ctx, unit.Target); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", unit.Target, err)
	}
	stats.Dirs++

	entries, err := storage.ListFollow(ctx, c.fs, unit.Source)
	if err != nil {
		return &ListError{Path: unit.Source, Err: err}
	}

	var dirs []string
	for _, entry := range entries {
		if c.exclude.Excluded(filepath.Join(unit.Rel, entry.Name), entry.IsDir) {
			continue
		}
		if entry.IsDir {
			dirs = append(dirs, entry.Name)
			continue
		}

		dst := filepath.Join(unit.Target, entry.Name)
		n, err := c.files.copy(ctx, entry.Path, dst, entry.Size, storage.CreateNew)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", entry.Path, err)
		}
		stats.Files++
		stats.Bytes += n
	}

	for _, name := range dirs {
		if err := c.copyTree(ctx, unit.Child(name), stats); err != nil {
			return err
		}
	}
	return nil
}
