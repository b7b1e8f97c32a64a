package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer    io.Writer
	startTime time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, sourcePath, targetPath string) error {
	f.writer = writer
	f.startTime = time.Now()

	if writer != nil {
		fmt.Fprintf(writer, "Mirroring %s -> %s\n", sourcePath, targetPath)
	}
	return nil
}

// Progress reports file transfers as they finish
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case "file_complete":
		fmt.Fprintf(f.writer, "  ✓ %s (%s)\n", update.FilePath, humanize.IBytes(uint64(update.BytesWritten)))
	case "file_error":
		fmt.Fprintf(f.writer, "  ✗ %s: %v\n", update.FilePath, update.Error)
	}
	return nil
}

// Complete displays the pass summary
func (f *HumanFormatter) Complete(report *models.PassReport) error {
	writeSummary(f.writerOrDiscard(), report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func (f *HumanFormatter) writerOrDiscard() io.Writer {
	if f.writer == nil {
		return io.Discard
	}
	return f.writer
}

// writeSummary prints the counters of a pass
func writeSummary(w io.Writer, report *models.PassReport) {
	title := "Pass"
	if report.DryRun {
		title = "Dry run"
	}
	stats := report.Stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s %s completed in %s\n", title, report.PassID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Directories visited: %d\n", stats.DirsVisited)
	fmt.Fprintf(w, "  Files compared:      %d (%d unchanged)\n", stats.FilesCompared, stats.FilesUnchanged)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Operations:\n")
	fmt.Fprintf(w, "    Files copied:      %d\n", stats.FilesCopied)
	fmt.Fprintf(w, "    Files replaced:    %d\n", stats.FilesReplaced)
	fmt.Fprintf(w, "    Files deleted:     %d\n", stats.FilesDeleted)
	fmt.Fprintf(w, "    Trees copied:      %d\n", stats.DirsCopied)
	fmt.Fprintf(w, "    Trees deleted:     %d\n", stats.DirsDeleted)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Transfer:\n")
	fmt.Fprintf(w, "    Copied:            %s\n", humanize.IBytes(uint64(stats.BytesCopied)))
	fmt.Fprintf(w, "    Compared:          %s\n", humanize.IBytes(uint64(stats.BytesCompared)))

	if report.Duration.Seconds() > 0 && stats.BytesCopied > 0 {
		avgSpeed := float64(stats.BytesCopied) / report.Duration.Seconds()
		fmt.Fprintf(w, "    Average speed:     %s/s\n", humanize.IBytes(uint64(avgSpeed)))
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)
	if report.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", report.Error)
	}
}
