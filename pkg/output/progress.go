package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// progressTemplate shows the file being copied, the byte counters and the speed
const progressTemplate = `{{string . "file" | printf "%-30.30s"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{speed . }}`

// ProgressFormatter draws a byte progress bar for file transfers.
// The pass is not scanned up front, so the total grows as files start.
type ProgressFormatter struct {
	writer io.Writer
	bar    *pb.ProgressBar
	human  *HumanFormatter

	mu      sync.Mutex
	written map[string]int64 // bytes already added to the bar per file
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{
		human:   NewHumanFormatter(),
		written: make(map[string]int64),
	}
}

// Start prints the header and starts the bar
func (f *ProgressFormatter) Start(writer io.Writer, sourcePath, targetPath string) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	if err := f.human.Start(writer, sourcePath, targetPath); err != nil {
		return err
	}

	f.bar = pb.New64(0).SetTemplateString(progressTemplate)
	f.bar.SetWriter(writer)
	f.bar.Set(pb.Bytes, true)
	f.bar.Set("file", "")
	if width := terminalWidth(writer); width > 0 {
		f.bar.SetWidth(width)
	}
	f.bar.Start()
	return nil
}

// Progress advances the bar
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	if f.bar == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case "file_start":
		f.bar.AddTotal(update.TotalBytes)
		f.bar.Set("file", filepath.Base(update.FilePath))
		f.written[update.FilePath] = 0

	case "file_progress", "file_complete":
		delta := update.BytesWritten - f.written[update.FilePath]
		if delta > 0 {
			f.bar.Add64(delta)
			f.written[update.FilePath] = update.BytesWritten
		}
		if update.Type == "file_complete" {
			delete(f.written, update.FilePath)
		}

	case "file_error":
		delete(f.written, update.FilePath)
		fmt.Fprintf(f.writer, "\n  ✗ %s: %v\n", update.FilePath, update.Error)
	}
	return nil
}

// Complete stops the bar and prints the summary
func (f *ProgressFormatter) Complete(report *models.PassReport) error {
	if f.bar != nil {
		f.bar.Set("file", "done")
		f.bar.Finish()
	}
	return f.human.Complete(report)
}

// Error stops the bar and reports the error
func (f *ProgressFormatter) Error(err error) error {
	if f.bar != nil {
		f.bar.Finish()
	}
	return f.human.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
