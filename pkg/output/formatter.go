package output

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// ProgressUpdate represents a progress notification during a pass
type ProgressUpdate struct {
	Type         string // "file_start", "file_progress", "file_complete", "file_error"
	FilePath     string
	BytesWritten int64
	TotalBytes   int64
	Error        error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, JSON and progress bar formatters
type Formatter interface {
	// Start initializes the formatter for a new pass
	Start(writer io.Writer, sourcePath, targetPath string) error

	// Progress reports progress during the pass
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.PassReport) error

	// Error reports an error that aborted the pass
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for format ("human" or "json"). A progress bar
// replaces the human formatter when progress is requested and w is a terminal.
func New(format string, progress bool, w io.Writer) Formatter {
	if format == "json" {
		return NewJSONFormatter()
	}
	if progress && IsTerminal(w) {
		return NewProgressFormatter()
	}
	return NewHumanFormatter()
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 if unknown
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
