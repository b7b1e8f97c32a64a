package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
}

// JSONReportData represents the final report data
type JSONReportData struct {
	PassID     string                 `json:"pass_id"`
	SourcePath string                 `json:"source_path"`
	TargetPath string                 `json:"target_path"`
	DryRun     bool                   `json:"dry_run"`
	Status     string                 `json:"status"`
	Duration   string                 `json:"duration"`
	DurationMs int64                  `json:"duration_ms"`
	Stats      JSONStatsData          `json:"stats"`
	Operations []models.FileOperation `json:"operations,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	DirsVisited    int                `json:"dirs_visited"`
	FilesCompared  int                `json:"files_compared"`
	FilesUnchanged int                `json:"files_unchanged"`
	Operations     JSONOperationsData `json:"operations"`
	Transfer       JSONTransferData   `json:"transfer"`
}

// JSONOperationsData represents operations statistics
type JSONOperationsData struct {
	FilesCopied   int `json:"files_copied"`
	FilesReplaced int `json:"files_replaced"`
	FilesDeleted  int `json:"files_deleted"`
	DirsCopied    int `json:"dirs_copied"`
	DirsDeleted   int `json:"dirs_deleted"`
}

// JSONTransferData represents transfer statistics
type JSONTransferData struct {
	BytesCopied     int64  `json:"bytes_copied"`
	BytesCompared   int64  `json:"bytes_compared"`
	AverageSpeed    int64  `json:"average_speed_bytes_per_sec,omitempty"`
	AverageSpeedStr string `json:"average_speed,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, sourcePath, targetPath string) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is ignored so the output stays a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report as one JSON document
func (f *JSONFormatter) Complete(report *models.PassReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	return json.NewEncoder(f.writer).Encode(NewJSONReport(report))
}

// NewJSONReport converts a pass report to its JSON form
func NewJSONReport(report *models.PassReport) JSONReportData {
	stats := report.Stats

	var avgSpeed int64
	var avgSpeedStr string
	if report.Duration.Seconds() > 0 && stats.BytesCopied > 0 {
		avgSpeed = int64(float64(stats.BytesCopied) / report.Duration.Seconds())
		avgSpeedStr = humanize.IBytes(uint64(avgSpeed)) + "/s"
	}

	return JSONReportData{
		PassID:     report.PassID,
		SourcePath: report.SourcePath,
		TargetPath: report.TargetPath,
		DryRun:     report.DryRun,
		Status:     string(report.Status),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			DirsVisited:    stats.DirsVisited,
			FilesCompared:  stats.FilesCompared,
			FilesUnchanged: stats.FilesUnchanged,
			Operations: JSONOperationsData{
				FilesCopied:   stats.FilesCopied,
				FilesReplaced: stats.FilesReplaced,
				FilesDeleted:  stats.FilesDeleted,
				DirsCopied:    stats.DirsCopied,
				DirsDeleted:   stats.DirsDeleted,
			},
			Transfer: JSONTransferData{
				BytesCopied:     stats.BytesCopied,
				BytesCompared:   stats.BytesCompared,
				AverageSpeed:    avgSpeed,
				AverageSpeedStr: avgSpeedStr,
			},
		},
		Operations: report.Operations,
		Error:      report.Error,
	}
}

// Error is reported through the status and error of the final document
func (f *JSONFormatter) Error(err error) error {
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
