package models

import (
	"time"
)

// PassReport represents the results of one synchronization pass
type PassReport struct {
	// Pass details
	PassID     string
	SourcePath string
	TargetPath string
	DryRun     bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Operations performed, in the order they completed
	Operations []FileOperation

	// Error is the failure that aborted the pass, if any
	Error string

	// Overall status
	Status PassStatus
}

// Statistics holds pass metrics
type Statistics struct {
	DirsVisited    int
	FilesCompared  int
	FilesUnchanged int
	FilesCopied    int
	FilesReplaced  int
	FilesDeleted   int
	DirsCopied     int
	DirsDeleted    int

	BytesCompared int64
	BytesCopied   int64
}

// Mutations returns the number of mutating actions in the pass
func (s Statistics) Mutations() int {
	return s.FilesCopied + s.FilesReplaced + s.FilesDeleted + s.DirsCopied + s.DirsDeleted
}

// PassStatus represents the overall result
type PassStatus string

const (
	// StatusSuccess indicates the pass completed
	StatusSuccess PassStatus = "success"
	// StatusFailed indicates the pass was aborted by an error
	StatusFailed PassStatus = "failed"
	// StatusCancelled indicates the pass was stopped by context cancellation
	StatusCancelled PassStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the pass status
func (s PassStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
