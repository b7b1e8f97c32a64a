package models

import (
	"testing"
)

func TestMappedPairClassification(t *testing.T) {
	entry := &Entry{Name: "a.txt", Exists: true}

	tests := []struct {
		name string
		pair MappedPair
		want Classification
	}{
		{"Both", MappedPair{Name: "a.txt", Source: entry, Target: entry}, PresentBoth},
		{"SourceOnly", MappedPair{Name: "a.txt", Source: entry}, SourceOnly},
		{"TargetOnly", MappedPair{Name: "a.txt", Target: entry}, TargetOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pair.Classification(); got != tt.want {
				t.Errorf("Classification() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAction(t *testing.T) {
	tests := []struct {
		action    Action
		mutates   bool
		directory bool
	}{
		{ActionCopy, true, false},
		{ActionReplace, true, false},
		{ActionDelete, true, false},
		{ActionCopyTree, true, true},
		{ActionDeleteTree, true, true},
		{ActionCompare, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.Mutates(); got != tt.mutates {
				t.Errorf("Mutates() = %v, want %v", got, tt.mutates)
			}
			if got := tt.action.IsDirectory(); got != tt.directory {
				t.Errorf("IsDirectory() = %v, want %v", got, tt.directory)
			}
		})
	}
}

func TestPassStatusExitCode(t *testing.T) {
	tests := []struct {
		status PassStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{PassStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatisticsMutations(t *testing.T) {
	stats := Statistics{
		FilesCompared:  10,
		FilesUnchanged: 7,
		FilesCopied:    1,
		FilesReplaced:  3,
		FilesDeleted:   2,
		DirsCopied:     1,
		DirsDeleted:    1,
	}
	if got := stats.Mutations(); got != 8 {
		t.Errorf("Mutations() = %d, want 8", got)
	}
	if got := (Statistics{FilesCompared: 5, FilesUnchanged: 5}).Mutations(); got != 0 {
		t.Errorf("Mutations() = %d, want 0 for an unchanged pass", got)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "sync_interval", Message: "must be positive"}
	if got := err.Error(); got != "sync_interval: must be positive" {
		t.Errorf("Error() = %q", got)
	}
}
