package models

import (
	"time"
)

// Entry represents a file or directory observed during a pass.
// Entries are read fresh on every pass and never cached.
type Entry struct {
	// Name is the base name of the entry
	Name string
	// Path is the full path on the filesystem
	Path string
	// Size in bytes (files only)
	Size int64
	// ModTime is the last modification time
	ModTime time.Time
	// IsDir indicates if this is a directory
	IsDir bool
	// Symlink is set for an unresolved link (target side only)
	Symlink bool
	// Exists is false for a zero entry that stands in for a missing side
	Exists bool
}

// Classification indicates which side(s) of a sync a name exists on
type Classification string

const (
	// PresentBoth indicates the name exists in source and target (compare candidate)
	PresentBoth Classification = "present_both"
	// SourceOnly indicates the name exists in source only (copy candidate)
	SourceOnly Classification = "source_only"
	// TargetOnly indicates the name exists in target only (delete candidate)
	TargetOnly Classification = "target_only"
)

// MappedPair links a base name to its optional presence on each side.
// At least one of Source and Target is non-nil.
type MappedPair struct {
	Name   string
	Source *Entry
	Target *Entry
}

// Classification derives the pair category from the populated sides
func (p MappedPair) Classification() Classification {
	switch {
	case p.Source != nil && p.Target != nil:
		return PresentBoth
	case p.Source != nil:
		return SourceOnly
	default:
		return TargetOnly
	}
}
