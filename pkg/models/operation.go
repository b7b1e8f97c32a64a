package models

// Action represents a mutation applied to the target tree
type Action string

const (
	// ActionCopy copies a source-only file into the target
	ActionCopy Action = "copy"
	// ActionReplace overwrites a target file whose content differs from the source
	ActionReplace Action = "replace"
	// ActionDelete deletes a target-only file
	ActionDelete Action = "delete"
	// ActionCopyTree duplicates a source-only directory and its contents
	ActionCopyTree Action = "copy_tree"
	// ActionDeleteTree removes a target-only directory and its contents
	ActionDeleteTree Action = "delete_tree"
	// ActionCompare compares a file present on both sides
	ActionCompare Action = "compare"
)

// Mutates reports whether the action changes the target tree
func (a Action) Mutates() bool {
	switch a {
	case ActionCopy, ActionReplace, ActionDelete, ActionCopyTree, ActionDeleteTree:
		return true
	default:
		return false
	}
}

// IsDirectory reports whether the action applies to a whole directory
func (a Action) IsDirectory() bool {
	return a == ActionCopyTree || a == ActionDeleteTree
}

// FileOperation represents an action taken (or planned, in dry-run) on one name
type FileOperation struct {
	Action     Action `json:"action"`
	Name       string `json:"name"`
	SourcePath string `json:"source_path,omitempty"`
	TargetPath string `json:"target_path"`
	Size       int64  `json:"size,omitempty"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
