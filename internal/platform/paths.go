package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// caseInsensitive is true where the default filesystem folds case
var caseInsensitive = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// SamePath reports whether two absolute paths name the same file.
// Case is ignored on every platform; ValidateRoots uses the stricter platform rules.
func SamePath(a, b string) bool {
	return strings.EqualFold(NormalizePath(a), NormalizePath(b))
}

// samePathStrict compares paths with the case rules of the platform's default filesystem
func samePathStrict(a, b string) bool {
	if caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// IsWithin reports whether child is strictly below parent.
// Case is ignored on Windows and macOS only.
func IsWithin(parent, child string) bool {
	parent = NormalizePath(parent)
	child = NormalizePath(child)
	if !strings.HasSuffix(parent, string(filepath.Separator)) {
		parent += string(filepath.Separator)
	}
	return len(child) > len(parent) && samePathStrict(child[:len(parent)], parent)
}

// ValidateRoots checks that source and target can be mirrored onto each other.
// Both must be distinct and neither may contain the other. On Windows and macOS
// roots that differ only in case count as the same directory.
func ValidateRoots(source, target string) error {
	for _, p := range []string{source, target} {
		if err := ValidatePath(p); err != nil {
			return err
		}
	}

	if samePathStrict(NormalizePath(source), NormalizePath(target)) {
		return &PathError{Path: target, Message: "source and target cannot be the same"}
	}
	if IsWithin(source, target) {
		return &PathError{Path: target, Message: fmt.Sprintf("target cannot be inside source %s", source)}
	}
	if IsWithin(target, source) {
		return &PathError{Path: source, Message: fmt.Sprintf("source cannot be inside target %s", target)}
	}

	return nil
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
