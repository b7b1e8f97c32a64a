package sync

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluder decides which names a pass leaves alone on both sides.
// Patterns support:
//   - Base name globs: *.tmp, Thumbs.db
//   - Directory-only patterns: .git/, node_modules/
//   - Path globs relative to the sync root: build/*, **/cache/**
type Excluder struct {
	rules []excludeRule
}

type excludeRule struct {
	pattern  string
	dirOnly  bool
	baseName bool
}

// NewExcluder compiles patterns, rejecting malformed globs.
// Returns nil when there is nothing to exclude.
func NewExcluder(patterns []string) (*Excluder, error) {
	var rules []excludeRule
	for _, p := range patterns {
		normalized := filepath.ToSlash(strings.TrimSpace(p))
		if normalized == "" {
			continue
		}

		rule := excludeRule{}
		if strings.HasSuffix(normalized, "/") {
			rule.dirOnly = true
			normalized = strings.TrimRight(normalized, "/")
		}
		rule.baseName = !strings.Contains(normalized, "/")
		rule.pattern = normalized

		if !doublestar.ValidatePattern(rule.pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		rules = append(rules, rule)
	}

	if len(rules) == 0 {
		return nil, nil
	}
	return &Excluder{rules: rules}, nil
}

// Excluded reports whether relPath (relative to the sync root) is excluded
func (e *Excluder) Excluded(relPath string, isDir bool) bool {
	if e == nil {
		return false
	}

	normalized := filepath.ToSlash(relPath)
	base := path.Base(normalized)

	for _, rule := range e.rules {
		if rule.dirOnly && !isDir {
			continue
		}

		subject := normalized
		if rule.baseName {
			subject = base
		}
		if matched, _ := doublestar.Match(rule.pattern, subject); matched {
			return true
		}
	}
	return false
}
