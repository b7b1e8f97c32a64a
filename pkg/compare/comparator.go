package compare

import (
	"context"
	"errors"
	"io"

	"github.com/sdejongh/foldermirror/pkg/storage"
)

// Result represents the outcome of comparing two files
type Result string

const (
	// Same indicates files are identical
	Same Result = "same"
	// Different indicates files differ
	Different Result = "different"
)

// ErrMissingFile is returned when either compared file does not exist
var ErrMissingFile = errors.New("compared file does not exist")

// Comparison holds the result of comparing two files
type Comparison struct {
	SourcePath string
	TargetPath string
	Result     Result
	Reason     string
	// BytesRead counts content bytes read from both files together
	BytesRead int64
}

// Equal reports whether the files were found identical
func (c *Comparison) Equal() bool {
	return c.Result == Same
}

// ReaderWrapper wraps content readers, e.g. for rate limiting.
// ctx is the context of the Compare call.
type ReaderWrapper func(ctx context.Context, r io.Reader) io.Reader

// Comparator defines the interface for file comparison algorithms
type Comparator interface {
	// Compare compares two existing files and returns the result
	Compare(ctx context.Context, fsys storage.Backend, sourcePath, targetPath string) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}
