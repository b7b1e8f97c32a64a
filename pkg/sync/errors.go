package sync

import (
	"errors"
	"fmt"

	"github.com/sdejongh/foldermirror/pkg/models"
)

// ErrDuplicateName is returned when one directory listing yields the same base name twice
var ErrDuplicateName = errors.New("duplicate name in directory listing")

// ErrExcludedInTheWay is returned when a source file would replace an excluded target directory
var ErrExcludedInTheWay = errors.New("excluded target directory has the name of a source file")

// ListError reports a directory that could not be enumerated
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// OpError reports a single failed action on one name
type OpError struct {
	Action models.Action
	Name   string
	Path   string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Action, e.Name, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
