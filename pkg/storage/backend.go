package storage

import (
	"context"
	"io"
	"os"
	"time"
)

// FileInfo represents metadata about a file or directory
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	Mode    os.FileMode
}

// IsSymlink reports whether the entry is a symbolic link
func (fi FileInfo) IsSymlink() bool {
	return fi.Mode&os.ModeSymlink != 0
}

// WriteMode controls what Write does when the destination already exists
type WriteMode int

const (
	// CreateNew fails with an error wrapping fs.ErrExist if the destination exists
	CreateNew WriteMode = iota
	// Overwrite truncates and replaces an existing destination
	Overwrite
)

// Backend defines the filesystem operations a pass needs.
// All paths are full paths on the backend; nothing is cached between calls.
type Backend interface {
	// List returns the immediate children of dir (non-recursive) without following symlinks
	List(ctx context.Context, dir string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates a file with the given content
	Write(ctx context.Context, path string, reader io.Reader, size int64, mode WriteMode) error

	// Delete removes a single file or an empty directory
	Delete(ctx context.Context, path string) error

	// DeleteAll removes a directory and everything below it
	DeleteAll(ctx context.Context, path string) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Abs returns the absolute, cleaned form of path
	Abs(path string) (string, error)

	// Close releases any resources held by the backend
	Close() error
}

// ListFollow lists dir like List, but reports each symlink with the metadata of
// what it points to, so a linked directory reads as a directory. A dangling link
// keeps its own metadata.
func ListFollow(ctx context.Context, b Backend, dir string) ([]FileInfo, error) {
	infos, err := b.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	for i, info := range infos {
		if !info.IsSymlink() {
			continue
		}
		if resolved, err := b.Stat(ctx, info.Path); err == nil {
			infos[i] = *resolved
		}
	}
	return infos, nil
}
