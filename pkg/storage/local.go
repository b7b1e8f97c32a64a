package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	filePerm = 0644
	dirPerm  = 0755
)

// FS is a Backend on top of a go-billy filesystem
type FS struct {
	fs  billy.Filesystem
	abs func(string) (string, error)
}

// NewLocal creates a backend over the operating system filesystem.
// Relative paths are resolved against the working directory.
func NewLocal() *FS {
	return &FS{
		fs:  osfs.New(""),
		abs: filepath.Abs,
	}
}

// NewMemory creates a backend over an empty in-memory filesystem
func NewMemory() *FS {
	return &FS{
		fs: memfs.New(),
		abs: func(p string) (string, error) {
			return path.Clean("/" + filepath.ToSlash(p)), nil
		},
	}
}

// List returns the immediate children of dir. Symlinks are not followed.
func (b *FS) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := b.Abs(dir)
	if err != nil {
		return nil, err
	}

	infos, err := b.fs.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", fullPath, err)
	}

	files := make([]FileInfo, 0, len(infos))
	for _, info := range infos {
		p := b.fs.Join(fullPath, info.Name())
		files = append(files, FileInfo{
			Name:    filepath.Base(p),
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
			Mode:    info.Mode(),
		})
	}

	return files, nil
}

// Read opens a file for reading
func (b *FS) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	fullPath, err := b.Abs(p)
	if err != nil {
		return nil, err
	}

	file, err := b.fs.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write creates a file and copies reader into it
func (b *FS) Write(ctx context.Context, p string, reader io.Reader, size int64, mode WriteMode) error {
	fullPath, err := b.Abs(p)
	if err != nil {
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE
	if mode == Overwrite {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_EXCL
	}

	file, err := b.fs.OpenFile(fullPath, flag, filePerm)
	if err != nil {
		if mode == CreateNew && errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("destination already exists: %s: %w", fullPath, fs.ErrExist)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, reader)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if size >= 0 && written != size {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	return nil
}

// Delete removes a single file or an empty directory
func (b *FS) Delete(ctx context.Context, p string) error {
	fullPath, err := b.Abs(p)
	if err != nil {
		return err
	}

	if err := b.fs.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	return nil
}

// DeleteAll removes a directory tree
func (b *FS) DeleteAll(ctx context.Context, p string) error {
	fullPath, err := b.Abs(p)
	if err != nil {
		return err
	}

	if err := util.RemoveAll(b.fs, fullPath); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	return nil
}

// Exists checks if a file or directory exists
func (b *FS) Exists(ctx context.Context, p string) (bool, error) {
	fullPath, err := b.Abs(p)
	if err != nil {
		return false, err
	}

	_, err = b.fs.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (b *FS) Stat(ctx context.Context, p string) (*FileInfo, error) {
	fullPath, err := b.Abs(p)
	if err != nil {
		return nil, err
	}

	info, err := b.fs.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Name:    filepath.Base(fullPath),
		Path:    fullPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
		Mode:    info.Mode(),
	}, nil
}

// MkdirAll creates a directory and all necessary parents
func (b *FS) MkdirAll(ctx context.Context, p string) error {
	fullPath, err := b.Abs(p)
	if err != nil {
		return err
	}

	if err := b.fs.MkdirAll(fullPath, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// Abs returns the absolute, cleaned form of p
func (b *FS) Abs(p string) (string, error) {
	abs, err := b.abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// Close releases resources (no-op for go-billy filesystems)
func (b *FS) Close() error {
	return nil
}
