package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sdejongh/foldermirror/pkg/models"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

// Unit is one level of a pass: a source directory, the matching target
// directory and their path relative to the sync roots
type Unit struct {
	Source string
	Target string
	Rel    string
}

// Child returns the unit for the subdirectory name
func (u Unit) Child(name string) Unit {
	return Unit{
		Source: filepath.Join(u.Source, name),
		Target: filepath.Join(u.Target, name),
		Rel:    filepath.Join(u.Rel, name),
	}
}

// DirectoryMapper pairs the immediate children of a source and a target
// directory by base name. Source symlinks are followed; target symlinks are
// reported as files so a pass never descends through them.
type DirectoryMapper struct {
	fs      storage.Backend
	exclude *Excluder
}

// NewDirectoryMapper creates a mapper; exclude may be nil
func NewDirectoryMapper(fs storage.Backend, exclude *Excluder) *DirectoryMapper {
	return &DirectoryMapper{fs: fs, exclude: exclude}
}

// MapFiles pairs the files of both directories, sorted by name
func (m *DirectoryMapper) MapFiles(ctx context.Context, unit Unit) ([]models.MappedPair, error) {
	return m.mapLevel(ctx, unit, false)
}

// MapDirectories pairs the subdirectories of both directories, sorted by name
func (m *DirectoryMapper) MapDirectories(ctx context.Context, unit Unit) ([]models.MappedPair, error) {
	return m.mapLevel(ctx, unit, true)
}

func (m *DirectoryMapper) mapLevel(ctx context.Context, unit Unit, dirs bool) ([]models.MappedPair, error) {
	source, err := m.list(ctx, unit.Source, unit.Rel, dirs, true)
	if err != nil {
		return nil, err
	}
	target, err := m.list(ctx, unit.Target, unit.Rel, dirs, false)
	if err != nil {
		return nil, err
	}

	pairs := make([]models.MappedPair, 0, len(source)+len(target))
	for name, entry := range source {
		pairs = append(pairs, models.MappedPair{
			Name:   name,
			Source: entry,
			Target: target[name],
		})
	}
	for name, entry := range target {
		if _, ok := source[name]; !ok {
			pairs = append(pairs, models.MappedPair{Name: name, Target: entry})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Name < pairs[j].Name
	})
	return pairs, nil
}

// list returns the files or directories directly inside dir keyed by base name
func (m *DirectoryMapper) list(ctx context.Context, dir, rel string, dirs, follow bool) (map[string]*models.Entry, error) {
	var infos []storage.FileInfo
	var err error
	if follow {
		infos, err = storage.ListFollow(ctx, m.fs, dir)
	} else {
		infos, err = m.fs.List(ctx, dir)
	}
	if err != nil {
		return nil, &ListError{Path: dir, Err: err}
	}

	entries := make(map[string]*models.Entry, len(infos))
	for _, info := range infos {
		if info.IsDir != dirs {
			continue
		}
		if m.exclude.Excluded(filepath.Join(rel, info.Name), info.IsDir) {
			continue
		}
		if _, dup := entries[info.Name]; dup {
			return nil, &ListError{
				Path: dir,
				Err:  fmt.Errorf("%w: %s", ErrDuplicateName, info.Name),
			}
		}
		entries[info.Name] = &models.Entry{
			Name:    info.Name,
			Path:    info.Path,
			Size:    info.Size,
			ModTime: info.ModTime,
			IsDir:   info.IsDir,
			Symlink: info.IsSymlink(),
			Exists:  true,
		}
	}
	return entries, nil
}
