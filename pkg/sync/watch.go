package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sdejongh/foldermirror/pkg/logging"
)

// DefaultDebounce is the quiet period after the last source event before a pass is triggered
const DefaultDebounce = 2 * time.Second

// SourceWatcher turns filesystem events under the source tree into pass triggers
type SourceWatcher struct {
	root     string
	exclude  *Excluder
	logger   logging.Logger
	debounce time.Duration
	trigger  chan struct{}
	watcher  *fsnotify.Watcher
}

// NewSourceWatcher watches every directory below root on the OS filesystem
func NewSourceWatcher(root string, exclude []string, debounce time.Duration, logger logging.Logger) (*SourceWatcher, error) {
	excluder, err := NewExcluder(exclude)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root is not a directory: %s", abs)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &SourceWatcher{
		root:     abs,
		exclude:  excluder,
		logger:   logger,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
		watcher:  watcher,
	}
	if err := w.addTree(abs); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// Trigger receives at most one pending signal per burst of events
func (w *SourceWatcher) Trigger() <-chan struct{} {
	return w.trigger
}

// Run forwards debounced events until ctx is cancelled, then closes the watcher
func (w *SourceWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn(ctx, "failed to watch new directory", logging.Fields{
							"path":  event.Name,
							"error": err.Error(),
						})
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watch error", logging.Fields{"error": err.Error()})

		case <-timer.C:
			select {
			case w.trigger <- struct{}{}:
			default:
			}
		}
	}
}

// relevant drops events on excluded names
func (w *SourceWatcher) relevant(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return true
	}
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}
	return !w.exclude.Excluded(rel, isDir)
}

// addTree adds dir and every non-excluded directory below it
func (w *SourceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories removed while walking are not an error
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root {
			if rel, err := filepath.Rel(w.root, p); err == nil && w.exclude.Excluded(rel, true) {
				return filepath.SkipDir
			}
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}
