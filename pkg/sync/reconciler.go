package sync

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sdejongh/foldermirror/pkg/compare"
	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/models"
	"github.com/sdejongh/foldermirror/pkg/ratelimit"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

// Options configures a Reconciler
type Options struct {
	// DryRun records planned actions without touching the target
	DryRun bool
	// Exclude holds patterns for names left alone on both sides
	Exclude []string
	// BandwidthLimit caps copy and comparison reads in bytes/second (0 = unlimited)
	BandwidthLimit int64
	// BufferSize is the comparison chunk size (0 = default)
	BufferSize int
}

// Reconciler mirrors a source directory tree onto a target directory tree,
// one level at a time. It keeps no state between passes.
type Reconciler struct {
	fs         storage.Backend
	comparator compare.Comparator
	logger     logging.Logger
	opts       Options
	exclude    *Excluder
	limiter    *ratelimit.Limiter
	progress   ProgressReporter
}

// NewReconciler creates a reconciler over fs
func NewReconciler(fs storage.Backend, logger logging.Logger, opts Options) (*Reconciler, error) {
	exclude, err := NewExcluder(opts.Exclude)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	limiter := ratelimit.NewLimiter(opts.BandwidthLimit)
	comparer := compare.NewContentComparer(opts.BufferSize)
	if limiter != nil {
		comparer.SetReaderWrapper(func(ctx context.Context, r io.Reader) io.Reader {
			return ratelimit.NewReader(ctx, r, limiter)
		})
	}

	return &Reconciler{
		fs:         fs,
		comparator: comparer,
		logger:     logger,
		opts:       opts,
		exclude:    exclude,
		limiter:    limiter,
	}, nil
}

// SetComparator replaces the content comparer
func (r *Reconciler) SetComparator(c compare.Comparator) {
	r.comparator = c
}

// SetProgress attaches a progress reporter for file transfers
func (r *Reconciler) SetProgress(p ProgressReporter) {
	r.progress = p
}

// SyncContents makes targetDir mirror sourceDir.
// The first failing operation aborts the pass; completed actions are not rolled back.
func (r *Reconciler) SyncContents(ctx context.Context, sourceDir, targetDir string) error {
	_, err := r.Run(ctx, sourceDir, targetDir)
	return err
}

// Run performs one pass and returns its report along with the error that aborted it
func (r *Reconciler) Run(ctx context.Context, sourceDir, targetDir string) (*models.PassReport, error) {
	source, err := r.fs.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	target, err := r.fs.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target path: %w", err)
	}

	recorder := NewRecorder(source, target, r.opts.DryRun)
	logger := r.logger.WithFields(logging.Fields{"pass_id": recorder.PassID()})
	p := &pass{
		Reconciler: r,
		logger:     logger,
		recorder:   recorder,
		mapper:     NewDirectoryMapper(r.fs, r.exclude),
		files:      newFileCopier(r.fs, r.limiter, r.progress, logger),
		tree:       NewTreeCopier(r.fs, r.limiter, r.progress, r.exclude, logger),
	}

	err = p.syncLevel(ctx, Unit{Source: source, Target: target})
	return recorder.Finish(err), err
}

// pass carries the per-invocation state of Run
type pass struct {
	*Reconciler
	logger   logging.Logger
	recorder *Recorder
	mapper   *DirectoryMapper
	files    *fileCopier
	tree     *TreeCopier
}

// syncLevel reconciles the files of one directory pair, then its subdirectories
func (p *pass) syncLevel(ctx context.Context, unit Unit) error {
	p.recorder.Stats().DirsVisited++

	cleared, err := p.syncFiles(ctx, unit)
	if err != nil {
		return err
	}
	return p.syncDirectories(ctx, unit, cleared)
}

// syncFiles runs the file phase of one level. It returns the names of target
// directories removed to make room for source files.
func (p *pass) syncFiles(ctx context.Context, unit Unit) (map[string]bool, error) {
	pairs, err := p.mapper.MapFiles(ctx, unit)
	if err != nil {
		return nil, err
	}

	cleared := make(map[string]bool)

	for _, pair := range pairs {
		targetPath := filepath.Join(unit.Target, pair.Name)

		switch pair.Classification() {
		case models.PresentBoth:
			if err := p.compareAndReplace(ctx, pair, targetPath); err != nil {
				return nil, err
			}

		case models.SourceOnly:
			if err := p.copyFile(ctx, unit, pair, targetPath, cleared); err != nil {
				return nil, err
			}

		case models.TargetOnly:
			op := models.FileOperation{Action: models.ActionDelete, Name: pair.Name, TargetPath: targetPath}
			if err := p.apply(ctx, op, func() error {
				return p.fs.Delete(ctx, targetPath)
			}); err != nil {
				return nil, err
			}
		}
	}
	return cleared, nil
}

func (p *pass) compareAndReplace(ctx context.Context, pair models.MappedPair, targetPath string) error {
	if pair.Target.Symlink {
		return p.replaceLink(ctx, pair, targetPath)
	}

	result, err := p.comparator.Compare(ctx, p.fs, pair.Source.Path, targetPath)
	if err != nil {
		return p.fail(ctx, models.ActionCompare, pair.Name, targetPath, err)
	}

	stats := p.recorder.Stats()
	stats.FilesCompared++
	stats.BytesCompared += result.BytesRead

	if result.Equal() {
		stats.FilesUnchanged++
		p.logger.Debug(ctx, "unchanged", logging.Fields{"name": pair.Name, "reason": result.Reason})
		return nil
	}

	op := models.FileOperation{
		Action:     models.ActionReplace,
		Name:       pair.Name,
		SourcePath: pair.Source.Path,
		TargetPath: targetPath,
		Size:       pair.Source.Size,
	}
	return p.apply(ctx, op, func() error {
		_, err := p.files.copy(ctx, pair.Source.Path, targetPath, pair.Source.Size, storage.Overwrite)
		return err
	})
}

// replaceLink swaps a target symlink for a regular copy of the source file.
// The link is removed rather than written through, so its destination is never touched.
func (p *pass) replaceLink(ctx context.Context, pair models.MappedPair, targetPath string) error {
	op := models.FileOperation{
		Action:     models.ActionReplace,
		Name:       pair.Name,
		SourcePath: pair.Source.Path,
		TargetPath: targetPath,
		Size:       pair.Source.Size,
	}
	return p.apply(ctx, op, func() error {
		if err := p.fs.Delete(ctx, targetPath); err != nil {
			return err
		}
		_, err := p.files.copy(ctx, pair.Source.Path, targetPath, pair.Source.Size, storage.CreateNew)
		return err
	})
}

// copyFile copies a source-only file. A target directory of the same name is
// removed first so the file can take its place, unless that directory is excluded.
func (p *pass) copyFile(ctx context.Context, unit Unit, pair models.MappedPair, targetPath string, cleared map[string]bool) error {
	info, err := p.fs.Stat(ctx, targetPath)
	if err == nil && info.IsDir {
		if p.exclude.Excluded(filepath.Join(unit.Rel, pair.Name), true) {
			return p.fail(ctx, models.ActionDeleteTree, pair.Name, targetPath, ErrExcludedInTheWay)
		}
		op := models.FileOperation{Action: models.ActionDeleteTree, Name: pair.Name, TargetPath: targetPath}
		if err := p.apply(ctx, op, func() error {
			return p.fs.DeleteAll(ctx, targetPath)
		}); err != nil {
			return err
		}
		cleared[pair.Name] = true
	}

	op := models.FileOperation{
		Action:     models.ActionCopy,
		Name:       pair.Name,
		SourcePath: pair.Source.Path,
		TargetPath: targetPath,
		Size:       pair.Source.Size,
	}
	return p.apply(ctx, op, func() error {
		_, err := p.files.copy(ctx, pair.Source.Path, targetPath, pair.Source.Size, storage.CreateNew)
		return err
	})
}

func (p *pass) syncDirectories(ctx context.Context, unit Unit, cleared map[string]bool) error {
	pairs, err := p.mapper.MapDirectories(ctx, unit)
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		child := unit.Child(pair.Name)

		switch pair.Classification() {
		case models.PresentBoth:
			if err := p.syncLevel(ctx, child); err != nil {
				return err
			}

		case models.SourceOnly:
			op := models.FileOperation{
				Action:     models.ActionCopyTree,
				Name:       pair.Name,
				SourcePath: child.Source,
				TargetPath: child.Target,
			}
			if p.opts.DryRun {
				p.record(ctx, op)
				continue
			}
			stats, err := p.tree.CopyTree(ctx, child)
			if err != nil {
				return p.fail(ctx, op.Action, pair.Name, child.Target, err)
			}
			op.Size = stats.Bytes
			p.record(ctx, op)
			p.logger.Debug(ctx, "tree copied", logging.Fields{
				"name":  pair.Name,
				"dirs":  stats.Dirs,
				"files": stats.Files,
			})

		case models.TargetOnly:
			// Already planned by the file phase; only reachable in a dry run
			if cleared[pair.Name] {
				continue
			}
			op := models.FileOperation{Action: models.ActionDeleteTree, Name: pair.Name, TargetPath: child.Target}
			if err := p.apply(ctx, op, func() error {
				return p.fs.DeleteAll(ctx, child.Target)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// apply runs fn unless this is a dry run, then records op
func (p *pass) apply(ctx context.Context, op models.FileOperation, fn func() error) error {
	if !p.opts.DryRun {
		if err := fn(); err != nil {
			return p.fail(ctx, op.Action, op.Name, op.TargetPath, err)
		}
	}
	p.record(ctx, op)
	return nil
}

// record logs one mutating action and adds it to the report
func (p *pass) record(ctx context.Context, op models.FileOperation) {
	p.recorder.Record(op)
	fields := logging.Fields{"action": string(op.Action), "name": op.Name}
	if p.opts.DryRun {
		fields["dry_run"] = true
	}
	p.logger.Info(ctx, string(op.Action), fields)
}

// fail logs the failing name and error text once, then returns an OpError
func (p *pass) fail(ctx context.Context, action models.Action, name, path string, err error) error {
	p.logger.Error(ctx, "operation failed", err, logging.Fields{
		"action": string(action),
		"name":   name,
		"path":   path,
	})
	return &OpError{Action: action, Name: name, Path: path, Err: err}
}
