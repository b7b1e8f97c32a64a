package sync

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/foldermirror/pkg/compare"
	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/models"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

func TestSyncContents_EmptySource(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		err := h.NewReconciler(Options{}).SyncContents(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)
		assert.Empty(t, h.Snapshot(h.targetDir))
	})
}

func TestSyncContents_ExampleScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("a.txt"), "hello")
		h.WriteFile(h.Source("sub/b.txt"), "x")
		h.WriteFile(h.Target("a.txt"), "hellO")
		h.WriteFile(h.Target("old.txt"), "z")

		report, err := h.NewReconciler(Options{}).Run(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, map[string]string{
			"a.txt":     "hello",
			"sub":       "/",
			"sub/b.txt": "x",
		}, h.Snapshot(h.targetDir))

		assert.Equal(t, models.StatusSuccess, report.Status)
		assert.Equal(t, 1, report.Stats.FilesReplaced)
		assert.Equal(t, 1, report.Stats.FilesDeleted)
		assert.Equal(t, 1, report.Stats.DirsCopied)
		assert.Equal(t, []models.Action{models.ActionReplace, models.ActionDelete, models.ActionCopyTree}, actions(report))

		// One log entry per mutating action, carrying action and name
		infos := h.logger.Filter(logging.InfoLevel)
		require.Len(t, infos, 3)
		assert.Equal(t, "a.txt", infos[0].Fields["name"])
		assert.Equal(t, "replace", infos[0].Fields["action"])
		assert.Equal(t, report.PassID, infos[0].Fields["pass_id"])
	})
}

func TestSyncContents_MirrorAndIdempotence(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("root.txt"), "root")
		h.WriteFile(h.Source("docs/readme.md"), "# readme")
		h.WriteFile(h.Source("docs/deep/deeper/leaf.txt"), "leaf")
		h.WriteFile(h.Source("same.bin"), "identical")
		h.Mkdir(h.Source("empty"))
		h.WriteFile(h.Target("same.bin"), "identical")
		h.WriteFile(h.Target("docs/orphan.txt"), "orphan")
		h.WriteFile(h.Target("gone/a/b.txt"), "b")

		r := h.NewReconciler(Options{})
		ctx := context.Background()

		require.NoError(t, r.SyncContents(ctx, h.sourceDir, h.targetDir))
		assert.Equal(t, h.Snapshot(h.sourceDir), h.Snapshot(h.targetDir))

		report, err := r.Run(ctx, h.sourceDir, h.targetDir)
		require.NoError(t, err)
		assert.Zero(t, report.Stats.Mutations(), "a second pass must not change anything")
		assert.Empty(t, report.Operations)
		assert.Equal(t, 4, report.Stats.FilesUnchanged)
		assert.Equal(t, h.Snapshot(h.sourceDir), h.Snapshot(h.targetDir))
	})
}

func TestSyncContents_NestedPropagation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("a/b/c/file.txt"), "v1")
		r := h.NewReconciler(Options{})
		ctx := context.Background()
		require.NoError(t, r.SyncContents(ctx, h.sourceDir, h.targetDir))

		h.WriteFile(h.Source("a/b/c/file.txt"), "v2")
		report, err := r.Run(ctx, h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, "v2", h.ReadFile(h.Target("a/b/c/file.txt")))
		assert.Equal(t, 1, report.Stats.FilesReplaced)
		assert.Equal(t, 4, report.Stats.DirsVisited)
	})
}

func TestSyncContents_Deletion(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("keep.txt"), "k")
		h.WriteFile(h.Source("drop.txt"), "d")
		h.WriteFile(h.Source("dir/x.txt"), "x")
		r := h.NewReconciler(Options{})
		ctx := context.Background()
		require.NoError(t, r.SyncContents(ctx, h.sourceDir, h.targetDir))

		require.NoError(t, h.fs.Delete(ctx, h.Source("drop.txt")))
		require.NoError(t, h.fs.DeleteAll(ctx, h.Source("dir")))
		require.NoError(t, r.SyncContents(ctx, h.sourceDir, h.targetDir))

		assert.False(t, h.Exists(h.Target("drop.txt")))
		assert.False(t, h.Exists(h.Target("dir")))
		assert.Equal(t, map[string]string{"keep.txt": "k"}, h.Snapshot(h.targetDir))
	})
}

func TestSyncContents_FileReplacesDirectory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("name"), "now a file")
		h.WriteFile(h.Target("name/inner.txt"), "was a directory")
		h.Mkdir(h.Source("other"))
		h.WriteFile(h.Target("other"), "was a file")

		require.NoError(t, h.NewReconciler(Options{}).SyncContents(context.Background(), h.sourceDir, h.targetDir))
		assert.Equal(t, h.Snapshot(h.sourceDir), h.Snapshot(h.targetDir))
	})
}

func TestSyncContents_ExcludedDirectoryBlocksFile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("cache"), "a file named like the excluded directory")
		h.WriteFile(h.Target("cache/keep.bin"), "excluded content")

		err := h.NewReconciler(Options{Exclude: []string{"cache/"}}).SyncContents(context.Background(), h.sourceDir, h.targetDir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExcludedInTheWay)

		var opErr *OpError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, "cache", opErr.Name)

		assert.Equal(t, "excluded content", h.ReadFile(h.Target("cache/keep.bin")))
	})
}

func TestSyncContents_DryRunFileReplacesDirectory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("x"), "file")
		h.WriteFile(h.Target("x/inner.txt"), "dir")

		report, err := h.NewReconciler(Options{DryRun: true}).Run(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, []models.Action{models.ActionDeleteTree, models.ActionCopy}, actions(report))
		assert.Equal(t, 1, report.Stats.DirsDeleted)
		assert.Equal(t, "dir", h.ReadFile(h.Target("x/inner.txt")))
	})
}

func TestSyncContents_TargetSymlinks(t *testing.T) {
	t.Run("DirectoryLinkNotEntered", func(t *testing.T) {
		h := backendHelpers(t)["Local"](t)
		outside := t.TempDir()
		h.WriteFile(filepath.Join(outside, "important.txt"), "do not touch")
		h.Mkdir(h.Source("data"))
		if err := os.Symlink(outside, h.Target("data")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		report, err := h.NewReconciler(Options{}).Run(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, []models.Action{models.ActionDelete, models.ActionCopyTree}, actions(report))
		assert.Equal(t, "do not touch", h.ReadFile(filepath.Join(outside, "important.txt")))

		info, err := os.Lstat(h.Target("data"))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), "the link is replaced by a real directory")
	})

	t.Run("FileLinkReplacedNotWrittenThrough", func(t *testing.T) {
		h := backendHelpers(t)["Local"](t)
		outside := filepath.Join(t.TempDir(), "f.txt")
		h.WriteFile(outside, "outside")
		h.WriteFile(h.Source("f.txt"), "source")
		if err := os.Symlink(outside, h.Target("f.txt")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		report, err := h.NewReconciler(Options{}).Run(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, []models.Action{models.ActionReplace}, actions(report))
		assert.Equal(t, "outside", h.ReadFile(outside))
		assert.Equal(t, "source", h.ReadFile(h.Target("f.txt")))

		info, err := os.Lstat(h.Target("f.txt"))
		require.NoError(t, err)
		assert.Zero(t, info.Mode()&os.ModeSymlink)
	})

	t.Run("SourceLinkFollowed", func(t *testing.T) {
		h := backendHelpers(t)["Local"](t)
		linked := t.TempDir()
		h.WriteFile(filepath.Join(linked, "in.txt"), "through the link")
		if err := os.Symlink(linked, h.Source("linked")); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		require.NoError(t, h.NewReconciler(Options{}).SyncContents(context.Background(), h.sourceDir, h.targetDir))
		assert.Equal(t, map[string]string{
			"linked":        "/",
			"linked/in.txt": "through the link",
		}, h.Snapshot(h.targetDir))
	})
}

// countingComparator counts content reads through the wrapped comparer
type countingComparator struct {
	compare.Comparator
	calls int
}

func (c *countingComparator) Compare(ctx context.Context, fsys storage.Backend, source, target string) (*compare.Comparison, error) {
	c.calls++
	return c.Comparator.Compare(ctx, fsys, source, target)
}

func TestSyncContents_LengthShortCircuit(t *testing.T) {
	h := backendHelpers(t)["Memory"](t)
	h.WriteFile(h.Source("a.txt"), "longer content")
	h.WriteFile(h.Target("a.txt"), "short")

	r := h.NewReconciler(Options{})
	counter := &countingComparator{Comparator: compare.NewContentComparer(0)}
	r.SetComparator(counter)

	report, err := r.Run(context.Background(), h.sourceDir, h.targetDir)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)
	assert.Zero(t, report.Stats.BytesCompared, "lengths differ so no content is read")
	assert.Equal(t, "longer content", h.ReadFile(h.Target("a.txt")))
}

func TestSyncContents_DryRun(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("a.txt"), "hello")
		h.WriteFile(h.Source("new.txt"), "n")
		h.WriteFile(h.Source("sub/b.txt"), "x")
		h.WriteFile(h.Target("a.txt"), "hellO")
		h.WriteFile(h.Target("old.txt"), "z")
		h.WriteFile(h.Target("stale/s.txt"), "s")
		before := h.Snapshot(h.targetDir)

		report, err := h.NewReconciler(Options{DryRun: true}).Run(context.Background(), h.sourceDir, h.targetDir)
		require.NoError(t, err)

		assert.Equal(t, before, h.Snapshot(h.targetDir), "dry run must not touch the target")
		assert.True(t, report.DryRun)
		assert.Equal(t, []models.Action{
			models.ActionReplace,
			models.ActionCopy,
			models.ActionDelete,
			models.ActionDeleteTree,
			models.ActionCopyTree,
		}, actions(report))
	})
}

func TestSyncContents_Exclude(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		h.WriteFile(h.Source("keep.txt"), "k")
		h.WriteFile(h.Source("scratch.tmp"), "s")
		h.WriteFile(h.Source("cache/blob"), "b")
		h.WriteFile(h.Target("local.tmp"), "target-only but excluded")

		r := h.NewReconciler(Options{Exclude: []string{"*.tmp", "cache/"}})
		require.NoError(t, r.SyncContents(context.Background(), h.sourceDir, h.targetDir))

		assert.Equal(t, map[string]string{
			"keep.txt":  "k",
			"local.tmp": "target-only but excluded",
		}, h.Snapshot(h.targetDir))
	})
}

func TestSyncContents_ListingError(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *TestHelper) {
		report, err := h.NewReconciler(Options{}).Run(context.Background(), h.sourceDir, h.Target("missing"))

		var listErr *ListError
		require.True(t, errors.As(err, &listErr), "error = %v, want ListError", err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Equal(t, models.StatusFailed, report.Status)
		assert.NotEmpty(t, report.Error)
	})
}

// failingBackend fails every write to one path
type failingBackend struct {
	storage.Backend
	failPath string
}

func (b *failingBackend) Write(ctx context.Context, path string, r io.Reader, size int64, mode storage.WriteMode) error {
	if strings.HasSuffix(path, b.failPath) {
		return errors.New("disk full")
	}
	return b.Backend.Write(ctx, path, r, size, mode)
}

func TestSyncContents_OperationErrorAbortsPass(t *testing.T) {
	h := backendHelpers(t)["Memory"](t)
	h.WriteFile(h.Source("a.txt"), "a")
	h.WriteFile(h.Source("b.txt"), "b")
	h.WriteFile(h.Source("c.txt"), "c")
	h.WriteFile(h.Source("sub/d.txt"), "d")

	r, err := NewReconciler(&failingBackend{Backend: h.fs, failPath: "b.txt"}, h.logger, Options{})
	require.NoError(t, err)

	report, err := r.Run(context.Background(), h.sourceDir, h.targetDir)
	var opErr *OpError
	require.True(t, errors.As(err, &opErr), "error = %v, want OpError", err)
	assert.Equal(t, models.ActionCopy, opErr.Action)
	assert.Equal(t, "b.txt", opErr.Name)
	assert.Contains(t, err.Error(), "disk full")

	// a.txt was copied before the failure; nothing after it ran
	assert.True(t, h.Exists(h.Target("a.txt")))
	assert.False(t, h.Exists(h.Target("c.txt")))
	assert.False(t, h.Exists(h.Target("sub")))
	assert.Equal(t, models.StatusFailed, report.Status)

	errs := h.logger.Filter(logging.ErrorLevel)
	require.Len(t, errs, 1, "the failure is logged exactly once")
	assert.Equal(t, "b.txt", errs[0].Fields["name"])
	assert.Contains(t, errs[0].Err.Error(), "disk full")
}

func TestSyncContents_PreExistingTreeFileFails(t *testing.T) {
	h := backendHelpers(t)["Memory"](t)
	h.WriteFile(h.Source("tree/a.txt"), "a")

	// A destination file appears once the tree copy has started
	r, err := NewReconciler(&racingBackend{Backend: h.fs, create: h.Target("tree/a.txt")}, h.logger, Options{})
	require.NoError(t, err)

	err = r.SyncContents(context.Background(), h.sourceDir, h.targetDir)
	var opErr *OpError
	require.True(t, errors.As(err, &opErr), "error = %v, want OpError", err)
	assert.Equal(t, models.ActionCopyTree, opErr.Action)
	assert.ErrorIs(t, err, fs.ErrExist)
}

// racingBackend creates a file right before the first MkdirAll of its parent
type racingBackend struct {
	storage.Backend
	create string
	done   bool
}

func (b *racingBackend) MkdirAll(ctx context.Context, path string) error {
	if err := b.Backend.MkdirAll(ctx, path); err != nil {
		return err
	}
	if !b.done && strings.HasPrefix(b.create, path) {
		b.done = true
		return b.Backend.Write(ctx, b.create, strings.NewReader("sneaky"), 6, storage.CreateNew)
	}
	return nil
}

func TestSyncContents_CancelledContext(t *testing.T) {
	h := backendHelpers(t)["Memory"](t)
	h.WriteFile(h.Source("a.txt"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.NewReconciler(Options{}).Run(ctx, h.sourceDir, h.targetDir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.StatusCancelled, report.Status)
}

func TestSyncContents_BandwidthLimit(t *testing.T) {
	h := backendHelpers(t)["Memory"](t)
	h.WriteFile(h.Source("a.bin"), strings.Repeat("a", 1024))

	r := h.NewReconciler(Options{BandwidthLimit: 1 << 20})
	report, err := r.Run(context.Background(), h.sourceDir, h.targetDir)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), report.Stats.BytesCopied)

	report, err = r.Run(context.Background(), h.sourceDir, h.targetDir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.FilesUnchanged)
	assert.Equal(t, int64(2048), report.Stats.BytesCompared)
}

func actions(report *models.PassReport) []models.Action {
	out := make([]models.Action, len(report.Operations))
	for i, op := range report.Operations {
		out[i] = op.Action
	}
	return out
}
