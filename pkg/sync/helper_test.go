package sync

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/foldermirror/pkg/logging"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

// TestHelper provides a source and a target directory on one backend
type TestHelper struct {
	t         *testing.T
	fs        *storage.FS
	sourceDir string
	targetDir string
	logger    *logging.MemoryLogger
}

// backendHelpers returns one helper per backend kind
func backendHelpers(t *testing.T) map[string]func(t *testing.T) *TestHelper {
	return map[string]func(t *testing.T) *TestHelper{
		"Local": func(t *testing.T) *TestHelper {
			dir := t.TempDir()
			return newTestHelper(t, storage.NewLocal(), filepath.Join(dir, "source"), filepath.Join(dir, "target"))
		},
		"Memory": func(t *testing.T) *TestHelper {
			return newTestHelper(t, storage.NewMemory(), "/data/source", "/data/target")
		},
	}
}

// forEachBackend runs fn against the OS filesystem and an in-memory filesystem
func forEachBackend(t *testing.T, fn func(t *testing.T, h *TestHelper)) {
	for _, name := range []string{"Local", "Memory"} {
		newHelper := backendHelpers(t)[name]
		t.Run(name, func(t *testing.T) {
			fn(t, newHelper(t))
		})
	}
}

func newTestHelper(t *testing.T, fs *storage.FS, source, target string) *TestHelper {
	t.Helper()
	h := &TestHelper{
		t:         t,
		fs:        fs,
		sourceDir: source,
		targetDir: target,
		logger:    logging.NewMemoryLogger(),
	}
	h.Mkdir(source)
	h.Mkdir(target)
	return h
}

// Mkdir creates a directory with parents
func (h *TestHelper) Mkdir(dir string) {
	h.t.Helper()
	if err := h.fs.MkdirAll(context.Background(), dir); err != nil {
		h.t.Fatalf("failed to create %s: %v", dir, err)
	}
}

// Source returns the full path of a slash-separated name under the source root
func (h *TestHelper) Source(name string) string {
	return filepath.Join(h.sourceDir, filepath.FromSlash(name))
}

// Target returns the full path of a slash-separated name under the target root
func (h *TestHelper) Target(name string) string {
	return filepath.Join(h.targetDir, filepath.FromSlash(name))
}

// WriteFile creates or replaces a file, creating parents
func (h *TestHelper) WriteFile(path, content string) {
	h.t.Helper()
	h.Mkdir(filepath.Dir(path))
	err := h.fs.Write(context.Background(), path, strings.NewReader(content), int64(len(content)), storage.Overwrite)
	if err != nil {
		h.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of a file
func (h *TestHelper) ReadFile(path string) string {
	h.t.Helper()
	r, err := h.fs.Read(context.Background(), path)
	if err != nil {
		h.t.Fatalf("failed to open %s: %v", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		h.t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// Exists reports whether path exists
func (h *TestHelper) Exists(path string) bool {
	ok, _ := h.fs.Exists(context.Background(), path)
	return ok
}

// Snapshot maps every relative path below root to its content; directories map to "/"
func (h *TestHelper) Snapshot(root string) map[string]string {
	h.t.Helper()
	out := make(map[string]string)
	h.snapshot(root, "", out)
	return out
}

func (h *TestHelper) snapshot(dir, rel string, out map[string]string) {
	entries, err := h.fs.List(context.Background(), dir)
	if err != nil {
		h.t.Fatalf("failed to list %s: %v", dir, err)
	}
	for _, e := range entries {
		name := e.Name
		if rel != "" {
			name = rel + "/" + e.Name
		}
		if e.IsDir {
			out[name] = "/"
			h.snapshot(e.Path, name, out)
			continue
		}
		out[name] = h.ReadFile(e.Path)
	}
}

// NewReconciler creates a reconciler logging into the helper's memory logger
func (h *TestHelper) NewReconciler(opts Options) *Reconciler {
	h.t.Helper()
	r, err := NewReconciler(h.fs, h.logger, opts)
	if err != nil {
		h.t.Fatalf("NewReconciler() error = %v", err)
	}
	return r
}
