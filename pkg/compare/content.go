package compare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/sdejongh/foldermirror/internal/platform"
	"github.com/sdejongh/foldermirror/pkg/storage"
)

// DefaultBufferSize is the chunk size used when none is configured
const DefaultBufferSize = 64 * 1024

// ContentComparer compares files byte-by-byte, ordered by cost:
// a length mismatch is decided without reading content, a file compared
// with itself (same absolute path, ignoring case) is equal without reading,
// and only then are both files read and compared chunk by chunk over their
// full length.
type ContentComparer struct {
	bufferSize    int
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewContentComparer creates a comparer reading bufferSize bytes per chunk
func NewContentComparer(bufferSize int) *ContentComparer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &ContentComparer{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetReaderWrapper sets a function applied to both content readers
func (c *ContentComparer) SetReaderWrapper(wrapper ReaderWrapper) {
	c.readerWrapper = wrapper
}

// Compare decides whether sourcePath and targetPath hold identical content.
// Both files must exist; otherwise the error wraps ErrMissingFile and fs.ErrNotExist.
func (c *ContentComparer) Compare(ctx context.Context, fsys storage.Backend, sourcePath, targetPath string) (*Comparison, error) {
	sourceInfo, err := statFile(ctx, fsys, sourcePath)
	if err != nil {
		return nil, err
	}
	targetInfo, err := statFile(ctx, fsys, targetPath)
	if err != nil {
		return nil, err
	}

	comparison := &Comparison{
		SourcePath: sourceInfo.Path,
		TargetPath: targetInfo.Path,
	}

	if sourceInfo.Size != targetInfo.Size {
		comparison.Result = Different
		comparison.Reason = fmt.Sprintf("size mismatch: source=%d, target=%d", sourceInfo.Size, targetInfo.Size)
		return comparison, nil
	}

	if platform.SamePath(sourceInfo.Path, targetInfo.Path) {
		comparison.Result = Same
		comparison.Reason = "same file"
		return comparison, nil
	}

	return c.compareContent(ctx, fsys, comparison)
}

// Name returns the comparator name
func (c *ContentComparer) Name() string {
	return "content"
}

func (c *ContentComparer) compareContent(ctx context.Context, fsys storage.Backend, comparison *Comparison) (*Comparison, error) {
	sourceReader, err := fsys.Read(ctx, comparison.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceReader.Close()

	targetReader, err := fsys.Read(ctx, comparison.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer targetReader.Close()

	var source io.Reader = sourceReader
	var target io.Reader = targetReader
	if c.readerWrapper != nil {
		source = c.readerWrapper(ctx, sourceReader)
		target = c.readerWrapper(ctx, targetReader)
	}

	sourceBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(sourceBufPtr)
	sourceBuf := *sourceBufPtr

	targetBufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(targetBufPtr)
	targetBuf := *targetBufPtr

	var offset int64
	for {
		sourceN, sourceErr := io.ReadFull(source, sourceBuf)
		targetN, targetErr := io.ReadFull(target, targetBuf)
		comparison.BytesRead += int64(sourceN + targetN)

		if sourceErr != nil && !isEnd(sourceErr) {
			return nil, fmt.Errorf("failed to read source: %w", sourceErr)
		}
		if targetErr != nil && !isEnd(targetErr) {
			return nil, fmt.Errorf("failed to read target: %w", targetErr)
		}

		// Lengths matched at stat time; a mismatch here means a file changed mid-pass
		if sourceN != targetN {
			comparison.Result = Different
			comparison.Reason = fmt.Sprintf("length changed during comparison at offset %d", offset+int64(min(sourceN, targetN)))
			return comparison, nil
		}

		if !bytes.Equal(sourceBuf[:sourceN], targetBuf[:targetN]) {
			comparison.Result = Different
			comparison.Reason = fmt.Sprintf("content differs at byte offset %d", offset+firstDiff(sourceBuf[:sourceN], targetBuf[:targetN]))
			return comparison, nil
		}
		offset += int64(sourceN)

		sourceDone, targetDone := isEnd(sourceErr), isEnd(targetErr)
		if sourceDone && targetDone {
			break
		}
		if sourceDone != targetDone {
			comparison.Result = Different
			comparison.Reason = fmt.Sprintf("length changed during comparison at offset %d", offset)
			return comparison, nil
		}
	}

	comparison.Result = Same
	comparison.Reason = fmt.Sprintf("content matches (%d bytes)", offset)
	return comparison, nil
}

func statFile(ctx context.Context, fsys storage.Backend, path string) (*storage.FileInfo, error) {
	info, err := fsys.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrMissingFile, path, err)
		}
		return nil, err
	}
	if info.IsDir {
		return nil, fmt.Errorf("cannot compare directory %s", path)
	}
	return info, nil
}

// isEnd reports whether err from io.ReadFull marks the end of the stream
func isEnd(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func firstDiff(a, b []byte) int64 {
	for i := range a {
		if a[i] != b[i] {
			return int64(i)
		}
	}
	return int64(len(a))
}
