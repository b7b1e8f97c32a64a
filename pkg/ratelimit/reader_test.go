package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rate      int64
		wantNil   bool
		wantBurst int
	}{
		{name: "Disabled", rate: 0, wantNil: true},
		{name: "Negative", rate: -1, wantNil: true},
		{name: "BurstFloor", rate: 1000, wantBurst: minBurst},
		{name: "OneSecondBurst", rate: 8 << 20, wantBurst: 8 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewLimiter(tt.rate)
			if tt.wantNil {
				if limiter != nil {
					t.Fatalf("NewLimiter(%d) = %v, want nil", tt.rate, limiter)
				}
				return
			}
			if limiter.BytesPerSecond() != tt.rate {
				t.Errorf("BytesPerSecond() = %d, want %d", limiter.BytesPerSecond(), tt.rate)
			}
			if limiter.burst() != tt.wantBurst {
				t.Errorf("burst() = %d, want %d", limiter.burst(), tt.wantBurst)
			}
		})
	}
}

func TestReaderPassthrough(t *testing.T) {
	src := strings.NewReader("unthrottled")
	if got := NewReader(context.Background(), src, nil); got != src {
		t.Error("nil limiter should return the reader unchanged")
	}

	rc := io.NopCloser(strings.NewReader("unthrottled"))
	if got := NewReadCloser(context.Background(), rc, nil); got != rc {
		t.Error("nil limiter should return the read closer unchanged")
	}
}

func TestReaderContent(t *testing.T) {
	content := bytes.Repeat([]byte("mirror"), 4096)
	reader := NewReader(context.Background(), bytes.NewReader(content), NewLimiter(64<<20))

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("ReadAll() returned %d bytes, want %d identical bytes", len(got), len(content))
	}
}

func TestReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewReader(ctx, bytes.NewReader(make([]byte, 1024)), NewLimiter(1<<20))
	if _, err := reader.Read(make([]byte, 16)); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestReadCloserClosesUnderlying(t *testing.T) {
	inner := &closeTracker{Reader: strings.NewReader("payload")}
	rc := NewReadCloser(context.Background(), inner, NewLimiter(1<<20))

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("ReadAll() = %q, want payload", got)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !inner.closed {
		t.Error("Close() did not reach the wrapped reader")
	}
}

func TestRateLimiting(t *testing.T) {
	t.Run("ThrottledAfterBurst", func(t *testing.T) {
		bytesPerSecond := int64(100000)
		// One full burst is free, the remaining half second worth must wait
		dataSize := bytesPerSecond + bytesPerSecond/2

		reader := NewReader(context.Background(), bytes.NewReader(make([]byte, dataSize)), NewLimiter(bytesPerSecond))

		start := time.Now()
		n, err := io.Copy(io.Discard, reader)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		elapsed := time.Since(start)

		if n != dataSize {
			t.Errorf("Copy() n = %d, want %d", n, dataSize)
		}
		if elapsed < 300*time.Millisecond {
			t.Errorf("elapsed = %v, want at least 300ms of throttling", elapsed)
		}
	})

	t.Run("ReadCappedToBurst", func(t *testing.T) {
		limiter := NewLimiter(1000)
		reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 200000)), limiter)

		n, err := reader.Read(make([]byte, 200000))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if n > limiter.burst() {
			t.Errorf("Read() n = %d, want at most burst %d", n, limiter.burst())
		}
	})
}

func BenchmarkRateLimitedRead(b *testing.B) {
	content := make([]byte, 1<<20)
	limiter := NewLimiter(1 << 30)
	buf := make([]byte, 64<<10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reader := NewReader(context.Background(), bytes.NewReader(content), limiter)
		if _, err := io.CopyBuffer(io.Discard, reader, buf); err != nil {
			b.Fatal(err)
		}
	}
}
