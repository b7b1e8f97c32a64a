package logging

import (
	"context"
	"sync"
)

// Entry is a log record captured by MemoryLogger
type Entry struct {
	Level   Level
	Message string
	Err     error
	Fields  Fields
}

// MemoryLogger keeps entries in memory; used by tests of logging callers
type MemoryLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  Fields
}

// NewMemoryLogger creates an empty in-memory logger
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

func (l *MemoryLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.add(DebugLevel, msg, nil, fields)
}

func (l *MemoryLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.add(InfoLevel, msg, nil, fields)
}

func (l *MemoryLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.add(WarnLevel, msg, nil, fields)
}

func (l *MemoryLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.add(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger recording into the same entry list
func (l *MemoryLogger) WithFields(fields Fields) Logger {
	return &MemoryLogger{
		mu:      l.mu,
		entries: l.entries,
		fields:  mergeFields(l.fields, fields),
	}
}

func (l *MemoryLogger) Close() error {
	return nil
}

// Entries returns a copy of the captured entries
func (l *MemoryLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// Filter returns the captured entries at the given level
func (l *MemoryLogger) Filter(level Level) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *MemoryLogger) add(level Level, msg string, err error, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, Entry{
		Level:   level,
		Message: msg,
		Err:     err,
		Fields:  mergeFields(l.fields, fields),
	})
}
