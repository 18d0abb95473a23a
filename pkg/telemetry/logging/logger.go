package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style key=value text.
	FormatText LogFormat = "text"
	// FormatConsole outputs text without timestamps for interactive use.
	FormatConsole LogFormat = "console"
)

// DefaultBufferSize is the number of pending writes the async buffer holds
// before it starts dropping.
const DefaultBufferSize = 1000

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text", "console")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// BufferSize is the async log buffer size
	BufferSize int

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// Logger is a structured logger whose output goes through an async buffer,
// so a slow sink never blocks a gate's reclaimer or its callers.
type Logger struct {
	slog   *slog.Logger
	buffer *AsyncWriter
	level  slog.Level
	format LogFormat
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	buffer := NewAsyncWriter(writer, bufferSize)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(buffer, opts)
	case FormatConsole:
		opts.ReplaceAttr = dropTime
		handler = slog.NewTextHandler(buffer, opts)
	default:
		handler = slog.NewTextHandler(buffer, opts)
	}

	return &Logger{
		slog:   slog.New(&contextHandler{Handler: handler}),
		buffer: buffer,
		level:  level,
		format: format,
	}, nil
}

// Slog returns the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// SetDefault installs the logger as the process-wide slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.slog)
}

// With creates a new logger with additional fields sharing the same buffer.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		buffer: l.buffer,
		level:  l.level,
		format: l.format,
	}
}

// Level returns the minimum enabled level.
func (l *Logger) Level() slog.Level {
	return l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// InfoContext logs an info message with the run and gate fields carried by ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Dropped returns the number of log writes discarded because the buffer
// was full.
func (l *Logger) Dropped() int64 {
	return l.buffer.Dropped()
}

// Close flushes pending writes and stops the buffer. Logging after Close
// is discarded.
func (l *Logger) Close() error {
	return l.buffer.Close()
}

// AsyncWriter hands writes to a background goroutine through a bounded
// channel. When the channel is full the write is dropped and counted.
type AsyncWriter struct {
	out     io.Writer
	entries chan []byte
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncWriter starts an async writer in front of out.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	w := &AsyncWriter{
		out:     out,
		entries: make(chan []byte, size),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Write queues a copy of p. It never blocks and never fails.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return len(p), nil
	}

	// slog reuses its buffer after Write returns.
	entry := make([]byte, len(p))
	copy(entry, p)

	select {
	case w.entries <- entry:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for entry := range w.entries {
		// Sink errors have nowhere to go.
		_, _ = w.out.Write(entry)
	}
}

// Dropped returns the number of discarded writes.
func (w *AsyncWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Close drains queued writes and stops the writer goroutine.
// It is safe to call more than once.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()

	<-w.done
	return nil
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", formatStr)
	}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
