// Package logsink is the side channel for everything that must not reach the
// tree output: raw stdout/stderr of check and remediate actions, and the
// engine's own structured logs.
package logsink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Sink appends timestamped lines to an underlying writer.
type Sink struct {
	mu    sync.Mutex
	w     io.Writer
	close func() error
	now   func() time.Time
}

// Open creates (or appends to) the log file at path, creating parent
// directories as needed.
func Open(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logsink: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logsink: open log file: %w", err)
	}
	s := New(f)
	s.close = f.Close
	return s, nil
}

// New wraps an arbitrary writer. Close is a no-op for such sinks.
func New(w io.Writer) *Sink {
	return &Sink{w: w, now: time.Now}
}

// Discard returns a sink that drops everything.
func Discard() *Sink {
	return New(io.Discard)
}

// Close releases the file handle, if the sink owns one.
func (s *Sink) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Write implements io.Writer. Bytes are passed through untouched, which is
// what slog handlers expect.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Printf writes a single timestamped line.
func (s *Sink) Printf(format string, args ...any) {
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] %s\n", s.now().Format(time.RFC3339), line)
}

// Prefixed returns a writer that splits its input into lines and writes each
// one as "[timestamp] prefix | line". Call Flush on the returned writer once
// the producer is done to emit a trailing partial line.
func (s *Sink) Prefixed(prefix string) *LineWriter {
	return &LineWriter{sink: s, prefix: prefix}
}

// LineWriter buffers partial lines written by a process.
type LineWriter struct {
	sink   *Sink
	prefix string
	mu     sync.Mutex
	buf    bytes.Buffer
}

// Write implements io.Writer.
func (l *LineWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			l.buf.Reset()
			l.buf.WriteString(line)
			break
		}
		l.sink.Printf("%s | %s", l.prefix, strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush writes out any buffered partial line.
func (l *LineWriter) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.sink.Printf("%s | %s", l.prefix, l.buf.String())
		l.buf.Reset()
	}
}
