package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink is an append-only destination for audit record lines.
type Sink interface {
	WriteLine(p []byte) error
}

// LineSink writes each payload as one line and flushes after every write.
type LineSink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// NewLineSink wraps w. The caller keeps ownership of w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

// OpenFile opens path for appending, creating it if needed. "-" selects stdout.
func OpenFile(path string) (*LineSink, error) {
	if path == "-" || path == "" {
		return NewLineSink(os.Stdout), nil
	}

	//nolint:gosec // output path comes from the operator's configuration
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}

	s := NewLineSink(f)
	s.closer = f
	return s, nil
}

// WriteLine appends p followed by a newline and flushes.
func (s *LineSink) WriteLine(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(p); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if len(p) == 0 || p[len(p)-1] != '\n' {
		if err := s.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file when the sink opened it.
func (s *LineSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
