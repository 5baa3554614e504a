package eventstream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// MaxLineSize bounds a single audit record. Kernel records are well below it;
// longer lines are skipped.
const MaxLineSize = 1 << 20

// LineHandler receives one record line at a time. The slice is only valid
// for the duration of the call.
type LineHandler interface {
	HandleLine(line []byte) error
}

// Stream reads audit records line by line and dispatches them to a handler.
type Stream struct {
	reader  io.Reader
	handler LineHandler
	logger  *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	err      error
	lines    uint64
	skipped  uint64
}

// New creates a new Stream with the given reader and line handler.
func New(reader io.Reader, handler LineHandler, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		reader:  reader,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins reading records in a goroutine. It returns immediately and
// processes records in the background until the context is cancelled, Stop
// is called, or the reader reaches EOF.
func (s *Stream) Start(ctx context.Context) error {
	go s.processLines(ctx)
	return nil
}

// Stop signals the processing goroutine to stop after the current line.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

// Done is closed once the processing goroutine has returned.
func (s *Stream) Done() <-chan struct{} {
	return s.doneCh
}

// Err returns the error that ended the stream, or nil on EOF or stop. It is
// only meaningful after Done is closed.
func (s *Stream) Err() error {
	<-s.doneCh
	return s.err
}

// Lines returns the number of lines dispatched. It is only meaningful after
// Done is closed.
func (s *Stream) Lines() uint64 {
	<-s.doneCh
	return s.lines
}

// processLines is the main loop that reads and dispatches lines.
func (s *Stream) processLines(ctx context.Context) {
	defer close(s.doneCh)

	reader := bufio.NewReaderSize(s.reader, 64*1024)
	var buf []byte

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		line, oversized, err := readLine(reader, buf[:0])
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("input closed", zap.Uint64("lines", s.lines), zap.Uint64("skipped", s.skipped))
				return
			}
			s.err = fmt.Errorf("reading audit records: %w", err)
			return
		}
		buf = line

		if oversized {
			s.skipped++
			s.logger.Warn("skipping oversized record",
				zap.Int("limit", MaxLineSize),
				zap.ByteString("prefix", line[:min(len(line), 128)]),
			)
			continue
		}
		if len(line) == 0 {
			continue
		}
		s.lines++

		if err := s.handler.HandleLine(line); err != nil {
			s.logger.Error("handling record", zap.Uint64("line", s.lines), zap.Error(err))
		}
	}
}

// readLine appends the next line, without its terminator, to buf. A line
// longer than MaxLineSize is consumed to its end and reported as oversized;
// buf then holds only its first chunk.
func readLine(r *bufio.Reader, buf []byte) ([]byte, bool, error) {
	oversized := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return buf, oversized, err
		}
		switch {
		case oversized:
		case len(buf)+len(chunk) > MaxLineSize:
			oversized = true
			if len(buf) == 0 {
				buf = append(buf, chunk...)
			}
		default:
			buf = append(buf, chunk...)
		}
		if !isPrefix {
			return buf, oversized, nil
		}
	}
}
