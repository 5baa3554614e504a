package eventstream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type collector struct {
	mu    sync.Mutex
	lines []string
	fail  string
}

func (c *collector) HandleLine(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(line))
	if c.fail != "" && string(line) == c.fail {
		return errors.New("handler failed")
	}
	return nil
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitDone(t *testing.T, s *Stream) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
	}
}

func TestStream_DispatchesUntilEOF(t *testing.T) {
	input := "type=CWD msg=audit(1.000:1): cwd=\"/\"\n\ntype=PROCTITLE msg=audit(1.000:1): proctitle=6C73\r\nlast line without newline"
	h := &collector{}
	s := New(strings.NewReader(input), h, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	assert.NoError(t, s.Err())
	assert.Equal(t, uint64(3), s.Lines())
	assert.Equal(t, []string{
		`type=CWD msg=audit(1.000:1): cwd="/"`,
		"type=PROCTITLE msg=audit(1.000:1): proctitle=6C73",
		"last line without newline",
	}, h.snapshot())
}

func TestStream_HandlerErrorDoesNotStop(t *testing.T) {
	h := &collector{fail: "b"}
	s := New(strings.NewReader("a\nb\nc\n"), h, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	assert.NoError(t, s.Err())
	assert.Equal(t, []string{"a", "b", "c"}, h.snapshot())
}

func TestStream_OversizedLineSkipped(t *testing.T) {
	input := "before\n" + strings.Repeat("x", MaxLineSize+1) + "\nafter\n"
	h := &collector{}
	s := New(strings.NewReader(input), h, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	require.NoError(t, s.Err())
	assert.Equal(t, []string{"before", "after"}, h.snapshot())
	assert.Equal(t, uint64(2), s.Lines())
}

func TestStream_LineAtLimit(t *testing.T) {
	long := strings.Repeat("y", MaxLineSize)
	h := &collector{}
	s := New(strings.NewReader(long+"\n"), h, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	require.NoError(t, s.Err())
	assert.Equal(t, []string{long}, h.snapshot())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestStream_ReadErrorEndsStream(t *testing.T) {
	h := &collector{}
	s := New(failingReader{}, h, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	require.Error(t, s.Err())
	assert.Empty(t, h.snapshot())
}

func TestStream_StopAndCancel(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()

		h := &collector{}
		s := New(pr, h, zaptest.NewLogger(t))
		require.NoError(t, s.Start(context.Background()))

		_, err := pw.Write([]byte("first\n"))
		require.NoError(t, err)
		require.Eventually(t, func() bool { return len(h.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)

		require.NoError(t, s.Stop())
		require.NoError(t, s.Stop(), "stop is idempotent")
		// The pending read finishes its line, then the loop observes the stop.
		go func() { _, _ = pw.Write([]byte("second\nthird\n")) }()
		waitDone(t, s)

		assert.Equal(t, []string{"first", "second"}, h.snapshot())
	})

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := &collector{}
		s := New(strings.NewReader("never\n"), h, zaptest.NewLogger(t))
		require.NoError(t, s.Start(ctx))
		waitDone(t, s)

		assert.Empty(t, h.snapshot())
	})
}
