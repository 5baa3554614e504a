package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSink_WriteLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)

	require.NoError(t, s.WriteLine([]byte("type=CWD msg=audit(1.000:1): cwd=\"/\"")))
	// Flushed immediately, no Close needed.
	assert.Equal(t, "type=CWD msg=audit(1.000:1): cwd=\"/\"\n", buf.String())

	require.NoError(t, s.WriteLine([]byte("already terminated\n")))
	require.NoError(t, s.WriteLine(nil))
	assert.Equal(t, "type=CWD msg=audit(1.000:1): cwd=\"/\"\nalready terminated\n\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestLineSink_WriteError(t *testing.T) {
	s := NewLineSink(failingWriter{})
	err := s.WriteLine([]byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOpenFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o600))

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteLine([]byte("new")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nnew\n", string(data))
}

func TestOpenFile_BadPath(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing", "dedup.log"))
	require.Error(t, err)
}
