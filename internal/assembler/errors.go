package assembler

import (
	"errors"
	"fmt"

	"github.com/mrzor/auditdedup/internal/auditrec"
)

var (
	// ErrResourceExhausted means the pool had no free slot for a new
	// sequence number. The fragment was not attached anywhere.
	ErrResourceExhausted = errors.New("event pool exhausted")

	// ErrDuplicateFragment means the fragment's slot was already filled, or
	// a third PATH arrived. The event was flushed and its slot reclaimed; the
	// offending fragment itself was not forwarded.
	ErrDuplicateFragment = errors.New("duplicate fragment")

	// ErrClosed is returned after Destroy.
	ErrClosed = errors.New("assembler closed")
)

// FragmentError reports a fragment the assembler could not attach.
type FragmentError struct {
	Seq  uint64
	Type auditrec.RecordType
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("event %d: %s fragment: %v", e.Seq, e.Type, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}
