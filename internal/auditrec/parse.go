package auditrec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformed is returned when a record lacks a field the assembler needs.
var ErrMalformed = errors.New("malformed audit record")

var (
	typeMarker  = []byte("type=")
	stampMarker = []byte("audit(")
	itemsMarker = []byte("items=")
)

// MaxItems caps the items= value. Larger counts saturate here rather than
// failing, so the record still reaches assembly.
const MaxItems = 1 << 16

// Stamp is the parsed audit(<sec>.<milli>:<seq>) token.
type Stamp struct {
	Sec   uint64
	Milli uint32
	Seq   uint64
}

// Time converts the stamp to wall-clock time.
func (s Stamp) Time() time.Time {
	//nolint:gosec // audit seconds fit in int64 until the year 292277026596
	return time.Unix(int64(s.Sec), int64(s.Milli)*int64(time.Millisecond))
}

func (s Stamp) String() string {
	return fmt.Sprintf("%d.%03d:%d", s.Sec, s.Milli, s.Seq)
}

// Fragment is one parsed audit record. Payload is owned by the fragment.
type Fragment struct {
	Type    RecordType
	Stamp   Stamp
	Items   int // only meaningful for TypeSyscall
	Payload []byte

	bodyOffset int
}

// Seq returns the correlation key of the fragment.
func (f *Fragment) Seq() uint64 {
	return f.Stamp.Seq
}

// Body returns the payload after the audit(...) stamp, which is identical
// across repeated occurrences of the same activity.
func (f *Fragment) Body() []byte {
	return f.Payload[f.bodyOffset:]
}

// ParseLine parses a raw record line. The line is copied, so callers may
// reuse their buffer.
//
// Records whose type is not tracked are returned with Type TypeOther and are
// not required to carry a stamp.
func ParseLine(line []byte) (*Fragment, error) {
	line = bytes.TrimRight(line, "\r\n")
	payload := make([]byte, len(line))
	copy(payload, line)

	frag := &Fragment{
		Type:    ParseType(typeName(payload)),
		Payload: payload,
	}

	stamp, end, err := ParseStamp(payload)
	if err != nil {
		if !frag.Type.Tracked() {
			return frag, nil
		}
		return nil, fmt.Errorf("%s record: %w", frag.Type, err)
	}
	frag.Stamp = stamp
	frag.bodyOffset = bodyStart(payload, end)

	if frag.Type == TypeSyscall {
		items, err := ParseItems(payload)
		if err != nil {
			return nil, fmt.Errorf("SYSCALL record %d: %w", stamp.Seq, err)
		}
		frag.Items = items
	}

	return frag, nil
}

// typeName returns the value of the leading type= field, or "" if absent.
func typeName(payload []byte) string {
	idx := fieldIndex(payload, typeMarker)
	if idx < 0 {
		return ""
	}
	rest := payload[idx+len(typeMarker):]
	if end := bytes.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	return string(rest)
}

// ParseStamp extracts the audit(<sec>.<milli>:<seq>) token. It returns the
// stamp and the offset just past the closing parenthesis.
func ParseStamp(payload []byte) (Stamp, int, error) {
	idx := bytes.Index(payload, stampMarker)
	if idx < 0 {
		return Stamp{}, 0, fmt.Errorf("%w: missing audit( stamp", ErrMalformed)
	}
	pos := idx + len(stampMarker)

	var s Stamp
	var err error
	if s.Sec, pos, err = parseUint(payload, pos, '.'); err != nil {
		return Stamp{}, 0, fmt.Errorf("%w: stamp seconds: %v", ErrMalformed, err)
	}
	milli, pos, err := parseUint(payload, pos, ':')
	if err != nil {
		return Stamp{}, 0, fmt.Errorf("%w: stamp millis: %v", ErrMalformed, err)
	}
	if milli > math.MaxUint32 {
		return Stamp{}, 0, fmt.Errorf("%w: stamp millis out of range", ErrMalformed)
	}
	s.Milli = uint32(milli)
	if s.Seq, pos, err = parseUint(payload, pos, ')'); err != nil {
		return Stamp{}, 0, fmt.Errorf("%w: sequence number: %v", ErrMalformed, err)
	}

	return s, pos, nil
}

// ParseItems extracts the items=<n> field of a SYSCALL record.
func ParseItems(payload []byte) (int, error) {
	idx := fieldIndex(payload, itemsMarker)
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing items field", ErrMalformed)
	}
	pos := idx + len(itemsMarker)
	end := pos
	var n uint64
	for end < len(payload) && isDigit(payload[end]) {
		if n <= MaxItems {
			n = n*10 + uint64(payload[end]-'0')
		}
		end++
	}
	if end == pos {
		return 0, fmt.Errorf("%w: items has no value", ErrMalformed)
	}
	if end < len(payload) && payload[end] != ' ' {
		return 0, fmt.Errorf("%w: items is not numeric", ErrMalformed)
	}
	return int(min(n, MaxItems)), nil
}

// fieldIndex finds marker at the start of payload or right after a space, so
// that "items=" does not match inside another field name.
func fieldIndex(payload, marker []byte) int {
	offset := 0
	for {
		idx := bytes.Index(payload[offset:], marker)
		if idx < 0 {
			return -1
		}
		idx += offset
		if idx == 0 || payload[idx-1] == ' ' {
			return idx
		}
		offset = idx + 1
	}
}

// parseUint reads decimal digits at pos that must be followed by term. It
// returns the value and the offset past term.
func parseUint(payload []byte, pos int, term byte) (uint64, int, error) {
	start := pos
	var n uint64
	for pos < len(payload) && isDigit(payload[pos]) {
		d := uint64(payload[pos] - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0, 0, errors.New("overflow")
		}
		n = n*10 + d
		pos++
	}
	if pos == start {
		return 0, 0, errors.New("no digits")
	}
	if pos >= len(payload) || payload[pos] != term {
		return 0, 0, fmt.Errorf("expected %q", term)
	}
	return n, pos + 1, nil
}

// bodyStart skips the ": " separator that follows the stamp.
func bodyStart(payload []byte, pos int) int {
	if pos < len(payload) && payload[pos] == ':' {
		pos++
	}
	for pos < len(payload) && payload[pos] == ' ' {
		pos++
	}
	return pos
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
