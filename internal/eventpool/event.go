package eventpool

import (
	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/fingerprint"
	"github.com/mrzor/auditdedup/internal/output"
)

// Event is one slot of the pool: the fragments collected so far for a
// single sequence number.
//
// Events are owned by the pool. The mutators are meant for the assembler,
// which is the only component that changes event state.
type Event struct {
	ref  Ref
	live bool
	next int32 // free-list link, valid only while the slot is free

	seq      uint64
	items    int
	hasItems bool
	frags    [auditrec.NumKinds]*auditrec.Fragment
	digest   fingerprint.Digest
	sink     output.Sink
}

// Ref returns the stable handle of the event's slot for its current lifetime.
func (e *Event) Ref() Ref {
	return e.ref
}

// Seq returns the sequence number the event is keyed by.
func (e *Event) Seq() uint64 {
	return e.seq
}

// Items returns the expected PATH count and whether the SYSCALL fragment has
// supplied it.
func (e *Event) Items() (int, bool) {
	return e.items, e.hasItems
}

// Fragment returns the fragment in slot k, or nil.
func (e *Event) Fragment(k auditrec.Kind) *auditrec.Fragment {
	if k >= auditrec.NumKinds {
		return nil
	}
	return e.frags[k]
}

// Each calls fn for every present fragment in canonical order.
func (e *Event) Each(fn func(auditrec.Kind, *auditrec.Fragment)) {
	for _, k := range auditrec.CanonicalKinds {
		if f := e.frags[k]; f != nil {
			fn(k, f)
		}
	}
}

// Len returns the number of present fragments.
func (e *Event) Len() int {
	n := 0
	for _, f := range e.frags {
		if f != nil {
			n++
		}
	}
	return n
}

// Digest returns the fingerprint. It is zero until the event completes.
func (e *Event) Digest() fingerprint.Digest {
	return e.digest
}

// Sink returns the destination the event's fragments are forwarded to.
func (e *Event) Sink() output.Sink {
	return e.sink
}

// Init prepares a freshly acquired slot for seq.
func (e *Event) Init(seq uint64, sink output.Sink) {
	e.seq = seq
	e.sink = sink
	e.items = 0
	e.hasItems = false
	e.frags = [auditrec.NumKinds]*auditrec.Fragment{}
	e.digest = fingerprint.Digest{}
}

// SetFragment fills slot k.
func (e *Event) SetFragment(k auditrec.Kind, f *auditrec.Fragment) {
	e.frags[k] = f
}

// TakeFragment empties slot k and returns what it held.
func (e *Event) TakeFragment(k auditrec.Kind) *auditrec.Fragment {
	f := e.frags[k]
	e.frags[k] = nil
	return f
}

// SetItems records the expected PATH count.
func (e *Event) SetItems(n int) {
	e.items = n
	e.hasItems = true
}

// SetDigest attaches the computed fingerprint.
func (e *Event) SetDigest(d fingerprint.Digest) {
	e.digest = d
}

func (e *Event) reset() {
	e.Init(Sentinel, nil)
	e.live = false
}
