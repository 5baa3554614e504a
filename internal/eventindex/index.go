// Package eventindex maps live sequence numbers to their pool events.
//
// The index is a B-tree ordered by sequence number. Keys are unique: an
// insert for a sequence number that is already present is refused rather
// than replacing the existing event, so every fragment of one audit event is
// routed to the same slot.
//
// The index is not safe for concurrent use.
package eventindex

import (
	"errors"

	"github.com/google/btree"

	"github.com/mrzor/auditdedup/internal/eventpool"
)

// ErrDuplicateKey is returned by Insert when the sequence number is live.
var ErrDuplicateKey = errors.New("sequence number already indexed")

const degree = 32

type entry struct {
	seq uint64
	ev  *eventpool.Event
}

func less(a, b entry) bool {
	return a.seq < b.seq
}

// Index is an ordered, key-unique map from sequence number to event.
type Index struct {
	tree *btree.BTreeG[entry]
}

// New creates an empty index.
func New() *Index {
	return &Index{tree: btree.NewG[entry](degree, less)}
}

// Insert adds ev under ev.Seq().
func (x *Index) Insert(ev *eventpool.Event) error {
	e := entry{seq: ev.Seq(), ev: ev}
	if x.tree.Has(e) {
		return ErrDuplicateKey
	}
	x.tree.ReplaceOrInsert(e)
	return nil
}

// Find returns the event keyed by seq.
func (x *Index) Find(seq uint64) (*eventpool.Event, bool) {
	e, ok := x.tree.Get(entry{seq: seq})
	if !ok {
		return nil, false
	}
	return e.ev, true
}

// Delete removes ev. It returns false if ev is not the event indexed under
// its sequence number.
func (x *Index) Delete(ev *eventpool.Event) bool {
	key := entry{seq: ev.Seq()}
	cur, ok := x.tree.Get(key)
	if !ok || cur.ev != ev {
		return false
	}
	x.tree.Delete(key)
	return true
}

// Ascend calls fn for each event in ascending sequence order until fn
// returns false. fn must not modify the index.
func (x *Index) Ascend(fn func(*eventpool.Event) bool) {
	x.tree.Ascend(func(e entry) bool {
		return fn(e.ev)
	})
}

// Events returns a snapshot of all indexed events in ascending order.
func (x *Index) Events() []*eventpool.Event {
	events := make([]*eventpool.Event, 0, x.tree.Len())
	x.Ascend(func(ev *eventpool.Event) bool {
		events = append(events, ev)
		return true
	})
	return events
}

// Len returns the number of indexed events.
func (x *Index) Len() int {
	return x.tree.Len()
}

// Clear drops every entry.
func (x *Index) Clear() {
	x.tree.Clear(false)
}
