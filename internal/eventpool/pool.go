// Package eventpool is a fixed-capacity arena of Event slots.
//
// Slots are preallocated once and recycled through an index-linked free
// list with head and tail, so Acquire and Release are O(1) and the oldest
// released slot is reused first. Each slot carries a generation counter that
// is bumped on release, which lets holders of a Ref detect that the slot has
// since been reused.
//
// The pool is not safe for concurrent use.
package eventpool

import (
	"errors"
	"math"
)

// Sentinel is the sequence number of a slot that holds no event.
const Sentinel uint64 = 0

const nilIndex int32 = -1

// Ref identifies an event slot for one lifetime.
type Ref struct {
	Index uint32
	Gen   uint32
}

// Pool is a fixed set of Event slots.
type Pool struct {
	slots []Event
	head  int32
	tail  int32
	free  int
}

// New allocates a pool of capacity slots.
func New(capacity int) (*Pool, error) {
	if capacity < 1 {
		return nil, errors.New("pool capacity must be at least 1")
	}
	if capacity > math.MaxInt32 {
		return nil, errors.New("pool capacity too large")
	}

	p := &Pool{
		slots: make([]Event, capacity),
		free:  capacity,
	}
	for i := range p.slots {
		//nolint:gosec // capacity is bounded by MaxInt32 above
		p.slots[i].ref = Ref{Index: uint32(i)}
		p.slots[i].next = int32(i + 1)
	}
	p.slots[capacity-1].next = nilIndex
	p.head = 0
	//nolint:gosec // capacity is bounded by MaxInt32 above
	p.tail = int32(capacity - 1)
	return p, nil
}

// Acquire takes the slot at the head of the free list. It returns false when
// the pool is exhausted.
func (p *Pool) Acquire() (*Event, bool) {
	if p.head == nilIndex {
		return nil, false
	}

	e := &p.slots[p.head]
	if p.head == p.tail {
		p.head = nilIndex
		p.tail = nilIndex
	} else {
		p.head = e.next
	}
	e.next = nilIndex
	e.live = true
	p.free--
	return e, true
}

// Release clears e and appends its slot to the tail of the free list. It
// returns false, and does nothing, if e is not a live slot of this pool.
func (p *Pool) Release(e *Event) bool {
	if e == nil || !p.owns(e) || !e.live {
		return false
	}

	e.reset()
	e.ref.Gen++
	idx := int32(e.ref.Index) //nolint:gosec // index < capacity <= MaxInt32

	if p.tail == nilIndex {
		p.head = idx
	} else {
		p.slots[p.tail].next = idx
	}
	p.tail = idx
	e.next = nilIndex
	p.free++
	return true
}

// Lookup resolves r to its event. It returns nil if the slot has been
// released since r was taken.
func (p *Pool) Lookup(r Ref) *Event {
	if int(r.Index) >= len(p.slots) {
		return nil
	}
	e := &p.slots[r.Index]
	if !e.live || e.ref.Gen != r.Gen {
		return nil
	}
	return e
}

// Available returns the number of free slots.
func (p *Pool) Available() int {
	return p.free
}

// Capacity returns the total number of slots.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

func (p *Pool) owns(e *Event) bool {
	i := int(e.ref.Index)
	return i < len(p.slots) && &p.slots[i] == e
}
