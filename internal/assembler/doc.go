// Package assembler reassembles audit fragments into complete events.
//
// Fragments are correlated by sequence number only. Each event lives in a
// pool slot, is found through an ordered index, and moves through these
// states:
//
//	┌─────┐  first fragment   ┌──────────────┐
//	│ New │ ────────────────► │ Accumulating │ ◄──┐ fragment, still incomplete
//	└─────┘                   └──────┬───────┘ ───┘
//	                                 │
//	        ┌────────────────────────┼─────────────────────────┐
//	        │ duplicate or excess    │ SYSCALL items satisfied  │ Destroy
//	        ▼                        ▼                          ▼
//	   ┌────────┐              ┌──────────┐               ┌─────────┐
//	   │ Failed │              │ Complete │               │ Drained │
//	   └───┬────┘              └────┬─────┘               └────┬────┘
//	       │ flush, release         │ digest, unindex          │ flush, release
//	       ▼                        ▼                          ▼
//	     sink                caller (Remove)                  sink
//
// Completeness is decided by the SYSCALL record's items= value: with
// items=1 the first PATH completes the event, with items=2 both PATH slots
// must be filled. Any other value completes the event as soon as items is
// known, so malformed counts never pin a slot. Until the SYSCALL record
// arrives the event cannot complete.
//
// A completed event is removed from the index and handed to the caller with
// its digest. The caller reads it and then returns the slot with Remove.
// Failed and drained events are flushed to their sink in canonical order
// and their slots are reclaimed at once.
//
// The Assembler serializes all operations behind a single mutex, since
// neither the pool nor the index is safe for concurrent mutation.
package assembler
