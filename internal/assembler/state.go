package assembler

import (
	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventpool"
)

// State is the assembly state of an event.
type State int

const (
	StateNew State = iota
	StateAccumulating
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateAccumulating:
		return "accumulating"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// attach stores frag in its slot. It returns StateFailed if the slot is
// taken, otherwise the event's completeness after the attach.
func attach(ev *eventpool.Event, frag *auditrec.Fragment) State {
	kind, ok := slotFor(ev, frag.Type)
	if !ok {
		return StateFailed
	}

	ev.SetFragment(kind, frag)
	if frag.Type == auditrec.TypeSyscall {
		ev.SetItems(frag.Items)
	}
	return evaluate(ev)
}

// slotFor picks the free slot for a record type. PATH fills PATH1 then PATH2.
func slotFor(ev *eventpool.Event, t auditrec.RecordType) (auditrec.Kind, bool) {
	var candidates []auditrec.Kind
	switch t {
	case auditrec.TypeSyscall:
		candidates = []auditrec.Kind{auditrec.KindSyscall}
	case auditrec.TypeExecve:
		candidates = []auditrec.Kind{auditrec.KindExecve}
	case auditrec.TypeCwd:
		candidates = []auditrec.Kind{auditrec.KindCwd}
	case auditrec.TypePath:
		candidates = []auditrec.Kind{auditrec.KindPath1, auditrec.KindPath2}
	}

	for _, k := range candidates {
		if ev.Fragment(k) == nil {
			return k, true
		}
	}
	return 0, false
}

// evaluate applies the completion predicate.
func evaluate(ev *eventpool.Event) State {
	items, ok := ev.Items()
	if !ok {
		return StateAccumulating
	}

	path1 := ev.Fragment(auditrec.KindPath1) != nil
	path2 := ev.Fragment(auditrec.KindPath2) != nil

	switch items {
	case 1:
		if path1 {
			return StateComplete
		}
	case 2:
		if path1 && path2 {
			return StateComplete
		}
	default:
		return StateComplete
	}
	return StateAccumulating
}
