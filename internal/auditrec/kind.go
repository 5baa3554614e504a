package auditrec

// RecordType is the type tag of an incoming audit record.
type RecordType uint8

// Record types tracked by the assembler. Everything else is TypeOther.
const (
	TypeOther RecordType = iota
	TypeSyscall
	TypeExecve
	TypeCwd
	TypePath
)

var typeNames = [...]string{
	TypeOther:   "OTHER",
	TypeSyscall: "SYSCALL",
	TypeExecve:  "EXECVE",
	TypeCwd:     "CWD",
	TypePath:    "PATH",
}

func (t RecordType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// Tracked reports whether records of this type take part in reassembly.
func (t RecordType) Tracked() bool {
	return t >= TypeSyscall && t <= TypePath
}

// ParseType maps the value of a type= field to a RecordType.
func ParseType(name string) RecordType {
	switch name {
	case "SYSCALL":
		return TypeSyscall
	case "EXECVE":
		return TypeExecve
	case "CWD":
		return TypeCwd
	case "PATH":
		return TypePath
	default:
		return TypeOther
	}
}

// Kind identifies one of the fragment slots of an event. PATH records fill
// KindPath1 and then KindPath2.
type Kind uint8

const (
	KindSyscall Kind = iota
	KindExecve
	KindCwd
	KindPath1
	KindPath2

	// NumKinds is the number of fragment slots per event.
	NumKinds
)

// CanonicalKinds is the fixed order used for hashing and flushing.
var CanonicalKinds = [NumKinds]Kind{KindSyscall, KindExecve, KindCwd, KindPath1, KindPath2}

var kindNames = [NumKinds]string{"SYSCALL", "EXECVE", "CWD", "PATH1", "PATH2"}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Type returns the record type that fills this slot.
func (k Kind) Type() RecordType {
	switch k {
	case KindSyscall:
		return TypeSyscall
	case KindExecve:
		return TypeExecve
	case KindCwd:
		return TypeCwd
	case KindPath1, KindPath2:
		return TypePath
	default:
		return TypeOther
	}
}
