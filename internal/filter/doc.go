// Package filter evaluates operator expressions against completed audit
// events using the expr language.
//
// A Bypass expression marks events that must always be written, even when
// their fingerprint was seen recently. The expression sees:
//
//	seq      uint      sequence number
//	time     time.Time wall-clock time from the audit stamp
//	items    int       PATH count announced by SYSCALL (-1 if unknown)
//	types    []string  record types present, in canonical order
//	syscall  string    SYSCALL body (after the audit stamp), "" if absent
//	execve   string    EXECVE body
//	cwd      string    CWD body
//	paths    []string  PATH bodies in arrival order
//
// Example:
//
//	syscall contains "comm=\"sshd\"" || any(paths, # contains "/etc/shadow")
package filter
