// Package auditrec parses raw Linux audit records into fragments.
//
// An audit event is emitted by the kernel as several records sharing one
// stamp:
//
//	type=SYSCALL msg=audit(1700000000.123:1001): arch=c000003e syscall=59 ... items=2 ...
//	type=EXECVE msg=audit(1700000000.123:1001): argc=2 a0="ls" a1="-la"
//	type=CWD msg=audit(1700000000.123:1001): cwd="/root"
//	type=PATH msg=audit(1700000000.123:1001): item=0 name="/bin/ls" ...
//	type=PATH msg=audit(1700000000.123:1001): item=1 name="/lib64/ld-linux-x86-64.so.2" ...
//
// The sequence number after the colon in the stamp is the only correlation
// key. The SYSCALL record additionally carries items=<n>, the number of PATH
// records to expect.
//
// Parsing fails closed: a record of a tracked type that lacks a well-formed
// stamp, or a SYSCALL record without items=, is reported as ErrMalformed.
package auditrec
