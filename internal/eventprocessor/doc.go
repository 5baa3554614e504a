// Package eventprocessor routes raw audit records through reassembly and
// duplicate suppression to the output sink.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│      audit record lines (audispd)       │
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│   eventprocessor                        │  ← Record routing
//	│   - Parses type and stamp               │
//	│   - Delegates to the assembler          │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ untracked / malformed ──→ sink (verbatim)
//	          │
//	          ├──→ SYSCALL/EXECVE/CWD/PATH ──→ assembler
//	          │                                - Correlates by sequence number
//	          │                                - Flushes failed events itself
//	          │
//	          └──→ completed event ──→ filter.Bypass ──→ sieve ──→ sink
//	                                   - Bypass match: always written
//	                                   - Digest seen recently: dropped
//	                                   - Otherwise: written in canonical order
//
// Records that cannot be assembled are never dropped: they are written as
// they arrived, trading deduplication for audit completeness.
package eventprocessor
