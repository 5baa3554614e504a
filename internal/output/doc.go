// Package output provides the line sink that receives audit records.
//
// Every record that leaves the tool goes through a Sink:
//   - assembled events that survive duplicate suppression
//   - fragments flushed from events that failed or were drained at shutdown
//   - records passed through untouched (untracked types, malformed lines,
//     fragments that could not get a pool slot)
//
// LineSink writes one record per line and flushes after each write, so a
// crash never leaves a partial batch buffered in memory.
package output
