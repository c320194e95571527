// Package logging provides structured logging for council debates.
//
// This package wraps Go's log/slog to write JSON lines that can be filtered
// after the fact. Every component takes a *Logger; a nil logger is replaced
// with [NopLogger] by the component.
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	logger := base.WithCouncil(state.CouncilID())
//	logger.WithAgent("security").WithRound(2).Warn("agent excluded from round", "error", err)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"agent excluded from round","council_id":"...","agent_id":"security","round":2,"error":"..."}
//
// # Rotation
//
// [NewLoggerWithRotation] writes {dir}/debug.log through a [RotatingWriter],
// which rotates the file by size and optionally gzips old files. The audit
// log uses the same writer.
//
// # Reading Logs Back
//
// [ReadLogs] parses debug.log, [FilterLogs] narrows it by level, council,
// agent, round or message, and [ExportLogEntries] writes the result as JSON,
// text or CSV. The "council logs" command is built on these.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package logging
