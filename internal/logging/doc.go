// Package logging assembles structured slog loggers and formatting helpers used
// across Mintada.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so engine code tags log lines with coin
// IDs, operation names, and request IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
