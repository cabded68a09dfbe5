// Package logging defines the minimal structured-logging interface used
// across the persistence layer. The store, sync engine and search indexer
// all log through it so the surrounding application can plug in whatever
// backend it already uses.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// interpreted as key-value pairs:
//
//	log.Info(ctx, "store opened", "path", path, "in_memory", false)
type Logger interface {
	// Debug logs fine-grained events (per-record projections, sync keys).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions (tolerated failures).
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
