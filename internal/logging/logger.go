// Package logging defines the structured, context-aware logger used by the
// ticket server and its tools, with a slog-backed JSON implementation.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key/value pairs:
//
//	log.Info(ctx, "ticket created", "id", id, "offloaded", true)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn is for failures the caller recovers from, such as a blob that
	// could not be removed after its record was deleted.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
