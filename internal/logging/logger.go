// Package logging defines a minimal structured-logging interface used across
// the project. Implementations can wrap slog, zap, zerolog, etc.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "creating scan task", "url", target, "type", scanType)
type Logger interface {
	// Debug logs a verbose diagnostic message.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Nop is a Logger that discards everything. Used in tests and as a safe
// default when no logger is configured.
type Nop struct{}

func (Nop) Debug(_ context.Context, _ string, _ ...any) {}
func (Nop) Info(_ context.Context, _ string, _ ...any)  {}
func (Nop) Warn(_ context.Context, _ string, _ ...any)  {}
func (Nop) Error(_ context.Context, _ string, _ ...any) {}
func (n Nop) With(_ ...any) Logger                      { return n }
