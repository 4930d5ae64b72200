// Package logging defines the minimal structured-logging interface the Luma
// client codes against. The concrete implementation wraps slog; components
// receive a Logger so tests can swap in a silent one.
package logging

import "context"

// Logger is the logging contract used across the client.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
