// Package cli implements the autowire command-line interface.
//
// The CLI operates on the compiled-in demo catalog: it prints type
// signatures, resolves and invokes types with argument overrides, draws
// construction graphs, manages the signature cache and serves a read-only
// inspection API. It is built with cobra and logs via charmbracelet/log.
//
// # Commands
//
//   - inspect: Print the signature of a type or one of its methods
//   - resolve: Build an instance and print its construction tree
//   - invoke: Call a type's Invoke method or a "Type::Method" string
//   - graph: Render the construction graph as DOT or SVG
//   - cache: Print, clear or warm the signature cache
//   - serve: Serve the inspection API over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes every resolution step of the resolver.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Warmed 8 types (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
