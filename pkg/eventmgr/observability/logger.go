// Package observability provides structured logging, metrics and tracing
// for the event manager.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with dispatch_id and listener fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, dispatchID, "audit")
//	enriched.Info("doing work") // includes dispatch_id, listener
func EnrichLogger(logger *slog.Logger, dispatchID, listener string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("listener", listener),
	)
}

// LogDispatchStart logs the start of a dispatch.
func LogDispatchStart(logger *slog.Logger, dispatchID, eventType string, listeners int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("dispatch_id", dispatchID),
		slog.String("event_type", eventType),
		slog.Int("listeners", listeners),
	)
}

// LogDispatchComplete logs dispatch completion.
func LogDispatchComplete(logger *slog.Logger, dispatchID string, durationMs float64, delivered int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("dispatch_id", dispatchID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("delivered", delivered),
	)
}

// LogListenerTimeout logs a listener cancelled by its timeout.
func LogListenerTimeout(logger *slog.Logger, dispatchID, listener string, limit time.Duration, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener timed out",
		slog.String("dispatch_id", dispatchID),
		slog.String("listener", listener),
		slog.Duration("limit", limit),
		slog.String("error", err.Error()),
	)
}

// LogListenerOverrun logs a listener that exceeded its timeout without
// observing cancellation.
func LogListenerOverrun(logger *slog.Logger, dispatchID, listener string, limit time.Duration, elapsedMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("listener overran timeout",
		slog.String("dispatch_id", dispatchID),
		slog.String("listener", listener),
		slog.Duration("limit", limit),
		slog.Float64("elapsed_ms", elapsedMs),
	)
}

// LogListenerError logs a listener failure.
func LogListenerError(logger *slog.Logger, dispatchID, listener string, err error) {
	if logger == nil {
		return
	}
	logger.Error("listener failed",
		slog.String("dispatch_id", dispatchID),
		slog.String("listener", listener),
		slog.String("error", err.Error()),
	)
}

// LogSchedulingFailure logs a failure of the dispatch machinery.
func LogSchedulingFailure(logger *slog.Logger, op, category string, err error) {
	if logger == nil {
		return
	}
	logger.Error("dispatch scheduling failed",
		slog.String("operation", op),
		slog.String("category", category),
		slog.String("error", err.Error()),
	)
}

// LogIncidentError logs an incident journal failure (non-fatal).
func LogIncidentError(logger *slog.Logger, listener string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("incident journal write failed",
		slog.String("listener", listener),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger builds a logger writing to w in the given format ("json" or "text").
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
