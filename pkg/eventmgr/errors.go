package eventmgr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for registration and lifecycle.
var (
	// ErrInvalidListenerKind indicates a value passed to Register is neither
	// a BlockingListener nor a SuspendingListener.
	ErrInvalidListenerKind = errors.New("invalid listener kind")

	// ErrManagerClosed indicates the manager has been shut down.
	ErrManagerClosed = errors.New("event manager closed")
)

// ListenerKindError describes why a value was rejected at registration.
type ListenerKindError struct {
	// Type is the dynamic Go type of the rejected value.
	Type string
	// Reason explains the rejection.
	Reason string
}

// Error implements the error interface.
func (e *ListenerKindError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidListenerKind, e.Type, e.Reason)
}

// Unwrap returns ErrInvalidListenerKind so errors.Is works.
func (e *ListenerKindError) Unwrap() error {
	return ErrInvalidListenerKind
}

// TimeoutError reports a suspending listener invocation that did not finish
// within its effective timeout. The listener's context was cancelled at the
// deadline; the listener may have returned nil anyway.
type TimeoutError struct {
	DispatchID string
	Listener   string
	Limit      time.Duration
	Elapsed    time.Duration
	// Err is what the listener returned, nil if it returned nothing.
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("listener %s timed out after %s (limit %s) in dispatch %s",
		e.Listener, e.Elapsed.Round(time.Millisecond), e.Limit, e.DispatchID)
}

// Unwrap returns the listener's error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Is reports context.DeadlineExceeded as a match.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// ListenerError wraps an error returned (or a panic raised) by a listener.
type ListenerError struct {
	DispatchID string
	Listener   string
	Err        error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s failed in dispatch %s: %v", e.Listener, e.DispatchID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// PanicError captures a recovered panic with its stack trace.
type PanicError struct {
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Category classifies a scheduling failure.
type Category int

const (
	// CategoryRecoverable failures are logged; the manager keeps running.
	// Examples: pool rejected a task, event arrived after shutdown.
	CategoryRecoverable Category = iota

	// CategoryFatal failures indicate the dispatch machinery itself is broken.
	// The default error handler cancels the lifecycle and re-panics.
	CategoryFatal
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRecoverable:
		return "recoverable"
	case CategoryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// SchedulingError is a failure of the dispatcher's own substrate, not
// attributable to a listener.
type SchedulingError struct {
	DispatchID string
	Op         string
	Category   Category
	Err        error
}

// Error implements the error interface.
func (e *SchedulingError) Error() string {
	if e.DispatchID != "" {
		return fmt.Sprintf("%s dispatch %s (%s): %v", e.Op, e.DispatchID, e.Category, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a fatal scheduling failure.
func IsFatal(err error) bool {
	var schedErr *SchedulingError
	if errors.As(err, &schedErr) {
		return schedErr.Category == CategoryFatal
	}
	return false
}
