package eventmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
)

// dispatchTask is the unit of work scheduled for one inbound event.
type dispatchTask struct {
	id        string
	event     Event
	eventType string
	received  time.Time
}

// run visits every listener in the current snapshot. Panics that escape
// the listener wrappers come from the machinery and are fatal.
func (m *Manager) run(task *dispatchTask) {
	defer func() {
		if r := recover(); r != nil {
			m.schedulingFailure(&SchedulingError{
				DispatchID: task.id,
				Op:         "dispatch",
				Category:   CategoryFatal,
				Err:        &PanicError{Value: r, Stack: string(debug.Stack())},
			})
		}
	}()

	task.eventType = fmt.Sprintf("%T", task.event)
	snapshot := m.registry.Snapshot()

	ctx, span := m.spans.StartDispatchSpan(m.ctx, task.id, task.eventType)
	defer m.spans.EndSpanWithError(span, nil)

	observability.LogDispatchStart(m.logger, task.id, task.eventType, len(snapshot))
	elapsed := observability.TimedOperation()

	delivered := 0
	for _, reg := range snapshot {
		if m.ctx.Err() != nil {
			break
		}
		if !reg.Active() {
			m.spans.AddSpanEvent(ctx, "listener.skipped", attribute.String("listener", reg.name))
			continue
		}
		if m.invoke(ctx, task, reg) {
			delivered++
		}
	}

	m.stats.dispatched.Add(1)
	m.metrics.RecordDispatch(ctx, task.eventType, len(snapshot), time.Since(task.received))
	observability.LogDispatchComplete(m.logger, task.id, elapsed(), delivered)
}

// invoke runs one listener and reports the outcome. Returns true if the
// listener returned normally.
func (m *Manager) invoke(ctx context.Context, task *dispatchTask, reg *Registration) bool {
	limit := reg.timeout().Resolve(m.timeout)

	ctx, span := m.spans.StartListenerSpan(ctx, reg.name)

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if limit > 0 && reg.kind == KindSuspending {
		callCtx, cancel = context.WithTimeout(ctx, limit)
	}

	start := time.Now()
	err := callListener(callCtx, reg, task.event)
	elapsed := time.Since(start)
	deadlineHit := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()

	outcome, reported := m.classify(task, reg, err, deadlineHit, limit, elapsed)
	m.metrics.RecordListener(ctx, reg.name, outcome, elapsed)
	m.spans.EndSpanWithError(span, reported)

	if reported != nil {
		m.recordIncident(task, reg, reported, limit, elapsed)
		if m.onError != nil {
			m.onError(reported)
		}
	}
	return outcome == observability.OutcomeDelivered || outcome == observability.OutcomeOverrun
}

// classify maps a listener result to an outcome and, for timeouts and
// failures, the error to report.
func (m *Manager) classify(task *dispatchTask, reg *Registration, err error, deadlineHit bool,
	limit, elapsed time.Duration) (string, error) {
	var panicErr *PanicError

	switch {
	case err != nil && errors.As(err, &panicErr):
		// A panic is a failure even when it happens after the deadline.

	case m.ctx.Err() != nil && errors.Is(err, context.Canceled):
		m.stats.canceled.Add(1)
		m.logger.Debug("listener canceled by shutdown",
			slog.String("dispatch_id", task.id),
			slog.String("listener", reg.name),
		)
		return observability.OutcomeCanceled, nil

	case deadlineHit:
		// Returning nil on ctx.Done() or ignoring ctx entirely still means
		// the invocation did not finish within its bound.
		timeoutErr := &TimeoutError{
			DispatchID: task.id,
			Listener:   reg.name,
			Limit:      limit,
			Elapsed:    elapsed,
			Err:        err,
		}
		m.stats.timedOut.Add(1)
		observability.LogListenerTimeout(m.logger, task.id, reg.name, limit, timeoutErr)
		return observability.OutcomeTimeout, timeoutErr

	case err == nil && limit > 0 && elapsed > limit:
		// Blocking listeners have no context, so they overrun instead.
		m.stats.overran.Add(1)
		m.stats.delivered.Add(1)
		observability.LogListenerOverrun(m.logger, task.id, reg.name, limit, float64(elapsed.Milliseconds()))
		return observability.OutcomeOverrun, nil

	case err == nil:
		m.stats.delivered.Add(1)
		return observability.OutcomeDelivered, nil
	}

	listenerErr := &ListenerError{DispatchID: task.id, Listener: reg.name, Err: err}
	m.stats.failed.Add(1)
	observability.LogListenerError(m.logger, task.id, reg.name, listenerErr)
	return observability.OutcomeFailed, listenerErr
}

func (m *Manager) recordIncident(task *dispatchTask, reg *Registration, err error, limit, elapsed time.Duration) {
	if m.journal == nil {
		return
	}
	kind := journal.KindFailure
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		kind = journal.KindTimeout
	}
	inc := journal.Incident{
		DispatchID: task.id,
		Listener:   reg.name,
		EventType:  task.eventType,
		Kind:       kind,
		Error:      err.Error(),
		Elapsed:    elapsed,
		Limit:      limit,
		OccurredAt: time.Now(),
	}
	if recErr := m.journal.Record(inc); recErr != nil {
		observability.LogIncidentError(m.logger, reg.name, recErr)
	}
}

// callListener invokes the listener, converting a panic into *PanicError.
func callListener(ctx context.Context, reg *Registration, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()

	if reg.kind == KindBlocking {
		reg.blocking.OnEvent(evt)
		return nil
	}
	return reg.suspending.OnEvent(ctx, evt)
}
