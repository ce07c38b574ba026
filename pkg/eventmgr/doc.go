// Package eventmgr dispatches gateway events to application listeners.
//
// # Overview
//
// A Manager sits between a push source (a chat gateway client) and the
// code that reacts to its events:
//
//   - Handle never blocks the source; each event gets its own dispatch task
//   - Listeners within one dispatch run sequentially in registration order
//   - A failing, panicking or slow listener never affects the others
//   - Suspending listeners can be bounded by a timeout and cancelled
//
// # Listeners
//
// A listener is exactly one of two shapes:
//
//	type BlockingListener interface {
//	    OnEvent(evt Event)
//	}
//
//	type SuspendingListener interface {
//	    OnEvent(ctx context.Context, evt Event) error
//	}
//
// Anything else is rejected by Register with ErrInvalidListenerKind.
// Listeners are identified by ==, so functions are wrapped with NewBlocking
// or NewSuspending, whose returned pointer is the identity to unregister:
//
//	audit := eventmgr.NewSuspending(func(ctx context.Context, evt eventmgr.Event) error {
//	    return store.Append(ctx, evt)
//	}, eventmgr.WithName("audit"), eventmgr.WithTimeout(eventmgr.Limit(2*time.Second)))
//	m.Register(audit)
//	defer m.Unregister(audit)
//
// On registers a typed listener that only sees one event type and can
// remove itself:
//
//	eventmgr.On(m, func(ctx context.Context, l *eventmgr.Typed[*discordgo.Ready], evt *discordgo.Ready) error {
//	    log.Printf("connected as %s", evt.User.Username)
//	    l.Cancel()
//	    return nil
//	})
//
// # Timeouts
//
// Config.Timeout is the default bound for each suspending listener
// invocation; zero means unlimited. A listener overrides it by implementing
// TimeoutDeclarer (Limit(d) or Unlimited).
//
// Cancellation is cooperative. The listener's context is cancelled when its
// bound elapses. If the invocation has not finished by then it is reported
// as a *TimeoutError, whatever the listener returns, and a listener that
// ignores its context still runs to completion before the dispatch moves
// on. Blocking listeners receive no context and are never interrupted; one
// that runs past the bound is logged as an overrun.
//
// # Errors
//
//   - *ListenerKindError: returned by Register
//   - *TimeoutError, *ListenerError: logged, journaled, passed to
//     Config.OnError; dispatch continues
//   - *SchedulingError: failure of the machinery itself, passed to
//     Config.ErrorHandler. The default handler logs it and, for
//     CategoryFatal, cancels the manager and panics.
//
// # Awaiting
//
// Await blocks until the next event of a type that satisfies a predicate:
//
//	msg, err := eventmgr.Await(ctx, m, func(evt *discordgo.MessageCreate) bool {
//	    return evt.ChannelID == channelID
//	})
//
// # Thread Safety
//
// All Manager and Registry methods are safe for concurrent use, including
// from inside a listener.
package eventmgr
