package eventmgr

import (
	"context"
	"reflect"
	"sync/atomic"
)

// Await registers a one-shot listener and blocks until the first event of
// type E for which match returns true (nil matches every E). The listener
// is unregistered on every return path.
//
// Returns ctx.Err() if ctx ends first, and ErrManagerClosed if the manager
// shuts down first.
//
// Example:
//
//	reply, err := eventmgr.Await(ctx, m, func(evt *discordgo.MessageCreate) bool {
//	    return evt.Author.ID == userID
//	})
func Await[E any](ctx context.Context, m *Manager, match func(E) bool) (E, error) {
	var zero E
	result := make(chan E, 1)
	var fired atomic.Bool

	var l *Suspending
	l = NewSuspending(func(_ context.Context, evt Event) error {
		typed, ok := evt.(E)
		if !ok {
			return nil
		}
		if match != nil && !match(typed) {
			return nil
		}
		if !fired.CompareAndSwap(false, true) {
			return nil
		}
		m.Unregister(l)
		result <- typed
		return nil
	},
		WithName("await["+reflect.TypeFor[E]().String()+"]"),
		WithTimeout(Unlimited),
	)

	if err := m.Register(l); err != nil {
		return zero, err
	}
	defer m.Unregister(l)

	select {
	case evt := <-result:
		return evt, nil
	case <-ctx.Done():
		select {
		case evt := <-result:
			return evt, nil
		default:
		}
		return zero, ctx.Err()
	case <-m.Done():
		select {
		case evt := <-result:
			return evt, nil
		default:
		}
		return zero, ErrManagerClosed
	}
}
