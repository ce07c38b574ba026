package eventmgr

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Registration is a registry entry. Registrations are immutable except for
// their active flag, which is cleared on Unregister.
type Registration struct {
	listener   any
	kind       Kind
	name       string
	blocking   BlockingListener
	suspending SuspendingListener
	removed    atomic.Bool
}

// Listener returns the registered value.
func (r *Registration) Listener() any { return r.listener }

// Kind returns the listener variant.
func (r *Registration) Kind() Kind { return r.kind }

// Name returns the display name used in logs, metrics and incidents.
func (r *Registration) Name() string { return r.name }

// Active reports whether the listener is still registered.
func (r *Registration) Active() bool { return !r.removed.Load() }

// timeout returns the listener's declaration; blocking listeners inherit.
func (r *Registration) timeout() Timeout {
	if td, ok := r.listener.(TimeoutDeclarer); ok {
		return td.Timeout()
	}
	return Inherit
}

// Registry is an insertion-ordered set of listeners, unique by identity.
//
// Mutations copy the backing slice and publish it atomically, so Snapshot
// never locks and a snapshot is never modified after it is returned.
type Registry struct {
	mu      sync.Mutex // serializes writers
	entries atomic.Pointer[[]*Registration]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := make([]*Registration, 0)
	r.entries.Store(&empty)
	return r
}

// Register adds a listener. Registering the same listener twice is a no-op.
// Returns ErrInvalidListenerKind (as *ListenerKindError) if the value is
// neither a BlockingListener nor a SuspendingListener, or cannot be compared
// by identity.
func (r *Registry) Register(listener any) error {
	reg, err := newRegistration(listener)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.entries.Load()
	if indexOf(current, listener) >= 0 {
		return nil
	}

	next := make([]*Registration, len(current), len(current)+1)
	copy(next, current)
	next = append(next, reg)
	r.entries.Store(&next)
	return nil
}

// Unregister removes a listener by identity. Returns false if it was not
// registered.
func (r *Registry) Unregister(listener any) bool {
	if !hasIdentity(listener) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.entries.Load()
	i := indexOf(current, listener)
	if i < 0 {
		return false
	}

	current[i].removed.Store(true)

	next := make([]*Registration, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	r.entries.Store(&next)
	return true
}

// Snapshot returns the current registrations in insertion order.
// The slice must not be modified.
func (r *Registry) Snapshot() []*Registration {
	return *r.entries.Load()
}

// Listeners returns the registered listeners as a flat, ordered list.
func (r *Registry) Listeners() []any {
	snap := r.Snapshot()
	out := make([]any, len(snap))
	for i, reg := range snap {
		out[i] = reg.listener
	}
	return out
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	return len(r.Snapshot())
}

// Clear removes all listeners.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range *r.entries.Load() {
		reg.removed.Store(true)
	}
	empty := make([]*Registration, 0)
	r.entries.Store(&empty)
}

func newRegistration(listener any) (*Registration, error) {
	if listener == nil {
		return nil, &ListenerKindError{Type: "<nil>", Reason: "listener is nil"}
	}
	typeName := fmt.Sprintf("%T", listener)
	if !hasIdentity(listener) {
		return nil, &ListenerKindError{
			Type:   typeName,
			Reason: "listener has no identity; wrap functions with NewBlocking or NewSuspending",
		}
	}

	reg := &Registration{listener: listener, name: listenerName(listener)}
	switch l := listener.(type) {
	case SuspendingListener:
		reg.kind = KindSuspending
		reg.suspending = l
	case BlockingListener:
		reg.kind = KindBlocking
		reg.blocking = l
	default:
		return nil, &ListenerKindError{
			Type:   typeName,
			Reason: "implements neither OnEvent(Event) nor OnEvent(context.Context, Event) error",
		}
	}
	return reg, nil
}

func indexOf(regs []*Registration, listener any) int {
	for i, reg := range regs {
		if reg.listener == listener {
			return i
		}
	}
	return -1
}

// hasIdentity reports whether == on the value cannot panic.
func hasIdentity(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Comparable()
}

// listenerName extracts a name for a listener (for logging/metrics).
func listenerName(l any) string {
	if n, ok := l.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("%T", l)
}
