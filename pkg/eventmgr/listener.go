package eventmgr

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Event is an opaque payload delivered by the gateway client.
// The manager never inspects it; listeners type-switch on it.
type Event = any

// BlockingListener handles events synchronously and is expected to return
// quickly. It receives no context and cannot be cancelled.
type BlockingListener interface {
	OnEvent(evt Event)
}

// SuspendingListener handles events and may block on context-aware
// operations. A timed-out invocation is signalled through ctx; the listener
// must select on ctx.Done() (directly or through the APIs it calls) for the
// timeout to interrupt it.
type SuspendingListener interface {
	OnEvent(ctx context.Context, evt Event) error
}

// TimeoutDeclarer is implemented by suspending listeners that override the
// manager's default timeout.
type TimeoutDeclarer interface {
	Timeout() Timeout
}

// Kind identifies which listener variant a registration holds.
type Kind int

const (
	// KindBlocking is a BlockingListener.
	KindBlocking Kind = iota + 1
	// KindSuspending is a SuspendingListener.
	KindSuspending
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBlocking:
		return "blocking"
	case KindSuspending:
		return "suspending"
	default:
		return "unknown"
	}
}

// Timeout is a per-listener timeout declaration.
// The zero value is Inherit.
type Timeout struct {
	d   time.Duration
	set bool
}

// Inherit uses the manager's default timeout.
var Inherit = Timeout{}

// Unlimited disables the timeout regardless of the manager default.
var Unlimited = Timeout{set: true}

// Limit bounds each invocation to d. A non-positive d is Unlimited.
func Limit(d time.Duration) Timeout {
	if d < 0 {
		d = 0
	}
	return Timeout{d: d, set: true}
}

// Duration returns the declared bound and whether the declaration overrides
// the manager default. A zero duration with ok=true means unlimited.
func (t Timeout) Duration() (d time.Duration, ok bool) {
	return t.d, t.set
}

// Resolve returns the effective bound given the manager default.
// Zero means unlimited.
func (t Timeout) Resolve(managerDefault time.Duration) time.Duration {
	if t.set {
		return t.d
	}
	if managerDefault < 0 {
		return 0
	}
	return managerDefault
}

// String renders the declaration for logs.
func (t Timeout) String() string {
	switch {
	case !t.set:
		return "inherit"
	case t.d == 0:
		return "unlimited"
	default:
		return t.d.String()
	}
}

// Named is implemented by listeners that supply their own display name
// for logs, metrics and incidents.
type Named interface {
	Name() string
}

// ListenerOption configures listeners built by NewSuspending and On.
type ListenerOption func(*listenerConfig)

type listenerConfig struct {
	name    string
	timeout Timeout
}

// WithTimeout sets the listener's timeout declaration.
func WithTimeout(t Timeout) ListenerOption {
	return func(c *listenerConfig) {
		c.timeout = t
	}
}

// WithName sets the listener's display name.
func WithName(name string) ListenerOption {
	return func(c *listenerConfig) {
		c.name = name
	}
}

func newListenerConfig(opts []ListenerOption) listenerConfig {
	var cfg listenerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Blocking adapts a function to BlockingListener with a stable identity.
type Blocking struct {
	fn   func(evt Event)
	name string
}

// NewBlocking wraps fn. The returned pointer is the identity used by
// Register and Unregister.
func NewBlocking(fn func(evt Event), opts ...ListenerOption) *Blocking {
	cfg := newListenerConfig(opts)
	return &Blocking{fn: fn, name: cfg.name}
}

// OnEvent implements BlockingListener.
func (b *Blocking) OnEvent(evt Event) {
	b.fn(evt)
}

// Name implements Named.
func (b *Blocking) Name() string {
	return b.name
}

// Suspending adapts a function to SuspendingListener with a stable identity.
type Suspending struct {
	fn      func(ctx context.Context, evt Event) error
	name    string
	timeout Timeout
}

// NewSuspending wraps fn. The returned pointer is the identity used by
// Register and Unregister.
func NewSuspending(fn func(ctx context.Context, evt Event) error, opts ...ListenerOption) *Suspending {
	cfg := newListenerConfig(opts)
	return &Suspending{fn: fn, name: cfg.name, timeout: cfg.timeout}
}

// OnEvent implements SuspendingListener.
func (s *Suspending) OnEvent(ctx context.Context, evt Event) error {
	return s.fn(ctx, evt)
}

// Timeout implements TimeoutDeclarer.
func (s *Suspending) Timeout() Timeout {
	return s.timeout
}

// Name implements Named.
func (s *Suspending) Name() string {
	return s.name
}

// Typed is a suspending listener that only sees events of type E.
// Events of any other type are skipped without error.
type Typed[E any] struct {
	body    func(ctx context.Context, l *Typed[E], evt E) error
	name    string
	timeout Timeout
	manager *Manager
}

// On builds a Typed listener bound to m and registers it.
// The body receives the listener itself so it can call Cancel.
//
// Example:
//
//	eventmgr.On(m, func(ctx context.Context, l *eventmgr.Typed[*discordgo.MessageCreate], evt *discordgo.MessageCreate) error {
//	    if evt.Content == "!stop" {
//	        l.Cancel()
//	    }
//	    return nil
//	})
func On[E any](m *Manager, body func(ctx context.Context, l *Typed[E], evt E) error, opts ...ListenerOption) (*Typed[E], error) {
	if body == nil {
		return nil, &ListenerKindError{Type: fmt.Sprintf("%T", body), Reason: "nil body"}
	}
	cfg := newListenerConfig(opts)
	if cfg.name == "" {
		cfg.name = "on[" + reflect.TypeFor[E]().String() + "]"
	}
	l := &Typed[E]{
		body:    body,
		name:    cfg.name,
		timeout: cfg.timeout,
		manager: m,
	}
	if err := m.Register(l); err != nil {
		return nil, err
	}
	return l, nil
}

// OnEvent implements SuspendingListener.
func (l *Typed[E]) OnEvent(ctx context.Context, evt Event) error {
	typed, ok := evt.(E)
	if !ok {
		return nil
	}
	return l.body(ctx, l, typed)
}

// Timeout implements TimeoutDeclarer.
func (l *Typed[E]) Timeout() Timeout {
	return l.timeout
}

// Name implements Named.
func (l *Typed[E]) Name() string {
	return l.name
}

// Cancel unregisters the listener from the manager it was built with.
// Safe to call from inside the body and more than once.
func (l *Typed[E]) Cancel() {
	l.manager.Unregister(l)
}

// Manager returns the manager the listener was registered with.
func (l *Typed[E]) Manager() *Manager {
	return l.manager
}
