// Package gateway binds push sources such as a discordgo session to an
// event manager.
package gateway

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
)

// Source registers event handlers. *discordgo.Session satisfies it.
type Source interface {
	AddHandler(handler interface{}) func()
}

// BindOption configures Bind.
type BindOption func(*binding)

// WithFilter drops events for which keep returns false before they reach
// the manager.
func WithFilter(keep func(evt any) bool) BindOption {
	return func(b *binding) {
		b.filters = append(b.filters, keep)
	}
}

// WithDedup drops messages and interactions already seen within ttl.
// Gateway resumes can redeliver them.
func WithDedup(ttl time.Duration) BindOption {
	return func(b *binding) {
		if ttl > 0 {
			b.dedup = newDedupStore(ttl)
		}
	}
}

// WithRawEvents also forwards the raw *discordgo.Event that discordgo
// delivers to catch-all handlers alongside each typed event.
func WithRawEvents() BindOption {
	return func(b *binding) {
		b.raw = true
	}
}

type binding struct {
	manager *eventmgr.Manager
	filters []func(any) bool
	dedup   *dedupStore
	raw     bool
}

func (b *binding) forward(_ *discordgo.Session, evt interface{}) {
	// discordgo hands catch-all handlers every event twice: typed, then raw.
	if _, isRaw := evt.(*discordgo.Event); isRaw && !b.raw {
		return
	}
	for _, keep := range b.filters {
		if !keep(evt) {
			return
		}
	}
	if b.dedup != nil && !b.dedup.markSeen(evt) {
		return
	}
	b.manager.Handle(evt)
}

// Bind forwards every typed event src emits to m.Handle. The returned function
// removes the handler and is safe to call more than once.
func Bind(src Source, m *eventmgr.Manager, opts ...BindOption) (unbind func()) {
	b := &binding{manager: m}
	for _, opt := range opts {
		opt(b)
	}

	remove := src.AddHandler(b.forward)

	stopCh := make(chan struct{})
	if b.dedup != nil {
		go b.dedup.cleaner(stopCh)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			remove()
			close(stopCh)
		})
	}
}

// dedupStore remembers event keys for a bounded time.
type dedupStore struct {
	m   sync.Map
	ttl time.Duration
}

func newDedupStore(ttl time.Duration) *dedupStore {
	return &dedupStore{ttl: ttl}
}

// markSeen reports whether evt is new. Events without a stable ID are
// always new.
func (d *dedupStore) markSeen(evt any) bool {
	key := dedupKey(evt)
	if key == "" {
		return true
	}
	now := time.Now().UnixNano()
	if prev, loaded := d.m.LoadOrStore(key, now); loaded {
		if now-prev.(int64) < int64(d.ttl) {
			return false
		}
		d.m.Store(key, now)
	}
	return true
}

func (d *dedupStore) cleaner(stopCh <-chan struct{}) {
	interval := d.ttl
	if interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-d.ttl).UnixNano()
			d.m.Range(func(key, value any) bool {
				if ts, ok := value.(int64); ok && ts < cutoff {
					d.m.Delete(key)
				}
				return true
			})
		}
	}
}

func dedupKey(evt any) string {
	switch e := evt.(type) {
	case *discordgo.MessageCreate:
		if e.Message != nil && e.ID != "" {
			return "message:" + e.ID
		}
	case *discordgo.InteractionCreate:
		if e.Interaction != nil && e.ID != "" {
			return "interaction:" + e.ID
		}
	}
	return ""
}
