package eventmgr_test

import (
	"context"
	"testing"
	"time"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		timeout  eventmgr.Timeout
		fallback time.Duration
		want     time.Duration
		str      string
	}{
		{"inherit unlimited default", eventmgr.Inherit, 0, 0, "inherit"},
		{"inherit finite default", eventmgr.Inherit, 50 * time.Millisecond, 50 * time.Millisecond, "inherit"},
		{"unlimited beats default", eventmgr.Unlimited, 50 * time.Millisecond, 0, "unlimited"},
		{"limit beats default", eventmgr.Limit(time.Second), 50 * time.Millisecond, time.Second, "1s"},
		{"zero limit is unlimited", eventmgr.Limit(0), 50 * time.Millisecond, 0, "unlimited"},
		{"negative limit is unlimited", eventmgr.Limit(-time.Second), 50 * time.Millisecond, 0, "unlimited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.timeout.Resolve(tt.fallback))
			assert.Equal(t, tt.str, tt.timeout.String())
		})
	}
}

func TestTimeout_ZeroValueIsInherit(t *testing.T) {
	var tm eventmgr.Timeout
	assert.Equal(t, eventmgr.Inherit, tm)

	_, ok := tm.Duration()
	assert.False(t, ok)

	d, ok := eventmgr.Limit(time.Second).Duration()
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "blocking", eventmgr.KindBlocking.String())
	assert.Equal(t, "suspending", eventmgr.KindSuspending.String())
	assert.Equal(t, "unknown", eventmgr.Kind(0).String())
}

func TestNewSuspending_Options(t *testing.T) {
	l := eventmgr.NewSuspending(func(context.Context, eventmgr.Event) error { return nil },
		eventmgr.WithName("slow"),
		eventmgr.WithTimeout(eventmgr.Limit(time.Second)),
	)

	assert.Equal(t, "slow", l.Name())
	assert.Equal(t, eventmgr.Limit(time.Second), l.Timeout())

	var _ eventmgr.SuspendingListener = l
	var _ eventmgr.TimeoutDeclarer = l
	var _ eventmgr.Named = l
}

func TestNewBlocking_DistinctIdentity(t *testing.T) {
	fn := func(eventmgr.Event) {}
	a := eventmgr.NewBlocking(fn)
	b := eventmgr.NewBlocking(fn)

	r := eventmgr.NewRegistry()
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.Equal(t, 2, r.Len())
}

func TestOn_FiltersByType(t *testing.T) {
	m := newTestManager(t, eventmgr.Config{})

	var log eventLog
	l, err := eventmgr.On(m, func(_ context.Context, _ *eventmgr.Typed[int], evt int) error {
		log.add("int")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "on[int]", l.Name())

	m.Handle("not an int")
	m.Handle(42)
	m.Wait()

	assert.Equal(t, []string{"int"}, log.entries())
}

func TestOn_NilBody(t *testing.T) {
	m := newTestManager(t, eventmgr.Config{})

	_, err := eventmgr.On[int](m, nil)
	assert.ErrorIs(t, err, eventmgr.ErrInvalidListenerKind)
	assert.Empty(t, m.Listeners())
}

func TestOn_Options(t *testing.T) {
	m := newTestManager(t, eventmgr.Config{})

	l, err := eventmgr.On(m, func(context.Context, *eventmgr.Typed[string], string) error { return nil },
		eventmgr.WithName("greeter"),
		eventmgr.WithTimeout(eventmgr.Unlimited),
	)
	require.NoError(t, err)

	assert.Equal(t, "greeter", l.Name())
	assert.Equal(t, eventmgr.Unlimited, l.Timeout())
	assert.Equal(t, []any{l}, m.Listeners())
	assert.Same(t, m, l.Manager())

	l.Cancel()
	l.Cancel()
	assert.Empty(t, m.Listeners())
}
