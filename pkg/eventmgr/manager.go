package eventmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
)

// ErrorHandler receives failures of the dispatch machinery itself
// (*SchedulingError). Listener timeouts and failures never reach it.
type ErrorHandler func(err error)

// Config configures a Manager. Zero fields take defaults.
type Config struct {
	// Pool schedules dispatch tasks. Default: GoPool{}.
	Pool Pool

	// Parent is the lifecycle grouping every dispatch task. Cancelling it
	// stops the manager. Default: context.Background().
	Parent context.Context

	// ErrorHandler handles scheduling failures. Default: log; for fatal
	// failures also cancel the lifecycle and panic.
	ErrorHandler ErrorHandler

	// Timeout is the default per-listener timeout. Zero means unlimited.
	Timeout time.Duration

	// Logger receives dispatch logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records dispatch metrics. Default: observability.NoopMetrics{}.
	Metrics observability.MetricsRecorder

	// Spans creates trace spans. Default: observability.NoopSpanManager{}.
	Spans observability.SpanManager

	// Journal records listener timeouts and failures. Nil disables it.
	Journal journal.Store

	// OnError is called with every *TimeoutError and *ListenerError.
	OnError func(err error)
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Pool:    GoPool{},
		Parent:  context.Background(),
		Logger:  slog.Default(),
		Metrics: observability.NoopMetrics{},
		Spans:   observability.NoopSpanManager{},
	}
}

// Stats is a point-in-time view of manager counters.
type Stats struct {
	Dispatched         uint64 // dispatches that finished visiting their snapshot
	Delivered          uint64 // listener invocations that returned normally
	Failed             uint64
	TimedOut           uint64
	Overran            uint64 // blocking listeners that ran past their timeout
	Canceled           uint64 // interrupted by shutdown
	SchedulingFailures uint64
	Listeners          int
}

type stats struct {
	dispatched         atomic.Uint64
	delivered          atomic.Uint64
	failed             atomic.Uint64
	timedOut           atomic.Uint64
	overran            atomic.Uint64
	canceled           atomic.Uint64
	schedulingFailures atomic.Uint64
}

// Manager fans events out to registered listeners.
//
// Handle never blocks: each event gets its own dispatch task on the pool.
// Within a dispatch, listeners run one at a time in registration order;
// separate dispatches run concurrently.
type Manager struct {
	registry *Registry
	pool     Pool
	timeout  time.Duration
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	journal  journal.Store
	onError  func(error)
	handler  ErrorHandler

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex // guards closed against new dispatches
	closed bool

	inflight inflight

	stats stats
}

// NewManager creates a manager from cfg.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.Pool == nil {
		cfg.Pool = def.Pool
	}
	if cfg.Parent == nil {
		cfg.Parent = def.Parent
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Metrics == nil {
		cfg.Metrics = def.Metrics
	}
	if cfg.Spans == nil {
		cfg.Spans = def.Spans
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}

	ctx, cancel := context.WithCancel(cfg.Parent)
	m := &Manager{
		registry: NewRegistry(),
		pool:     cfg.Pool,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		spans:    cfg.Spans,
		journal:  cfg.Journal,
		onError:  cfg.OnError,
		handler:  cfg.ErrorHandler,
		ctx:      ctx,
		cancel:   cancel,
	}
	if m.handler == nil {
		m.handler = m.defaultErrorHandler
	}
	m.inflight.idle = sync.NewCond(&m.inflight.mu)
	return m
}

// Register adds a listener. See Registry.Register.
// Returns ErrManagerClosed after Shutdown.
func (m *Manager) Register(listener any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrManagerClosed
	}
	return m.registry.Register(listener)
}

// Unregister removes a listener. Once it returns, no dispatch invokes the
// listener again, including dispatches already in flight.
func (m *Manager) Unregister(listener any) bool {
	return m.registry.Unregister(listener)
}

// Listeners returns the registered listeners in registration order.
func (m *Manager) Listeners() []any {
	return m.registry.Listeners()
}

// Timeout returns the default per-listener timeout. Zero means unlimited.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Done is closed when the manager's lifecycle ends.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

// Handle schedules a dispatch of evt and returns immediately.
// After shutdown the event is dropped and a recoverable *SchedulingError
// goes to the error handler.
func (m *Manager) Handle(evt Event) {
	m.mu.RLock()
	if m.closed || m.ctx.Err() != nil {
		m.mu.RUnlock()
		m.schedulingFailure(&SchedulingError{
			Op:       "handle",
			Category: CategoryRecoverable,
			Err:      ErrManagerClosed,
		})
		return
	}
	m.inflight.add()
	m.mu.RUnlock()

	task := &dispatchTask{
		id:       uuid.NewString(),
		event:    evt,
		received: time.Now(),
	}
	err := m.pool.Go(m.ctx, func() {
		defer m.inflight.done()
		m.run(task)
	})
	if err != nil {
		m.inflight.done()
		m.schedulingFailure(&SchedulingError{
			DispatchID: task.id,
			Op:         "schedule",
			Category:   CategoryRecoverable,
			Err:        err,
		})
	}
}

// Wait blocks until no dispatch is in flight. It is safe to call while
// other goroutines keep calling Handle; it then returns at the first
// moment every scheduled dispatch has finished.
func (m *Manager) Wait() {
	m.inflight.wait()
}

// Shutdown stops accepting events, cancels running listeners and waits
// for in-flight dispatches to finish or ctx to expire. Registered
// listeners are removed. Calling Shutdown again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.registry.Clear()

	done := make(chan struct{})
	go func() {
		m.inflight.wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: waiting for dispatches: %w", ctx.Err())
	}
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Dispatched:         m.stats.dispatched.Load(),
		Delivered:          m.stats.delivered.Load(),
		Failed:             m.stats.failed.Load(),
		TimedOut:           m.stats.timedOut.Load(),
		Overran:            m.stats.overran.Load(),
		Canceled:           m.stats.canceled.Load(),
		SchedulingFailures: m.stats.schedulingFailures.Load(),
		Listeners:          m.registry.Len(),
	}
}

func (m *Manager) schedulingFailure(err *SchedulingError) {
	m.stats.schedulingFailures.Add(1)
	m.metrics.RecordSchedulingFailure(context.Background(), err.Op, err.Category.String())
	m.handler(err)
}

// defaultErrorHandler logs the failure. A fatal failure also ends the
// lifecycle and panics.
func (m *Manager) defaultErrorHandler(err error) {
	op, category := "unknown", CategoryFatal.String()
	var schedErr *SchedulingError
	if errors.As(err, &schedErr) {
		op, category = schedErr.Op, schedErr.Category.String()
	}
	observability.LogSchedulingFailure(m.logger, op, category, err)

	if IsFatal(err) {
		m.cancel()
		panic(err)
	}
}

// inflight counts running dispatches. Unlike sync.WaitGroup, waiting may
// overlap with new dispatches starting.
type inflight struct {
	mu    sync.Mutex
	idle  *sync.Cond
	count int
}

func (f *inflight) add() {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
}

func (f *inflight) done() {
	f.mu.Lock()
	f.count--
	if f.count == 0 {
		f.idle.Broadcast()
	}
	f.mu.Unlock()
}

func (f *inflight) wait() {
	f.mu.Lock()
	for f.count > 0 {
		f.idle.Wait()
	}
	f.mu.Unlock()
}
