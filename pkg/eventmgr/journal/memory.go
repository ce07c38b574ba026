package journal

import (
	"sync"
	"time"
)

// DefaultCapacity is the MemoryStore capacity when none is given.
const DefaultCapacity = 1000

// MemoryStore keeps the most recent incidents in memory.
// When full, the oldest incident is dropped. Data is lost when the process exits.
type MemoryStore struct {
	mu        sync.RWMutex
	incidents []Incident // oldest first
	capacity  int
	closed    bool
}

// NewMemoryStore creates an in-memory store holding at most capacity incidents.
// A non-positive capacity uses DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Record implements Store.
func (m *MemoryStore) Record(inc Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if len(m.incidents) == m.capacity {
		copy(m.incidents, m.incidents[1:])
		m.incidents = m.incidents[:len(m.incidents)-1]
	}
	m.incidents = append(m.incidents, normalize(inc))
	return nil
}

// List implements Store.
func (m *MemoryStore) List(limit int) ([]Incident, error) {
	return m.collect(limit, func(Incident) bool { return true })
}

// ListByListener implements Store.
func (m *MemoryStore) ListByListener(listener string, limit int) ([]Incident, error) {
	return m.collect(limit, func(inc Incident) bool { return inc.Listener == listener })
}

func (m *MemoryStore) collect(limit int, keep func(Incident) bool) ([]Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Incident, 0)
	for i := len(m.incidents) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(m.incidents[i]) {
			out = append(out, m.incidents[i])
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.incidents), nil
}

// Purge implements Store.
func (m *MemoryStore) Purge(before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	kept := m.incidents[:0]
	for _, inc := range m.incidents {
		if !inc.OccurredAt.Before(before) {
			kept = append(kept, inc)
		}
	}
	removed := len(m.incidents) - len(kept)
	m.incidents = kept
	return removed, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.incidents = nil
	return nil
}
