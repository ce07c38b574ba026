// Package journal records listener incidents (timeouts and failures) so
// operators can inspect misbehaving listeners after the fact.
package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an incident.
type Kind string

const (
	// KindTimeout is a listener invocation cancelled by its timeout.
	KindTimeout Kind = "timeout"
	// KindFailure is a listener that returned an error or panicked.
	KindFailure Kind = "failure"
)

// Incident is one recorded listener timeout or failure.
type Incident struct {
	ID         string
	DispatchID string
	Listener   string
	EventType  string
	Kind       Kind
	Error      string
	Elapsed    time.Duration
	Limit      time.Duration
	OccurredAt time.Time
}

// Store persists incidents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores an incident. A missing ID or OccurredAt is filled in.
	Record(inc Incident) error

	// List returns the most recent incidents, newest first.
	// A limit <= 0 returns all.
	List(limit int) ([]Incident, error)

	// ListByListener returns the most recent incidents for one listener,
	// newest first. A limit <= 0 returns all.
	ListByListener(listener string, limit int) ([]Incident, error)

	// Count returns the number of stored incidents.
	Count() (int, error)

	// Purge deletes incidents that occurred before the given time and
	// returns how many were removed.
	Purge(before time.Time) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("incident store closed")

// normalize fills in generated fields.
func normalize(inc Incident) Incident {
	if inc.ID == "" {
		inc.ID = uuid.NewString()
	}
	if inc.OccurredAt.IsZero() {
		inc.OccurredAt = time.Now()
	}
	inc.OccurredAt = inc.OccurredAt.UTC()
	return inc
}
