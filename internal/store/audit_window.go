package store

import (
	"sync"

	"one-ui-backend/internal/model"
)

// AuditWindow keeps the most recent audit events for the live audit stream.
// Events enter here at emission time, before the Kafka round trip, so the
// stream stays live even while indexing lags.
type AuditWindow interface {
	Append(event model.AuditEvent)
	Snapshot(limit int) []model.AuditEvent
	Counters() Tally
}

type inMemoryAuditWindow struct {
	mu    sync.RWMutex
	ring  *ring[model.AuditEvent]
	tally *Tally
}

func NewInMemoryAuditWindow(capacity int) AuditWindow {
	if capacity <= 0 {
		capacity = 500
	}
	return &inMemoryAuditWindow{
		ring:  newRing[model.AuditEvent](capacity),
		tally: newTally(),
	}
}

func (w *inMemoryAuditWindow) Append(event model.AuditEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ring.push(event)
	w.tally.Total++
	if event.Status != "" {
		w.tally.Levels[event.Status]++
	}
	if event.Category != "" {
		w.tally.Kinds[event.Category]++
	}
}

func (w *inMemoryAuditWindow) Snapshot(limit int) []model.AuditEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ring.tail(limit)
}

func (w *inMemoryAuditWindow) Counters() Tally {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tally.clone()
}
