package store

import (
	"sync"

	"one-ui-backend/internal/model"
)

// Tally holds cumulative counts for one stream since startup. Entries keep
// counting past ring eviction. For log streams the maps are keyed by level
// and kind; the audit window keys them by status and category.
type Tally struct {
	Total  int64
	Levels map[string]int64
	Kinds  map[string]int64
}

func newTally() *Tally {
	return &Tally{Levels: make(map[string]int64), Kinds: make(map[string]int64)}
}

func (t *Tally) clone() Tally {
	out := Tally{
		Total:  t.Total,
		Levels: make(map[string]int64, len(t.Levels)),
		Kinds:  make(map[string]int64, len(t.Kinds)),
	}
	for k, v := range t.Levels {
		out.Levels[k] = v
	}
	for k, v := range t.Kinds {
		out.Kinds[k] = v
	}
	return out
}

// LogWindow keeps the most recent entries of each live log stream in memory.
// Capacity applies per stream; Append evicts the oldest entry once full.
type LogWindow interface {
	Append(stream string, entry model.XrayLogEntry)
	Snapshot(stream string, limit int) []model.XrayLogEntry
	Counters(stream string) Tally
	Clear(stream string)
}

type logStreamState struct {
	ring  *ring[model.XrayLogEntry]
	tally *Tally
}

type inMemoryLogWindow struct {
	capacity int
	mu       sync.RWMutex
	streams  map[string]*logStreamState
}

func NewInMemoryLogWindow(capacity int) LogWindow {
	if capacity <= 0 {
		capacity = 500
	}
	return &inMemoryLogWindow{
		capacity: capacity,
		streams:  make(map[string]*logStreamState),
	}
}

func (w *inMemoryLogWindow) Append(stream string, entry model.XrayLogEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.streams[stream]
	if !ok {
		st = &logStreamState{ring: newRing[model.XrayLogEntry](w.capacity), tally: newTally()}
		w.streams[stream] = st
	}
	st.ring.push(entry)
	st.tally.Total++
	if entry.Level != "" {
		st.tally.Levels[entry.Level]++
	}
	if entry.Kind != "" {
		st.tally.Kinds[entry.Kind]++
	}
}

func (w *inMemoryLogWindow) Snapshot(stream string, limit int) []model.XrayLogEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	st, ok := w.streams[stream]
	if !ok {
		return nil
	}
	return st.ring.tail(limit)
}

func (w *inMemoryLogWindow) Counters(stream string) Tally {
	w.mu.RLock()
	defer w.mu.RUnlock()
	st, ok := w.streams[stream]
	if !ok {
		return Tally{Levels: map[string]int64{}, Kinds: map[string]int64{}}
	}
	return st.tally.clone()
}

func (w *inMemoryLogWindow) Clear(stream string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.streams, stream)
}

// ring is a fixed-capacity circular buffer.
type ring[T any] struct {
	entries []T
	head    int // Index of the oldest entry
	size    int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{entries: make([]T, capacity)}
}

func (r *ring[T]) push(entry T) {
	if r.size < len(r.entries) {
		r.entries[(r.head+r.size)%len(r.entries)] = entry
		r.size++
		return
	}
	r.entries[r.head] = entry
	r.head = (r.head + 1) % len(r.entries)
}

// tail returns the newest n entries in arrival order; n <= 0 means all.
func (r *ring[T]) tail(n int) []T {
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]T, 0, n)
	start := r.size - n
	for i := start; i < r.size; i++ {
		out = append(out, r.entries[(r.head+i)%len(r.entries)])
	}
	return out
}
