package store

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/model"
)

func TestLogWindowAppendAndSnapshot(t *testing.T) {
	w := NewInMemoryLogWindow(3)

	w.Append("access", entry("a"))
	w.Append("access", entry("b"))

	got := w.Snapshot("access", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Raw)
	assert.Equal(t, "b", got[1].Raw)
}

func TestLogWindowEvictsOldestAtCapacity(t *testing.T) {
	w := NewInMemoryLogWindow(3)
	for i := 0; i < 5; i++ {
		w.Append("access", entry(strconv.Itoa(i)))
	}

	got := w.Snapshot("access", 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2", "3", "4"}, raws(got))
}

func TestLogWindowSnapshotLimit(t *testing.T) {
	w := NewInMemoryLogWindow(10)
	for i := 0; i < 6; i++ {
		w.Append("error", entry(strconv.Itoa(i)))
	}

	got := w.Snapshot("error", 2)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"4", "5"}, raws(got))

	assert.Len(t, w.Snapshot("error", 100), 6)
}

func TestLogWindowStreamsAreIndependent(t *testing.T) {
	w := NewInMemoryLogWindow(4)
	w.Append("access", entry("a"))
	w.Append("error", entry("e"))

	assert.Equal(t, []string{"a"}, raws(w.Snapshot("access", 0)))
	assert.Equal(t, []string{"e"}, raws(w.Snapshot("error", 0)))
	assert.Empty(t, w.Snapshot("unknown", 0))
}

func TestLogWindowClear(t *testing.T) {
	w := NewInMemoryLogWindow(4)
	w.Append("access", entry("a"))
	w.Clear("access")

	assert.Empty(t, w.Snapshot("access", 0))

	w.Append("access", entry("b"))
	assert.Equal(t, []string{"b"}, raws(w.Snapshot("access", 0)))
}

func TestLogWindowCountersSurviveEviction(t *testing.T) {
	w := NewInMemoryLogWindow(2)
	for i := 0; i < 5; i++ {
		w.Append("access", model.XrayLogEntry{Kind: model.XrayLogKindAccess, Level: "info", Raw: strconv.Itoa(i)})
	}
	w.Append("access", model.XrayLogEntry{Kind: model.XrayLogKindAccess, Level: "warning", Raw: "rejected"})

	tally := w.Counters("access")
	assert.Equal(t, int64(6), tally.Total)
	assert.Equal(t, int64(5), tally.Levels["info"])
	assert.Equal(t, int64(1), tally.Levels["warning"])
	assert.Equal(t, int64(6), tally.Kinds[model.XrayLogKindAccess])

	assert.Len(t, w.Snapshot("access", 0), 2)
}

func TestLogWindowCountersUnknownStream(t *testing.T) {
	w := NewInMemoryLogWindow(2)

	tally := w.Counters("nope")
	assert.Zero(t, tally.Total)
	assert.NotNil(t, tally.Levels)
	assert.NotNil(t, tally.Kinds)
}

func entry(raw string) model.XrayLogEntry {
	return model.XrayLogEntry{Kind: model.XrayLogKindAccess, Raw: raw}
}

func raws(entries []model.XrayLogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Raw)
	}
	return out
}
