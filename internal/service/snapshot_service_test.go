package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/store"
)

func newSnapshotFixture(t *testing.T) (SnapshotService, store.LogWindow, store.AuditWindow) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Stream.LineLimit = 100
	logs := store.NewInMemoryLogWindow(100)
	audits := store.NewInMemoryAuditWindow(100)
	return NewSnapshotService(cfg, logs, audits), logs, audits
}

func accessEntry(raw, level, source, user string) model.XrayLogEntry {
	return model.XrayLogEntry{
		Timestamp: time.Now(),
		Kind:      model.XrayLogKindAccess,
		Level:     level,
		Source:    source,
		User:      user,
		Raw:       raw,
	}
}

func TestBuildSnapshotAccessStream(t *testing.T) {
	svc, logs, _ := newSnapshotFixture(t)
	logs.Append(StreamAccess, accessEntry("line one", "info", "10.0.0.1:4312", "alice"))
	logs.Append(StreamAccess, accessEntry("line two", "info", "10.0.0.2:4313", "bob"))

	snap, err := svc.BuildSnapshot(StreamAccess, dto.StreamQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", "line two"}, snap.Lines)
	assert.Equal(t, int64(2), snap.Counters.Total)
}

func TestBuildSnapshotUnknownStream(t *testing.T) {
	svc, _, _ := newSnapshotFixture(t)

	_, err := svc.BuildSnapshot("syslog", dto.StreamQuery{})
	assert.ErrorContains(t, err, "unknown stream")
}

func TestBuildSnapshotFiltersEntries(t *testing.T) {
	svc, logs, _ := newSnapshotFixture(t)
	logs.Append(StreamAccess, accessEntry("accepted tcp", "info", "10.0.0.1:4312", "alice"))
	logs.Append(StreamAccess, accessEntry("rejected tcp", "warning", "10.0.0.2:4313", "bob"))
	logs.Append(StreamAccess, accessEntry("accepted udp", "info", "192.168.1.9:5000", "alice"))

	tests := []struct {
		name  string
		query dto.StreamQuery
		want  []string
	}{
		{"by level", dto.StreamQuery{Level: "WARNING"}, []string{"rejected tcp"}},
		{"by ip substring", dto.StreamQuery{IP: "10.0.0"}, []string{"accepted tcp", "rejected tcp"}},
		{"by user", dto.StreamQuery{User: "Alice"}, []string{"accepted tcp", "accepted udp"}},
		{"by search fold", dto.StreamQuery{Search: "ACCEPTED"}, []string{"accepted tcp", "accepted udp"}},
		{"combined", dto.StreamQuery{User: "alice", Search: "udp"}, []string{"accepted udp"}},
		{"no match", dto.StreamQuery{Search: "quic"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := svc.BuildSnapshot(StreamAccess, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, snap.Lines)
		})
	}
}

func TestBuildSnapshotCountersIgnoreFilter(t *testing.T) {
	svc, logs, _ := newSnapshotFixture(t)
	logs.Append(StreamError, accessEntry("dial timeout", "error", "", ""))
	logs.Append(StreamError, accessEntry("dns miss", "warning", "", ""))

	snap, err := svc.BuildSnapshot(StreamError, dto.StreamQuery{Level: "error"})
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 1)
	assert.Equal(t, int64(2), snap.Counters.Total, "counters describe the whole window")
}

func TestBuildSnapshotAuditStream(t *testing.T) {
	svc, _, audits := newSnapshotFixture(t)
	audits.Append(model.AuditEvent{
		Timestamp: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Category:  model.AuditCategoryKeys,
		Action:    "key.created",
		Actor:     "root",
		ActorIP:   "10.0.0.9",
		Target:    "ci-bot",
		Status:    model.AuditStatusSuccess,
	})
	audits.Append(model.AuditEvent{
		Timestamp: time.Date(2026, 8, 25, 10, 31, 0, 0, time.UTC),
		Category:  model.AuditCategoryAuth,
		Action:    "auth.denied",
		Actor:     "anonymous",
		ActorIP:   "203.0.113.5",
		Status:    model.AuditStatusFailure,
	})

	snap, err := svc.BuildSnapshot(StreamAudit, dto.StreamQuery{})
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)
	assert.Contains(t, snap.Lines[0], "key.created")
	assert.Contains(t, snap.Lines[0], "actor=root")
	assert.Contains(t, snap.Lines[0], "target=ci-bot")

	// Level maps to status for audit events.
	snap, err = svc.BuildSnapshot(StreamAudit, dto.StreamQuery{Level: "failure"})
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Contains(t, snap.Lines[0], "auth.denied")

	snap, err = svc.BuildSnapshot(StreamAudit, dto.StreamQuery{IP: "203.0.113"})
	require.NoError(t, err)
	require.Len(t, snap.Entries.([]model.AuditEvent), 1)
}

func TestBuildSnapshotLimitClamped(t *testing.T) {
	cfg := &config.Config{}
	cfg.Stream.LineLimit = 3
	logs := store.NewInMemoryLogWindow(100)
	svc := NewSnapshotService(cfg, logs, store.NewInMemoryAuditWindow(10))
	for i := 0; i < 10; i++ {
		logs.Append(StreamAccess, accessEntry("line", "info", "", ""))
	}

	snap, err := svc.BuildSnapshot(StreamAccess, dto.StreamQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 3, "requested limit above the configured cap is clamped")

	snap, err = svc.BuildSnapshot(StreamAccess, dto.StreamQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 2)
}
