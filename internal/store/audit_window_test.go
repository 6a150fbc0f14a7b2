package store

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/model"
)

func TestAuditWindowAppendAndSnapshot(t *testing.T) {
	w := NewInMemoryAuditWindow(3)
	for i := 0; i < 5; i++ {
		w.Append(model.AuditEvent{Action: strconv.Itoa(i), Category: model.AuditCategoryGroups, Status: model.AuditStatusSuccess})
	}

	got := w.Snapshot(0)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Action)
	assert.Equal(t, "4", got[2].Action)

	assert.Len(t, w.Snapshot(2), 2)
}

func TestAuditWindowCounters(t *testing.T) {
	w := NewInMemoryAuditWindow(2)
	w.Append(model.AuditEvent{Category: model.AuditCategoryAuth, Status: model.AuditStatusDenied})
	w.Append(model.AuditEvent{Category: model.AuditCategoryAuth, Status: model.AuditStatusSuccess})
	w.Append(model.AuditEvent{Category: model.AuditCategoryKeys, Status: model.AuditStatusSuccess})

	tally := w.Counters()
	assert.Equal(t, int64(3), tally.Total)
	assert.Equal(t, int64(2), tally.Levels[model.AuditStatusSuccess])
	assert.Equal(t, int64(1), tally.Levels[model.AuditStatusDenied])
	assert.Equal(t, int64(2), tally.Kinds[model.AuditCategoryAuth])
	assert.Equal(t, int64(1), tally.Kinds[model.AuditCategoryKeys])
}
