package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/metrics"
	"one-ui-backend/internal/model"
)

func TestExtractMetricEvents(t *testing.T) {
	extractor := metrics.NewXrayLogExtractor()
	ts := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name          string
		entry         *model.XrayLogEntry
		expectedNames []string
	}{
		{
			name: "Accepted Connection",
			entry: &model.XrayLogEntry{
				Timestamp: ts,
				Kind:      model.XrayLogKindAccess,
				Level:     "info",
				User:      "alice@corp",
				Inbound:   "vless-in",
				Outbound:  "direct",
				Content:   "accepted tcp:example.com:443",
			},
			expectedNames: []string{"connection_event"},
		},
		{
			name: "Rejected Connection Also Counts As Error",
			entry: &model.XrayLogEntry{
				Timestamp: ts,
				Kind:      model.XrayLogKindAccess,
				Level:     "warning",
				Content:   "rejected proxy/vless: invalid request",
			},
			expectedNames: []string{"connection_event", "error_event"},
		},
		{
			name: "Error Log Entry",
			entry: &model.XrayLogEntry{
				Timestamp: ts,
				Kind:      model.XrayLogKindError,
				Level:     "error",
				Content:   "transport/internet: failed to listen",
			},
			expectedNames: []string{"error_event"},
		},
		{
			name: "Info Error Log Entry Produces Nothing",
			entry: &model.XrayLogEntry{
				Timestamp: ts,
				Kind:      model.XrayLogKindError,
				Level:     "info",
				Content:   "core: Xray started",
			},
			expectedNames: []string{},
		},
		{
			name:          "Nil Entry",
			entry:         nil,
			expectedNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := extractor.ExtractMetricEvents(tt.entry)

			names := make([]string, 0, len(events))
			for _, ev := range events {
				names = append(names, ev.MetricName)
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}
}

func TestExtractMetricEventsTags(t *testing.T) {
	extractor := metrics.NewXrayLogExtractor()

	events := extractor.ExtractMetricEvents(&model.XrayLogEntry{
		Timestamp: time.Now().UTC(),
		Kind:      model.XrayLogKindAccess,
		Level:     "info",
		User:      "alice@corp",
		Inbound:   "vless-in",
		Outbound:  "direct",
		Content:   "accepted tcp:example.com:443",
	})

	require.Len(t, events, 1)
	assert.Equal(t, "accepted", events[0].Tags["status"])
	assert.Equal(t, "vless-in", events[0].Tags["inbound"])
	assert.Equal(t, "direct", events[0].Tags["outbound"])
	assert.Equal(t, "alice@corp", events[0].Tags["user"])
}
