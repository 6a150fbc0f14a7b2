package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/model"
	"one-ui-backend/internal/parser"
)

func TestXrayLogParser_ParseAccess(t *testing.T) {
	logParser := parser.NewXrayLogParser()

	tests := []struct {
		name        string
		logLine     string
		expected    *model.XrayLogEntry
		expectError bool
	}{
		{
			name:    "Accepted With Route And Email",
			logLine: "2024/06/01 12:30:45.123456 from 203.0.113.7:51234 accepted tcp:www.example.com:443 [vless-in >> direct] email: alice@corp",
			expected: &model.XrayLogEntry{
				Timestamp:   mustParseTime(t, "2024/06/01 12:30:45"),
				Kind:        model.XrayLogKindAccess,
				Level:       "info",
				Source:      "203.0.113.7:51234",
				Destination: "tcp:www.example.com:443",
				User:        "alice@corp",
				Inbound:     "vless-in",
				Outbound:    "direct",
				Content:     "accepted tcp:www.example.com:443",
			},
		},
		{
			name:    "Accepted Without Route Or Email",
			logLine: "2024/06/01 12:30:45 from 10.0.0.5:40000 accepted udp:8.8.8.8:53",
			expected: &model.XrayLogEntry{
				Timestamp:   mustParseTime(t, "2024/06/01 12:30:45"),
				Kind:        model.XrayLogKindAccess,
				Level:       "info",
				Source:      "10.0.0.5:40000",
				Destination: "udp:8.8.8.8:53",
				Content:     "accepted udp:8.8.8.8:53",
			},
		},
		{
			name:    "Rejected With Trailing Reason",
			logLine: "2024/06/01 12:30:46 from 198.51.100.9:44211 rejected proxy/vless/encoding: invalid request version",
			expected: &model.XrayLogEntry{
				Timestamp:   mustParseTime(t, "2024/06/01 12:30:46"),
				Kind:        model.XrayLogKindAccess,
				Level:       "warning",
				Source:      "198.51.100.9:44211",
				Destination: "proxy/vless/encoding:",
				Content:     "rejected proxy/vless/encoding: invalid request version",
			},
		},
		{
			name:        "Invalid Format - Missing Verdict",
			logLine:     "2024/06/01 12:30:45 from 10.0.0.5:40000 tcp:example.com:80",
			expectError: true,
		},
		{
			name:        "Invalid Format - Empty Line",
			logLine:     "",
			expectError: true,
		},
		{
			name:        "Invalid Format - Wrong Date Shape",
			logLine:     "01/06/24 12:30:45 from 10.0.0.5:40000 accepted tcp:example.com:80",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := logParser.Parse(tt.logLine, model.XrayLogKindAccess)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)

			// Compare time separately since the input may carry fractional seconds
			assert.Equal(t, tt.expected.Timestamp.Unix(), result.Timestamp.Unix())

			assert.Equal(t, tt.expected.Kind, result.Kind)
			assert.Equal(t, tt.expected.Level, result.Level)
			assert.Equal(t, tt.expected.Source, result.Source)
			assert.Equal(t, tt.expected.Destination, result.Destination)
			assert.Equal(t, tt.expected.User, result.User)
			assert.Equal(t, tt.expected.Inbound, result.Inbound)
			assert.Equal(t, tt.expected.Outbound, result.Outbound)
			assert.Equal(t, tt.expected.Content, result.Content)
			assert.Equal(t, tt.logLine, result.Raw)
		})
	}
}

func TestXrayLogParser_ParseError(t *testing.T) {
	logParser := parser.NewXrayLogParser()

	tests := []struct {
		name        string
		logLine     string
		expected    *model.XrayLogEntry
		expectError bool
	}{
		{
			name:    "Warning Entry",
			logLine: "2024/06/01 12:30:45.123456 [Warning] core: Xray 1.8.4 started",
			expected: &model.XrayLogEntry{
				Timestamp: mustParseTime(t, "2024/06/01 12:30:45"),
				Kind:      model.XrayLogKindError,
				Level:     "warning",
				Content:   "core: Xray 1.8.4 started",
			},
		},
		{
			name:    "Error Entry",
			logLine: "2024/06/01 12:31:02 [Error] transport/internet: failed to listen on 0.0.0.0:443",
			expected: &model.XrayLogEntry{
				Timestamp: mustParseTime(t, "2024/06/01 12:31:02"),
				Kind:      model.XrayLogKindError,
				Level:     "error",
				Content:   "transport/internet: failed to listen on 0.0.0.0:443",
			},
		},
		{
			name:        "Invalid Format - No Level Bracket",
			logLine:     "2024/06/01 12:31:02 transport/internet: failed to listen",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := logParser.Parse(tt.logLine, model.XrayLogKindError)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.expected.Timestamp.Unix(), result.Timestamp.Unix())
			assert.Equal(t, tt.expected.Kind, result.Kind)
			assert.Equal(t, tt.expected.Level, result.Level)
			assert.Equal(t, tt.expected.Content, result.Content)
			assert.Equal(t, tt.logLine, result.Raw)
		})
	}
}

func TestXrayLogParser_UnknownKind(t *testing.T) {
	logParser := parser.NewXrayLogParser()

	result, err := logParser.Parse("anything", "dns")
	assert.Error(t, err)
	assert.Nil(t, result)
}

// Helper function to parse time in the xray log format
func mustParseTime(t *testing.T, timeStr string) time.Time {
	parsed, err := time.Parse("2006/01/02 15:04:05", timeStr)
	require.NoError(t, err, "Failed to parse test time string")
	return parsed.UTC()
}
