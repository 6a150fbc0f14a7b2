package metrics

import (
	"regexp"

	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/model"
)

// Extractor derives metric events from parsed xray log entries. Connection
// events feed the traffic timeseries, error events feed the health view.
type Extractor interface {
	ExtractMetricEvents(entry *model.XrayLogEntry) []model.MetricEvent
}

type xrayLogExtractor struct {
	failureRegex *regexp.Regexp
}

func NewXrayLogExtractor() Extractor {
	return &xrayLogExtractor{
		failureRegex: regexp.MustCompile(`(?i)(failed|failure|rejected|invalid|timeout)`),
	}
}

func (e *xrayLogExtractor) ExtractMetricEvents(entry *model.XrayLogEntry) []model.MetricEvent {
	if entry == nil {
		return nil
	}

	events := make([]model.MetricEvent, 0, 2)

	if entry.Kind == model.XrayLogKindAccess {
		status := "accepted"
		if entry.Level == "warning" {
			status = "rejected"
		}
		tags := map[string]string{
			"status":   status,
			"inbound":  entry.Inbound,
			"outbound": entry.Outbound,
		}
		if entry.User != "" {
			tags["user"] = entry.User
		}
		events = append(events, model.MetricEvent{
			Time:       entry.Timestamp,
			MetricName: "connection_event",
			Stream:     entry.Kind,
			Tags:       tags,
		})
	}

	isError := entry.Kind == model.XrayLogKindError &&
		(entry.Level == "error" || entry.Level == "warning")

	if !isError && e.failureRegex.MatchString(entry.Content) {
		isError = true
	}

	if isError {
		events = append(events, model.MetricEvent{
			Time:       entry.Timestamp,
			MetricName: "error_event",
			Stream:     entry.Kind,
			Tags: map[string]string{
				"level":     entry.Level,
				"error_key": entry.Content,
			},
		})
	}

	if len(events) > 0 {
		log.Trace().Str("stream", entry.Kind).Str("log_timestamp", entry.Timestamp.String()).Int("event_count", len(events)).Msg("Extracted metric events")
	}
	return events
}
