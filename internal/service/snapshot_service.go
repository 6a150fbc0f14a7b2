package service

import (
	"fmt"
	"strings"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/store"
)

// Live stream names served over SSE.
const (
	StreamAccess = model.XrayLogKindAccess
	StreamError  = model.XrayLogKindError
	StreamAudit  = "audit"
)

// SnapshotService renders the periodic snapshot frames for the live SSE
// streams from the in-memory windows. The filter narrows lines and entries;
// counters always describe the whole window so the panel's totals stay
// stable while an operator drills down.
type SnapshotService interface {
	BuildSnapshot(stream string, q dto.StreamQuery) (*dto.StreamSnapshot, error)
	Streams() []string
}

type snapshotService struct {
	window      store.LogWindow
	auditWindow store.AuditWindow
	lineLimit   int
}

func NewSnapshotService(cfg *config.Config, window store.LogWindow, auditWindow store.AuditWindow) SnapshotService {
	lineLimit := cfg.Stream.LineLimit
	if lineLimit <= 0 {
		lineLimit = 200
	}
	return &snapshotService{
		window:      window,
		auditWindow: auditWindow,
		lineLimit:   lineLimit,
	}
}

func (s *snapshotService) Streams() []string {
	return []string{StreamAccess, StreamError, StreamAudit}
}

func (s *snapshotService) BuildSnapshot(stream string, q dto.StreamQuery) (*dto.StreamSnapshot, error) {
	limit := q.Limit
	if limit <= 0 || limit > s.lineLimit {
		limit = s.lineLimit
	}

	switch stream {
	case StreamAccess, StreamError:
		entries := filterLogEntries(s.window.Snapshot(stream, limit), q)
		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			lines = append(lines, entry.Raw)
		}
		return &dto.StreamSnapshot{
			Lines:    lines,
			Entries:  entries,
			Counters: toCounters(s.window.Counters(stream)),
		}, nil
	case StreamAudit:
		events := filterAuditEvents(s.auditWindow.Snapshot(limit), q)
		lines := make([]string, 0, len(events))
		for _, event := range events {
			lines = append(lines, renderAuditLine(event))
		}
		return &dto.StreamSnapshot{
			Lines:    lines,
			Entries:  events,
			Counters: toCounters(s.auditWindow.Counters()),
		}, nil
	default:
		return nil, fmt.Errorf("unknown stream %q", stream)
	}
}

func filterLogEntries(entries []model.XrayLogEntry, q dto.StreamQuery) []model.XrayLogEntry {
	if q.Search == "" && q.Level == "" && q.IP == "" && q.User == "" {
		return entries
	}
	out := entries[:0:0]
	for _, entry := range entries {
		if q.Level != "" && !strings.EqualFold(entry.Level, q.Level) {
			continue
		}
		if q.IP != "" && !strings.Contains(entry.Source, q.IP) {
			continue
		}
		if q.User != "" && !strings.EqualFold(entry.User, q.User) {
			continue
		}
		if q.Search != "" && !containsFold(entry.Raw, q.Search) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// filterAuditEvents applies the shared stream filter to audit events. The
// level filter matches the event status since audit events carry no
// severity of their own.
func filterAuditEvents(events []model.AuditEvent, q dto.StreamQuery) []model.AuditEvent {
	if q.Search == "" && q.Level == "" && q.IP == "" && q.User == "" {
		return events
	}
	out := events[:0:0]
	for _, event := range events {
		if q.Level != "" && !strings.EqualFold(event.Status, q.Level) {
			continue
		}
		if q.IP != "" && !strings.Contains(event.ActorIP, q.IP) {
			continue
		}
		if q.User != "" && !strings.EqualFold(event.Actor, q.User) {
			continue
		}
		if q.Search != "" && !containsFold(renderAuditLine(event), q.Search) {
			continue
		}
		out = append(out, event)
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func toCounters(t store.Tally) dto.StreamCounters {
	return dto.StreamCounters{Total: t.Total, Levels: t.Levels, Kinds: t.Kinds}
}

func renderAuditLine(event model.AuditEvent) string {
	line := fmt.Sprintf("%s [%s] %s actor=%s status=%s",
		event.Timestamp.UTC().Format("2006/01/02 15:04:05"),
		event.Category, event.Action, event.Actor, event.Status)
	if event.Target != "" {
		line += " target=" + event.Target
	}
	if event.Detail != "" {
		line += " " + event.Detail
	}
	return line
}
