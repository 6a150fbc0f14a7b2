package service

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/filestate"
	"one-ui-backend/internal/kafka"
	"one-ui-backend/internal/metrics"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/parser"
	"one-ui-backend/internal/store"
	"one-ui-backend/internal/timescaledb"
)

// XrayIngestService tails the xray access and error logs. Each cycle reads
// lines appended since the last persisted offset, fills the in-memory log
// window, derives metric events for TimescaleDB and turns connection
// verdicts into audit events on Kafka.
type XrayIngestService interface {
	ProcessLogs(ctx context.Context) error
}

type xrayIngestService struct {
	parser      parser.LogParser
	extractor   metrics.Extractor
	producer    kafka.AuditProducer
	metricStore timescaledb.MetricStore
	window      store.LogWindow
	stateMgr    filestate.Manager
	accessLog   string
	errorLog    string
	processLock sync.Mutex
}

func NewXrayIngestService(
	cfg *config.Config,
	stateMgr filestate.Manager,
	logParser parser.LogParser,
	extractor metrics.Extractor,
	producer kafka.AuditProducer,
	metricStore timescaledb.MetricStore,
	window store.LogWindow,
) XrayIngestService {
	return &xrayIngestService{
		parser:      logParser,
		extractor:   extractor,
		producer:    producer,
		metricStore: metricStore,
		window:      window,
		stateMgr:    stateMgr,
		accessLog:   cfg.Xray.AccessLogPath,
		errorLog:    cfg.Xray.ErrorLogPath,
	}
}

func (s *xrayIngestService) ProcessLogs(ctx context.Context) error {
	if !s.processLock.TryLock() {
		log.Warn().Msg("Log ingestion already in progress, skipping run.")
		return nil
	}
	defer s.processLock.Unlock()

	startTime := time.Now()

	offsets, err := s.stateMgr.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load tail offsets")
		return fmt.Errorf("failed to load tail offsets: %w", err)
	}

	files := []struct {
		path string
		kind string
	}{
		{s.accessLog, model.XrayLogKindAccess},
		{s.errorLog, model.XrayLogKindError},
	}

	var totalLines int64
	var metricEvents []model.MetricEvent
	var auditEvents []model.AuditEvent

	for _, file := range files {
		linesRead, newOffset, entries, err := s.processFile(ctx, file.path, file.kind, offsets[file.path])
		if err != nil {
			log.Error().Err(err).Str("file", file.path).Msg("Failed to process log file")
			continue
		}
		offsets[file.path] = newOffset
		totalLines += linesRead

		for i := range entries {
			entry := &entries[i]
			s.window.Append(file.kind, *entry)
			metricEvents = append(metricEvents, s.extractor.ExtractMetricEvents(entry)...)
			if file.kind == model.XrayLogKindAccess {
				auditEvents = append(auditEvents, connectionAuditEvent(entry))
			}
		}
	}

	if len(metricEvents) > 0 {
		if err := s.metricStore.StoreMetricEvents(ctx, metricEvents); err != nil {
			log.Error().Err(err).Int("count", len(metricEvents)).Msg("Failed to store metric events")
		}
	}
	if len(auditEvents) > 0 {
		if err := s.producer.Produce(ctx, auditEvents); err != nil {
			log.Error().Err(err).Int("count", len(auditEvents)).Msg("Failed to produce connection audit events")
		}
	}

	// Offsets advance even when a downstream sink failed this cycle. Lines
	// are never replayed, so the live window stays free of duplicates.
	if err := s.stateMgr.Save(offsets); err != nil {
		log.Error().Err(err).Msg("Failed to save tail offsets")
		return fmt.Errorf("failed to save tail offsets: %w", err)
	}

	if totalLines > 0 {
		log.Debug().
			Int64("lines_read", totalLines).
			Int("metric_events", len(metricEvents)).
			Int("audit_events", len(auditEvents)).
			Dur("duration", time.Since(startTime)).
			Msg("Finished log ingestion cycle")
	}
	return nil
}

func (s *xrayIngestService) processFile(ctx context.Context, path, kind string, lastOffset int64) (linesRead int64, newOffset int64, entries []model.XrayLogEntry, err error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// xray may not have written anything yet.
			return 0, lastOffset, nil, nil
		}
		return 0, lastOffset, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, lastOffset, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() < lastOffset {
		log.Warn().
			Str("file", path).
			Int64("last_offset", lastOffset).
			Int64("current_size", info.Size()).
			Msg("File truncated or rotated? Resetting offset.")
		lastOffset = 0
	}
	if _, err := file.Seek(lastOffset, 0); err != nil {
		return 0, lastOffset, nil, fmt.Errorf("failed to seek %s to offset %d: %w", path, lastOffset, err)
	}

	scanner := bufio.NewScanner(file)
	currentOffset := lastOffset
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return linesRead, currentOffset, entries, ctx.Err()
		default:
		}

		line := scanner.Text()
		linesRead++
		currentOffset += int64(len(line)) + 1

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		entry, parseErr := s.parser.Parse(trimmed, kind)
		if parseErr != nil {
			// Startup banners and panic traces land in the same files.
			log.Debug().Str("file", path).Str("line", trimmed).Msg("Skipping unparseable line")
			continue
		}
		entries = append(entries, *entry)
	}
	if err := scanner.Err(); err != nil {
		return linesRead, currentOffset, entries, fmt.Errorf("error reading %s: %w", path, err)
	}
	return linesRead, currentOffset, entries, nil
}

// connectionAuditEvent maps one access log verdict onto the audit trail.
func connectionAuditEvent(entry *model.XrayLogEntry) model.AuditEvent {
	action := "accepted"
	status := model.AuditStatusSuccess
	if strings.HasPrefix(entry.Content, "rejected") {
		action = "rejected"
		status = model.AuditStatusDenied
	}

	actorIP := entry.Source
	if host, _, err := net.SplitHostPort(entry.Source); err == nil {
		actorIP = host
	}

	detail := entry.Content
	if entry.Inbound != "" || entry.Outbound != "" {
		detail = fmt.Sprintf("%s via %s >> %s", entry.Content, entry.Inbound, entry.Outbound)
	}

	return model.AuditEvent{
		Timestamp: entry.Timestamp,
		Category:  model.AuditCategoryConnection,
		Action:    action,
		Actor:     entry.User,
		ActorIP:   actorIP,
		Target:    entry.Destination,
		Status:    status,
		Detail:    detail,
	}
}
