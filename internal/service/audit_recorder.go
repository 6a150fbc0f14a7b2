package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/kafka"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/store"
)

// AuditRecorder accepts audit events from request handlers and ships them to
// Kafka in the background. Record never blocks the request path; when the
// buffer is full the event is dropped and counted.
type AuditRecorder interface {
	Record(event model.AuditEvent)
	Run(ctx context.Context, wg *sync.WaitGroup)
}

type auditRecorder struct {
	producer   kafka.AuditProducer
	window     store.AuditWindow
	buf        chan model.AuditEvent
	batchSize  int
	flushEvery time.Duration
	dropped    atomic.Int64
}

func NewAuditRecorder(cfg *config.Config, producer kafka.AuditProducer, window store.AuditWindow) AuditRecorder {
	batchSize := cfg.Kafka.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushEvery := cfg.Kafka.BatchTimeout
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	return &auditRecorder{
		producer:   producer,
		window:     window,
		buf:        make(chan model.AuditEvent, 4*batchSize),
		batchSize:  batchSize,
		flushEvery: flushEvery,
	}
}

func (r *auditRecorder) Record(event model.AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}
	// The live window sees the event immediately, before the Kafka round trip.
	r.window.Append(event)

	select {
	case r.buf <- event:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Warn().Int64("dropped_total", n).Msg("Audit buffer full, dropping event")
		}
	}
}

func (r *auditRecorder) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("Starting audit recorder loop...")

	ticker := time.NewTicker(r.flushEvery)
	defer ticker.Stop()

	batch := make([]model.AuditEvent, 0, r.batchSize)
	flush := func(flushCtx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := r.producer.Produce(flushCtx, batch); err != nil {
			log.Error().Err(err).Int("count", len(batch)).Msg("Failed to produce audit events")
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			r.drain(&batch)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			log.Info().Msg("Audit recorder loop stopped.")
			return
		case event := <-r.buf:
			batch = append(batch, event)
			if len(batch) >= r.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}

func (r *auditRecorder) drain(batch *[]model.AuditEvent) {
	for {
		select {
		case event := <-r.buf:
			*batch = append(*batch, event)
		default:
			return
		}
	}
}
