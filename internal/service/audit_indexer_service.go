package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"one-ui-backend/config"
	"one-ui-backend/internal/elasticsearch"
	"one-ui-backend/internal/kafka"
	"one-ui-backend/internal/model"
)

// AuditIndexerService drains the audit topic into Elasticsearch. Offsets are
// committed only after a batch is stored, so a crash replays rather than
// loses events.
type AuditIndexerService interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
}

type auditIndexerService struct {
	consumer   kafka.AuditConsumer
	auditStore elasticsearch.AuditStore
	batchSize  int
	maxWait    time.Duration
}

func NewAuditIndexerService(
	consumer kafka.AuditConsumer,
	auditStore elasticsearch.AuditStore,
	cfg *config.Config,
) AuditIndexerService {
	batchSize := cfg.Kafka.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxWait := cfg.Kafka.ConsumerMaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &auditIndexerService{
		consumer:   consumer,
		auditStore: auditStore,
		batchSize:  batchSize,
		maxWait:    maxWait,
	}
}

func (s *auditIndexerService) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("Starting audit indexer loop...")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Audit indexer loop stopping due to context cancellation.")
			return
		default:
		}

		if err := s.processBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info().Msg("Context cancelled during audit batch processing.")
				return
			}
			log.Error().Err(err).Msg("Error processing audit batch")
			time.Sleep(1 * time.Second)
		}
	}
}

func (s *auditIndexerService) processBatch(ctx context.Context) error {
	events := make([]model.AuditEvent, 0, s.batchSize)
	messages := make([]kafkaGo.Message, 0, s.batchSize)
	batchStart := time.Now()

	for len(messages) < s.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		remaining := s.maxWait - time.Since(batchStart)
		if remaining <= 0 {
			break
		}
		fetchCtx, cancel := context.WithTimeout(ctx, remaining)
		event, msg, err := s.consumer.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			// An unparseable message still needs its offset committed, or the
			// group would wedge on it forever.
			if msg.Topic != "" {
				log.Warn().Int64("offset", msg.Offset).Msg("Committing undecodable audit message")
				messages = append(messages, msg)
				continue
			}
			return fmt.Errorf("failed to fetch kafka message: %w", err)
		}

		events = append(events, *event)
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil
	}

	if len(events) > 0 {
		if err := s.auditStore.StoreEvents(ctx, events); err != nil {
			log.Error().Err(err).Msg("Failed to store audit events to Elasticsearch")
			// No commit: the batch is replayed on the next cycle.
			return fmt.Errorf("failed storing audit events: %w", err)
		}
	}

	if err := s.consumer.CommitMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed committing kafka messages: %w", err)
	}
	log.Debug().Int("events", len(events)).Int("messages", len(messages)).Msg("Indexed audit batch")
	return nil
}
