package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"one-ui-backend/config"
	"one-ui-backend/internal/model"
)

type AuditProducer interface {
	Produce(ctx context.Context, events []model.AuditEvent) error
	Close() error
}

type kafkaAuditProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaAuditProducer(lc fx.Lifecycle, cfg *config.Config) (AuditProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.AuditTopic == "" {
		log.Error().Msg("Kafka brokers or audit topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		Async:        true,
	})
	p := &kafkaAuditProducer{
		writer: writer,
		topic:  cfg.Kafka.AuditTopic,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka producer")
			return p.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.AuditTopic).Msg("Kafka producer initialized")
	return p, nil
}

func (p *kafkaAuditProducer) Produce(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))

	// Keyed by category so events of one category stay ordered within a
	// partition.
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("category", event.Category).Str("action", event.Action).Msg("Failed to marshal audit event for Kafka")
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Category),
			Value: value,
		})
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid messages to produce.")
		return nil
	}

	err := p.writer.WriteMessages(ctx, messages...)
	if err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return err
	}

	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced messages to Kafka")

	return nil
}

func (p *kafkaAuditProducer) Close() error {
	return p.writer.Close()
}
