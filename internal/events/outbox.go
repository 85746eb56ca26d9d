// Package events publishes order events written to the transactional outbox.
package events

import (
	"context"
	"time"

	"eco-kart/internal/config"
	"eco-kart/internal/model"
	"eco-kart/internal/repository"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPublisher polls unpublished order events and writes them to Kafka.
// Delivery is at-least-once: an event whose mark fails is sent again.
type OutboxPublisher struct {
	repo      repository.EventRepository
	writer    MessageWriter
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

// NewKafkaWriter creates a writer for the configured order events topic.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewOutboxPublisher creates a publisher. Events with the same order ID are
// written with the same key, so they land on one partition in order.
func NewOutboxPublisher(repo repository.EventRepository, writer MessageWriter, cfg config.KafkaConfig, logger zerolog.Logger) *OutboxPublisher {
	return &OutboxPublisher{
		repo:      repo,
		writer:    writer,
		interval:  cfg.PollInterval,
		batchSize: cfg.BatchSize,
		logger:    logger.With().Str("component", "outbox-publisher").Logger(),
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Msg("outbox publisher started")

	for {
		select {
		case <-ticker.C:
			p.PublishPending(ctx)
		case <-ctx.Done():
			p.logger.Info().Msg("outbox publisher stopped")
			return
		}
	}
}

// PublishPending sends one batch of unpublished events and returns how many
// were published. It stops at the first failed write to keep per-order order.
func (p *OutboxPublisher) PublishPending(ctx context.Context) int {
	events, err := p.repo.Unpublished(ctx, p.batchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to fetch unpublished events")
		return 0
	}

	published := 0
	for i := range events {
		event := &events[i]
		if err := p.writer.WriteMessages(ctx, toMessage(event)); err != nil {
			p.logger.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			return published
		}

		if err := p.repo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			p.logger.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Msg("failed to mark event as published")
			return published
		}
		published++
	}

	if published > 0 {
		p.logger.Debug().Int("count", published).Msg("outbox events published")
	}
	return published
}

// Close flushes and closes the underlying writer.
func (p *OutboxPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event *model.OrderEvent) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}
}
