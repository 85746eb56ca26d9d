package repository

import (
	"context"
	"fmt"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// eventRepository implements the EventRepository interface using PostgreSQL.
type eventRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewEventRepository creates a new PostgreSQL-backed outbox.
func NewEventRepository(pool *pgxpool.Pool, logger zerolog.Logger) EventRepository {
	return &eventRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "event").Logger(),
	}
}

// Enqueue stores an event within the provided transaction.
func (r *eventRepository) Enqueue(ctx context.Context, tx pgx.Tx, event *model.OrderEvent) error {
	query := `
		INSERT INTO order_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query, event.ID, event.AggregateID, event.EventType, event.Payload, event.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("aggregate_id", event.AggregateID.String()).
			Str("event_type", event.EventType).
			Msg("failed to enqueue event")
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	return nil
}

// Unpublished returns the oldest events not yet published.
func (r *eventRepository) Unpublished(ctx context.Context, limit int) ([]model.OrderEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at, published_at
		FROM order_events
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query unpublished events")
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	events := []model.OrderEvent{}
	for rows.Next() {
		var e model.OrderEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan event row")
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating event rows")
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// MarkPublished records that an event reached the broker.
func (r *eventRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE order_events SET published_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", id.String()).Msg("failed to mark event as published")
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}
