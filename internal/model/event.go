package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order event types written to the outbox.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is an outbox row published to the message broker.
type OrderEvent struct {
	ID          uuid.UUID       `db:"id"`
	AggregateID uuid.UUID       `db:"aggregate_id"`
	EventType   string          `db:"event_type"`
	Payload     json.RawMessage `db:"payload"`
	CreatedAt   time.Time       `db:"created_at"`
	PublishedAt *time.Time      `db:"published_at"`
}

// NewOrderEvent builds an outbox row for the given order.
func NewOrderEvent(eventType string, order *Order) (*OrderEvent, error) {
	payload, err := json.Marshal(map[string]any{
		"orderId":        order.ID,
		"userId":         order.UserID,
		"status":         order.Status,
		"finalTotal":     order.FinalTotal,
		"pointsEarned":   order.PointsEarned,
		"pointsRedeemed": order.PointsRedeemed,
	})
	if err != nil {
		return nil, err
	}
	return &OrderEvent{
		ID:          uuid.New(),
		AggregateID: order.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
