// Package lifecycle is the order status state machine.
package lifecycle

import "eco-kart/internal/model"

// rank orders the fulfilment states. Cancelled is outside the forward chain.
var rank = map[model.OrderStatus]int{
	model.OrderStatusPending:   0,
	model.OrderStatusConfirmed: 1,
	model.OrderStatusShipped:   2,
	model.OrderStatusDelivered: 3,
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status model.OrderStatus) bool {
	return status == model.OrderStatusDelivered || status == model.OrderStatusCancelled
}

// Valid reports whether status is a known order status.
func Valid(status model.OrderStatus) bool {
	_, ok := rank[status]
	return ok || status == model.OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Fulfilment moves forward only and may skip states; cancellation is only
// allowed while pending.
func CanTransition(from, to model.OrderStatus) bool {
	if to == model.OrderStatusCancelled {
		return from == model.OrderStatusPending
	}
	fromRank, okFrom := rank[from]
	toRank, okTo := rank[to]
	return okFrom && okTo && toRank > fromRank
}

// Transition validates a move and returns the error a caller should surface.
func Transition(from, to model.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	if to == model.OrderStatusCancelled {
		return model.ErrNotCancellable
	}
	return model.ErrInvalidTransition
}
