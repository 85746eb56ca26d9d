package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eco-kart/internal/ledger"
	"eco-kart/internal/lifecycle"
	"eco-kart/internal/model"
	"eco-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// statusTxTimeout bounds a fulfilment status transaction once it has started.
const statusTxTimeout = 10 * time.Second

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	eventRepo repository.EventRepository
	ledger    ledger.Ledger
	clawBack  bool
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service. When clawBack is set,
// cancelling an order also debits the points it earned, up to the balance.
func NewOrderService(
	orderRepo repository.OrderRepository,
	eventRepo repository.EventRepository,
	ldg ledger.Ledger,
	clawBack bool,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		ledger:    ldg,
		clawBack:  clawBack,
		logger:    logger.With().Str("service", "order").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetByID retrieves an order owned by the user. Orders of other users are reported as not found.
func (s *orderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, model.NewPersistenceFailure(err)
	}

	if order == nil || order.UserID != userID {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// List retrieves the user's orders with pagination.
func (s *orderService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, model.NewPersistenceFailure(err)
	}

	return orders, nil
}

// Cancel cancels a pending order. Every used redemption tied to the order is
// refunded once; earned points are clawed back only when configured.
func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*model.CancelResponse, error) {
	var resp *model.CancelResponse

	err := s.ledger.WithUser(ctx, userID, func(ctx context.Context, tx pgx.Tx) error {
		order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return model.ErrOrderNotFound
		}

		if err := lifecycle.Transition(order.Status, model.OrderStatusCancelled); err != nil {
			return err
		}

		redemptions, err := s.ledger.OrderRedemptions(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		var refunded int64
		for _, r := range redemptions {
			if r.Status != model.RedemptionUsed {
				continue
			}
			done, err := s.ledger.Refund(ctx, tx, r.ID)
			if err != nil {
				return err
			}
			refunded += done.PointsSpent
		}

		clawedBack, err := s.clawBackEarned(ctx, tx, order)
		if err != nil {
			return err
		}

		now := s.now()
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusCancelled, now); err != nil {
			return err
		}
		order.Status = model.OrderStatusCancelled
		order.UpdatedAt = now

		if err := s.enqueue(ctx, tx, model.EventOrderCancelled, order); err != nil {
			return err
		}

		resp = &model.CancelResponse{
			Order:            order,
			PointsRefunded:   refunded,
			PointsClawedBack: clawedBack,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("order cancellation failed")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("order_id", orderID.String()).
		Int64("points_refunded", resp.PointsRefunded).
		Int64("points_clawed_back", resp.PointsClawedBack).
		Msg("order cancelled")

	return resp, nil
}

func (s *orderService) clawBackEarned(ctx context.Context, tx pgx.Tx, order *model.Order) (int64, error) {
	if !s.clawBack || order.PointsEarned <= 0 {
		return 0, nil
	}

	balance, err := s.ledger.BalanceTx(ctx, tx, order.UserID)
	if err != nil {
		return 0, err
	}

	amount := min(order.PointsEarned, balance)
	if amount <= 0 {
		return 0, nil
	}

	ref := model.EntryRef{OrderID: &order.ID}
	if _, err := s.ledger.Debit(ctx, tx, order.UserID, amount, model.ReasonClawback, ref); err != nil {
		return 0, err
	}
	return amount, nil
}

// UpdateStatus moves an order forward. Cancellation is rejected here because
// it has to go through Cancel to settle the ledger. Once the transaction has
// begun, cancelling ctx no longer interrupts it.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (order *model.Order, err error) {
	if !lifecycle.Valid(status) || status == model.OrderStatusCancelled {
		return nil, model.ErrInvalidTransition
	}
	if err := ctx.Err(); err != nil {
		return nil, model.NewPersistenceFailure(err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTxTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, model.NewPersistenceFailure(err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err = s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, model.NewPersistenceFailure(err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	from := order.Status
	if err := lifecycle.Transition(from, status); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, status, now); err != nil {
		return nil, model.NewPersistenceFailure(err)
	}
	order.Status = status
	order.UpdatedAt = now

	if err := s.enqueue(ctx, tx, model.EventOrderStatusChanged, order); err != nil {
		return nil, model.NewPersistenceFailure(err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return nil, model.NewPersistenceFailure(err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("order status updated")

	return order, nil
}

func (s *orderService) enqueue(ctx context.Context, tx pgx.Tx, eventType string, order *model.Order) error {
	event, err := model.NewOrderEvent(eventType, order)
	if err != nil {
		return fmt.Errorf("failed to build order event: %w", err)
	}
	return s.eventRepo.Enqueue(ctx, tx, event)
}
