package service

import (
	"context"
	"fmt"
	"time"

	"eco-kart/internal/cart"
	"eco-kart/internal/ledger"
	"eco-kart/internal/model"
	"eco-kart/internal/pricing"
	"eco-kart/internal/repository"
	"eco-kart/internal/reward"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	cart        cart.Store
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	eventRepo   repository.EventRepository
	calculator  *pricing.Calculator
	resolver    reward.Resolver
	ledger      ledger.Ledger
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	store cart.Store,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	eventRepo repository.EventRepository,
	calculator *pricing.Calculator,
	resolver reward.Resolver,
	ldg ledger.Ledger,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		cart:        store,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		eventRepo:   eventRepo,
		calculator:  calculator,
		resolver:    resolver,
		ledger:      ldg,
		logger:      logger.With().Str("service", "checkout").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Checkout runs the whole checkout sequence. Everything from the balance read
// to the outbox write happens in one transaction under the user's ledger lock;
// the cart is cleared only after that transaction commits.
func (s *checkoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, model.ErrEmptyCart
	}
	if !req.DeliveryOption.Valid() {
		return nil, model.ErrInvalidDeliveryOption
	}

	log := s.logger.With().Str("user_id", req.UserID.String()).Logger()

	if existing, err := s.replay(ctx, req); err != nil || existing != nil {
		return existing, err
	}

	snapshot, err := s.cart.Snapshot(ctx, req.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to read cart snapshot")
		return nil, model.NewPersistenceFailure(err)
	}

	products, err := s.productRepo.GetByIDs(ctx, snapshot.ProductIDs())
	if err != nil {
		log.Error().Err(err).Msg("failed to load cart products")
		return nil, model.NewPersistenceFailure(err)
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines, err := s.calculator.Freeze(snapshot, byID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculator.Price(lines, pricing.Options{
		Delivery:     req.DeliveryOption,
		EcoPackaging: req.EcoPackaging,
	})
	if err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		balance  int64
		replayed *model.CheckoutResponse
	)
	err = s.ledger.WithUser(ctx, req.UserID, func(ctx context.Context, tx pgx.Tx) error {
		// A retry may have committed while this call waited for the lock.
		existing, err := s.replay(ctx, req)
		if err != nil || existing != nil {
			replayed = existing
			return err
		}

		current, err := s.ledger.BalanceTx(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		claimed, err := s.claimedRedemptions(ctx, tx, req.Rewards)
		if err != nil {
			return err
		}

		res, err := s.resolver.Resolve(reward.Input{
			UserID:    req.UserID,
			Breakdown: *breakdown,
			Balance:   current,
			Requests:  req.Rewards,
			Claimed:   claimed,
		})
		if err != nil {
			return err
		}

		order = s.buildOrder(req, lines, res)
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.orderRepo.CreateOrderLines(ctx, tx, order.Items); err != nil {
			return err
		}

		for _, accepted := range res.Accepted {
			if err := s.applyReward(ctx, tx, order, accepted); err != nil {
				return err
			}
		}

		if order.PointsEarned > 0 {
			ref := model.EntryRef{OrderID: &order.ID}
			if _, err := s.ledger.Credit(ctx, tx, req.UserID, order.PointsEarned, model.ReasonEarn, ref); err != nil {
				return err
			}
		}

		event, err := model.NewOrderEvent(model.EventOrderPlaced, order)
		if err != nil {
			return fmt.Errorf("failed to build order event: %w", err)
		}
		if err := s.eventRepo.Enqueue(ctx, tx, event); err != nil {
			return err
		}

		balance, err = s.ledger.BalanceTx(ctx, tx, req.UserID)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("checkout failed")
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	if err := s.cart.Clear(ctx, req.UserID); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to clear cart after checkout")
	}

	mismatch := req.ClientTotal != nil && !req.ClientTotal.Equal(order.FinalTotal)
	if mismatch {
		log.Warn().
			Str("order_id", order.ID.String()).
			Str("client_total", req.ClientTotal.String()).
			Str("final_total", order.FinalTotal.String()).
			Msg("client total differs from server total")
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("final_total", order.FinalTotal.String()).
		Int64("points_earned", order.PointsEarned).
		Int64("points_redeemed", order.PointsRedeemed).
		Msg("checkout completed")

	return &model.CheckoutResponse{
		Order:         order,
		Balance:       balance,
		TotalMismatch: mismatch,
	}, nil
}

// replay returns the response of an earlier checkout with the same idempotency key.
func (s *checkoutService) replay(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req.IdempotencyKey == "" {
		return nil, nil
	}

	existing, err := s.orderRepo.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		return nil, model.NewPersistenceFailure(err)
	}
	if existing == nil {
		return nil, nil
	}

	balance, err := s.ledger.BalanceOf(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", req.UserID.String()).
		Str("order_id", existing.ID.String()).
		Msg("checkout replayed from idempotency key")

	return &model.CheckoutResponse{
		Order:         existing,
		Balance:       balance,
		TotalMismatch: req.ClientTotal != nil && !req.ClientTotal.Equal(existing.FinalTotal),
		Replayed:      true,
	}, nil
}

// claimedRedemptions locks the redemptions referenced by the requests.
// Unknown IDs are left out; the resolver reports them.
func (s *checkoutService) claimedRedemptions(ctx context.Context, tx pgx.Tx, requests []model.RewardRequest) (map[uuid.UUID]model.Redemption, error) {
	claimed := map[uuid.UUID]model.Redemption{}
	for _, req := range requests {
		if req.RedemptionID == nil {
			continue
		}
		if _, ok := claimed[*req.RedemptionID]; ok {
			continue
		}
		redemption, err := s.ledger.Redemption(ctx, tx, *req.RedemptionID)
		if err != nil {
			return nil, err
		}
		if redemption != nil {
			claimed[redemption.ID] = *redemption
		}
	}
	return claimed, nil
}

// buildOrder derives every amount from the resolution, never from the request.
func (s *checkoutService) buildOrder(req *model.CheckoutRequest, lines []model.OrderLine, res *reward.Resolution) *model.Order {
	now := s.now()
	b := res.Breakdown

	order := &model.Order{
		ID:                   uuid.New(),
		UserID:               req.UserID,
		Subtotal:             b.Subtotal,
		Tax:                  b.Tax,
		Shipping:             b.Shipping,
		DiscountAmount:       res.Discount,
		PointsEarned:         b.PointsEarned,
		DeliveryBonusPoints:  b.DeliveryBonusPoints,
		PackagingBonusPoints: b.PackagingBonusPoints,
		PointsRedeemed:       res.PointsCost,
		FreeShippingApplied:  res.FreeShipping(),
		DeliveryOption:       req.DeliveryOption,
		EcoPackaging:         req.EcoPackaging,
		ShippingAddress:      req.ShippingAddress,
		Status:               model.OrderStatusPending,
		PaymentStatus:        model.PaymentPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}
	order.ComputeFinalTotal()

	order.Items = make([]model.OrderLine, len(lines))
	for i, line := range lines {
		line.ID = uuid.New()
		line.OrderID = order.ID
		order.Items[i] = line
	}

	return order
}

// applyReward records a granted reward as a used redemption of the order.
// Rewards paid for now get a fresh redemption and a debit; claimed ones
// are only marked used.
func (s *checkoutService) applyReward(ctx context.Context, tx pgx.Tx, order *model.Order, accepted model.AcceptedReward) error {
	redemptionID := accepted.RedemptionID
	if !accepted.Prepaid() {
		if accepted.PointsCost <= 0 {
			return nil
		}
		redemption, err := s.ledger.Claim(ctx, tx, ledger.ClaimRequest{
			UserID:     order.UserID,
			Reward:     accepted.Reward,
			PointsCost: accepted.PointsCost,
			OrderID:    &order.ID,
		})
		if err != nil {
			return err
		}
		redemptionID = &redemption.ID
	}

	_, err := s.ledger.MarkRedemptionUsed(ctx, tx, *redemptionID, order.ID, accepted.Discount)
	return err
}
