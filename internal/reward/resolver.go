package reward

import (
	"time"

	"eco-kart/internal/config"
	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolver decides which requested rewards are grantable and prices them.
// It never mutates the ledger.
type Resolver interface {
	Resolve(in Input) (*Resolution, error)
}

// Input is everything the resolver needs for one checkout attempt.
type Input struct {
	UserID    uuid.UUID
	Breakdown model.PriceBreakdown
	Balance   int64
	Requests  []model.RewardRequest
	// Claimed holds the user's redemptions referenced by Requests, keyed by ID.
	Claimed map[uuid.UUID]model.Redemption
}

// Resolution is the outcome of resolving a checkout's reward requests.
type Resolution struct {
	Accepted []model.AcceptedReward
	// Breakdown is the input breakdown with shipping waived when free shipping was granted.
	Breakdown model.PriceBreakdown
	// Discount is the aggregate amount subtracted from the total, capped at the total.
	Discount decimal.Decimal
	// PointsCost is the number of points the ledger must debit for this checkout.
	PointsCost int64
}

// FreeShipping reports whether a free-shipping reward was granted.
func (r *Resolution) FreeShipping() bool {
	return r.Breakdown.FreeShipping
}

type resolver struct {
	catalog   Catalog
	pointsCap decimal.Decimal
	now       func() time.Time
}

// NewResolver creates a resolver over the given catalogue.
func NewResolver(catalog Catalog, cfg config.LoyaltyConfig) Resolver {
	return &resolver{
		catalog:   catalog,
		pointsCap: cfg.PointsRedemptionCap,
		now:       time.Now,
	}
}

// candidate is a request matched to a reward definition, before pricing.
type candidate struct {
	reward     model.Reward
	redemption *uuid.UUID
	pointsCost int64
	points     int64
}

// Resolve applies these rules, in order:
//   - at most one percent-off and at most one free-shipping effect
//   - at most one points redemption, and never together with percent-off
//   - free shipping zeroes shipping before any cap is computed
//   - percent-off is min(subtotal x rate, cap) on the pre-tax subtotal
//   - points redemption is min(points, 20% of subtotal+tax+shipping), spent 1:1
//   - the total points cost must not exceed the balance
func (r *resolver) Resolve(in Input) (*Resolution, error) {
	now := r.now()

	var percentOff, freeShipping, points *candidate
	order := make([]*candidate, 0, len(in.Requests))

	for _, req := range in.Requests {
		c, err := r.match(in, req, now)
		if err != nil {
			return nil, err
		}

		switch c.reward.Kind {
		case model.RewardPercentOff:
			if percentOff != nil {
				return nil, model.ErrRewardConflict
			}
			percentOff = c
		case model.RewardFreeShipping:
			if freeShipping != nil {
				return nil, model.ErrRewardConflict
			}
			freeShipping = c
		case model.RewardPointsRedemption:
			if points != nil {
				return nil, model.ErrRewardConflict
			}
			points = c
		}
		order = append(order, c)
	}

	if percentOff != nil && points != nil {
		return nil, model.ErrRewardConflict
	}

	res := &Resolution{
		Breakdown: in.Breakdown,
		Discount:  decimal.Zero,
	}
	if freeShipping != nil {
		res.Breakdown = in.Breakdown.WithoutShipping()
	}
	total := res.Breakdown.Total()

	for _, c := range order {
		accepted := model.AcceptedReward{
			Reward:       c.reward,
			RedemptionID: c.redemption,
			PointsCost:   c.pointsCost,
			Discount:     decimal.Zero,
		}

		switch c.reward.Kind {
		case model.RewardPercentOff:
			accepted.Discount = percentDiscount(res.Breakdown.Subtotal, c.reward)
			res.Discount = res.Discount.Add(accepted.Discount)
		case model.RewardFreeShipping:
			accepted.Discount = in.Breakdown.Shipping
		case model.RewardPointsRedemption:
			limit := total.Mul(r.pointsCap).Floor().IntPart()
			spent := min(c.points, limit)
			accepted.PointsCost = spent
			accepted.Discount = decimal.NewFromInt(spent)
			res.Discount = res.Discount.Add(accepted.Discount)
		}

		res.PointsCost += accepted.PointsCost
		res.Accepted = append(res.Accepted, accepted)
	}

	if res.PointsCost > in.Balance {
		return nil, model.ErrInsufficientPoints
	}

	if res.Discount.GreaterThan(total) {
		res.Discount = total
	}

	return res, nil
}

// match resolves one request to a reward definition and checks its eligibility.
func (r *resolver) match(in Input, req model.RewardRequest, now time.Time) (*candidate, error) {
	switch req.Kind {
	case model.RewardPercentOff:
		return r.builtin(model.BuiltinPercentOffID, now)
	case model.RewardFreeShipping:
		return r.builtin(model.BuiltinFreeShippingID, now)
	case model.RewardPointsRedemption:
		if req.Points <= 0 {
			return nil, model.ErrInvalidRewardRequest
		}
		return &candidate{
			reward: model.Reward{
				ID:     model.BuiltinPointsRedemptionID,
				Name:   "EcoPoints redemption",
				Kind:   model.RewardPointsRedemption,
				Active: true,
			},
			points: req.Points,
		}, nil
	case model.RewardCatalog:
		if req.RedemptionID != nil {
			return r.claimed(in, *req.RedemptionID, now)
		}
		if req.RewardID == "" {
			return nil, model.ErrInvalidRewardRequest
		}
		reward, ok := r.catalog.Get(req.RewardID)
		if !ok {
			return nil, model.ErrRewardNotFound
		}
		if err := CheckAvailable(reward, now); err != nil {
			return nil, err
		}
		return &candidate{reward: reward, pointsCost: reward.PointsCost}, nil
	default:
		return nil, model.ErrInvalidRewardRequest
	}
}

func (r *resolver) builtin(id string, now time.Time) (*candidate, error) {
	reward, ok := r.catalog.Get(id)
	if !ok {
		return nil, model.ErrRewardNotFound
	}
	if err := CheckAvailable(reward, now); err != nil {
		return nil, err
	}
	return &candidate{reward: reward, pointsCost: reward.PointsCost}, nil
}

// claimed resolves a redemption the user already paid for. It costs no further points.
func (r *resolver) claimed(in Input, id uuid.UUID, now time.Time) (*candidate, error) {
	redemption, ok := in.Claimed[id]
	if !ok || redemption.UserID != in.UserID {
		return nil, model.ErrRewardNotFound
	}
	switch redemption.EffectiveStatus(now) {
	case model.RedemptionActive:
	case model.RedemptionExpired:
		return nil, model.ErrRewardExpired
	default:
		return nil, model.ErrAlreadyUsed
	}

	reward, ok := r.catalog.Get(redemption.RewardID)
	if !ok {
		return nil, model.ErrRewardNotFound
	}
	rid := redemption.ID
	return &candidate{reward: reward, redemption: &rid}, nil
}

func percentDiscount(subtotal decimal.Decimal, reward model.Reward) decimal.Decimal {
	discount := subtotal.Mul(reward.Rate).Round(2)
	if reward.Cap.IsPositive() && discount.GreaterThan(reward.Cap) {
		return reward.Cap
	}
	return discount
}
