// Package reward loads the reward catalogue and prices reward requests.
package reward

import (
	"context"
	"time"

	"eco-kart/internal/config"
	"eco-kart/internal/model"

	"github.com/shopspring/decimal"
)

// Catalog is a read-only view of reward definitions.
type Catalog interface {
	// Get returns the reward with the given ID, active or not.
	Get(id string) (model.Reward, bool)

	// Available returns the rewards that are active and inside their window at now.
	Available(now time.Time) []model.Reward

	// Size returns the number of rewards in the catalogue.
	Size() int
}

// Loader reads reward definitions from a gzipped JSON-lines source.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.Reward, error)
}

// CheckAvailable reports whether a reward can be granted at now.
func CheckAvailable(r model.Reward, now time.Time) error {
	if !r.Active {
		return model.ErrRewardNotFound
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return model.ErrRewardExpired
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return model.ErrRewardExpired
	}
	return nil
}

// Builtins returns the always-present rewards configured by cfg.
func Builtins(cfg config.LoyaltyConfig) []model.Reward {
	return []model.Reward{
		{
			ID:          model.BuiltinPercentOffID,
			Name:        "EcoPoints percent off",
			Description: "Percentage discount on the order subtotal",
			Kind:        model.RewardPercentOff,
			Rate:        cfg.PercentOffRate,
			Cap:         cfg.PercentOffCap,
			PointsCost:  cfg.PercentOffCost,
			Active:      true,
		},
		{
			ID:          model.BuiltinFreeShippingID,
			Name:        "Free shipping",
			Description: "Waives the shipping charge",
			Kind:        model.RewardFreeShipping,
			Rate:        decimal.Zero,
			Cap:         decimal.Zero,
			PointsCost:  cfg.FreeShippingCost,
			Active:      true,
		},
	}
}

func validate(r model.Reward) error {
	if r.ID == "" {
		return errMissingID
	}
	switch r.Kind {
	case model.RewardPercentOff:
		if !r.Rate.IsPositive() || r.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return errInvalidRate
		}
	case model.RewardFreeShipping:
	default:
		return errInvalidKind
	}
	if r.PointsCost < 0 || r.Cap.IsNegative() {
		return errNegativeAmount
	}
	return nil
}
