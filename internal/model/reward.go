package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardKind is the closed set of reward shapes a checkout can request.
type RewardKind string

const (
	// RewardPercentOff is the built-in percentage discount.
	RewardPercentOff RewardKind = "percent_off"
	// RewardFreeShipping is the built-in shipping waiver.
	RewardFreeShipping RewardKind = "free_shipping"
	// RewardPointsRedemption converts points into a discount 1:1.
	RewardPointsRedemption RewardKind = "points_redemption"
	// RewardCatalog references a reward catalogue entry or a claimed redemption.
	RewardCatalog RewardKind = "catalog"
)

// Valid reports whether k is a known request kind.
func (k RewardKind) Valid() bool {
	switch k {
	case RewardPercentOff, RewardFreeShipping, RewardPointsRedemption, RewardCatalog:
		return true
	}
	return false
}

// Built-in reward identifiers.
const (
	BuiltinPercentOffID       = "builtin-percent-off"
	BuiltinFreeShippingID     = "builtin-free-shipping"
	BuiltinPointsRedemptionID = "points-redemption"
)

// Reward is a reward definition. Kind is either RewardPercentOff or
// RewardFreeShipping; catalogue entries describe their effect through it.
type Reward struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Kind        RewardKind      `json:"kind"`
	Rate        decimal.Decimal `json:"rate"`
	Cap         decimal.Decimal `json:"cap"`
	PointsCost  int64           `json:"pointsCost"`
	Tier        string          `json:"tier,omitempty"`
	Active      bool            `json:"active"`
	ValidFrom   *time.Time      `json:"validFrom,omitempty"`
	ValidUntil  *time.Time      `json:"validUntil,omitempty"`
}

// RewardRequest is one reward asked for at checkout.
//
//   - percent_off / free_shipping select the built-in reward of that kind.
//   - points_redemption spends Points for a discount.
//   - catalog references RewardID, or a previously claimed RedemptionID.
type RewardRequest struct {
	Kind         RewardKind `json:"kind"`
	RewardID     string     `json:"rewardId,omitempty"`
	RedemptionID *uuid.UUID `json:"redemptionId,omitempty"`
	Points       int64      `json:"points,omitempty"`
}

// AcceptedReward is a granted reward with its monetary effect.
type AcceptedReward struct {
	Reward       Reward          `json:"reward"`
	RedemptionID *uuid.UUID      `json:"redemptionId,omitempty"`
	PointsCost   int64           `json:"pointsCost"`
	Discount     decimal.Decimal `json:"discount"`
}

// Prepaid reports whether the reward was paid for when it was claimed.
func (a AcceptedReward) Prepaid() bool {
	return a.RedemptionID != nil
}
