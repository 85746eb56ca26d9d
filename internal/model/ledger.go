package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryReason classifies a ledger entry.
type EntryReason string

const (
	ReasonEarn     EntryReason = "earn"
	ReasonRedeem   EntryReason = "redeem"
	ReasonRefund   EntryReason = "refund"
	ReasonClawback EntryReason = "clawback"
)

// IsCredit reports whether entries with this reason increase the balance.
func (r EntryReason) IsCredit() bool {
	return r == ReasonEarn || r == ReasonRefund
}

// IsDebit reports whether entries with this reason decrease the balance.
func (r EntryReason) IsDebit() bool {
	return r == ReasonRedeem || r == ReasonClawback
}

// LedgerEntry is one immutable, signed change to a user's EcoPoints balance.
type LedgerEntry struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       uuid.UUID   `json:"userId" db:"user_id"`
	Delta        int64       `json:"delta" db:"delta"`
	Reason       EntryReason `json:"reason" db:"reason"`
	OrderID      *uuid.UUID  `json:"orderId,omitempty" db:"order_id"`
	RedemptionID *uuid.UUID  `json:"redemptionId,omitempty" db:"redemption_id"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
}

// EntryRef links a ledger entry to the order or redemption that caused it.
type EntryRef struct {
	OrderID      *uuid.UUID
	RedemptionID *uuid.UUID
}

// RedemptionStatus is the lifecycle state of a redemption.
type RedemptionStatus string

const (
	RedemptionActive   RedemptionStatus = "active"
	RedemptionUsed     RedemptionStatus = "used"
	RedemptionExpired  RedemptionStatus = "expired"
	RedemptionRefunded RedemptionStatus = "refunded"
)

// Redemption records a reward being claimed by a user.
type Redemption struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	UserID         uuid.UUID        `json:"userId" db:"user_id"`
	RewardID       string           `json:"rewardId" db:"reward_id"`
	RewardKind     RewardKind       `json:"rewardKind" db:"reward_kind"`
	PointsSpent    int64            `json:"pointsSpent" db:"points_spent"`
	DiscountAmount decimal.Decimal  `json:"discountAmount" db:"discount_amount"`
	OrderID        *uuid.UUID       `json:"orderId,omitempty" db:"order_id"`
	Status         RedemptionStatus `json:"status" db:"status"`
	RedeemedAt     time.Time        `json:"redeemedAt" db:"redeemed_at"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
}

// EffectiveStatus evaluates expiry at read time: an active redemption whose
// window has lapsed is reported as expired.
func (r *Redemption) EffectiveStatus(now time.Time) RedemptionStatus {
	if r.Status == RedemptionActive && r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return RedemptionExpired
	}
	return r.Status
}

// BalanceResponse is the payload for balance queries.
type BalanceResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Balance int64     `json:"balance"`
}
