package model

import "github.com/shopspring/decimal"

// PriceBreakdown is the derived pricing of one checkout attempt.
// PointsEarned already includes both bonus amounts.
type PriceBreakdown struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	Tax                  decimal.Decimal `json:"tax"`
	Shipping             decimal.Decimal `json:"shipping"`
	PointsEarned         int64           `json:"pointsEarned"`
	DeliveryBonusPoints  int64           `json:"deliveryBonusPoints"`
	PackagingBonusPoints int64           `json:"packagingBonusPoints"`
	FreeShipping         bool            `json:"freeShipping"`
}

// Total returns subtotal + tax + shipping, before discounts.
func (b PriceBreakdown) Total() decimal.Decimal {
	return b.Subtotal.Add(b.Tax).Add(b.Shipping)
}

// WithoutShipping returns a copy with the shipping term zeroed.
func (b PriceBreakdown) WithoutShipping() PriceBreakdown {
	b.Shipping = decimal.Zero
	b.FreeShipping = true
	return b
}
