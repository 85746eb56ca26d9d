// Package pricing derives the authoritative price breakdown of a checkout.
package pricing

import (
	"eco-kart/internal/config"
	"eco-kart/internal/model"

	"github.com/shopspring/decimal"
)

// Options are the shopper's delivery and packaging choices for one checkout.
// Free shipping is applied later by the reward resolver.
type Options struct {
	Delivery     model.DeliveryOption
	EcoPackaging bool
}

// Calculator prices frozen order lines. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	cfg config.PricingConfig
}

// NewCalculator creates a calculator for the given pricing constants.
// A non-positive MaxLineQuantity falls back to model.DefaultMaxLineQuantity.
func NewCalculator(cfg config.PricingConfig) *Calculator {
	if cfg.MaxLineQuantity < 1 {
		cfg.MaxLineQuantity = model.DefaultMaxLineQuantity
	}
	return &Calculator{cfg: cfg}
}

// Freeze copies catalogue data for every snapshot line into order lines.
func (c *Calculator) Freeze(snapshot *model.CartSnapshot, products map[string]model.Product) ([]model.OrderLine, error) {
	if snapshot == nil || len(snapshot.Lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	lines := make([]model.OrderLine, 0, len(snapshot.Lines))
	for _, item := range snapshot.Lines {
		if !model.ValidQuantity(item.Quantity, c.cfg.MaxLineQuantity) {
			return nil, model.ErrInvalidQuantity
		}
		if !item.Variant.Valid() {
			return nil, model.ErrInvalidVariant
		}
		product, ok := products[item.ProductID]
		if !ok {
			return nil, model.ErrProductNotFound
		}
		lines = append(lines, product.Line(item.Variant, item.Quantity))
	}
	return lines, nil
}

// Price computes subtotal, tax, shipping and points for the given lines.
func (c *Calculator) Price(lines []model.OrderLine, opts Options) (*model.PriceBreakdown, error) {
	if len(lines) == 0 {
		return nil, model.ErrEmptyCart
	}
	if !opts.Delivery.Valid() {
		return nil, model.ErrInvalidDeliveryOption
	}

	subtotal := decimal.Zero
	var points int64
	for _, line := range lines {
		if !model.ValidQuantity(line.Quantity, c.cfg.MaxLineQuantity) {
			return nil, model.ErrInvalidQuantity
		}
		qty := int64(line.Quantity)
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(qty)))
		points += line.PointsPerUnit * qty
	}

	breakdown := &model.PriceBreakdown{
		Subtotal: subtotal.Round(2),
		Tax:      subtotal.Mul(c.cfg.TaxRate).Round(2),
		Shipping: c.ShippingFor(opts.Delivery),
	}

	if opts.Delivery == model.DeliveryStandard {
		breakdown.DeliveryBonusPoints = c.cfg.StandardDeliveryBonus
	}
	if opts.EcoPackaging {
		breakdown.PackagingBonusPoints = c.cfg.EcoPackagingBonus
	}
	breakdown.PointsEarned = points + breakdown.DeliveryBonusPoints + breakdown.PackagingBonusPoints

	return breakdown, nil
}

// ShippingFor returns the flat shipping rate of a delivery option.
func (c *Calculator) ShippingFor(delivery model.DeliveryOption) decimal.Decimal {
	if delivery == model.DeliveryExpress {
		return c.cfg.ExpressShipping
	}
	return c.cfg.StandardShipping
}
