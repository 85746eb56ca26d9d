package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryOption is the shipping speed chosen at checkout.
type DeliveryOption string

const (
	DeliveryStandard DeliveryOption = "standard"
	DeliveryExpress  DeliveryOption = "express"
)

// Valid reports whether d is a known delivery option.
func (d DeliveryOption) Valid() bool {
	return d == DeliveryStandard || d == DeliveryExpress
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is recorded on the order but never processed here.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Address is the shipping destination of an order.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// OrderLine is a frozen copy of catalogue data at purchase time.
type OrderLine struct {
	ID            uuid.UUID       `json:"-" db:"id"`
	OrderID       uuid.UUID       `json:"-" db:"order_id"`
	ProductID     string          `json:"productId" db:"product_id"`
	DisplayName   string          `json:"displayName" db:"display_name"`
	Variant       Variant         `json:"variant" db:"variant"`
	UnitPrice     decimal.Decimal `json:"unitPrice" db:"unit_price"`
	PointsPerUnit int64           `json:"pointsPerUnit" db:"points_per_unit"`
	Quantity      int             `json:"quantity" db:"quantity"`
}

// Order represents a customer order.
type Order struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	UserID               uuid.UUID       `json:"userId" db:"user_id"`
	Items                []OrderLine     `json:"items"`
	Subtotal             decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax                  decimal.Decimal `json:"tax" db:"tax"`
	Shipping             decimal.Decimal `json:"shipping" db:"shipping"`
	Total                decimal.Decimal `json:"total" db:"total"`
	DiscountAmount       decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	FinalTotal           decimal.Decimal `json:"finalTotal" db:"final_total"`
	PointsEarned         int64           `json:"pointsEarned" db:"points_earned"`
	DeliveryBonusPoints  int64           `json:"deliveryBonusPoints" db:"delivery_bonus_points"`
	PackagingBonusPoints int64           `json:"packagingBonusPoints" db:"packaging_bonus_points"`
	PointsRedeemed       int64           `json:"pointsRedeemed" db:"points_redeemed"`
	FreeShippingApplied  bool            `json:"freeShippingApplied" db:"free_shipping_applied"`
	DeliveryOption       DeliveryOption  `json:"deliveryOption" db:"delivery_option"`
	EcoPackaging         bool            `json:"ecoPackaging" db:"eco_packaging"`
	ShippingAddress      Address         `json:"shippingAddress" db:"shipping_address"`
	Status               OrderStatus     `json:"status" db:"status"`
	PaymentStatus        PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	IdempotencyKey       *string         `json:"-" db:"idempotency_key"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time       `json:"updatedAt" db:"updated_at"`
}

// ComputeFinalTotal derives total and finalTotal from the order's own components.
// finalTotal is clamped at zero.
func (o *Order) ComputeFinalTotal() {
	o.Total = o.Subtotal.Add(o.Tax).Add(o.Shipping)
	final := o.Total.Sub(o.DiscountAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	o.FinalTotal = final
}

// CheckoutRequest represents the request payload for a checkout.
// The final total is always derived server-side; ClientTotal is only compared.
type CheckoutRequest struct {
	UserID          uuid.UUID        `json:"-"`
	DeliveryOption  DeliveryOption   `json:"deliveryOption"`
	EcoPackaging    bool             `json:"ecoPackaging"`
	Rewards         []RewardRequest  `json:"rewards,omitempty"`
	ShippingAddress Address          `json:"shippingAddress"`
	IdempotencyKey  string           `json:"idempotencyKey,omitempty"`
	ClientTotal     *decimal.Decimal `json:"clientTotal,omitempty"`
}

// CheckoutResponse represents the response payload for a checkout.
type CheckoutResponse struct {
	Order         *Order `json:"order"`
	Balance       int64  `json:"balance"`
	TotalMismatch bool   `json:"totalMismatch"`
	Replayed      bool   `json:"replayed,omitempty"`
}

// CancelResponse reports the ledger effect of a cancellation.
type CancelResponse struct {
	Order            *Order `json:"order"`
	PointsRefunded   int64  `json:"pointsRefunded"`
	PointsClawedBack int64  `json:"pointsClawedBack"`
}

// StatusUpdateRequest is sent by the fulfilment collaborator.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}
