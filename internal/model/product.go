package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant selects which alternative of a product the shopper picked.
type Variant string

const (
	VariantEco     Variant = "eco"
	VariantRegular Variant = "regular"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantEco || v == VariantRegular
}

// EcoVariant is the flagged alternative that earns points.
type EcoVariant struct {
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	PointsPerUnit int64           `json:"pointsPerUnit"`
}

// RegularVariant is the bestseller alternative.
type RegularVariant struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Product represents a catalogue entry with its eco and regular variants.
type Product struct {
	ID        string         `json:"id" db:"id"`
	Category  string         `json:"category" db:"category"`
	Eco       EcoVariant     `json:"eco"`
	Regular   RegularVariant `json:"regular"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// Line freezes the catalogue data for the given variant into an order line.
func (p Product) Line(variant Variant, quantity int) OrderLine {
	line := OrderLine{
		ProductID: p.ID,
		Variant:   variant,
		Quantity:  quantity,
	}
	if variant == VariantEco {
		line.DisplayName = p.Eco.Name
		line.UnitPrice = p.Eco.UnitPrice
		line.PointsPerUnit = p.Eco.PointsPerUnit
		return line
	}
	line.DisplayName = p.Regular.Name
	line.UnitPrice = p.Regular.UnitPrice
	return line
}

// ProductSort orders catalogue listings.
type ProductSort string

const (
	// SortByCategory lists products grouped by category, then by ID.
	SortByCategory ProductSort = "category"
	// SortByEcoPoints lists the products whose eco variant earns the most points first.
	SortByEcoPoints ProductSort = "points"
	// SortByEcoPrice lists the cheapest eco variants first.
	SortByEcoPrice ProductSort = "price"
)

// Valid reports whether s is a known ordering.
func (s ProductSort) Valid() bool {
	switch s {
	case SortByCategory, SortByEcoPoints, SortByEcoPrice:
		return true
	}
	return false
}

// ProductFilter selects a page of the catalogue. An empty Category matches all.
type ProductFilter struct {
	Category string
	Sort     ProductSort
	Limit    int
	Offset   int
}
