package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies catalog items for the storefront filter rail.
type Category string

const (
	CategoryBeverages Category = "beverages"
	CategoryIceCream  Category = "icecream"
	CategoryChocolate Category = "chocolate"
	CategorySnacks    Category = "snacks"
	CategoryOthers    Category = "others"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBeverages, CategoryIceCream, CategoryChocolate, CategorySnacks, CategoryOthers:
		return true
	}
	return false
}

// Item is a catalog record. Stock is only mutated inside a settlement
// transaction or by the admin entry surface.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Stock     int             `json:"stock"`
	Category  Category        `json:"category"`
	Image     string          `json:"image,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate fails closed on malformed catalog documents. Every item read
// from or written to the store passes through here.
func (i *Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("item: missing id")
	}
	if i.Name == "" {
		return fmt.Errorf("item %s: missing name", i.ID)
	}
	if i.Price.Sign() <= 0 {
		return fmt.Errorf("item %s: price must be positive", i.ID)
	}
	if i.CostPrice.Sign() < 0 {
		return fmt.Errorf("item %s: cost price cannot be negative", i.ID)
	}
	if i.Stock < 0 {
		return fmt.Errorf("item %s: stock cannot be negative", i.ID)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("item %s: unknown category %q", i.ID, i.Category)
	}
	return nil
}
