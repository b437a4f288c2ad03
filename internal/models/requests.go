package models

import "github.com/shopspring/decimal"

// AddItemRequest is the admin item-entry payload.
type AddItemRequest struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Stock     int             `json:"stock"`
	Category  Category        `json:"category"`
	Image     string          `json:"image"`
}

// RestockRequest adjusts an item's stock by a positive delta.
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

// CartAddRequest adds quantity of an item to the caller's cart.
type CartAddRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CartQuantityRequest sets the absolute quantity of a cart line.
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SignUpRequest is forwarded to the identity oracle; Name seeds the account.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignInRequest is forwarded to the identity oracle.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
