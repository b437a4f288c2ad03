package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a store-of-value record keyed by the identity oracle's email.
// Balance and TransactionAmount are mutated only by the settlement engine.
type Account struct {
	Email             string          `json:"email"`
	Name              string          `json:"name"`
	Balance           decimal.Decimal `json:"balance"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	OrderIDs          []string        `json:"order_ids"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Validate fails closed on malformed account documents.
func (a *Account) Validate() error {
	if a.Email == "" {
		return fmt.Errorf("account: missing email")
	}
	if a.Balance.Sign() < 0 {
		return fmt.Errorf("account %s: balance cannot be negative", a.Email)
	}
	if a.TransactionAmount.Sign() < 0 {
		return fmt.Errorf("account %s: transaction amount cannot be negative", a.Email)
	}
	return nil
}
