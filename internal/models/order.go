package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks the lifecycle of a placed order. Payment is settled at
// checkout; the status only reflects the external fulfillment process.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// OrderLine is a snapshot of one cart line at the moment of settlement.
// Prices are copied so later catalog edits never rewrite order history.
type OrderLine struct {
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is an append-only record of a settled checkout.
type Order struct {
	ID                string          `json:"id"`
	UserEmail         string          `json:"user_email"`
	Lines             []OrderLine     `json:"lines"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Status            OrderStatus     `json:"status"`
	Processed         bool            `json:"processed"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Validate fails closed on malformed order documents.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order: missing id")
	}
	if o.UserEmail == "" {
		return fmt.Errorf("order %s: missing user email", o.ID)
	}
	if len(o.Lines) == 0 {
		return fmt.Errorf("order %s: no lines", o.ID)
	}
	total := decimal.Zero
	for _, l := range o.Lines {
		if l.ItemID == "" {
			return fmt.Errorf("order %s: line missing item id", o.ID)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("order %s: line %s quantity must be positive", o.ID, l.ItemID)
		}
		total = total.Add(l.LineTotal)
	}
	if !total.Equal(o.TransactionAmount) {
		return fmt.Errorf("order %s: line totals %s do not sum to transaction amount %s",
			o.ID, total, o.TransactionAmount)
	}
	return nil
}
