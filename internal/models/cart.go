package models

import "github.com/shopspring/decimal"

// CartLine is a client-owned, pre-checkout line. StockSnapshot carries the
// last stock figure the client saw; it is a best-effort guard only and the
// settlement engine re-checks against live stock.
type CartLine struct {
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockSnapshot int             `json:"stock_snapshot,omitempty"`
}

// CartTotal sums price x quantity over the given lines.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
