// =============================
// File: internal/engine/profit.go
// =============================
package engine

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ProfitPercent returns the percentage gain of currentPrice over buyPrice.
// Defined as exactly 0 when buyPrice is zero, so a position with no recorded
// entry price never divides by zero and never triggers on profit.
func ProfitPercent(buyPrice, currentPrice decimal.Decimal) decimal.Decimal {
	if buyPrice.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(buyPrice).Div(buyPrice).Mul(hundred)
}
