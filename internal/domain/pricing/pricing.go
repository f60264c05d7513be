// Package pricing implements money arithmetic for carts and orders.
//
// All amounts are decimal fixed-point; conversion to integer minor units
// happens only at the payment-processor boundary.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is a priced quantity used for subtotal calculation.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Subtotal returns the sum of price * quantity across all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Total applies a percentage discount in [0,100] to the subtotal and rounds
// to 2 decimal places. Out-of-range discounts are clamped.
func Total(subtotal decimal.Decimal, discountPercent int) decimal.Decimal {
	d := clampPercent(discountPercent)
	total := subtotal.Mul(decimal.NewFromInt(int64(100 - d))).Div(hundred)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// MinorUnits converts a rounded currency amount to integer minor units
// (cents) for the payment processor.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
