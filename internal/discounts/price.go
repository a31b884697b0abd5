package discounts

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyPercentage returns floor(price * (100 - pct) / 100), never below zero.
func ApplyPercentage(price int64, pct decimal.Decimal) int64 {
	if pct.IsZero() {
		return price
	}
	discounted := decimal.NewFromInt(price).
		Mul(hundred.Sub(pct)).
		Div(hundred).
		Floor().
		IntPart()
	if discounted < 0 {
		return 0
	}
	return discounted
}
