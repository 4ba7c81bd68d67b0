package statement

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// RoundCents rounds a monetary amount to 2 decimal places, half up.
// Rounding happens only at documented boundaries; intermediate math
// keeps full decimal precision to avoid drift across proration and
// aggregation.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf returns amount * pct / 100 at full precision.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(oneHundred)
}
