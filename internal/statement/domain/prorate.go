package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// nightsBetween counts whole calendar days between two dates.
func nightsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// StayNights describes how much of a stay falls inside a period.
type StayNights struct {
	InPeriod int
	Total    int
}

// Partial reports whether only part of the stay is billable in the period.
func (n StayNights) Partial() bool {
	return n.Total > 0 && n.InPeriod < n.Total
}

// Factor returns the proration factor at full precision.
func (n StayNights) Factor() decimal.Decimal {
	if n.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n.InPeriod)).Div(decimal.NewFromInt(int64(n.Total)))
}

// CountStayNights computes the billable-night split for a stay against
// a period. The period end is an inclusive calendar day, so the night
// window extends one day past it.
func CountStayNights(checkIn, checkOut time.Time, p Period) StayNights {
	total := nightsBetween(checkIn, checkOut)
	overlapStart := checkIn
	if p.Start.After(overlapStart) {
		overlapStart = p.Start
	}
	overlapEnd := checkOut
	if nightWindowEnd := p.End.AddDate(0, 0, 1); nightWindowEnd.Before(overlapEnd) {
		overlapEnd = nightWindowEnd
	}
	in := nightsBetween(overlapStart, overlapEnd)
	if in < 0 {
		in = 0
	}
	if in > total {
		in = total
	}
	return StayNights{InPeriod: in, Total: total}
}

// Prorate scales a monetary amount to the nights inside the period. A
// full overlap returns the amount untouched so that a factor of exactly
// 1.0 cannot introduce rounding drift. Zero-night stays prorate to zero.
func Prorate(amount decimal.Decimal, nights StayNights) decimal.Decimal {
	if nights.Total == 0 {
		return decimal.Zero
	}
	if nights.InPeriod == nights.Total {
		return amount
	}
	scaled := amount.Mul(decimal.NewFromInt(int64(nights.InPeriod))).
		Div(decimal.NewFromInt(int64(nights.Total)))
	return RoundCents(scaled)
}
