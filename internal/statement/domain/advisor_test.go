package statement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdviseCheckoutModeFlagsOverlapWithoutCheckout(t *testing.T) {
	p := novemberPeriod(CalculationCheckout)
	long := Reservation{ID: "r1", CheckIn: date(2025, 10, 15), CheckOut: date(2025, 12, 15)}

	advice := AdviseConversion(p, nil, []Reservation{long})
	assert.True(t, advice.Flagged)
	assert.Equal(t, 1, advice.OverlapCount)
	assert.Contains(t, advice.Message, "1 reservation(s) overlap")
	assert.Contains(t, strings.ToLower(advice.Message), "calendar")
}

func TestAdviseCheckoutModeQuietWhenPeriodSetNonEmpty(t *testing.T) {
	p := novemberPeriod(CalculationCheckout)
	inPeriod := Reservation{ID: "r2", CheckIn: date(2025, 11, 3), CheckOut: date(2025, 11, 8)}
	long := Reservation{ID: "r1", CheckIn: date(2025, 10, 15), CheckOut: date(2025, 12, 15)}

	advice := AdviseConversion(p, []Reservation{inPeriod}, []Reservation{inPeriod, long})
	assert.False(t, advice.Flagged)
}

func TestAdviseCheckoutModeQuietWithoutOverlap(t *testing.T) {
	advice := AdviseConversion(novemberPeriod(CalculationCheckout), nil, nil)
	assert.False(t, advice.Flagged)
}

func TestAdviseCalendarModeFlagsLongStays(t *testing.T) {
	p := novemberPeriod(CalculationCalendar)
	long := Reservation{ID: "r1", CheckIn: date(2025, 10, 15), CheckOut: date(2025, 12, 15)}
	contained := Reservation{ID: "r2", CheckIn: date(2025, 11, 3), CheckOut: date(2025, 11, 8)}

	advice := AdviseConversion(p, []Reservation{long, contained}, []Reservation{long, contained})
	assert.True(t, advice.Flagged)
	assert.Contains(t, advice.Message, "1 long-stay reservation(s)")
	assert.Contains(t, strings.ToLower(advice.Message), "prorated")
}

func TestAdviseCalendarModeQuietWhenContained(t *testing.T) {
	p := novemberPeriod(CalculationCalendar)
	contained := Reservation{ID: "r2", CheckIn: date(2025, 11, 3), CheckOut: date(2025, 11, 8)}

	advice := AdviseConversion(p, []Reservation{contained}, []Reservation{contained})
	assert.False(t, advice.Flagged)
}
