package statement

import "time"

// CalculationType selects the period-membership semantics for a statement.
type CalculationType string

const (
	// CalculationCheckout includes a reservation when its checkout date
	// falls inside the period.
	CalculationCheckout CalculationType = "checkout"
	// CalculationCalendar includes a reservation when any of its nights
	// fall inside the period; long stays are prorated.
	CalculationCalendar CalculationType = "calendar"
)

// Period is an inclusive calendar-day billing window. Dates carry no
// time-of-day component; the caller resolves business timezone before
// building a Period.
type Period struct {
	Start       time.Time
	End         time.Time
	Calculation CalculationType
}

// ParseDay parses a YYYY-MM-DD calendar date in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Validate rejects inverted periods.
func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return ErrInvalidPeriod
	}
	return nil
}

// ContainsDay reports whether a calendar day is within [Start, End].
func (p Period) ContainsDay(day time.Time) bool {
	return !day.Before(p.Start) && !day.After(p.End)
}

// InPeriod reports mode-dependent period membership for a stay.
// Checkout mode: the checkout day lands inside the period, inclusive on
// both ends, and the stay overlaps the period. A checkout exactly on
// the period start carries no nights inside the window (checkout day is
// exclusive) and is not a member in either mode, keeping checkout-mode
// membership a subset of calendar-mode membership. Calendar mode: any
// temporal overlap.
func (p Period) InPeriod(checkIn, checkOut time.Time) bool {
	switch p.Calculation {
	case CalculationCalendar:
		return p.Overlaps(checkIn, checkOut)
	default:
		return p.ContainsDay(checkOut) && p.Overlaps(checkIn, checkOut)
	}
}

// Overlaps reports any temporal overlap between a stay and the period.
// Independent of calculation type; always the calendar formula.
func (p Period) Overlaps(checkIn, checkOut time.Time) bool {
	return !checkIn.After(p.End) && checkOut.After(p.Start)
}

// ExtendsOutside reports whether a stay has nights before the period
// start or after the period end.
func (p Period) ExtendsOutside(checkIn, checkOut time.Time) bool {
	return checkIn.Before(p.Start) || checkOut.After(p.End)
}
