package statement

import "fmt"

// Advice is the optional calculation-mode notice attached to a statement.
type Advice struct {
	Flagged      bool
	OverlapCount int
	Message      string
}

// AdviseConversion inspects the mode-independent overlap set against
// the mode-dependent period set and decides whether the statement
// should carry a conversion notice.
//
// Checkout mode: there is stay activity but no checkout lands inside
// the period, so revenue would report as zero for an occupied property.
// Calendar mode: a stay extends outside the period and is being
// prorated.
func AdviseConversion(p Period, periodSet, overlapSet []Reservation) Advice {
	switch p.Calculation {
	case CalculationCalendar:
		longStays := 0
		for _, r := range overlapSet {
			if p.ExtendsOutside(r.CheckIn, r.CheckOut) {
				longStays++
			}
		}
		if longStays == 0 {
			return Advice{}
		}
		return Advice{
			Flagged:      true,
			OverlapCount: len(overlapSet),
			Message: fmt.Sprintf(
				"%d long-stay reservation(s) extend beyond this period and are prorated to the nights within it.",
				longStays),
		}
	default:
		if len(overlapSet) == 0 || len(periodSet) > 0 {
			return Advice{}
		}
		return Advice{
			Flagged:      true,
			OverlapCount: len(overlapSet),
			Message: fmt.Sprintf(
				"%d reservation(s) overlap this period but none check out within it; consider switching this statement to calendar calculation.",
				len(overlapSet)),
		}
	}
}
