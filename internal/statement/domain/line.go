package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountClass is the visual class an amount is reported under.
type AmountClass string

const (
	// ClassRevenue marks money counted toward the owner.
	ClassRevenue AmountClass = "revenue"
	// ClassExpense marks money charged to the owner.
	ClassExpense AmountClass = "expense"
	// ClassInformational marks money shown for reference only, e.g.
	// guest-paid tax that never enters the payout formula.
	ClassInformational AmountClass = "informational"
)

// payoutRule is the resolved payout branch for a reservation. The three
// branches are mutually exclusive and checked in strict precedence:
// co-hosting overrides tax handling entirely.
type payoutRule int

const (
	// payoutNet: revenue minus commission minus cleaning pass-through.
	payoutNet payoutRule = iota
	// payoutWithTax: net plus the guest's tax responsibility.
	payoutWithTax
	// payoutCohostAirbnb: the platform pays the owner directly; only
	// the PM commission and any cleaning pass-through are charged back.
	payoutCohostAirbnb
)

// resolvePayoutRule evaluates the flag decision table for one
// reservation/config pair.
func resolvePayoutRule(channel Channel, cfg ListingConfig) payoutRule {
	cohostAirbnb := channel == ChannelAirbnb && cfg.CohostOnAirbnb
	switch {
	case cohostAirbnb:
		return payoutCohostAirbnb
	case shouldAddTax(channel, cfg):
		return payoutWithTax
	default:
		return payoutNet
	}
}

// shouldAddTax reports whether guest tax responsibility is added to the
// owner payout: never when the property disregards tax, and for Airbnb
// only when the platform passes tax through.
func shouldAddTax(channel Channel, cfg ListingConfig) bool {
	if cfg.DisregardTax {
		return false
	}
	return channel != ChannelAirbnb || cfg.AirbnbPassThroughTax
}

// Line is the normalized, possibly prorated, financial breakdown of one
// reservation on a statement.
type Line struct {
	ReservationID string
	PropertyID    int64
	Source        string
	Channel       Channel
	CheckIn       time.Time
	CheckOut      time.Time

	Revenue                decimal.Decimal
	PMFee                  decimal.Decimal
	Tax                    decimal.Decimal
	TaxClass               AmountClass
	CleaningFeePassThrough decimal.Decimal
	ResortFee              decimal.Decimal
	OtherFees              decimal.Decimal
	GrossPayout            decimal.Decimal
	PayoutClass            AmountClass

	CohostAirbnb bool
	TaxAdded     bool

	Prorated       bool
	NightsInPeriod int
	TotalNights    int
}

// NormalizeReservation computes the statement line for one reservation
// under its property's configuration. In calendar mode a partially
// overlapping stay is prorated to the nights inside the period before
// any fee or payout math runs.
func NormalizeReservation(r Reservation, cfg ListingConfig, p Period) Line {
	channel := r.Channel()
	rule := resolvePayoutRule(channel, cfg)

	revenue := r.Revenue()
	tax := r.TaxResponsibility()
	resortFee := extractResortFee(r)

	nights := CountStayNights(r.CheckIn, r.CheckOut, p)
	prorated := p.Calculation == CalculationCalendar && nights.Partial()
	if prorated {
		revenue = Prorate(revenue, nights)
		tax = Prorate(tax, nights)
		resortFee = Prorate(resortFee, nights)
	}

	pmFee := percentOf(revenue, cfg.PMFeePercent)

	cleaningPassThrough := decimal.Zero
	if cfg.CleaningFeePassThrough {
		cleaningPassThrough = r.CleaningFee
	}

	var payout decimal.Decimal
	switch rule {
	case payoutCohostAirbnb:
		payout = pmFee.Neg().Sub(cleaningPassThrough)
	case payoutWithTax:
		payout = revenue.Sub(pmFee).Add(tax).Sub(cleaningPassThrough)
	default:
		payout = revenue.Sub(pmFee).Sub(cleaningPassThrough)
	}

	taxClass := ClassInformational
	if rule == payoutWithTax {
		taxClass = ClassRevenue
	}
	payout = RoundCents(payout)
	payoutClass := ClassRevenue
	if payout.IsNegative() {
		payoutClass = ClassExpense
	}

	return Line{
		ReservationID:          r.ID,
		PropertyID:             r.PropertyID,
		Source:                 r.Source,
		Channel:                channel,
		CheckIn:                r.CheckIn,
		CheckOut:               r.CheckOut,
		Revenue:                RoundCents(revenue),
		PMFee:                  RoundCents(pmFee),
		Tax:                    RoundCents(tax),
		TaxClass:               taxClass,
		CleaningFeePassThrough: RoundCents(cleaningPassThrough),
		ResortFee:              RoundCents(resortFee),
		OtherFees:              RoundCents(generalFees(r)),
		GrossPayout:            payout,
		PayoutClass:            payoutClass,
		CohostAirbnb:           rule == payoutCohostAirbnb,
		TaxAdded:               rule == payoutWithTax,
		Prorated:               prorated,
		NightsInPeriod:         nights.InPeriod,
		TotalNights:            nights.Total,
	}
}

// Fee item names pulled out of the general fee bucket: resort fees are
// accounted separately, claims and management fees are internal.
var excludedFeeNames = []string{"claims fee", "resort fee", "management fee"}

// extractResortFee sums resort-fee line items from the raw fee items,
// falling back to the coarse resort fee field when no items are present.
func extractResortFee(r Reservation) decimal.Decimal {
	if len(r.FeeItems) == 0 {
		return r.ResortFee
	}
	total := decimal.Zero
	for _, item := range r.FeeItems {
		if !strings.EqualFold(item.Type, "fee") {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), "resort fee") {
			total = total.Add(item.Amount)
		}
	}
	return total
}

// generalFees sums fee items that belong in the generic "other fees"
// bucket, excluding carved-out names so nothing is double counted.
func generalFees(r Reservation) decimal.Decimal {
	if len(r.FeeItems) == 0 {
		return r.OtherFees
	}
	total := decimal.Zero
	for _, item := range r.FeeItems {
		if !strings.EqualFold(item.Type, "fee") {
			continue
		}
		if isExcludedFeeName(item.Name) {
			continue
		}
		total = total.Add(item.Amount)
	}
	return total
}

func isExcludedFeeName(name string) bool {
	lowered := strings.ToLower(name)
	for _, excluded := range excludedFeeNames {
		if strings.Contains(lowered, excluded) {
			return true
		}
	}
	return false
}
