package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Channel classifies the sales channel of a reservation. Classification
// happens once per reservation instead of re-matching the source string
// at every decision point.
type Channel string

const (
	ChannelAirbnb Channel = "airbnb"
	ChannelOther  Channel = "other"
)

// ClassifyChannel maps a raw source string to a channel.
func ClassifyChannel(source string) Channel {
	if strings.Contains(strings.ToLower(source), "airbnb") {
		return ChannelAirbnb
	}
	return ChannelOther
}

// Statuses that participate in period membership and overlap detection.
// Everything else (cancelled, declined, inquiry, ...) is excluded.
var activeStatuses = map[string]struct{}{
	"confirmed": {},
	"modified":  {},
	"new":       {},
	"accepted":  {},
}

// IsActiveStatus reports whether a booking status counts toward a statement.
func IsActiveStatus(status string) bool {
	_, ok := activeStatuses[strings.ToLower(status)]
	return ok
}

// FeeItem is a raw fee line item attached to a reservation by the
// channel manager.
type FeeItem struct {
	Name   string
	Type   string
	Amount decimal.Decimal
}

// Reservation is a read-only booking record supplied by the ingestion
// layer. CheckOut is exclusive: the guest occupies the nights
// [CheckIn, CheckOut).
type Reservation struct {
	ID         string
	PropertyID int64
	Source     string
	Status     string
	CheckIn    time.Time
	CheckOut   time.Time

	BaseRate     decimal.Decimal
	CleaningFee  decimal.Decimal
	OtherFees    decimal.Decimal
	PlatformFees decimal.Decimal
	GrossAmount  decimal.Decimal

	// Detailed finance fields are authoritative only when
	// HasDetailedFinance is set; otherwise GrossAmount is used.
	HasDetailedFinance      bool
	ClientRevenue           decimal.Decimal
	ClientTaxResponsibility decimal.Decimal
	ResortFee               decimal.Decimal

	FeeItems []FeeItem
}

// Revenue returns the authoritative revenue figure for the reservation.
func (r Reservation) Revenue() decimal.Decimal {
	if r.HasDetailedFinance {
		return r.ClientRevenue
	}
	return r.GrossAmount
}

// TaxResponsibility returns the guest tax figure, zero without detailed
// finance data.
func (r Reservation) TaxResponsibility() decimal.Decimal {
	if r.HasDetailedFinance {
		return r.ClientTaxResponsibility
	}
	return decimal.Zero
}

// Channel returns the classified sales channel.
func (r Reservation) Channel() Channel {
	return ClassifyChannel(r.Source)
}

// Nights returns the stay length in nights.
func (r Reservation) Nights() int {
	return nightsBetween(r.CheckIn, r.CheckOut)
}
