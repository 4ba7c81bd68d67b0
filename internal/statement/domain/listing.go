package statement

import "github.com/shopspring/decimal"

// ListingConfig is the per-property configuration supplied by the
// caller. The engine never mutates it.
type ListingConfig struct {
	// AltListingID is the property's id in the external listing system.
	// Expenses may reference a property by either id.
	AltListingID string

	PMFeePercent decimal.Decimal

	CleaningFeePassThrough  bool
	CohostOnAirbnb          bool
	DisregardTax            bool
	AirbnbPassThroughTax    bool
	GuestPaidDamageCoverage bool
}

// DefaultListingConfig returns the documented fallback used when a
// property's configuration has not synced yet: 15% PM fee, all flags
// off. A sync lag must not block statement generation.
func DefaultListingConfig() ListingConfig {
	return ListingConfig{PMFeePercent: decimal.NewFromInt(15)}
}
