package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coverage is the tri-state resolution of the upstream ll_cover field,
// fixed at the ingestion boundary so the engine never sees the raw
// dynamic value.
type Coverage int

const (
	// CoverageNotCovered means the expense is billed to the owner.
	CoverageNotCovered Coverage = iota
	// CoverageCovered means the company absorbs the expense; it never
	// appears on an owner statement.
	CoverageCovered
)

// ParseCoverage resolves the upstream ll_cover value, which arrives as
// 0/1, booleans, strings, or null depending on the source system. The
// rule is truthiness with an explicit numeric-zero check. Note the
// string "0" is truthy under this rule and therefore resolves to
// Covered; that matches the historical behavior downstream consumers
// depend on, even though it is likely not the intent. Kept as-is.
func ParseCoverage(v any) Coverage {
	switch value := v.(type) {
	case nil:
		return CoverageNotCovered
	case bool:
		if value {
			return CoverageCovered
		}
	case int:
		if value != 0 {
			return CoverageCovered
		}
	case int64:
		if value != 0 {
			return CoverageCovered
		}
	case float64:
		if value != 0 {
			return CoverageCovered
		}
	case string:
		if value != "" {
			return CoverageCovered
		}
	}
	return CoverageNotCovered
}

// Expense is a read-only cost or upsell record. Amount is signed:
// negative is a cost to the owner, positive an upsell/credit.
type Expense struct {
	ID          string
	PropertyID  int64
	ListingID   string
	Description string
	Category    string
	Type        string
	Amount      decimal.Decimal
	Date        time.Time
	Coverage    Coverage
}

// MatchesProperty reports whether the expense belongs to the property,
// by direct id or by the alternate listing-system id.
func (e Expense) MatchesProperty(propertyID int64, altListingID string) bool {
	if e.PropertyID == propertyID {
		return true
	}
	return e.ListingID != "" && altListingID != "" && e.ListingID == altListingID
}

// IsUpsell reports whether the expense is an upsell: kept for display,
// never counted as a cost.
func (e Expense) IsUpsell() bool {
	if e.Amount.IsPositive() {
		return true
	}
	return strings.EqualFold(e.Type, "upsell") || strings.EqualFold(e.Category, "upsell")
}

// isCleaning reports whether the expense is a cleaning charge.
// Description uses a starts-with test; category and type use contains.
func (e Expense) isCleaning() bool {
	if strings.Contains(strings.ToLower(e.Category), "cleaning") {
		return true
	}
	if strings.Contains(strings.ToLower(e.Type), "cleaning") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(e.Description), "cleaning")
}

// ExpenseSelection is the outcome of filtering a property's expenses
// for a period.
type ExpenseSelection struct {
	Costs   []Expense
	Upsells []Expense
	// Total is the sum of absolute cost amounts; upsells are excluded.
	Total decimal.Decimal
}

// SelectExpenses filters expenses for one property and period. Covered
// expenses are dropped first, then property/date matching, then the
// cleaning carve-out when the property passes cleaning fees through to
// the guest (the owner already pays via the reservation swap, so the
// expense would double-charge).
func SelectExpenses(expenses []Expense, propertyID int64, cfg ListingConfig, p Period) ExpenseSelection {
	selection := ExpenseSelection{Total: decimal.Zero}
	for _, expense := range expenses {
		if expense.Coverage == CoverageCovered {
			continue
		}
		if !expense.MatchesProperty(propertyID, cfg.AltListingID) {
			continue
		}
		if !p.ContainsDay(expense.Date) {
			continue
		}
		if cfg.CleaningFeePassThrough && expense.isCleaning() {
			continue
		}
		if expense.IsUpsell() {
			selection.Upsells = append(selection.Upsells, expense)
			continue
		}
		selection.Costs = append(selection.Costs, expense)
		selection.Total = selection.Total.Add(expense.Amount.Abs())
	}
	selection.Total = RoundCents(selection.Total)
	return selection
}
