package statement

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FeeSchedule holds the flat per-property charges and the fallback PM
// fee percentage.
type FeeSchedule struct {
	TechFee             decimal.Decimal
	InsuranceFee        decimal.Decimal
	DefaultPMFeePercent decimal.Decimal
}

// DefaultFeeSchedule returns the documented defaults: $50 tech fee and
// $25 insurance fee per property, 15% PM fee.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		TechFee:             decimal.NewFromInt(50),
		InsuranceFee:        decimal.NewFromInt(25),
		DefaultPMFeePercent: decimal.NewFromInt(15),
	}
}

// Input is everything the engine needs for one computation. All fields
// are read-only; the engine is a pure function over them.
type Input struct {
	Reservations []Reservation
	Expenses     []Expense
	Configs      map[int64]ListingConfig
	Period       Period
	PropertyIDs  []int64
	Adjustments  decimal.Decimal
}

// Statement is the computed result. Created fresh per computation and
// never mutated afterward; a statement that must change is recomputed.
type Statement struct {
	PropertyIDs []int64
	Combined    bool
	Period      Period

	Lines   []Line
	Costs   []Expense
	Upsells []Expense

	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	PMCommission  decimal.Decimal
	TechFees      decimal.Decimal
	InsuranceFees decimal.Decimal
	Adjustments   decimal.Decimal
	OwnerPayout   decimal.Decimal

	ResortFeeTotal decimal.Decimal
	ShowResortFee  bool

	Advice Advice
}

// Engine computes owner statements. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	fees FeeSchedule
}

// NewEngine constructs an engine with the given fee schedule.
func NewEngine(fees FeeSchedule) *Engine {
	return &Engine{fees: fees}
}

// Compute builds the statement for the given properties and period.
// Returns ErrNoActivity when no contributing property has any
// overlapping reservation or expense; the caller skips statement
// creation rather than persisting an empty one.
func (e *Engine) Compute(in Input) (*Statement, error) {
	if err := in.Period.Validate(); err != nil {
		return nil, err
	}
	if len(in.PropertyIDs) == 0 {
		return nil, ErrNoProperties
	}

	propertyIDs := dedupeSorted(in.PropertyIDs)
	propertyCount := decimal.NewFromInt(int64(len(propertyIDs)))

	result := &Statement{
		PropertyIDs: propertyIDs,
		Combined:    len(propertyIDs) > 1,
		Period:      in.Period,
		Adjustments: in.Adjustments,
	}

	totalRevenue := decimal.Zero
	totalExpenses := decimal.Zero
	pmCommission := decimal.Zero
	resortFees := decimal.Zero

	var periodSet, overlapSet []Reservation
	activity := false

	for _, propertyID := range propertyIDs {
		cfg := e.configFor(in.Configs, propertyID)

		for _, r := range in.Reservations {
			if r.PropertyID != propertyID || !IsActiveStatus(r.Status) {
				continue
			}
			if !in.Period.Overlaps(r.CheckIn, r.CheckOut) {
				continue
			}
			activity = true
			overlapSet = append(overlapSet, r)
			if !in.Period.InPeriod(r.CheckIn, r.CheckOut) {
				continue
			}
			periodSet = append(periodSet, r)

			line := NormalizeReservation(r, cfg, in.Period)
			result.Lines = append(result.Lines, line)
			resortFees = resortFees.Add(line.ResortFee)
			if line.CohostAirbnb {
				// Revenue the PM never touches: the platform pays the
				// owner directly, so neither revenue nor commission is
				// aggregated for co-hosted Airbnb stays.
				continue
			}
			totalRevenue = totalRevenue.Add(line.Revenue)
			pmCommission = pmCommission.Add(line.PMFee)
		}

		selection := SelectExpenses(in.Expenses, propertyID, cfg, in.Period)
		if len(selection.Costs) > 0 || len(selection.Upsells) > 0 {
			activity = true
		}
		result.Costs = append(result.Costs, selection.Costs...)
		result.Upsells = append(result.Upsells, selection.Upsells...)
		totalExpenses = totalExpenses.Add(selection.Total)

		if cfg.GuestPaidDamageCoverage {
			result.ShowResortFee = true
		}
	}

	if !activity {
		return nil, ErrNoActivity
	}

	result.TotalRevenue = RoundCents(totalRevenue)
	result.TotalExpenses = RoundCents(totalExpenses)
	result.PMCommission = RoundCents(pmCommission)
	result.TechFees = e.fees.TechFee.Mul(propertyCount)
	result.InsuranceFees = e.fees.InsuranceFee.Mul(propertyCount)
	result.ResortFeeTotal = RoundCents(resortFees)
	result.OwnerPayout = RoundCents(result.TotalRevenue.
		Sub(result.TotalExpenses).
		Sub(result.PMCommission).
		Sub(result.TechFees).
		Sub(result.InsuranceFees).
		Add(in.Adjustments))

	result.Advice = AdviseConversion(in.Period, periodSet, overlapSet)
	return result, nil
}

// configFor resolves a property's configuration, falling back to the
// documented defaults with the engine's fee schedule percentage.
func (e *Engine) configFor(configs map[int64]ListingConfig, propertyID int64) ListingConfig {
	if cfg, ok := configs[propertyID]; ok {
		return cfg
	}
	cfg := DefaultListingConfig()
	if !e.fees.DefaultPMFeePercent.IsZero() {
		cfg.PMFeePercent = e.fees.DefaultPMFeePercent
	}
	return cfg
}

// dedupeSorted returns the unique property ids in ascending order so
// that regenerating from the same logical inputs reproduces the same
// PropertyIDs set regardless of input order.
func dedupeSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
