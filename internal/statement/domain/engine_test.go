package statement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultFeeSchedule())
}

func singlePropertyInput() Input {
	return Input{
		Reservations: []Reservation{
			detailedReservation("VRBO"),
			{
				ID:                      "res-2",
				PropertyID:              101,
				Source:                  "Airbnb",
				Status:                  "confirmed",
				CheckIn:                 date(2025, 11, 18),
				CheckOut:                date(2025, 11, 22),
				HasDetailedFinance:      true,
				ClientRevenue:           dec("600"),
				ClientTaxResponsibility: dec("60"),
			},
		},
		Expenses: []Expense{
			{ID: "e1", PropertyID: 101, Description: "Repair", Category: "maintenance", Amount: dec("-200"), Date: date(2025, 11, 6)},
		},
		Configs:     map[int64]ListingConfig{101: pmConfig()},
		Period:      novemberPeriod(CalculationCheckout),
		PropertyIDs: []int64{101},
	}
}

func TestComputeSingleProperty(t *testing.T) {
	stmt, err := newTestEngine().Compute(singlePropertyInput())
	require.NoError(t, err)
	require.NotNil(t, stmt)

	assert.Equal(t, []int64{101}, stmt.PropertyIDs)
	assert.False(t, stmt.Combined)
	assert.Len(t, stmt.Lines, 2)

	// 1000 + 600
	assert.True(t, stmt.TotalRevenue.Equal(dec("1600")), "revenue %s", stmt.TotalRevenue)
	// 15% of each line.
	assert.True(t, stmt.PMCommission.Equal(dec("240")), "commission %s", stmt.PMCommission)
	assert.True(t, stmt.TotalExpenses.Equal(dec("200")))
	assert.True(t, stmt.TechFees.Equal(dec("50")))
	assert.True(t, stmt.InsuranceFees.Equal(dec("25")))
	// 1600 - 200 - 240 - 50 - 25
	assert.True(t, stmt.OwnerPayout.Equal(dec("1085")), "payout %s", stmt.OwnerPayout)
	assert.False(t, stmt.Advice.Flagged)
}

func TestComputeAdjustments(t *testing.T) {
	in := singlePropertyInput()
	in.Adjustments = dec("-35.50")
	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)
	assert.True(t, stmt.OwnerPayout.Equal(dec("1049.50")), "payout %s", stmt.OwnerPayout)
}

// Changing any single total by delta moves the payout by the stated sign.
func TestComputePayoutLinearity(t *testing.T) {
	base, err := newTestEngine().Compute(singlePropertyInput())
	require.NoError(t, err)

	withExtraExpense := singlePropertyInput()
	withExtraExpense.Expenses = append(withExtraExpense.Expenses,
		Expense{ID: "e-extra", PropertyID: 101, Category: "maintenance", Amount: dec("-75"), Date: date(2025, 11, 7)})
	stmt, err := newTestEngine().Compute(withExtraExpense)
	require.NoError(t, err)
	assert.True(t, stmt.OwnerPayout.Equal(base.OwnerPayout.Sub(dec("75"))))

	withExtraRevenue := singlePropertyInput()
	withExtraRevenue.Reservations = append(withExtraRevenue.Reservations, Reservation{
		ID: "res-3", PropertyID: 101, Source: "direct", Status: "confirmed",
		CheckIn: date(2025, 11, 25), CheckOut: date(2025, 11, 27),
		GrossAmount: dec("100"),
	})
	stmt, err = newTestEngine().Compute(withExtraRevenue)
	require.NoError(t, err)
	// +100 revenue, -15 commission, tax not disregarded but no detailed
	// finance so tax responsibility is zero.
	assert.True(t, stmt.OwnerPayout.Equal(base.OwnerPayout.Add(dec("85"))))
}

func TestComputeCohostAirbnbExcludedFromTotals(t *testing.T) {
	in := singlePropertyInput()
	cfg := pmConfig()
	cfg.CohostOnAirbnb = true
	in.Configs[101] = cfg

	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)

	// Only the VRBO reservation contributes revenue and commission.
	assert.True(t, stmt.TotalRevenue.Equal(dec("1000")), "revenue %s", stmt.TotalRevenue)
	assert.True(t, stmt.PMCommission.Equal(dec("150")), "commission %s", stmt.PMCommission)

	// The co-hosted line is still present with its charge-back payout.
	var cohost *Line
	for i := range stmt.Lines {
		if stmt.Lines[i].CohostAirbnb {
			cohost = &stmt.Lines[i]
		}
	}
	require.NotNil(t, cohost)
	assert.True(t, cohost.GrossPayout.Equal(dec("-90")), "payout %s", cohost.GrossPayout)
}

func TestComputeCombinedStatement(t *testing.T) {
	in := Input{
		Reservations: []Reservation{
			detailedReservation("VRBO"),
			{
				ID: "res-b", PropertyID: 202, Source: "Booking.com", Status: "confirmed",
				CheckIn: date(2025, 11, 3), CheckOut: date(2025, 11, 8),
				HasDetailedFinance: true, ClientRevenue: dec("500"), ClientTaxResponsibility: dec("40"),
			},
		},
		Expenses: []Expense{
			{ID: "x1", PropertyID: 202, Category: "maintenance", Amount: dec("-50"), Date: date(2025, 11, 10)},
		},
		Configs: map[int64]ListingConfig{
			101: pmConfig(),
			202: {PMFeePercent: decimal.NewFromInt(20)},
		},
		Period:      novemberPeriod(CalculationCheckout),
		PropertyIDs: []int64{202, 101, 202},
	}

	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 202}, stmt.PropertyIDs, "property ids are deduped and ordered")
	assert.True(t, stmt.Combined)
	// Flat fees scale with the property count.
	assert.True(t, stmt.TechFees.Equal(dec("100")))
	assert.True(t, stmt.InsuranceFees.Equal(dec("50")))
	assert.True(t, stmt.TotalRevenue.Equal(dec("1500")))
	// 150 + 100
	assert.True(t, stmt.PMCommission.Equal(dec("250")))
	// 1500 - 50 - 250 - 100 - 50
	assert.True(t, stmt.OwnerPayout.Equal(dec("1050")), "payout %s", stmt.OwnerPayout)
}

// Regenerating from the same logical inputs reproduces the identical
// property set and totals regardless of input ordering.
func TestComputeDeterministicAcrossInputOrder(t *testing.T) {
	in := singlePropertyInput()
	in.PropertyIDs = []int64{101}
	first, err := newTestEngine().Compute(in)
	require.NoError(t, err)

	reordered := singlePropertyInput()
	reordered.Reservations[0], reordered.Reservations[1] = reordered.Reservations[1], reordered.Reservations[0]
	second, err := newTestEngine().Compute(reordered)
	require.NoError(t, err)

	assert.Equal(t, first.PropertyIDs, second.PropertyIDs)
	assert.True(t, first.OwnerPayout.Equal(second.OwnerPayout))
	assert.True(t, first.TotalRevenue.Equal(second.TotalRevenue))
	assert.True(t, first.PMCommission.Equal(second.PMCommission))
}

func TestComputeSkipsWithoutActivity(t *testing.T) {
	in := Input{
		Reservations: []Reservation{
			// Cancelled bookings never count.
			{ID: "res-c", PropertyID: 101, Source: "VRBO", Status: "cancelled",
				CheckIn: date(2025, 11, 3), CheckOut: date(2025, 11, 8), GrossAmount: dec("100")},
			// Outside the window entirely.
			{ID: "res-d", PropertyID: 101, Source: "VRBO", Status: "confirmed",
				CheckIn: date(2025, 9, 1), CheckOut: date(2025, 9, 5), GrossAmount: dec("100")},
		},
		Configs:     map[int64]ListingConfig{101: pmConfig()},
		Period:      novemberPeriod(CalculationCheckout),
		PropertyIDs: []int64{101},
	}
	stmt, err := newTestEngine().Compute(in)
	assert.Nil(t, stmt)
	assert.ErrorIs(t, err, ErrNoActivity)
}

// An overlapping stay with no in-period checkout is activity: the
// statement is produced (with zero revenue) and flagged for conversion,
// not skipped.
func TestComputeOverlapOnlyProducesFlaggedStatement(t *testing.T) {
	in := Input{
		Reservations: []Reservation{
			{ID: "res-long", PropertyID: 101, Source: "VRBO", Status: "confirmed",
				CheckIn: date(2025, 10, 15), CheckOut: date(2025, 12, 15),
				HasDetailedFinance: true, ClientRevenue: dec("6100")},
		},
		Configs:     map[int64]ListingConfig{101: pmConfig()},
		Period:      novemberPeriod(CalculationCheckout),
		PropertyIDs: []int64{101},
	}
	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)

	assert.Empty(t, stmt.Lines)
	assert.True(t, stmt.TotalRevenue.IsZero())
	assert.True(t, stmt.Advice.Flagged)
	assert.Equal(t, 1, stmt.Advice.OverlapCount)
}

func TestComputeInvalidPeriod(t *testing.T) {
	in := singlePropertyInput()
	in.Period = Period{Start: date(2025, 11, 30), End: date(2025, 11, 1), Calculation: CalculationCheckout}
	_, err := newTestEngine().Compute(in)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestComputeNoProperties(t *testing.T) {
	in := singlePropertyInput()
	in.PropertyIDs = nil
	_, err := newTestEngine().Compute(in)
	assert.ErrorIs(t, err, ErrNoProperties)
}

func TestComputeMissingConfigUsesDefaults(t *testing.T) {
	in := singlePropertyInput()
	in.Configs = nil
	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)
	// Default PM fee is 15%, so totals match the configured run.
	assert.True(t, stmt.PMCommission.Equal(dec("240")), "commission %s", stmt.PMCommission)
}

func TestComputeResortFeeVisibility(t *testing.T) {
	in := singlePropertyInput()
	in.Reservations[0].FeeItems = []FeeItem{{Name: "Resort Fee", Type: "fee", Amount: dec("30")}}

	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)
	assert.False(t, stmt.ShowResortFee, "hidden without guest-paid damage coverage")
	assert.True(t, stmt.ResortFeeTotal.Equal(dec("30")))

	cfg := pmConfig()
	cfg.GuestPaidDamageCoverage = true
	in.Configs[101] = cfg
	stmt, err = newTestEngine().Compute(in)
	require.NoError(t, err)
	assert.True(t, stmt.ShowResortFee)
	// Informational only: payout ignores it.
	assert.True(t, stmt.OwnerPayout.Equal(dec("1085")), "payout %s", stmt.OwnerPayout)
}

func TestComputeCalendarModeProratesTotals(t *testing.T) {
	in := Input{
		Reservations: []Reservation{{
			ID: "res-long", PropertyID: 101, Source: "VRBO", Status: "confirmed",
			CheckIn: date(2025, 10, 22), CheckOut: date(2025, 11, 11),
			HasDetailedFinance: true, ClientRevenue: dec("1000"), ClientTaxResponsibility: dec("100"),
		}},
		Configs:     map[int64]ListingConfig{101: pmConfig()},
		Period:      novemberPeriod(CalculationCalendar),
		PropertyIDs: []int64{101},
	}
	stmt, err := newTestEngine().Compute(in)
	require.NoError(t, err)

	assert.True(t, stmt.TotalRevenue.Equal(dec("500")), "revenue %s", stmt.TotalRevenue)
	assert.True(t, stmt.PMCommission.Equal(dec("75")))
	assert.True(t, stmt.Advice.Flagged, "prorated long stay carries a notice")
}
