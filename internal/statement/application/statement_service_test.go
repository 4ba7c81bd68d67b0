package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
	"stayledger/internal/statement/infrastructure/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixtureService(t *testing.T) (*application.StatementService, *memory.StatementRepository) {
	t.Helper()
	repo := memory.NewStatementRepository()
	reservations := memory.ReservationReader{Reservations: []statement.Reservation{
		{
			ID: "res-1", PropertyID: 101, Source: "VRBO", Status: "confirmed",
			CheckIn: day(2025, 11, 10), CheckOut: day(2025, 11, 15),
			HasDetailedFinance: true, ClientRevenue: dec("1000"), ClientTaxResponsibility: dec("100"),
		},
		{
			ID: "res-2", PropertyID: 202, Source: "Airbnb", Status: "confirmed",
			CheckIn: day(2025, 11, 18), CheckOut: day(2025, 11, 22),
			HasDetailedFinance: true, ClientRevenue: dec("600"),
		},
	}}
	expenses := memory.ExpenseReader{Expenses: []statement.Expense{
		{ID: "e1", PropertyID: 101, Category: "maintenance", Amount: dec("-200"), Date: day(2025, 11, 6)},
	}}
	configs := memory.ListingConfigReader{Configs: map[int64]statement.ListingConfig{
		101: {PMFeePercent: decimal.NewFromInt(15)},
		202: {PMFeePercent: decimal.NewFromInt(15)},
	}}
	owners := memory.OwnerResolver{
		Owners: map[string]application.Owner{
			"1": {ID: "owner-1", Name: "First Owner", PropertyIDs: []int64{101, 202}},
		},
		Default: application.Owner{ID: "owner-default", Name: "Default Owner", PropertyIDs: []int64{101}},
	}

	svc, err := application.NewStatementService(
		statement.NewEngine(statement.DefaultFeeSchedule()),
		repo,
		reservations,
		expenses,
		configs,
		owners,
		&fixedClock{now: day(2025, 12, 1)},
	)
	require.NoError(t, err)
	return svc, repo
}

func novemberRequest(regenerate bool) application.GenerateRequest {
	return application.GenerateRequest{
		OwnerRef:    "1",
		PropertyIDs: []int64{101, 202},
		PeriodStart: day(2025, 11, 1),
		PeriodEnd:   day(2025, 11, 30),
		Calculation: statement.CalculationCheckout,
		Regenerate:  regenerate,
	}
}

func TestGenerateCreatesStatement(t *testing.T) {
	svc, _ := newFixtureService(t)

	rec, err := svc.Generate(context.Background(), novemberRequest(false))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, application.StatementStatusActive, rec.Status)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, "owner-1", rec.OwnerID)
	assert.Equal(t, []int64{101, 202}, rec.PropertyIDs)
	assert.Equal(t, "101+202", rec.PropertySetKey)
	assert.True(t, rec.Combined)
	assert.True(t, rec.TotalRevenue.Equal(dec("1600")), "revenue %s", rec.TotalRevenue)
	assert.True(t, rec.TechFees.Equal(dec("100")))
	assert.True(t, rec.InsuranceFees.Equal(dec("50")))
	// 1600 - 200 - 240 - 100 - 50
	assert.True(t, rec.OwnerPayout.Equal(dec("1010")), "payout %s", rec.OwnerPayout)
}

func TestGenerateIdempotentWithoutRegenerate(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)
	second, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Version, second.Version)
}

func TestRegenerateVoidsPreviousVersion(t *testing.T) {
	svc, repo := newFixtureService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)

	second, err := svc.Generate(ctx, novemberRequest(true))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, application.StatementStatusActive, second.Status)
	// Same logical inputs, same property set and totals.
	assert.Equal(t, first.PropertyIDs, second.PropertyIDs)
	assert.True(t, first.OwnerPayout.Equal(second.OwnerPayout))

	voided, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatementStatusVoided, voided.Status)
}

func TestRegenerateReproducesPropertySetFromUnorderedInput(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	req := novemberRequest(false)
	req.PropertyIDs = []int64{202, 101}
	first, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	req = novemberRequest(true)
	req.PropertyIDs = []int64{101, 202}
	second, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.PropertySetKey, second.PropertySetKey)
	assert.Equal(t, first.PropertyIDs, second.PropertyIDs)
}

func TestGenerateSkipsWhenNoActivity(t *testing.T) {
	svc, _ := newFixtureService(t)

	req := novemberRequest(false)
	req.PeriodStart = day(2026, 3, 1)
	req.PeriodEnd = day(2026, 3, 31)

	rec, err := svc.Generate(context.Background(), req)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, statement.ErrNoActivity)
}

func TestGenerateFallsBackToOwnerProperties(t *testing.T) {
	svc, _ := newFixtureService(t)

	req := novemberRequest(false)
	req.PropertyIDs = nil
	req.OwnerRef = "unknown-owner"

	rec, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	// Unknown refs resolve to the default owner, whose only property is 101.
	assert.Equal(t, "owner-default", rec.OwnerID)
	assert.Equal(t, []int64{101}, rec.PropertyIDs)
	assert.False(t, rec.Combined)
}

func TestGenerateRejectsInvalidPeriod(t *testing.T) {
	svc, _ := newFixtureService(t)

	req := novemberRequest(false)
	req.PeriodStart = day(2025, 11, 30)
	req.PeriodEnd = day(2025, 11, 1)

	_, err := svc.Generate(context.Background(), req)
	assert.ErrorIs(t, err, statement.ErrInvalidPeriod)
}

func TestVoidStatement(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	rec, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)

	voided, err := svc.Void(ctx, rec.ID, "owner dispute")
	require.NoError(t, err)
	assert.Equal(t, application.StatementStatusVoided, voided.Status)
	assert.Equal(t, "owner dispute", voided.VoidReason)

	// Voiding again is a no-op.
	again, err := svc.Void(ctx, rec.ID, "other")
	require.NoError(t, err)
	assert.Equal(t, application.StatementStatusVoided, again.Status)
}

func TestGetReturnsDetails(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	rec, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)

	got, lines, costs, upsells, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Len(t, lines, 2)
	assert.Len(t, costs, 1)
	assert.Empty(t, upsells)
}

func TestGetUnknownStatement(t *testing.T) {
	svc, _ := newFixtureService(t)
	_, _, _, _, err := svc.Get(context.Background(), "stmt-missing")
	assert.ErrorIs(t, err, statement.ErrStatementNotFound)
}

func TestListVersions(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	_, err := svc.Generate(ctx, novemberRequest(false))
	require.NoError(t, err)
	_, err = svc.Generate(ctx, novemberRequest(true))
	require.NoError(t, err)

	records, err := svc.List(ctx, []int64{202, 101}, day(2025, 11, 1), statement.CalculationCheckout)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Version)
	assert.Equal(t, 2, records[1].Version)
}
