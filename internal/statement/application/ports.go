package application

import (
	"context"
	"time"

	statement "stayledger/internal/statement/domain"
)

// ReservationReader loads reservations whose stay overlaps a window.
// The engine applies the exact period-membership rules afterwards.
type ReservationReader interface {
	ListOverlapping(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Reservation, error)
}

// ExpenseReader loads expenses dated within a window for a set of
// properties, including rows referenced by alternate listing-system ids.
type ExpenseReader interface {
	ListInWindow(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Expense, error)
}

// ListingConfigReader loads per-property configuration. Missing
// properties are simply absent from the map; the engine falls back to
// documented defaults.
type ListingConfigReader interface {
	GetConfigs(ctx context.Context, propertyIDs []int64) (map[int64]statement.ListingConfig, error)
}

// Owner is the canonical owner record resolved before computation.
type Owner struct {
	ID          string
	Name        string
	PropertyIDs []int64
}

// OwnerResolver maps an externally supplied owner reference ("1", 1,
// "default", ...) to a canonical owner, falling back to the default
// owner for unrecognized references.
type OwnerResolver interface {
	Resolve(ctx context.Context, ref string) (*Owner, error)
}

// StatementRepository persists computed statements. Enforces at most
// one non-voided statement per (property-set key, period, calculation).
type StatementRepository interface {
	FindLatestActive(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (*StatementRecord, error)
	NextVersion(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (int, error)
	CreateWithDetails(ctx context.Context, rec *StatementRecord, lines []statement.Line, costs, upsells []statement.Expense) error
	GetByID(ctx context.Context, id string) (*StatementRecord, error)
	ListDetails(ctx context.Context, id string) ([]statement.Line, []statement.Expense, []statement.Expense, error)
	ListBySetAndPeriod(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) ([]StatementRecord, error)
	MarkVoided(ctx context.Context, id, reason string, at time.Time) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
