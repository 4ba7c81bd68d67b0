package memory

import (
	"context"
	"sync"
	"time"

	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

type storedStatement struct {
	record  application.StatementRecord
	lines   []statement.Line
	costs   []statement.Expense
	upsells []statement.Expense
}

// StatementRepository is an in-memory statement store for tests.
type StatementRepository struct {
	mu   sync.RWMutex
	data map[string]*storedStatement
}

// NewStatementRepository constructs a repository.
func NewStatementRepository() *StatementRepository {
	return &StatementRepository{data: make(map[string]*storedStatement)}
}

type lineageKey struct {
	setKey      string
	periodStart time.Time
	calc        statement.CalculationType
}

// FindLatestActive returns the highest-version active statement for a lineage.
func (r *StatementRepository) FindLatestActive(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (*application.StatementRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *application.StatementRecord
	for _, stored := range r.data {
		rec := stored.record
		if !matchesLineage(rec, lineageKey{setKey, periodStart, calc}) || rec.Status != application.StatementStatusActive {
			continue
		}
		if latest == nil || rec.Version > latest.Version {
			copied := rec
			latest = &copied
		}
	}
	return latest, nil
}

// NextVersion returns max(version)+1 for a lineage.
func (r *StatementRepository) NextVersion(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, stored := range r.data {
		rec := stored.record
		if matchesLineage(rec, lineageKey{setKey, periodStart, calc}) && rec.Version > max {
			max = rec.Version
		}
	}
	return max + 1, nil
}

// CreateWithDetails stores the record and its breakdowns.
func (r *StatementRepository) CreateWithDetails(ctx context.Context, rec *application.StatementRecord, lines []statement.Line, costs, upsells []statement.Expense) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.ID] = &storedStatement{
		record:  *rec,
		lines:   append([]statement.Line(nil), lines...),
		costs:   append([]statement.Expense(nil), costs...),
		upsells: append([]statement.Expense(nil), upsells...),
	}
	return nil
}

// GetByID fetches a record.
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*application.StatementRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	copied := stored.record
	return &copied, nil
}

// ListDetails returns the stored breakdowns.
func (r *StatementRepository) ListDetails(ctx context.Context, id string) ([]statement.Line, []statement.Expense, []statement.Expense, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.data[id]
	if !ok {
		return nil, nil, nil, statement.ErrStatementNotFound
	}
	return append([]statement.Line(nil), stored.lines...),
		append([]statement.Expense(nil), stored.costs...),
		append([]statement.Expense(nil), stored.upsells...),
		nil
}

// ListBySetAndPeriod lists all versions for a lineage, oldest first.
func (r *StatementRepository) ListBySetAndPeriod(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) ([]application.StatementRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []application.StatementRecord
	for _, stored := range r.data {
		if matchesLineage(stored.record, lineageKey{setKey, periodStart, calc}) {
			result = append(result, stored.record)
		}
	}
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].Version < result[j-1].Version; j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

// MarkVoided voids a record.
func (r *StatementRepository) MarkVoided(ctx context.Context, id, reason string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[id]
	if !ok {
		return statement.ErrStatementNotFound
	}
	stored.record.Status = application.StatementStatusVoided
	stored.record.VoidReason = reason
	stored.record.VoidedAt = at
	stored.record.UpdatedAt = at
	return nil
}

func matchesLineage(rec application.StatementRecord, key lineageKey) bool {
	return rec.PropertySetKey == key.setKey &&
		rec.PeriodStart.Equal(key.periodStart) &&
		rec.Calculation == key.calc
}

// ReservationReader serves reservations from a fixed slice.
type ReservationReader struct {
	Reservations []statement.Reservation
}

// ListOverlapping returns reservations overlapping the window for the properties.
func (r ReservationReader) ListOverlapping(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Reservation, error) {
	_ = ctx
	window := statement.Period{Start: start, End: end}
	wanted := make(map[int64]struct{}, len(propertyIDs))
	for _, id := range propertyIDs {
		wanted[id] = struct{}{}
	}
	var result []statement.Reservation
	for _, res := range r.Reservations {
		if _, ok := wanted[res.PropertyID]; !ok {
			continue
		}
		if window.Overlaps(res.CheckIn, res.CheckOut) {
			result = append(result, res)
		}
	}
	return result, nil
}

// ExpenseReader serves expenses from a fixed slice.
type ExpenseReader struct {
	Expenses []statement.Expense
}

// ListInWindow returns expenses dated within the window. Property
// matching is left to the engine because expenses may reference the
// alternate listing-system id.
func (r ExpenseReader) ListInWindow(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Expense, error) {
	_ = ctx
	_ = propertyIDs
	window := statement.Period{Start: start, End: end}
	var result []statement.Expense
	for _, e := range r.Expenses {
		if window.ContainsDay(e.Date) {
			result = append(result, e)
		}
	}
	return result, nil
}

// ListingConfigReader serves configs from a fixed map.
type ListingConfigReader struct {
	Configs map[int64]statement.ListingConfig
}

// GetConfigs returns the configs present for the requested properties.
func (r ListingConfigReader) GetConfigs(ctx context.Context, propertyIDs []int64) (map[int64]statement.ListingConfig, error) {
	_ = ctx
	result := make(map[int64]statement.ListingConfig, len(propertyIDs))
	for _, id := range propertyIDs {
		if cfg, ok := r.Configs[id]; ok {
			result[id] = cfg
		}
	}
	return result, nil
}

// OwnerResolver resolves owner references against a fixed set with a
// default fallback.
type OwnerResolver struct {
	Owners  map[string]application.Owner
	Default application.Owner
}

// Resolve returns the matching owner or the default for unknown refs.
func (r OwnerResolver) Resolve(ctx context.Context, ref string) (*application.Owner, error) {
	_ = ctx
	if owner, ok := r.Owners[ref]; ok {
		copied := owner
		return &copied, nil
	}
	copied := r.Default
	return &copied, nil
}
