package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stayledger/internal/observability/metrics"
	statement "stayledger/internal/statement/domain"
)

const (
	StatementStatusActive = "active"
	StatementStatusVoided = "voided"
)

// StatementRecord is the persisted form of a computed statement plus
// its workflow metadata. Records are never patched in place: a
// regeneration voids the previous version and inserts a fresh one.
type StatementRecord struct {
	ID             string
	OwnerID        string
	PropertyIDs    []int64
	PropertySetKey string
	Combined       bool

	PeriodStart time.Time
	PeriodEnd   time.Time
	Calculation statement.CalculationType

	Status     string
	Version    int
	VoidReason string

	TotalRevenue   decimal.Decimal
	TotalExpenses  decimal.Decimal
	PMCommission   decimal.Decimal
	TechFees       decimal.Decimal
	InsuranceFees  decimal.Decimal
	Adjustments    decimal.Decimal
	OwnerPayout    decimal.Decimal
	ResortFeeTotal decimal.Decimal
	ShowResortFee  bool

	ConversionNotice string

	CreatedAt time.Time
	UpdatedAt time.Time
	VoidedAt  time.Time
}

// GenerateRequest describes one statement generation.
type GenerateRequest struct {
	OwnerRef    string
	PropertyIDs []int64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Calculation statement.CalculationType
	Adjustments decimal.Decimal
	Regenerate  bool
}

// StatementService orchestrates statement workflows: it loads inputs
// through reader ports, runs the pure engine, and persists the result.
type StatementService struct {
	engine       *statement.Engine
	repo         StatementRepository
	reservations ReservationReader
	expenses     ExpenseReader
	configs      ListingConfigReader
	owners       OwnerResolver
	clock        Clock
}

// NewStatementService constructs a service.
func NewStatementService(
	engine *statement.Engine,
	repo StatementRepository,
	reservations ReservationReader,
	expenses ExpenseReader,
	configs ListingConfigReader,
	owners OwnerResolver,
	clock Clock,
) (*StatementService, error) {
	if engine == nil {
		return nil, errors.New("statement service: nil engine")
	}
	if repo == nil {
		return nil, errors.New("statement service: nil repository")
	}
	if reservations == nil {
		return nil, errors.New("statement service: nil reservation reader")
	}
	if expenses == nil {
		return nil, errors.New("statement service: nil expense reader")
	}
	if configs == nil {
		return nil, errors.New("statement service: nil listing config reader")
	}
	if owners == nil {
		return nil, errors.New("statement service: nil owner resolver")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &StatementService{
		engine:       engine,
		repo:         repo,
		reservations: reservations,
		expenses:     expenses,
		configs:      configs,
		owners:       owners,
		clock:        clock,
	}, nil
}

// Generate computes and persists a statement. Without Regenerate an
// existing active statement for the same property set, period and
// calculation is returned as-is. With Regenerate the previous version
// is voided and the statement recomputed from scratch. Propagates
// statement.ErrNoActivity when there is nothing to bill.
func (s *StatementService) Generate(ctx context.Context, req GenerateRequest) (*StatementRecord, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementGenerate(result, time.Since(start))
	}()

	rec, err := s.generate(ctx, req)
	if err != nil && !errors.Is(err, statement.ErrNoActivity) {
		result = metrics.ResultError
	}
	return rec, err
}

func (s *StatementService) generate(ctx context.Context, req GenerateRequest) (*StatementRecord, error) {
	period := statement.Period{Start: req.PeriodStart, End: req.PeriodEnd, Calculation: req.Calculation}
	if period.Calculation == "" {
		period.Calculation = statement.CalculationCheckout
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	propertyIDs := req.PropertyIDs
	if len(propertyIDs) == 0 {
		owner, err := s.owners.Resolve(ctx, req.OwnerRef)
		if err != nil {
			return nil, err
		}
		propertyIDs = owner.PropertyIDs
	}
	if len(propertyIDs) == 0 {
		return nil, statement.ErrNoProperties
	}
	setKey := PropertySetKey(propertyIDs)

	if !req.Regenerate {
		existing, err := s.repo.FindLatestActive(ctx, setKey, period.Start, period.Calculation)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	reservations, err := s.reservations.ListOverlapping(ctx, propertyIDs, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListInWindow(ctx, propertyIDs, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	configs, err := s.configs.GetConfigs(ctx, propertyIDs)
	if err != nil {
		return nil, err
	}

	computed, err := s.engine.Compute(statement.Input{
		Reservations: reservations,
		Expenses:     expenses,
		Configs:      configs,
		Period:       period,
		PropertyIDs:  propertyIDs,
		Adjustments:  req.Adjustments,
	})
	if err != nil {
		return nil, err
	}
	if computed.Advice.Flagged {
		metrics.IncConversionAdvice(string(period.Calculation))
	}

	now := s.clock.Now().UTC()
	if req.Regenerate {
		existing, err := s.repo.FindLatestActive(ctx, setKey, period.Start, period.Calculation)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := s.repo.MarkVoided(ctx, existing.ID, "superseded by regeneration", now); err != nil {
				return nil, err
			}
		}
	}
	version, err := s.repo.NextVersion(ctx, setKey, period.Start, period.Calculation)
	if err != nil {
		return nil, err
	}

	owner, err := s.owners.Resolve(ctx, req.OwnerRef)
	if err != nil {
		return nil, err
	}

	rec := &StatementRecord{
		ID:               buildStatementID(setKey, period, version),
		OwnerID:          owner.ID,
		PropertyIDs:      computed.PropertyIDs,
		PropertySetKey:   setKey,
		Combined:         computed.Combined,
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		Calculation:      period.Calculation,
		Status:           StatementStatusActive,
		Version:          version,
		TotalRevenue:     computed.TotalRevenue,
		TotalExpenses:    computed.TotalExpenses,
		PMCommission:     computed.PMCommission,
		TechFees:         computed.TechFees,
		InsuranceFees:    computed.InsuranceFees,
		Adjustments:      computed.Adjustments,
		OwnerPayout:      computed.OwnerPayout,
		ResortFeeTotal:   computed.ResortFeeTotal,
		ShowResortFee:    computed.ShowResortFee,
		ConversionNotice: computed.Advice.Message,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateWithDetails(ctx, rec, computed.Lines, computed.Costs, computed.Upsells); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a statement with its lines and expense breakdowns.
func (s *StatementService) Get(ctx context.Context, id string) (*StatementRecord, []statement.Line, []statement.Expense, []statement.Expense, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil, nil, statement.ErrStatementNotFound
	}
	lines, costs, upsells, err := s.repo.ListDetails(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return rec, lines, costs, upsells, nil
}

// List returns all versions for a property set, period and calculation.
func (s *StatementService) List(ctx context.Context, propertyIDs []int64, periodStart time.Time, calc statement.CalculationType) ([]StatementRecord, error) {
	if len(propertyIDs) == 0 {
		return nil, statement.ErrNoProperties
	}
	if calc == "" {
		calc = statement.CalculationCheckout
	}
	return s.repo.ListBySetAndPeriod(ctx, PropertySetKey(propertyIDs), periodStart, calc)
}

// Void voids a statement.
func (s *StatementService) Void(ctx context.Context, id, reason string) (*StatementRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, statement.ErrStatementNotFound
	}
	if rec.Status == StatementStatusVoided {
		return rec, nil
	}
	now := s.clock.Now().UTC()
	if err := s.repo.MarkVoided(ctx, id, reason, now); err != nil {
		return nil, err
	}
	rec.Status = StatementStatusVoided
	rec.VoidReason = reason
	rec.VoidedAt = now
	rec.UpdatedAt = now
	return rec, nil
}

// PropertySetKey builds the canonical order-independent key for a
// property set, so regenerated combined statements land on the same
// lineage regardless of input order.
func PropertySetKey(propertyIDs []int64) string {
	unique := make(map[int64]struct{}, len(propertyIDs))
	ids := make([]int64, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "+")
}

func buildStatementID(setKey string, period statement.Period, version int) string {
	base := setKey + "|" + period.Start.Format("2006-01-02") + "|" + string(period.Calculation) + "|" + strconv.Itoa(version)
	hash := sha256.Sum256([]byte(base))
	return "stmt-" + hex.EncodeToString(hash[:8])
}
