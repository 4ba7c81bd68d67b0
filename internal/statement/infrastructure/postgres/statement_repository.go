package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

// StatementRepository persists owner statements.
type StatementRepository struct {
	db *sql.DB
}

// NewStatementRepository constructs a repository.
func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

const statementColumns = `id, owner_id, property_set_key, property_ids, combined,
	period_start, period_end, calculation, status, version, void_reason,
	total_revenue, total_expenses, pm_commission, tech_fees, insurance_fees,
	adjustments, owner_payout, resort_fee_total, show_resort_fee,
	conversion_notice, created_at, updated_at, voided_at`

// FindLatestActive returns the highest-version active statement for a lineage.
func (r *StatementRepository) FindLatestActive(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (*application.StatementRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+statementColumns+`
FROM owner_statements
WHERE property_set_key = $1 AND period_start = $2 AND calculation = $3 AND status = 'active'
ORDER BY version DESC
LIMIT 1`, setKey, periodStart, string(calc))
	return scanStatement(row)
}

// NextVersion returns the next version for a lineage.
func (r *StatementRepository) NextVersion(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("statement repo: nil db")
	}
	var maxVersion sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(version)
FROM owner_statements
WHERE property_set_key = $1 AND period_start = $2 AND calculation = $3`, setKey, periodStart, string(calc)).Scan(&maxVersion)
	if err != nil {
		return 0, err
	}
	if !maxVersion.Valid {
		return 1, nil
	}
	return int(maxVersion.Int64) + 1, nil
}

// CreateWithDetails inserts the statement, its lines and expense rows
// in one transaction.
func (r *StatementRepository) CreateWithDetails(ctx context.Context, rec *application.StatementRecord, lines []statement.Line, costs, upsells []statement.Expense) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	if rec == nil {
		return errors.New("statement repo: nil record")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO owner_statements (
	id, owner_id, property_set_key, property_ids, combined,
	period_start, period_end, calculation, status, version, void_reason,
	total_revenue, total_expenses, pm_commission, tech_fees, insurance_fees,
	adjustments, owner_payout, resort_fee_total, show_resort_fee,
	conversion_notice, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
)`,
		rec.ID, rec.OwnerID, rec.PropertySetKey, joinPropertyIDs(rec.PropertyIDs), rec.Combined,
		rec.PeriodStart, rec.PeriodEnd, string(rec.Calculation), rec.Status, rec.Version, rec.VoidReason,
		rec.TotalRevenue, rec.TotalExpenses, rec.PMCommission, rec.TechFees, rec.InsuranceFees,
		rec.Adjustments, rec.OwnerPayout, rec.ResortFeeTotal, rec.ShowResortFee,
		rec.ConversionNotice, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
INSERT INTO owner_statement_lines (
	statement_id, reservation_id, property_id, source, channel,
	check_in, check_out, revenue, pm_fee, tax, tax_class,
	cleaning_fee_pass_through, resort_fee, other_fees,
	gross_payout, payout_class, cohost_airbnb, tax_added,
	prorated, nights_in_period, total_nights
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
			rec.ID, line.ReservationID, line.PropertyID, line.Source, string(line.Channel),
			line.CheckIn, line.CheckOut, line.Revenue, line.PMFee, line.Tax, string(line.TaxClass),
			line.CleaningFeePassThrough, line.ResortFee, line.OtherFees,
			line.GrossPayout, string(line.PayoutClass), line.CohostAirbnb, line.TaxAdded,
			line.Prorated, line.NightsInPeriod, line.TotalNights)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := insertExpenses(ctx, tx, rec.ID, costs, "cost"); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertExpenses(ctx, tx, rec.ID, upsells, "upsell"); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertExpenses(ctx context.Context, tx *sql.Tx, statementID string, expenses []statement.Expense, kind string) error {
	for _, e := range expenses {
		_, err := tx.ExecContext(ctx, `
INSERT INTO owner_statement_expenses (
	statement_id, expense_id, property_id, listing_id,
	description, category, type, amount, expense_date, kind
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			statementID, e.ID, e.PropertyID, e.ListingID,
			e.Description, e.Category, e.Type, e.Amount, e.Date, kind)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches a statement.
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*application.StatementRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+statementColumns+`
FROM owner_statements
WHERE id = $1
LIMIT 1`, id)
	return scanStatement(row)
}

// ListDetails returns lines and expense rows for a statement.
func (r *StatementRepository) ListDetails(ctx context.Context, id string) ([]statement.Line, []statement.Expense, []statement.Expense, error) {
	if r == nil || r.db == nil {
		return nil, nil, nil, errors.New("statement repo: nil db")
	}
	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	costs, upsells, err := r.listExpenses(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return lines, costs, upsells, nil
}

func (r *StatementRepository) listLines(ctx context.Context, id string) ([]statement.Line, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT reservation_id, property_id, source, channel, check_in, check_out,
	revenue, pm_fee, tax, tax_class, cleaning_fee_pass_through, resort_fee,
	other_fees, gross_payout, payout_class, cohost_airbnb, tax_added,
	prorated, nights_in_period, total_nights
FROM owner_statement_lines
WHERE statement_id = $1
ORDER BY check_in ASC, reservation_id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []statement.Line
	for rows.Next() {
		var line statement.Line
		var channel, taxClass, payoutClass string
		if err := rows.Scan(
			&line.ReservationID, &line.PropertyID, &line.Source, &channel,
			&line.CheckIn, &line.CheckOut,
			&line.Revenue, &line.PMFee, &line.Tax, &taxClass,
			&line.CleaningFeePassThrough, &line.ResortFee,
			&line.OtherFees, &line.GrossPayout, &payoutClass,
			&line.CohostAirbnb, &line.TaxAdded,
			&line.Prorated, &line.NightsInPeriod, &line.TotalNights,
		); err != nil {
			return nil, err
		}
		line.Channel = statement.Channel(channel)
		line.TaxClass = statement.AmountClass(taxClass)
		line.PayoutClass = statement.AmountClass(payoutClass)
		line.CheckIn = line.CheckIn.UTC()
		line.CheckOut = line.CheckOut.UTC()
		result = append(result, line)
	}
	return result, rows.Err()
}

func (r *StatementRepository) listExpenses(ctx context.Context, id string) (costs, upsells []statement.Expense, err error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT expense_id, property_id, listing_id, description, category, type,
	amount, expense_date, kind
FROM owner_statement_expenses
WHERE statement_id = $1
ORDER BY expense_date ASC, expense_id ASC`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e statement.Expense
		var kind string
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.ListingID, &e.Description,
			&e.Category, &e.Type, &e.Amount, &e.Date, &kind); err != nil {
			return nil, nil, err
		}
		e.Date = e.Date.UTC()
		if kind == "upsell" {
			upsells = append(upsells, e)
		} else {
			costs = append(costs, e)
		}
	}
	return costs, upsells, rows.Err()
}

// ListBySetAndPeriod lists all versions for a lineage.
func (r *StatementRepository) ListBySetAndPeriod(ctx context.Context, setKey string, periodStart time.Time, calc statement.CalculationType) ([]application.StatementRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+statementColumns+`
FROM owner_statements
WHERE property_set_key = $1 AND period_start = $2 AND calculation = $3
ORDER BY version ASC`, setKey, periodStart, string(calc))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []application.StatementRecord
	for rows.Next() {
		rec, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			result = append(result, *rec)
		}
	}
	return result, rows.Err()
}

// MarkVoided voids a statement.
func (r *StatementRepository) MarkVoided(ctx context.Context, id, reason string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE owner_statements
SET status = $1, void_reason = $2, voided_at = $3, updated_at = $3
WHERE id = $4`, application.StatementStatusVoided, reason, at, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (*application.StatementRecord, error) {
	var rec application.StatementRecord
	var propertyIDs string
	var calculation string
	var voidReason sql.NullString
	var voidedAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.PropertySetKey,
		&propertyIDs,
		&rec.Combined,
		&rec.PeriodStart,
		&rec.PeriodEnd,
		&calculation,
		&rec.Status,
		&rec.Version,
		&voidReason,
		&rec.TotalRevenue,
		&rec.TotalExpenses,
		&rec.PMCommission,
		&rec.TechFees,
		&rec.InsuranceFees,
		&rec.Adjustments,
		&rec.OwnerPayout,
		&rec.ResortFeeTotal,
		&rec.ShowResortFee,
		&rec.ConversionNotice,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&voidedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Calculation = statement.CalculationType(calculation)
	rec.PropertyIDs = splitPropertyIDs(propertyIDs)
	if voidReason.Valid {
		rec.VoidReason = voidReason.String
	}
	if voidedAt.Valid {
		rec.VoidedAt = voidedAt.Time.UTC()
	}
	rec.PeriodStart = rec.PeriodStart.UTC()
	rec.PeriodEnd = rec.PeriodEnd.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func joinPropertyIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitPropertyIDs(joined string) []int64 {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		result = append(result, id)
	}
	return result
}
