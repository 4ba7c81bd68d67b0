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

// ReservationReader loads reservations from the ingestion tables.
type ReservationReader struct {
	db *sql.DB
}

// NewReservationReader constructs a reader.
func NewReservationReader(db *sql.DB) *ReservationReader {
	return &ReservationReader{db: db}
}

// ListOverlapping returns reservations whose stay overlaps the window.
// Check-out is exclusive, so the overlap test is check_in <= end and
// check_out > start.
func (r *ReservationReader) ListOverlapping(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reservation reader: nil db")
	}
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, source, status, check_in, check_out,
	base_rate, cleaning_fee, other_fees, platform_fees, gross_amount,
	has_detailed_finance, client_revenue, client_tax_responsibility, resort_fee
FROM reservations
WHERE property_id IN (`+idPlaceholders(propertyIDs, 2)+`)
	AND check_in <= $1 AND check_out > $2
ORDER BY check_in ASC, id ASC`, append([]any{end, start}, idArgs(propertyIDs)...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []statement.Reservation
	ids := make([]string, 0, 16)
	for rows.Next() {
		var res statement.Reservation
		if err := rows.Scan(
			&res.ID, &res.PropertyID, &res.Source, &res.Status,
			&res.CheckIn, &res.CheckOut,
			&res.BaseRate, &res.CleaningFee, &res.OtherFees, &res.PlatformFees, &res.GrossAmount,
			&res.HasDetailedFinance, &res.ClientRevenue, &res.ClientTaxResponsibility, &res.ResortFee,
		); err != nil {
			return nil, err
		}
		res.CheckIn = res.CheckIn.UTC()
		res.CheckOut = res.CheckOut.UTC()
		result = append(result, res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachFeeItems(ctx, result, ids); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ReservationReader) attachFeeItems(ctx context.Context, reservations []statement.Reservation, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT reservation_id, name, fee_type, amount
FROM reservation_fee_items
WHERE reservation_id IN (`+strings.Join(placeholders, ",")+`)
ORDER BY reservation_id ASC, name ASC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byReservation := make(map[string][]statement.FeeItem)
	for rows.Next() {
		var reservationID string
		var item statement.FeeItem
		if err := rows.Scan(&reservationID, &item.Name, &item.Type, &item.Amount); err != nil {
			return err
		}
		byReservation[reservationID] = append(byReservation[reservationID], item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range reservations {
		reservations[i].FeeItems = byReservation[reservations[i].ID]
	}
	return nil
}

// ExpenseReader loads expenses from the ingestion tables.
type ExpenseReader struct {
	db *sql.DB
}

// NewExpenseReader constructs a reader.
func NewExpenseReader(db *sql.DB) *ExpenseReader {
	return &ExpenseReader{db: db}
}

// ListInWindow returns expenses dated within the window. Rows are not
// filtered by property here: expenses may reference the alternate
// listing-system id, which only the engine can match against the
// listing configuration.
func (r *ExpenseReader) ListInWindow(ctx context.Context, propertyIDs []int64, start, end time.Time) ([]statement.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("expense reader: nil db")
	}
	_ = propertyIDs
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, listing_id, description, category, expense_type,
	amount, expense_date, ll_cover
FROM expenses
WHERE expense_date >= $1 AND expense_date <= $2
ORDER BY expense_date ASC, id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []statement.Expense
	for rows.Next() {
		var e statement.Expense
		var propertyID sql.NullInt64
		var listingID sql.NullString
		var llCover sql.NullString
		if err := rows.Scan(&e.ID, &propertyID, &listingID, &e.Description,
			&e.Category, &e.Type, &e.Amount, &e.Date, &llCover); err != nil {
			return nil, err
		}
		if propertyID.Valid {
			e.PropertyID = propertyID.Int64
		}
		if listingID.Valid {
			e.ListingID = listingID.String
		}
		// ll_cover arrives as raw text from upstream sync; the
		// tri-state parse happens here, at the ingestion boundary.
		if llCover.Valid {
			e.Coverage = statement.ParseCoverage(llCover.String)
		}
		e.Date = e.Date.UTC()
		result = append(result, e)
	}
	return result, rows.Err()
}

// ListingConfigReader loads per-property configuration.
type ListingConfigReader struct {
	db *sql.DB
}

// NewListingConfigReader constructs a reader.
func NewListingConfigReader(db *sql.DB) *ListingConfigReader {
	return &ListingConfigReader{db: db}
}

// GetConfigs returns configs for the properties that have one. Missing
// rows are simply absent; the engine applies defaults.
func (r *ListingConfigReader) GetConfigs(ctx context.Context, propertyIDs []int64) (map[int64]statement.ListingConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("listing config reader: nil db")
	}
	if len(propertyIDs) == 0 {
		return map[int64]statement.ListingConfig{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT property_id, alt_listing_id, pm_fee_percent,
	cleaning_fee_pass_through, cohost_on_airbnb, disregard_tax,
	airbnb_pass_through_tax, guest_paid_damage_coverage
FROM listing_configs
WHERE property_id IN (`+idPlaceholders(propertyIDs, 0)+`)`, idArgs(propertyIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]statement.ListingConfig, len(propertyIDs))
	for rows.Next() {
		var propertyID int64
		var cfg statement.ListingConfig
		var altListingID sql.NullString
		if err := rows.Scan(&propertyID, &altListingID, &cfg.PMFeePercent,
			&cfg.CleaningFeePassThrough, &cfg.CohostOnAirbnb, &cfg.DisregardTax,
			&cfg.AirbnbPassThroughTax, &cfg.GuestPaidDamageCoverage); err != nil {
			return nil, err
		}
		if altListingID.Valid {
			cfg.AltListingID = altListingID.String
		}
		result[propertyID] = cfg
	}
	return result, rows.Err()
}

// OwnerResolver resolves owner references against the owners table.
type OwnerResolver struct {
	db *sql.DB
}

// NewOwnerResolver constructs a resolver.
func NewOwnerResolver(db *sql.DB) *OwnerResolver {
	return &OwnerResolver{db: db}
}

// Resolve maps an external owner reference to a canonical owner. An
// unrecognized or empty reference falls back to the default owner so a
// stale caller id never blocks statement generation.
func (r *OwnerResolver) Resolve(ctx context.Context, ref string) (*application.Owner, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("owner resolver: nil db")
	}
	owner, err := r.lookup(ctx, `SELECT id, name FROM owners WHERE id = $1 OR external_ref = $1 LIMIT 1`, strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner, err = r.lookup(ctx, `SELECT id, name FROM owners ORDER BY is_default DESC, created_at ASC LIMIT 1`)
		if err != nil {
			return nil, err
		}
	}
	if owner == nil {
		return nil, errors.New("owner resolver: no owners configured")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT property_id FROM owner_properties WHERE owner_id = $1 ORDER BY property_id ASC`, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var propertyID int64
		if err := rows.Scan(&propertyID); err != nil {
			return nil, err
		}
		owner.PropertyIDs = append(owner.PropertyIDs, propertyID)
	}
	return owner, rows.Err()
}

func (r *OwnerResolver) lookup(ctx context.Context, query string, args ...any) (*application.Owner, error) {
	var owner application.Owner
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&owner.ID, &owner.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &owner, nil
}

// idPlaceholders builds $N placeholders for an id list, numbered after
// `offset` earlier parameters.
func idPlaceholders(ids []int64, offset int) string {
	parts := make([]string, len(ids))
	for i := range ids {
		parts[i] = "$" + strconv.Itoa(i+offset+1)
	}
	return strings.Join(parts, ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
