package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrOwnerMismatch indicates the statement belongs to a different owner.
	ErrOwnerMismatch = errors.New("owner mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// StatementAccessChecker validates statement ownership.
type StatementAccessChecker interface {
	EnsureStatementOwner(ctx context.Context, ownerRef, statementID string) error
}

// StatementOwnerChecker checks statement ownership against the owners
// and statements tables.
type StatementOwnerChecker struct {
	db *sql.DB
}

// NewStatementOwnerChecker constructs a StatementOwnerChecker.
func NewStatementOwnerChecker(db *sql.DB) *StatementOwnerChecker {
	if db == nil {
		return nil
	}
	return &StatementOwnerChecker{db: db}
}

// EnsureStatementOwner verifies the statement belongs to the owner
// identified by ref (canonical id or external reference).
func (c *StatementOwnerChecker) EnsureStatementOwner(ctx context.Context, ownerRef, statementID string) error {
	if c == nil || c.db == nil {
		return nil
	}
	ownerRef = strings.TrimSpace(ownerRef)
	if ownerRef == "" || statementID == "" {
		return nil
	}

	var ownerID string
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM owners WHERE id = $1 OR external_ref = $1 LIMIT 1`, ownerRef).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var statementOwnerID string
	err = c.db.QueryRowContext(ctx,
		`SELECT owner_id FROM owner_statements WHERE id = $1`, statementID).Scan(&statementOwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if statementOwnerID != ownerID {
		return ErrOwnerMismatch
	}
	return nil
}
