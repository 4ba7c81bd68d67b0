package statement

import "errors"

var (
	// ErrInvalidPeriod is returned when a period starts after it ends.
	ErrInvalidPeriod = errors.New("statement: period start after end")
	// ErrNoProperties is returned when no property ids are supplied.
	ErrNoProperties = errors.New("statement: no property ids")
	// ErrNoActivity signals the defined skip outcome: no overlapping
	// reservations and no expenses for any contributing property.
	ErrNoActivity = errors.New("statement: no activity for period")
	// ErrStatementNotFound is returned when a statement is not found.
	ErrStatementNotFound = errors.New("statement: not found")
)
