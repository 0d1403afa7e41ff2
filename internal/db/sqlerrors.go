package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateEvent is returned when an event with the same ID was already
// stored.
var ErrDuplicateEvent = errors.New("hook event already recorded")

// ErrBusy is returned when the database stayed locked by another hook
// process for longer than the busy timeout.
var ErrBusy = errors.New("database busy")

// MapSQLError maps sqlite errors onto the package's sentinel errors. Errors
// that are not sqlite errors are returned unchanged.
func MapSQLError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {

			return fmt.Errorf("%w: %v", ErrDuplicateEvent, sqliteErr)
		}

		return fmt.Errorf("sqlite constraint error: %w", sqliteErr)

	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %v", ErrBusy, sqliteErr)

	default:
		return fmt.Errorf("sqlite error: %w", sqliteErr)
	}
}
