package storage

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"wallet/internal/core"
)

// classify wraps a driver error into the core error families. UNIQUE, CHECK,
// FOREIGN KEY and NOT NULL failures share the SQLITE_CONSTRAINT primary code.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrConstraint) || errors.Is(err, core.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isConstraint(err) {
		return fmt.Errorf("%s: %w: %w", op, core.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
