//go:build cgo

package database

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// isSQLite3Unique reports a unique or primary key violation from the cgo
// "sqlite3" driver.
func isSQLite3Unique(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
