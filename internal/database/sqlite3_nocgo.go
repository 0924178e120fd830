//go:build !cgo

package database

// isSQLite3Unique always reports false; the cgo driver is unavailable.
func isSQLite3Unique(error) bool { return false }
