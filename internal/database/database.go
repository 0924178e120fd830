package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g., duplicate username).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")

	// ErrUnsupportedDriver indicates a driver name that Open does not know.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Database defines the interface for SurrealDB-style query access. The SQL
// drivers are reached through *gorm.DB instead.
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Driver string
	DSN    string

	// SurrealDB connection
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

// isUniqueViolation recognises unique constraint failures from drivers that
// gorm cannot translate (mattn and modernc sqlite, SurrealDB).
func isUniqueViolation(err error) bool {
	if isSQLite3Unique(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "already contains")
}

// SchemaMigrator is implemented by the gorm and SurrealDB migrators
type SchemaMigrator interface {
	Up(ctx context.Context) ([]string, error)
	Down(ctx context.Context, steps int) ([]string, error)
	Status(ctx context.Context) ([]MigrationStatus, error)
}

var (
	_ SchemaMigrator = (*Migrator)(nil)
	_ SchemaMigrator = (*SurrealMigrator)(nil)
	_ Database       = (*SurrealDB)(nil)
)
