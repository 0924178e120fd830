package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Registers the pure Go "sqlite" database/sql driver. gorm.io/driver/sqlite
	// already pulls in mattn/go-sqlite3 under the "sqlite3" name.
	_ "modernc.org/sqlite"
)

// SQL driver names accepted by OpenGorm
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
)

// SlowQueryThreshold is the duration above which queries are logged at warn level
const SlowQueryThreshold = 200 * time.Millisecond

// OpenGorm opens a relational database for the configured driver and
// verifies the connection.
func OpenGorm(ctx context.Context, cfg Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if cfg.Driver != DriverPostgres {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	log.Info("database opened",
		slog.String("component", "database"),
		slog.String("driver", cfg.Driver),
	)
	return db, nil
}

// CloseGorm closes the underlying connection pool
func CloseGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverSQLite3:
		dsn, err := sqliteDSN(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return sqlite.New(sqlite.Config{DriverName: cfg.Driver, DSN: dsn}), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// sqliteDSN creates the parent directory of a file database and appends the
// pragmas each driver needs: foreign keys, WAL and a busy timeout. A DSN
// that already carries query parameters is used as-is.
func sqliteDSN(driver, dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("sqlite DSN is empty")
	}
	if strings.Contains(dsn, "?") {
		return dsn, nil
	}

	path := strings.TrimPrefix(dsn, "file:")
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	if driver == DriverSQLite {
		return dsn + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	}
	return dsn + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", nil
}

// GormLogger routes gorm's logging through slog
type GormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
}

// NewGormLogger creates a gorm logger writing to log
func NewGormLogger(log *slog.Logger) *GormLogger {
	return &GormLogger{log: log.With(slog.String("component", "gorm")), level: logger.Warn}
}

// LogMode implements logger.Interface
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements logger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Warn implements logger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Error implements logger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace implements logger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.ErrorContext(ctx, "query failed",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > SlowQueryThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.DebugContext(ctx, "query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}
