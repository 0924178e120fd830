// Package database provides database connectivity for the recipe book API.
//
// Two backends are supported:
//
//   - Relational, through gorm: SQLite via modernc.org/sqlite ("sqlite", the
//     default), SQLite via mattn/go-sqlite3 ("sqlite3"), or PostgreSQL.
//   - SurrealDB, through the Database interface and SurrealDB client.
//
// # Opening
//
//	db, err := database.OpenGorm(ctx, database.Config{Driver: "sqlite", DSN: "data/recipebook.db"}, logger)
//
//	sdb := database.NewSurrealDB(cfg)
//	err := sdb.Connect(ctx)
//
// # Migrations
//
// Both backends carry the same versioned history, recorded in the
// schema_migrations table. Migrator runs gorm migrations in per-migration
// transactions; SurrealMigrator runs the embedded surql/*.surql scripts
// through AtomicBatch. Both satisfy SchemaMigrator.
//
// # Error Types
//
// Standard error types for data operations:
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
//
// Classify maps driver errors onto these sentinels.
package database
